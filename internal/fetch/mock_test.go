package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
)

// fakeGetter serves body after failing the first failures calls.
type fakeGetter struct {
	body     []byte
	failures int
	calls    int
	urls     []string
}

var errFlaky = errors.New("connection reset")

func (g *fakeGetter) Get(_ context.Context, url string, w io.Writer) error {
	g.calls++
	g.urls = append(g.urls, url)
	if g.calls <= g.failures {
		w.Write([]byte("partial"))
		return errFlaky
	}
	_, err := io.Copy(w, bytes.NewReader(g.body))
	return err
}
