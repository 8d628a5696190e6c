package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// HTTPGetter downloads over HTTP(S).
type HTTPGetter struct {
	Client *http.Client
	// Progress draws a progress bar on stderr when it is a terminal.
	Progress bool
}

// NewHTTPGetter returns a getter using a client with a generous timeout for
// large source tarballs.
func NewHTTPGetter(progress bool) *HTTPGetter {
	return &HTTPGetter{
		Client:   &http.Client{Timeout: 30 * time.Minute},
		Progress: progress,
	}
}

// Get implements Getter.
func (g *HTTPGetter) Get(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "ffbuild")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	if g.Progress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(path.Base(req.URL.Path)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Close()
		w = io.MultiWriter(w, bar)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	return nil
}
