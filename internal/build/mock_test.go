package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/ffbuild/internal/fetch"
	"github.com/goplus/ffbuild/internal/runner"
)

// call is one command seen by recordingRunner.
type call struct {
	line string
	dir  string
}

// recordingRunner records commands instead of running them. A command whose
// line starts with a prefix in fail returns an error.
type recordingRunner struct {
	calls []call
	fail  []string
	// envKeys are captured into envSeen on every call.
	envKeys []string
	envSeen []map[string]string
}

var errCommand = errors.New("exit status 2")

func (r *recordingRunner) Run(_ context.Context, c runner.Command) error {
	wd, _ := os.Getwd()
	line := strings.Join(append([]string{c.Name}, c.Args...), " ")
	r.calls = append(r.calls, call{line: line, dir: wd})
	if len(r.envKeys) > 0 {
		seen := make(map[string]string, len(r.envKeys))
		for _, k := range r.envKeys {
			seen[k] = os.Getenv(k)
		}
		r.envSeen = append(r.envSeen, seen)
	}
	for _, p := range r.fail {
		if strings.HasPrefix(line, p) {
			return &runner.ExitError{Cmd: line, Err: errCommand}
		}
	}
	return nil
}

func (r *recordingRunner) lines() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.line
	}
	return out
}

// index returns the position of the first recorded line equal to line.
func (r *recordingRunner) index(line string) int {
	for i, c := range r.calls {
		if c.line == line {
			return i
		}
	}
	return -1
}

// fakeFetcher records fetches and fails for URLs in fail.
type fakeFetcher struct {
	specs []fetch.Spec
	fail  map[string]error
	root  string
}

func (f *fakeFetcher) Fetch(_ context.Context, spec fetch.Spec, _ string) error {
	f.specs = append(f.specs, spec)
	if err := f.fail[spec.URL]; err != nil {
		return err
	}
	if f.root != "" {
		return os.WriteFile(filepath.Join(f.root, spec.Dest), nil, 0o644)
	}
	return nil
}

func (f *fakeFetcher) urls() []string {
	out := make([]string, len(f.specs))
	for i, s := range f.specs {
		out[i] = s.URL
	}
	return out
}
