package patches

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/goplus/ffbuild/internal/library"
	"github.com/goplus/ffbuild/internal/options"
	"github.com/goplus/ffbuild/internal/runner"
)

// recordingRunner records commands instead of running them.
type recordingRunner struct {
	cmds []runner.Command
}

func (r *recordingRunner) Run(_ context.Context, c runner.Command) error {
	r.cmds = append(r.cmds, c)
	return nil
}

func (r *recordingRunner) lines() []string {
	out := make([]string, len(r.cmds))
	for i, c := range r.cmds {
		out[i] = strings.Join(append([]string{c.Name}, c.Args...), " ")
	}
	return out
}

// newContext returns a hook context for the registry library name, bound
// to this package's hook table and rooted in a temporary directory.
func newContext(t *testing.T, name, goos string, targets ...string) (*library.Context, *recordingRunner) {
	t.Helper()
	reg, err := library.LoadDefault(Table())
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	lib, ok := reg.Get(name)
	if !ok {
		t.Fatalf("%s not in registry", name)
	}
	root := t.TempDir()
	opts := &options.Options{
		Targets:    targets,
		Threads:    4,
		TargetDir:  filepath.Join(root, "targets"),
		ReleaseDir: filepath.Join(root, "release"),
		BinDir:     "bin",
	}
	r := &recordingRunner{}
	ctx := library.NewContext(context.Background(), lib, opts, r, log.New(io.Discard))
	ctx.GOOS = goos
	return ctx, r
}

// appended runs h and returns the configure params it added.
func appended(t *testing.T, ctx *library.Context, h library.Hook) []string {
	t.Helper()
	before := len(ctx.Lib.ConfigureParams())
	if err := h(ctx); err != nil {
		t.Fatalf("hook: %v", err)
	}
	return ctx.Lib.ConfigureParams()[before:]
}
