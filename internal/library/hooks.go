package library

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"

	"github.com/goplus/ffbuild/internal/env"
	"github.com/goplus/ffbuild/internal/options"
	"github.com/goplus/ffbuild/internal/pathfix"
	"github.com/goplus/ffbuild/internal/runner"
	"github.com/goplus/ffbuild/pkgs/buildsys"
)

// Hook is a lifecycle callback. Hooks may mutate ctx.Lib through its Add
// methods and run commands through ctx.Run.
type Hook func(ctx *Context) error

// Hooks is the set of optional lifecycle callbacks of one library.
type Hooks struct {
	PreDependency   Hook
	PostDownload    Hook
	PreConfigure    Hook
	CustomConfigure Hook
	PostConfigure   Hook
	PostInstall     Hook

	// HasOwnConfiguration decides whether CustomConfigure replaces the
	// standard configure, compile and install steps. When nil, that is
	// the case exactly when CustomConfigure is set.
	HasOwnConfiguration func(ctx *Context) bool
}

// OwnConfiguration reports whether CustomConfigure replaces the standard
// dispatch for ctx.
func (h Hooks) OwnConfiguration(ctx *Context) bool {
	if h.HasOwnConfiguration != nil {
		return h.HasOwnConfiguration(ctx) && h.CustomConfigure != nil
	}
	return h.CustomConfigure != nil
}

// HookKey derives the hook table key from a library name by replacing every
// rune that is not a letter or digit with an underscore.
func HookKey(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, name)
}

// Context is handed to every hook.
type Context struct {
	Lib     *Library
	Options *options.Options
	Runner  runner.Runner
	Logger  *log.Logger
	// GOOS is the operating system commands are rendered for.
	GOOS string

	ctx     context.Context
	overlay env.Overlay
}

// NewContext returns a hook context for lib.
func NewContext(ctx context.Context, lib *Library, opts *options.Options, r runner.Runner, logger *log.Logger) *Context {
	if logger == nil {
		logger = log.Default()
	}
	return &Context{
		ctx:     ctx,
		Lib:     lib,
		Options: opts,
		Runner:  r,
		Logger:  logger,
		GOOS:    runtime.GOOS,
	}
}

// Ctx returns the context of the running build.
func (c *Context) Ctx() context.Context { return c.ctx }

// Setenv sets an environment variable until the library's directory scope
// exits.
func (c *Context) Setenv(key, value string) error {
	return c.overlay.Set(key, value)
}

// RevertEnv undoes every Setenv made through c.
func (c *Context) RevertEnv() {
	c.overlay.Revert()
}

// Run executes cmds in order, stopping at the first failure.
func (c *Context) Run(cmds ...runner.Command) error {
	for _, cmd := range cmds {
		if err := c.Runner.Run(c.ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// Prefix returns the shared install prefix in the form build tools expect.
func (c *Context) Prefix() string {
	return toolPath(c.GOOS, c.Options.ReleaseDir)
}

// PrefixPath joins elem onto the prefix in tool form.
func (c *Context) PrefixPath(elem ...string) string {
	return c.Prefix() + "/" + strings.Join(elem, "/")
}

// TargetPath joins elem onto the build-temp root in tool form.
func (c *Context) TargetPath(elem ...string) string {
	return toolPath(c.GOOS, c.Options.TargetDir) + "/" + strings.Join(elem, "/")
}

// Backend returns the configuration backend for kind bound to the prefix.
func (c *Context) Backend(kind buildsys.Kind) (buildsys.BuildSystem, error) {
	return buildsys.For(kind, c.Prefix(), c.GOOS)
}

// Is reports whether c targets goos.
func (c *Context) Is(goos string) bool {
	return c.GOOS == goos
}

func toolPath(goos, p string) string {
	fixed, err := pathfix.For(goos, filepath.ToSlash(p))
	if err != nil {
		return filepath.ToSlash(p)
	}
	return strings.TrimSuffix(fixed, "/")
}
