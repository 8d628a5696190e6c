// Package build walks the library graph and drives each library through
// fetch, configure, compile and install.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/goplus/ffbuild/internal/env"
	"github.com/goplus/ffbuild/internal/fetch"
	"github.com/goplus/ffbuild/internal/library"
	"github.com/goplus/ffbuild/internal/options"
	"github.com/goplus/ffbuild/internal/pathfix"
	"github.com/goplus/ffbuild/internal/runner"

	_ "github.com/goplus/ffbuild/pkgs/buildsys/autotools"
	_ "github.com/goplus/ffbuild/pkgs/buildsys/cmake"
	_ "github.com/goplus/ffbuild/pkgs/buildsys/meson"
)

var (
	// ErrCycle is wrapped by CycleError.
	ErrCycle = errors.New("dependency cycle")
	// ErrUnknownLibrary is returned for a target or dependency that is not
	// in the registry.
	ErrUnknownLibrary = errors.New("unknown library")
	// ErrLocked is returned when another run holds the build-temp root.
	ErrLocked = errors.New("build directory is locked by another run")
)

// CycleError reports a library that depends on itself.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// Builder builds libraries from a registry into the shared prefix.
type Builder struct {
	reg     *library.Registry
	opts    *options.Options
	runner  runner.Runner
	fetcher fetch.Fetcher
	logger  *log.Logger
	goos    string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithGOOS renders commands for goos instead of runtime.GOOS.
func WithGOOS(goos string) Option {
	return func(b *Builder) { b.goos = goos }
}

// New returns a Builder. opts must already be normalized.
func New(reg *library.Registry, opts *options.Options, r runner.Runner, f fetch.Fetcher, o ...Option) *Builder {
	b := &Builder{
		reg:     reg,
		opts:    opts,
		runner:  r,
		fetcher: f,
		logger:  log.Default(),
		goos:    runtime.GOOS,
	}
	for _, fn := range o {
		fn(b)
	}
	return b
}

// state is the per-Build bookkeeping.
type state struct {
	requested map[string]bool
	visiting  map[string]bool
	stack     []string
}

// Build builds every target in order together with its dependencies. Work
// already recorded by a completion marker is skipped. The process
// environment and working directory are restored before returning.
func (b *Builder) Build(ctx context.Context, targets []string) error {
	for _, dir := range []string{b.opts.TargetDir, b.opts.ReleaseDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	lock := flock.New(filepath.Join(b.opts.TargetDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", b.opts.TargetDir, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, b.opts.TargetDir)
	}
	defer lock.Unlock()

	saved := env.Save()
	defer saved.Restore()
	b.applyEnv()

	logger := b.logger.With("run", uuid.NewString())
	st := &state{
		requested: make(map[string]bool, len(targets)),
		visiting:  make(map[string]bool),
	}
	for _, t := range targets {
		st.requested[t] = true
	}

	start := time.Now()
	for _, name := range targets {
		if err := b.build(ctx, logger, st, name, false); err != nil {
			return err
		}
	}
	logger.Info("build finished", "targets", len(targets), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// applyEnv sets the run-wide compiler and pkg-config environment.
func (b *Builder) applyEnv() {
	prefix := b.toolPath(b.opts.ReleaseDir)
	env.AppendFlag("CFLAGS", "-I"+prefix+"/include", b.opts.ExtraCFlags)
	env.AppendFlag("LDFLAGS", "-L"+prefix+"/lib", b.opts.ExtraLDFlags)
	os.Setenv("PKG_CONFIG_LIBDIR", prefix+"/lib/pkgconfig")
	env.PrependPath("PATH", b.opts.BinPath())
}

func (b *Builder) toolPath(p string) string {
	fixed, err := pathfix.For(b.goos, filepath.ToSlash(p))
	if err != nil {
		return filepath.ToSlash(p)
	}
	return strings.TrimSuffix(fixed, "/")
}

func (b *Builder) build(ctx context.Context, logger *log.Logger, st *state, name string, isDep bool) error {
	lib, ok := b.reg.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLibrary, name)
	}
	if !isDep && !st.requested[name] {
		return nil
	}
	if IsBuilt(b.opts.TargetDir, name) {
		logger.Debug("already built", "lib", name)
		return nil
	}
	if st.visiting[name] {
		return &CycleError{Path: append(append([]string{}, st.stack...), name)}
	}
	st.visiting[name] = true
	st.stack = append(st.stack, name)
	defer func() {
		delete(st.visiting, name)
		st.stack = st.stack[:len(st.stack)-1]
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	logger.Info("building", "lib", name, "dependency", isDep)

	lc := library.NewContext(ctx, lib, b.opts, b.runner, logger.With("lib", name))
	lc.GOOS = b.goos
	hooks := lib.Hooks()

	if err := callHook(lc, "pre-dependency", hooks.PreDependency); err != nil {
		return err
	}
	for _, dep := range lib.Dependencies() {
		if IsBuilt(b.opts.TargetDir, dep) {
			continue
		}
		logger.Debug("dependency", "lib", name, "needs", dep)
		if err := b.build(ctx, logger, st, dep, true); err != nil {
			return err
		}
	}

	logger.Debug("fetch", "lib", name, "url", lib.Download().URL)
	if err := b.fetcher.Fetch(ctx, lib.Download(), lib.Checksum()); err != nil {
		return fmt.Errorf("%s: fetch: %w", name, err)
	}
	if err := callHook(lc, "post-download", hooks.PostDownload); err != nil {
		return err
	}

	dir := filepath.Join(append([]string{b.opts.TargetDir}, lib.Folder()...)...)
	err := inDir(dir, lc, func() error {
		if err := callHook(lc, "pre-configure", hooks.PreConfigure); err != nil {
			return err
		}
		if err := b.dispatch(lc); err != nil {
			return err
		}
		if err := callHook(lc, "post-install", hooks.PostInstall); err != nil {
			return err
		}
		return markBuilt(b.opts.TargetDir, name)
	})
	if err != nil {
		return err
	}

	logger.Info("built", "lib", name, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// dispatch runs either the library's own configuration or the standard
// configure, post-configure, compile and install sequence of its backend.
func (b *Builder) dispatch(lc *library.Context) error {
	lib := lc.Lib
	hooks := lib.Hooks()
	if hooks.OwnConfiguration(lc) {
		lc.Logger.Debug("custom configuration")
		return callHook(lc, "custom-configure", hooks.CustomConfigure)
	}

	bs, err := lc.Backend(lib.Configuration())
	if err != nil {
		return fmt.Errorf("%s: %w", lib.Name(), err)
	}
	if err := b.step(lc, "configure", bs.Configure(lib.ConfigureParams()...)); err != nil {
		return err
	}
	if err := callHook(lc, "post-configure", hooks.PostConfigure); err != nil {
		return err
	}
	if err := b.step(lc, "compile", bs.Build(b.opts.Threads)); err != nil {
		return err
	}
	return b.step(lc, "install", bs.Install())
}

func (b *Builder) step(lc *library.Context, stage string, cmds []runner.Command) error {
	lc.Logger.Debug(stage, "backend", string(lc.Lib.Configuration()))
	if err := lc.Run(cmds...); err != nil {
		return fmt.Errorf("%s: %s: %w", lc.Lib.Name(), stage, err)
	}
	return nil
}

func callHook(lc *library.Context, stage string, h library.Hook) error {
	if h == nil {
		return nil
	}
	lc.Logger.Debug("hook", "stage", stage)
	if err := h(lc); err != nil {
		return fmt.Errorf("%s: %s: %w", lc.Lib.Name(), stage, err)
	}
	return nil
}
