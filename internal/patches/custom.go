package patches

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/goplus/ffbuild/internal/library"
	"github.com/goplus/ffbuild/internal/runner"
	"github.com/goplus/ffbuild/pkgs/buildsys"
	"github.com/goplus/ffbuild/pkgs/buildsys/autotools"
)

func opensslPreConfigure(ctx *library.Context) error {
	ctx.Lib.AddConfigureParams(
		"--prefix="+ctx.Prefix(),
		"--openssldir="+ctx.Prefix(),
		"--with-zlib-include="+ctx.PrefixPath("include")+"/",
		"--with-zlib-lib="+ctx.PrefixPath("lib"),
		"no-shared",
		"zlib",
	)
	return nil
}

// opensslConfigure runs the Configure wrapper and installs the software
// only, skipping the manual pages.
func opensslConfigure(ctx *library.Context) error {
	threads := ctx.Options.Threads
	return ctx.Run(
		runner.Cmd("bash", append([]string{"./config"}, ctx.Lib.ConfigureParams()...)...),
		autotools.Make(threads),
		runner.Cmd("make", "install_sw", "-j"+strconv.Itoa(max(threads, 1))),
	)
}

// zlibConfigure builds with the MinGW makefile; its configure script
// refuses to run there.
func zlibConfigure(ctx *library.Context) error {
	withPaths := func(c runner.Command) runner.Command {
		return c.WithEnv("INCLUDE_PATH", ctx.PrefixPath("include")).
			WithEnv("LIBRARY_PATH", ctx.PrefixPath("lib")).
			WithEnv("BINARY_PATH", ctx.PrefixPath("bin"))
	}
	return ctx.Run(
		withPaths(autotools.Make(ctx.Options.Threads, "-f", "./win32/Makefile.gcc")),
		withPaths(autotools.MakeInstall("-f", "./win32/Makefile.gcc")),
	)
}

func x264Configure(ctx *library.Context) error {
	return standardWithEnv(ctx, "CXXFLAGS", "-fPIC")
}

func libassConfigure(ctx *library.Context) error {
	return standardWithEnv(ctx, "CFLAGS", os.Getenv("CFLAGS")+" -I"+ctx.PrefixPath("include", "harfbuzz"))
}

// standardWithEnv runs the autotools configure, compile and install steps
// with key=value added to every command.
func standardWithEnv(ctx *library.Context, key, value string) error {
	bs, err := ctx.Backend(buildsys.Autotools)
	if err != nil {
		return err
	}
	var cmds []runner.Command
	cmds = append(cmds, bs.Configure(ctx.Lib.ConfigureParams()...)...)
	cmds = append(cmds, bs.Build(ctx.Options.Threads)...)
	cmds = append(cmds, bs.Install()...)
	for i := range cmds {
		cmds[i] = cmds[i].WithEnv(key, value)
	}
	return ctx.Run(cmds...)
}

func ffnvcodecConfigure(ctx *library.Context) error {
	return ctx.Run(autotools.MakeInstall("PREFIX=" + ctx.Prefix()))
}

// msys2DepsConfigure copies the prebuilt runtime DLLs next to the
// installed binaries. It does nothing off Windows.
func msys2DepsConfigure(ctx *library.Context) error {
	if !ctx.Is("windows") {
		ctx.Logger.Debug("skipping windows runtime libraries", "goos", ctx.GOOS)
		return nil
	}
	dst := ctx.Options.BinPath()
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(".")
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := copyFile(e.Name(), filepath.Join(dst, e.Name())); err != nil {
			return fmt.Errorf("copy %s: %w", e.Name(), err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
