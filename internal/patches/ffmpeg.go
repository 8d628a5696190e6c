package patches

import (
	"fmt"

	"mvdan.cc/sh/v3/shell"

	"github.com/goplus/ffbuild/internal/library"
)

const staticFlags = "-static -static-libstdc++ -static-libgcc"

// notFFmpegLibs are requested targets that have no --enable switch of
// their own: tools, header-only or transitive dependencies, and libraries
// ffmpeg detects by itself.
var notFFmpegLibs = map[string]bool{
	"cmake":             true,
	"ffmpeg":            true,
	"ffmpeg-msys2-deps": true,
	"harfbuzz":          true,
	"libogg":            true,
	"libsdl":            true,
	"libtasn1":          true,
	"libudfread":        true,
	"libunistring":      true,
	"nasm":              true,
	"nettle":            true,
	"pkg-config":        true,
	"yasm":              true,
}

func ffmpegPreConfigure(ctx *library.Context) error {
	opts := ctx.Options
	lib := ctx.Lib

	if ctx.Is("darwin") {
		lib.AddConfigureParams("--enable-videotoolbox")
	}
	if opts.ExtraFFmpegArgs != "" {
		args, err := shell.Fields(opts.ExtraFFmpegArgs, nil)
		if err != nil {
			return fmt.Errorf("extra ffmpeg args: %w", err)
		}
		lib.AddConfigureParams(args...)
	}
	if opts.ExtraLibs != "" {
		lib.AddConfigureParams("--extra-libs=" + opts.ExtraLibs)
	}

	cflags := "-I" + ctx.PrefixPath("include")
	ldflags := "-L" + ctx.PrefixPath("lib") + " -fstack-protector"
	if opts.StaticFFmpeg {
		cflags += " " + staticFlags
		ldflags += " " + staticFlags
	}
	lib.AddConfigureParams(
		"--pkgconfigdir="+ctx.PrefixPath("lib", "pkgconfig"),
		"--extra-cflags="+cflags,
		"--extra-ldflags="+ldflags,
	)
	if opts.StaticFFmpeg {
		lib.AddConfigureParams("--extra-cxxflags="+staticFlags, "--extra-libs=-ldl -lrt -lpthread")
	}

	for _, name := range opts.Targets {
		lib.AddConfigureParams(enableFlags(name, opts.NonFree)...)
	}
	if opts.HasTarget("libsdl") {
		lib.AddConfigureParams("--enable-ffplay")
	}
	if opts.NonFree {
		ctx.Logger.Warn("non-free libraries enabled, the build is not redistributable")
		lib.AddConfigureParams("--enable-nonfree")
	}
	if !ctx.Is("windows") {
		lib.AddConfigureParams("--extra-libs=-lpthread", "--enable-pthreads")
	}
	if opts.HasTarget("libsoxr") {
		lib.AddConfigureParams("--extra-libs=-lgomp")
	}
	return nil
}

// enableFlags returns the ffmpeg configure switches that link target.
func enableFlags(target string, nonFree bool) []string {
	switch {
	case notFFmpegLibs[target]:
		return nil
	case target == "libopencore":
		return []string{"--enable-libopencore_amrnb", "--enable-libopencore_amrwb"}
	case target == "libvmaf":
		// Static libvmaf needs the C++ linker.
		return []string{"--ld=g++", "--enable-libvmaf"}
	case target == "gnutls" && nonFree:
		// openssl is used instead.
		return nil
	}
	return []string{"--enable-" + target}
}
