// Package patches holds the per-library hooks that adapt individual sources
// to the shared static build.
package patches

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/goplus/ffbuild/internal/fileutil"
	"github.com/goplus/ffbuild/internal/library"
	"github.com/goplus/ffbuild/internal/runner"
)

// Table returns the hook table keyed by library.HookKey of the library name.
func Table() map[string]library.Hooks {
	t := make(map[string]library.Hooks)

	t["cmake"] = library.Hooks{PreConfigure: cmakePreConfigure}
	t["ffmpeg"] = library.Hooks{PreConfigure: ffmpegPreConfigure}
	t["ffmpeg_msys2_deps"] = library.Hooks{CustomConfigure: msys2DepsConfigure}
	t["ffnvcodec"] = library.Hooks{CustomConfigure: ffnvcodecConfigure}
	t["libass"] = library.Hooks{CustomConfigure: libassConfigure}
	t["libopus"] = library.Hooks{PreConfigure: libopusPreConfigure}
	t["libtheora"] = library.Hooks{PreConfigure: theoraPreConfigure}
	t["libvorbis"] = library.Hooks{PreConfigure: vorbisPreConfigure}
	t["libvpx"] = library.Hooks{PreConfigure: vpxPreConfigure}
	t["pkg_config"] = library.Hooks{PreConfigure: pkgConfigPreConfigure}
	t["libmp3lame"] = library.Hooks{PostConfigure: lamePostConfigure}

	for _, name := range []string{"libbluray", "libfdk_aac", "libudfread", "libzimg"} {
		t[name] = library.Hooks{PreConfigure: autoreconf}
	}

	t["harfbuzz"] = library.Hooks{PreDependency: optionalDependency("libfreetype", "--with-freetype")}
	t["libfreetype"] = library.Hooks{PreDependency: optionalDependency("zlib", "--with-zlib")}

	t["libaom"] = library.Hooks{PostDownload: makeBuildDir, PreConfigure: aomPreConfigure}
	t["libdav1d"] = library.Hooks{PostDownload: makeBuildDir, PreConfigure: sourceDir("dav1d", `dav1d-(.+)\.tar`, "")}
	t["libopenh264"] = library.Hooks{PostDownload: makeBuildDir, PreConfigure: sourceDir("openh264", `v(.+)\.tar`, "")}
	t["libvmaf"] = library.Hooks{PostDownload: makeBuildDir, PreConfigure: sourceDir("vmaf", `vmaf-(.+)\.tar`, "libvmaf")}

	t["libsrt"] = library.Hooks{
		PreDependency: srtPreDependency,
		PreConfigure:  srtPreConfigure,
		PostInstall:   fixPC("srt.pc", "-lgcc_s", ""),
	}
	t["libx265"] = library.Hooks{PostInstall: x265PostInstall}
	t["libxvid"] = library.Hooks{PostConfigure: xvidPostConfigure, PostInstall: xvidPostInstall}
	t["gnutls"] = library.Hooks{PostInstall: fixPC("gnutls.pc",
		"Libs: -L${libdir} -lgnutls",
		"Libs: -L${libdir} -lgnutls -ltasn1 -lgmp -lunistring -lnettle -lhogweed")}
	t["libgme"] = library.Hooks{PostInstall: fixPC("libgme.pc",
		"Libs.private: -lstdc++ -lz",
		"Libs.private: -lstdc++ -lz -lubsan -ldl -lrt")}
	t["nettle"] = library.Hooks{PostInstall: fixPC("nettle.pc",
		"Libs: -L${libdir} -lnettle",
		"Libs: -L${libdir} -lnettle -lgmp")}

	t["openssl"] = library.Hooks{
		PreConfigure:    opensslPreConfigure,
		CustomConfigure: opensslConfigure,
		PostInstall:     opensslPostInstall,
	}
	t["zlib"] = library.Hooks{
		CustomConfigure:     zlibConfigure,
		HasOwnConfiguration: on("windows"),
	}
	t["libx264"] = library.Hooks{
		CustomConfigure:     x264Configure,
		HasOwnConfiguration: on("linux"),
	}
	return t
}

// on reports whether the build targets goos.
func on(goos string) func(*library.Context) bool {
	return func(ctx *library.Context) bool { return ctx.Is(goos) }
}

func autoreconf(ctx *library.Context) error {
	return ctx.Run(runner.Cmd("autoreconf", "-fiv"))
}

// optionalDependency links dep only when it is requested too, passing
// flag=yes or flag=no to configure.
func optionalDependency(dep, flag string) library.Hook {
	return func(ctx *library.Context) error {
		if ctx.Options.HasTarget(dep) {
			ctx.Lib.AddConfigureParams(flag + "=yes")
			ctx.Lib.AddDependencies(dep)
			return nil
		}
		ctx.Lib.AddConfigureParams(flag + "=no")
		return nil
	}
}

func pcFile(ctx *library.Context, name string) string {
	return filepath.Join(ctx.Options.PkgConfigDir(), name)
}

// fixPC rewrites a line of an installed pkg-config file so static linking
// pulls in the private dependencies.
func fixPC(name, old, new string) library.Hook {
	return func(ctx *library.Context) error {
		return fileutil.Replace(pcFile(ctx, name), old, new)
	}
}

// makeBuildDir creates the out-of-tree build directory of a library.
func makeBuildDir(ctx *library.Context) error {
	dir := filepath.Join(append([]string{ctx.Options.TargetDir}, ctx.Lib.Folder()...)...)
	return os.MkdirAll(dir, 0o755)
}

// sourceDir points an out-of-tree build at the extracted sources, whose
// directory is <project>-<version> with the version taken from the archive
// name.
func sourceDir(project, pattern, subdir string) library.Hook {
	re := regexp.MustCompile(pattern)
	return func(ctx *library.Context) error {
		dest := ctx.Lib.Download().Dest
		m := re.FindStringSubmatch(dest)
		if m == nil {
			return fmt.Errorf("no version in archive name %q", dest)
		}
		src := []string{project + "-" + m[1]}
		if subdir != "" {
			src = append(src, subdir)
		}
		ctx.Lib.AddConfigureParams("--libdir="+ctx.PrefixPath("lib"), ctx.TargetPath(src...))
		return nil
	}
}
