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

var jniPath = regexp.MustCompile(`get_filename_component.JNIPATH`)

// cmakePreConfigure drops the Java probing that breaks bootstrapping
// without a JDK.
func cmakePreConfigure(*library.Context) error {
	if err := fileutil.Remove(filepath.Join("Modules", "FindJava.cmake")); err != nil {
		return err
	}
	return fileutil.ReplaceRegexp(filepath.Join("Tests", "CMakeLists.txt"), jniPath, "#get_filename_component(JNIPATH")
}

func aomPreConfigure(ctx *library.Context) error {
	ctx.Lib.AddConfigureParams(ctx.TargetPath("aom"))
	return nil
}

func theoraPreConfigure(ctx *library.Context) error {
	if err := fileutil.Replace("configure", "-fforce-addr", ""); err != nil {
		return err
	}
	ctx.Lib.AddConfigureParams(
		"--with-ogg-libraries="+ctx.PrefixPath("lib"),
		"--with-ogg-includes="+ctx.PrefixPath("include")+"/",
		"--with-vorbis-libraries="+ctx.PrefixPath("lib"),
		"--with-vorbis-includes="+ctx.PrefixPath("include")+"/",
	)
	return nil
}

func vorbisPreConfigure(ctx *library.Context) error {
	ctx.Lib.AddConfigureParams(
		"--with-ogg-libraries="+ctx.PrefixPath("lib"),
		"--with-ogg-includes="+ctx.PrefixPath("include"),
	)
	return nil
}

func pkgConfigPreConfigure(ctx *library.Context) error {
	ctx.Lib.AddConfigureParams("--with-pc-path=" + ctx.PrefixPath("lib", "pkgconfig"))
	return nil
}

// vpxPreConfigure swaps the GNU ld flags of the shared-library rules for
// their Mach-O equivalents.
func vpxPreConfigure(ctx *library.Context) error {
	if !ctx.Is("darwin") {
		return nil
	}
	mk := filepath.Join("build", "make", "Makefile")
	if err := fileutil.Replace(mk, ",--version-script", ""); err != nil {
		return err
	}
	return fileutil.Replace(mk, "-Wl,--no-undefined -Wl,-soname", "-Wl,-undefined,error -Wl,-install_name")
}

// libopusPreConfigure adds -fstack-protector on Windows, where mingw-w64
// fortification needs libssp.
func libopusPreConfigure(ctx *library.Context) error {
	if !ctx.Is("windows") {
		return nil
	}
	return ctx.Setenv("LDFLAGS", os.Getenv("LDFLAGS")+" -fstack-protector")
}

func lamePostConfigure(ctx *library.Context) error {
	return ctx.Run(runner.Cmd("chmod", "+x", "install-sh"))
}

// srtPreDependency links the TLS library that is requested, gnutls first.
func srtPreDependency(ctx *library.Context) error {
	switch {
	case ctx.Options.HasTarget("gnutls"):
		ctx.Lib.AddDependencies("gnutls")
	case ctx.Options.HasTarget("openssl"):
		ctx.Lib.AddDependencies("openssl")
	}
	return nil
}

func srtPreConfigure(ctx *library.Context) error {
	switch {
	case ctx.Options.HasTarget("openssl"):
		ctx.Lib.AddConfigureParams("-DOPENSSL_USE_STATIC_LIBS=on")
	case ctx.Options.HasTarget("gnutls"):
		ctx.Lib.AddConfigureParams("-DUSE_ENCLIB=gnutls")
	default:
		ctx.Lib.AddConfigureParams("-DENABLE_ENCRYPTION=off")
	}
	return nil
}

func x265PostInstall(ctx *library.Context) error {
	pc := pcFile(ctx, "x265.pc")
	if err := fileutil.Replace(pc, "-lx265", "-lx265 -lstdc++"); err != nil {
		return err
	}
	return fileutil.Replace(pc, "-lgcc_s", "")
}

// xvidPostConfigure drops the shared-library install rules from the
// generated Makefile.
func xvidPostConfigure(*library.Context) error {
	const mk = "Makefile"
	start, err := fileutil.FindString(mk, "ifeq ($(SHARED_EXTENSION),dll)")
	if err != nil {
		return err
	}
	end, err := fileutil.FindString(mk, "$(LN_S) $(SHARED_LIB) $(DESTDIR)$(libdir)/$(SO_LINK)")
	if err != nil {
		return err
	}
	if start < 0 || end < start {
		return fmt.Errorf("%s: shared library rules not found", mk)
	}
	return fileutil.DeleteLines(mk, start, end+1)
}

func xvidPostInstall(ctx *library.Context) error {
	return fileutil.Remove(filepath.Join(ctx.Options.LibDir(), "libxvidcore.4.dylib"))
}

func opensslPostInstall(ctx *library.Context) error {
	return fileutil.Replace(pcFile(ctx, "libcrypto.pc"),
		"Libs: -L${libdir} -lcrypto",
		"Libs: -L${libdir} -lcrypto -lz -ldl")
}
