package patches

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestOpenSSL(t *testing.T) {
	ctx, r := newContext(t, "openssl", "linux", "openssl", "zlib")
	hooks := ctx.Lib.Hooks()
	if !hooks.OwnConfiguration(ctx) {
		t.Fatal("openssl should use its own configuration")
	}
	params := appended(t, ctx, hooks.PreConfigure)
	p := ctx.Prefix()
	want := []string{"--prefix=" + p, "--openssldir=" + p, "--with-zlib-include=" + p + "/include/", "--with-zlib-lib=" + p + "/lib", "no-shared", "zlib"}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("params = %q, want %q", params, want)
	}
	if err := hooks.CustomConfigure(ctx); err != nil {
		t.Fatal(err)
	}
	lines := r.lines()
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "bash ./config ") || !strings.HasSuffix(lines[0], "no-shared zlib") {
		t.Fatalf("commands = %q", lines)
	}
	if lines[1] != "make -j4" || lines[2] != "make install_sw -j4" {
		t.Errorf("commands = %q", lines)
	}
}

func TestZlib(t *testing.T) {
	ctx, _ := newContext(t, "zlib", "linux")
	if ctx.Lib.Hooks().OwnConfiguration(ctx) {
		t.Error("zlib uses the standard configure outside Windows")
	}

	ctx, r := newContext(t, "zlib", "windows")
	hooks := ctx.Lib.Hooks()
	if !hooks.OwnConfiguration(ctx) {
		t.Fatal("zlib should use its own configuration on Windows")
	}
	if err := hooks.CustomConfigure(ctx); err != nil {
		t.Fatal(err)
	}
	want := []string{"make -j4 -f ./win32/Makefile.gcc", "make install -f ./win32/Makefile.gcc"}
	if got := r.lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("commands = %q, want %q", got, want)
	}
	for _, c := range r.cmds {
		if c.Env["INCLUDE_PATH"] != ctx.PrefixPath("include") || c.Env["LIBRARY_PATH"] != ctx.PrefixPath("lib") || c.Env["BINARY_PATH"] != ctx.PrefixPath("bin") {
			t.Errorf("%s env = %v", c, c.Env)
		}
	}
}

func TestStandardWithEnv(t *testing.T) {
	t.Run("libx264", func(t *testing.T) {
		ctx, _ := newContext(t, "libx264", "darwin")
		if ctx.Lib.Hooks().OwnConfiguration(ctx) {
			t.Error("libx264 uses the standard configure outside Linux")
		}

		ctx, r := newContext(t, "libx264", "linux")
		hooks := ctx.Lib.Hooks()
		if !hooks.OwnConfiguration(ctx) {
			t.Fatal("libx264 should use its own configuration on Linux")
		}
		if err := hooks.CustomConfigure(ctx); err != nil {
			t.Fatal(err)
		}
		configure := strings.Join(append([]string{"./configure", "--prefix=" + ctx.Prefix()}, ctx.Lib.ConfigureParams()...), " ")
		want := []string{"chmod +x ./configure", configure, "make -j4", "make install"}
		if got := r.lines(); !reflect.DeepEqual(got, want) {
			t.Errorf("commands = %q, want %q", got, want)
		}
		for _, c := range r.cmds {
			if c.Env["CXXFLAGS"] != "-fPIC" {
				t.Errorf("%s: CXXFLAGS = %q", c, c.Env["CXXFLAGS"])
			}
		}
	})

	t.Run("libass", func(t *testing.T) {
		t.Setenv("CFLAGS", "-I/r/include")
		ctx, r := newContext(t, "libass", "linux")
		if err := ctx.Lib.Hooks().CustomConfigure(ctx); err != nil {
			t.Fatal(err)
		}
		if len(r.cmds) != 4 {
			t.Fatalf("commands = %q", r.lines())
		}
		want := "-I/r/include -I" + ctx.Prefix() + "/include/harfbuzz"
		for _, c := range r.cmds {
			if c.Env["CFLAGS"] != want {
				t.Errorf("%s: CFLAGS = %q, want %q", c, c.Env["CFLAGS"], want)
			}
		}
		if os.Getenv("CFLAGS") != "-I/r/include" {
			t.Error("process CFLAGS modified")
		}
	})
}

func TestFFnvcodec(t *testing.T) {
	ctx, r := newContext(t, "ffnvcodec", "linux")
	if err := ctx.Lib.Hooks().CustomConfigure(ctx); err != nil {
		t.Fatal(err)
	}
	if got, want := r.lines(), []string{"make install PREFIX=" + ctx.Prefix()}; !reflect.DeepEqual(got, want) {
		t.Errorf("commands = %q, want %q", got, want)
	}
}

func TestMSYS2Deps(t *testing.T) {
	ctx, r := newContext(t, "ffmpeg-msys2-deps", "windows")
	t.Chdir(t.TempDir())
	writeFile(t, "libwinpthread-1.dll", "dll")
	writeFile(t, "zlib1.dll", "zlib")
	writeFile(t, filepath.Join("sub", "skip.dll"), "no")

	if err := ctx.Lib.Hooks().CustomConfigure(ctx); err != nil {
		t.Fatal(err)
	}
	if len(r.cmds) != 0 {
		t.Errorf("commands = %q, want none", r.lines())
	}
	bin := ctx.Options.BinPath()
	for name, want := range map[string]string{"libwinpthread-1.dll": "dll", "zlib1.dll": "zlib"} {
		if got := readFile(t, filepath.Join(bin, name)); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if _, err := os.Stat(filepath.Join(bin, "sub")); !os.IsNotExist(err) {
		t.Error("directory copied")
	}
}

func TestMSYS2DepsOffWindows(t *testing.T) {
	for _, goos := range []string{"linux", "darwin"} {
		t.Run(goos, func(t *testing.T) {
			ctx, r := newContext(t, "ffmpeg-msys2-deps", goos)
			t.Chdir(t.TempDir())
			writeFile(t, "libwinpthread-1.dll", "dll")

			if err := ctx.Lib.Hooks().CustomConfigure(ctx); err != nil {
				t.Fatal(err)
			}
			if len(r.cmds) != 0 {
				t.Errorf("commands = %q, want none", r.lines())
			}
			if _, err := os.Stat(filepath.Join(ctx.Options.BinPath(), "libwinpthread-1.dll")); !os.IsNotExist(err) {
				t.Errorf("dll copied into %s", ctx.Options.BinPath())
			}
		})
	}
}

func TestLamePostConfigure(t *testing.T) {
	ctx, r := newContext(t, "libmp3lame", "linux")
	if err := ctx.Lib.Hooks().PostConfigure(ctx); err != nil {
		t.Fatal(err)
	}
	if got := r.lines(); !reflect.DeepEqual(got, []string{"chmod +x install-sh"}) {
		t.Errorf("commands = %q", got)
	}
}
