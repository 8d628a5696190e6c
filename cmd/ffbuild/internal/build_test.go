package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/goplus/ffbuild/internal/library"
	"github.com/goplus/ffbuild/internal/options"
)

func changedSet(names ...string) func(string) bool {
	return func(name string) bool { return slices.Contains(names, name) }
}

func defaultFlags() *buildFlags {
	return &buildFlags{
		jobs:        4,
		targetDir:   "targets",
		releaseDir:  "release",
		systemTools: true,
	}
}

func TestResolveDefaults(t *testing.T) {
	opts, sel := resolve(&options.File{}, defaultFlags(), changedSet())
	if opts.Threads != 4 || opts.TargetDir != "targets" || opts.ReleaseDir != "release" || opts.Silent {
		t.Errorf("opts = %+v", opts)
	}
	if !sel.UseSystemTools || sel.NonFree || len(sel.Only) != 0 {
		t.Errorf("sel = %+v", sel)
	}
}

func TestResolveFileThenFlags(t *testing.T) {
	off := false
	file := &options.File{
		Jobs:           8,
		Quiet:          true,
		TargetDir:      "/work/src",
		Targets:        []string{"libx264", "ffmpeg"},
		ExcludeTargets: []string{"libsdl"},
		ExtraCFlags:    "-O3",
		NonFree:        true,
		SystemTools:    &off,
	}

	t.Run("file wins over defaults", func(t *testing.T) {
		opts, sel := resolve(file, defaultFlags(), changedSet())
		if opts.Threads != 8 || !opts.Silent || opts.TargetDir != "/work/src" || opts.ExtraCFlags != "-O3" || !opts.NonFree {
			t.Errorf("opts = %+v", opts)
		}
		if sel.UseSystemTools || !sel.NonFree || !reflect.DeepEqual(sel.Only, file.Targets) || !reflect.DeepEqual(sel.Exclude, file.ExcludeTargets) {
			t.Errorf("sel = %+v", sel)
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		bf := defaultFlags()
		bf.jobs = 2
		bf.targetDir = "other"
		bf.targets = []string{"zlib"}
		bf.systemTools = true
		bf.nonFree = false
		opts, sel := resolve(file, bf, changedSet("jobs", "target-dir", "targets", "use-system-build-tools", "use-nonfree-libs"))
		if opts.Threads != 2 || opts.TargetDir != "other" || opts.NonFree {
			t.Errorf("opts = %+v", opts)
		}
		if !sel.UseSystemTools || sel.NonFree || !reflect.DeepEqual(sel.Only, []string{"zlib"}) {
			t.Errorf("sel = %+v", sel)
		}
	})
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("missing logger should fall back to log.Default")
	}
	l := newLogger(&bytes.Buffer{}, log.DebugLevel)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Error("attached logger not returned")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	l.Debug("hidden")
	l.Info("shown", "lib", "zlib")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") || !strings.Contains(out, "lib=zlib") {
		t.Errorf("output = %q", out)
	}
}

func TestLibraryTable(t *testing.T) {
	reg, err := library.LoadDefault(nil)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "zlib.ok"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	out := libraryTable(reg, dir)
	for _, want := range []string{"Library", "Configuration", "libdav1d", "meson", "gmp, libtasn1, libunistring, nettle"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q", want)
		}
	}
	var zlibRow string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(strings.TrimLeft(line, "│ "), "zlib ") {
			zlibRow = line
		}
	}
	if !strings.Contains(zlibRow, "built") {
		t.Errorf("zlib row = %q, want it marked built", zlibRow)
	}
}

func TestRenderTableShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}})
	if strings.Contains(out, "<nil>") || !strings.Contains(out, "only") {
		t.Errorf("table = %q", out)
	}
	if got := renderTable([]string{"Library"}, nil); !strings.Contains(got, "Library") || strings.Contains(got, "LIBRARY") {
		t.Errorf("header not kept as given: %q", got)
	}
	if renderTable(nil, nil) != "" {
		t.Error("table without headers should be empty")
	}
}

func TestTargetsCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"targets", "--targets", "ffmpeg,libx264,openssl,bogus", "--config", filepath.Join(t.TempDir(), "none.toml")})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("targets: %v", err)
	}
	if got, want := out.String(), "libx264\nffmpeg\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestPrintBanners(t *testing.T) {
	var buf bytes.Buffer
	printHeader(&buf, "Processing targets:")
	printBlock(&buf, "zlib, ffmpeg")
	out := buf.String()
	if strings.Count(out, rule) != 3 || !strings.Contains(out, "Processing targets:") || !strings.Contains(out, "zlib, ffmpeg") {
		t.Errorf("banners = %q", out)
	}
}
