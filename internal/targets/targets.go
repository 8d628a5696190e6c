// Package targets resolves which libraries a run builds.
package targets

import "slices"

// defaults is the full build in order. ffmpeg comes last so every library
// it links is installed first.
var defaults = []string{
	"cmake", "ffnvcodec", "gmp", "gnutls",
	"libaom", "libass", "libbluray", "libdav1d", "libfdk-aac", "libfontconfig", "libfreetype",
	"libfribidi", "libgme", "libkvazaar", "libmp3lame", "libogg", "libopus", "libopencore",
	"libopenh264", "libopenjpeg", "libsdl", "libshine", "libsoxr", "libsrt", "libsvtav1",
	"libtheora", "libvidstab", "libvmaf", "libvorbis", "libvpx", "libx264", "libx265",
	"libxvid", "libzimg",
	"nasm", "openssl", "pkg-config", "yasm", "zlib",
	"ffmpeg-msys2-deps", "ffmpeg",
}

// systemTools are skipped when the host provides them.
var systemTools = []string{"cmake", "pkg-config", "nasm", "yasm"}

// windowsOnly are built only when GOOS is windows.
var windowsOnly = []string{"ffmpeg-msys2-deps"}

// Default returns a copy of the full target list.
func Default() []string {
	return slices.Clone(defaults)
}

// Selection narrows the default list.
type Selection struct {
	// Only keeps just these names. Unknown names are dropped and the
	// default order is kept. Empty means all.
	Only    []string
	Exclude []string
	// UseSystemTools drops cmake, nasm, yasm and pkg-config.
	UseSystemTools bool
	// NonFree keeps libfdk-aac and openssl and drops gnutls in their favour.
	NonFree       bool
	DisableFFplay bool
	// GOOS is the operating system being built for. Windows-only targets
	// are dropped for any other value.
	GOOS string
}

// Select returns the targets to build, in default order.
func Select(s Selection) []string {
	out := Default()
	if len(s.Only) > 0 {
		out = slices.DeleteFunc(out, func(t string) bool { return !slices.Contains(s.Only, t) })
	}
	drop := slices.Clone(s.Exclude)
	if s.UseSystemTools {
		drop = append(drop, systemTools...)
	}
	if s.NonFree {
		drop = append(drop, "gnutls")
	} else {
		drop = append(drop, "libfdk-aac", "openssl")
	}
	if s.DisableFFplay {
		drop = append(drop, "libsdl")
	}
	if s.GOOS != "windows" {
		drop = append(drop, windowsOnly...)
	}
	return slices.DeleteFunc(out, func(t string) bool { return slices.Contains(drop, t) })
}

// Unknown returns the names in names that are not default targets.
func Unknown(names []string) []string {
	var out []string
	for _, n := range names {
		if !slices.Contains(defaults, n) {
			out = append(out, n)
		}
	}
	return out
}
