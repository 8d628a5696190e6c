// Package meson renders Meson builds driven by ninja.
package meson

import (
	"strconv"

	"github.com/goplus/ffbuild/internal/runner"
	"github.com/goplus/ffbuild/pkgs/buildsys"
)

func init() {
	buildsys.Register(buildsys.Meson, func(prefix, goos string) buildsys.BuildSystem {
		return New(prefix)
	})
}

// Meson runs meson setup and then ninja in the resulting build directory.
type Meson struct {
	prefix string
}

var _ buildsys.BuildSystem = (*Meson)(nil)

// New returns a Meson installing into prefix.
func New(prefix string) *Meson {
	return &Meson{prefix: prefix}
}

// Configure runs meson setup --prefix=<prefix> followed by params. The
// params are expected to name the build directory.
func (m *Meson) Configure(params ...string) []runner.Command {
	args := append([]string{"setup", "--prefix=" + m.prefix}, params...)
	return []runner.Command{runner.Cmd("meson", args...)}
}

// Build runs ninja -j <threads>.
func (m *Meson) Build(threads int) []runner.Command {
	if threads < 1 {
		threads = 1
	}
	return []runner.Command{runner.Cmd("ninja", "-j", strconv.Itoa(threads))}
}

// Install runs ninja install.
func (m *Meson) Install() []runner.Command {
	return []runner.Command{runner.Cmd("ninja", "install")}
}
