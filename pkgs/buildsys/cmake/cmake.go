// Package cmake renders CMake based builds.
package cmake

import (
	"github.com/goplus/ffbuild/internal/runner"
	"github.com/goplus/ffbuild/pkgs/buildsys"
	"github.com/goplus/ffbuild/pkgs/buildsys/autotools"
)

func init() {
	buildsys.Register(buildsys.CMake, func(prefix, goos string) buildsys.BuildSystem {
		return New(prefix, goos)
	})
}

// CMake configures in the source directory and builds with make.
type CMake struct {
	prefix    string
	buildType string
	generator string
	defines   []string
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New returns a Release CMake installing into prefix. On Windows the MSYS
// Makefiles generator is selected.
func New(prefix, goos string) *CMake {
	c := &CMake{prefix: prefix, buildType: "Release"}
	if goos == "windows" {
		c.generator = "MSYS Makefiles"
	}
	return c
}

// Define adds -D<key>=<value> after the standard definitions.
func (c *CMake) Define(key, value string) *CMake {
	c.defines = append(c.defines, "-D"+key+"="+value)
	return c
}

// Configure runs cmake with the build type, install prefix and prefix path
// followed by params.
func (c *CMake) Configure(params ...string) []runner.Command {
	args := []string{
		"-DCMAKE_BUILD_TYPE=" + c.buildType,
		"-DCMAKE_INSTALL_PREFIX=" + c.prefix,
		"-DCMAKE_PREFIX_PATH=" + c.prefix,
	}
	args = append(args, c.defines...)
	args = append(args, params...)
	if c.generator != "" {
		args = append(args, "-G", c.generator)
	}
	return []runner.Command{runner.Cmd("cmake", args...)}
}

// Build runs make.
func (c *CMake) Build(threads int) []runner.Command {
	return []runner.Command{autotools.Make(threads)}
}

// Install runs make install.
func (c *CMake) Install() []runner.Command {
	return []runner.Command{autotools.MakeInstall()}
}
