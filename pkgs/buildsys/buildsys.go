// Package buildsys renders the configure, compile and install command lines
// of the supported configuration systems.
package buildsys

import (
	"fmt"

	"github.com/goplus/ffbuild/internal/runner"
)

// Kind names a configuration system.
type Kind string

const (
	Autotools Kind = "configure"
	CMake     Kind = "cmake"
	Meson     Kind = "meson"
)

// ParseKind maps a registry "configuration" value to a Kind. The empty
// string means Autotools.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", Autotools:
		return Autotools, nil
	case CMake, Meson:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown configuration %q", s)
}

// BuildSystem captures the lifecycle shared by every backend. Implementations
// are pure: they only describe commands to run in the library's source
// directory.
type BuildSystem interface {
	Configure(params ...string) []runner.Command
	Build(threads int) []runner.Command
	Install() []runner.Command
}

// Factory creates a backend bound to an install prefix and a target GOOS.
type Factory func(prefix, goos string) BuildSystem

var factories = map[Kind]Factory{}

// Register makes a backend available to For. It is called from the init
// functions of the backend packages.
func Register(kind Kind, f Factory) {
	factories[kind] = f
}

// For returns the backend for kind.
func For(kind Kind, prefix, goos string) (BuildSystem, error) {
	f, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("buildsys: backend %q not registered", kind)
	}
	return f(prefix, goos), nil
}
