// Package autotools drives the classic configure/make/make-install workflow.
package autotools

import (
	"fmt"

	"github.com/goplus/ffbuild/internal/runner"
	"github.com/goplus/ffbuild/pkgs/buildsys"
)

func init() {
	buildsys.Register(buildsys.Autotools, func(prefix, goos string) buildsys.BuildSystem {
		return New(prefix, goos)
	})
}

// AutoTools renders ./configure based builds.
type AutoTools struct {
	prefix string
	goos   string
	// Script is the configure script, "./configure" by default.
	Script string
}

var _ buildsys.BuildSystem = (*AutoTools)(nil)

// New returns an AutoTools installing into prefix.
func New(prefix, goos string) *AutoTools {
	return &AutoTools{prefix: prefix, goos: goos, Script: "./configure"}
}

// Configure makes the script executable and runs it with --prefix followed
// by params. On Windows the script is run through bash.
func (a *AutoTools) Configure(params ...string) []runner.Command {
	args := make([]string, 0, len(params)+1)
	args = append(args, "--prefix="+a.prefix)
	args = append(args, params...)

	cfg := runner.Cmd(a.Script, args...)
	if a.goos == "windows" {
		cfg = runner.Cmd("bash", append([]string{a.Script}, args...)...)
	}
	return []runner.Command{runner.Cmd("chmod", "+x", a.Script), cfg}
}

// Build runs make with the given parallelism.
func (a *AutoTools) Build(threads int) []runner.Command {
	return []runner.Command{Make(threads)}
}

// Install runs make install.
func (a *AutoTools) Install() []runner.Command {
	return []runner.Command{MakeInstall()}
}

// Make returns "make -j<threads> args...".
func Make(threads int, args ...string) runner.Command {
	if threads < 1 {
		threads = 1
	}
	return runner.Cmd("make", append([]string{fmt.Sprintf("-j%d", threads)}, args...)...)
}

// MakeInstall returns "make install args...".
func MakeInstall(args ...string) runner.Command {
	return runner.Cmd("make", append([]string{"install"}, args...)...)
}
