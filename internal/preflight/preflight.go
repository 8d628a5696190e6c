// Package preflight verifies that the host tools a build shells out to are
// installed before any library is fetched.
package preflight

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
	"golang.org/x/sys/execabs"

	"github.com/goplus/ffbuild/internal/library"
	"github.com/goplus/ffbuild/pkgs/buildsys"
	"github.com/goplus/ffbuild/pkgs/gnu"
)

// Requirement defines an external tool the build relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// MinVersion is a version such as "v0.49.0". Empty means any version
	// is accepted and the tool is not queried.
	MinVersion string
}

// Status reports the availability of a requirement.
type Status struct {
	Requirement
	Available bool
	Path      string
	Version   string
	Detail    string
}

// MissingError lists the requirements that are absent or too old.
type MissingError struct {
	Missing []Status
}

func (e *MissingError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		parts[i] = s.Name + " (" + s.Detail + ")"
	}
	return "missing build tools: " + strings.Join(parts, ", ")
}

// LookPathFunc resolves a command to an executable path.
type LookPathFunc func(file string) (string, error)

// VersionFunc reports the version of the executable at path.
type VersionFunc func(ctx context.Context, path string) (string, error)

var base = []Requirement{
	{Name: "autoconf", Command: "autoconf", Description: "regenerates configure scripts"},
	{Name: "gperf", Command: "gperf", Description: "needed by fontconfig"},
	{Name: "libtool", Command: "libtoolize", Description: "autoreconf support"},
	{Name: "make", Command: "make", Description: "runs every build"},
}

var systemTools = []Requirement{
	{Name: "cmake", Command: "cmake", Description: "CMake-configured libraries", MinVersion: "v3.5.0"},
	{Name: "nasm", Command: "nasm", Description: "x86 assembly", MinVersion: "v2.14.0"},
	{Name: "yasm", Command: "yasm", Description: "x86 assembly"},
	{Name: "pkg-config", Command: "pkg-config", Description: "library discovery"},
}

var mesonTools = []Requirement{
	{Name: "meson", Command: "meson", Description: "Meson-configured libraries", MinVersion: "v0.49.0"},
	{Name: "ninja", Command: "ninja", Description: "Meson backend"},
}

// Requirements returns the tools needed to build targets. cmake, nasm, yasm
// and pkg-config are only required when they are taken from the system.
// meson and ninja are required when any library in the dependency closure
// is configured with Meson.
func Requirements(reg *library.Registry, targets []string, useSystemTools bool) []Requirement {
	reqs := append([]Requirement(nil), base...)
	if useSystemTools {
		reqs = append(reqs, systemTools...)
	}
	for _, name := range reg.Closure(targets) {
		if lib, ok := reg.Get(name); ok && lib.Configuration() == buildsys.Meson {
			reqs = append(reqs, mesonTools...)
			break
		}
	}
	return reqs
}

// Check evaluates reqs and reports availability in order. version is only
// called for requirements with a MinVersion.
func Check(ctx context.Context, reqs []Requirement, lookPath LookPathFunc, version VersionFunc) []Status {
	results := make([]Status, 0, len(reqs))
	for _, req := range reqs {
		st := Status{Requirement: req}
		cmd := strings.TrimSpace(req.Command)
		if cmd == "" {
			st.Detail = "command not configured"
			results = append(results, st)
			continue
		}
		path, err := lookPath(cmd)
		if err != nil {
			st.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, st)
			continue
		}
		st.Path = path
		if req.MinVersion != "" && version != nil {
			v, err := version(ctx, path)
			if err != nil {
				st.Detail = fmt.Sprintf("version: %v", err)
				results = append(results, st)
				continue
			}
			st.Version = v
			if !atLeast(v, req.MinVersion) {
				st.Detail = fmt.Sprintf("version %s older than %s", v, req.MinVersion)
				results = append(results, st)
				continue
			}
		}
		st.Available = true
		results = append(results, st)
	}
	return results
}

// Verify returns a *MissingError when any status is unavailable.
func Verify(statuses []Status) error {
	var missing []Status
	for _, s := range statuses {
		if !s.Available {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Missing: missing}
	}
	return nil
}

var versionRe = regexp.MustCompile(`\d+(\.\d+){0,2}`)

// ParseVersion extracts the first dotted version number from out. It is
// returned as a canonical semantic version when it is one, and verbatim
// otherwise, as for nasm's "2.15.05".
func ParseVersion(out string) (string, error) {
	m := versionRe.FindString(out)
	if m == "" {
		return "", fmt.Errorf("no version in %q", strings.TrimSpace(out))
	}
	if v := semver.Canonical("v" + m); v != "" {
		return v, nil
	}
	return m, nil
}

// atLeast reports whether have is want or newer. Versions that are not
// semantic versions are ordered the GNU way.
func atLeast(have, want string) bool {
	if semver.IsValid(have) && semver.IsValid(want) {
		return semver.Compare(have, want) >= 0
	}
	return gnu.Compare(strings.TrimPrefix(have, "v"), strings.TrimPrefix(want, "v")) >= 0
}

// ExecVersion runs "<path> --version" and parses its output.
func ExecVersion(ctx context.Context, path string) (string, error) {
	var out bytes.Buffer
	cmd := execabs.CommandContext(ctx, path, "--version")
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return ParseVersion(out.String())
}
