// Package library describes the buildable third-party libraries and loads
// them from the embedded JSON registry.
package library

import (
	"slices"

	"github.com/goplus/ffbuild/internal/fetch"
	"github.com/goplus/ffbuild/pkgs/buildsys"
)

// Library is one build recipe. Its parameter and dependency lists only grow
// during a run.
type Library struct {
	name     string
	kind     buildsys.Kind
	params   []string
	deps     []string
	download fetch.Spec
	folder   []string
	checksum string
	hooks    Hooks
}

// Name returns the registry key, which is also the completion-marker key.
func (l *Library) Name() string { return l.name }

// Configuration returns the configuration system.
func (l *Library) Configuration() buildsys.Kind { return l.kind }

// ConfigureParams returns a copy of the configure parameters.
func (l *Library) ConfigureParams() []string { return slices.Clone(l.params) }

// Dependencies returns a copy of the dependency names.
func (l *Library) Dependencies() []string { return slices.Clone(l.deps) }

// Download returns where the source archive comes from.
func (l *Library) Download() fetch.Spec { return l.download }

// Folder returns the path segments of the source directory under the
// build-temp root.
func (l *Library) Folder() []string { return slices.Clone(l.folder) }

// Checksum returns the expected BLAKE3 digest of the archive, if any.
func (l *Library) Checksum() string { return l.checksum }

// Hooks returns the lifecycle hooks bound at load time.
func (l *Library) Hooks() Hooks { return l.hooks }

// AddConfigureParams appends params, keeping their order.
func (l *Library) AddConfigureParams(params ...string) {
	l.params = append(l.params, params...)
}

// AddDependencies appends dependency names, keeping their order.
func (l *Library) AddDependencies(names ...string) {
	l.deps = append(l.deps, names...)
}
