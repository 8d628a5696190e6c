// Package options holds the global build configuration shared by the
// executor and every library hook.
package options

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Options contains build data for one invocation.
type Options struct {
	// Targets is the ordered list of libraries requested by the caller.
	Targets []string

	Threads int
	Silent  bool

	// TargetDir is the build-temp root: sources are fetched and extracted
	// here and completion markers live here.
	TargetDir string
	// ReleaseDir is the shared install prefix.
	ReleaseDir string
	// BinDir is relative to ReleaseDir.
	BinDir string

	ExtraCFlags     string
	ExtraLDFlags    string
	ExtraLibs       string
	ExtraFFmpegArgs string

	StaticFFmpeg bool
	NonFree      bool
}

// Default returns the options used when no flags or config file are given.
func Default() Options {
	return Options{
		Threads:    1,
		TargetDir:  "targets",
		ReleaseDir: "release",
		BinDir:     "bin",
	}
}

// Normalize makes TargetDir and ReleaseDir absolute, relative to the current
// working directory, and fills zero values with defaults.
func (o *Options) Normalize() error {
	def := Default()
	if o.Threads < 1 {
		o.Threads = def.Threads
	}
	if o.TargetDir == "" {
		o.TargetDir = def.TargetDir
	}
	if o.ReleaseDir == "" {
		o.ReleaseDir = def.ReleaseDir
	}
	if o.BinDir == "" {
		o.BinDir = def.BinDir
	}
	var err error
	if o.TargetDir, err = absDir(o.TargetDir); err != nil {
		return err
	}
	if o.ReleaseDir, err = absDir(o.ReleaseDir); err != nil {
		return err
	}
	return nil
}

func absDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", dir, err)
	}
	return filepath.Join(wd, dir), nil
}

// HasTarget reports whether name is in the requested target list.
func (o *Options) HasTarget(name string) bool {
	return slices.Contains(o.Targets, name)
}

// BinPath returns the directory where installed executables land.
func (o *Options) BinPath() string {
	return filepath.Join(o.ReleaseDir, o.BinDir)
}

// IncludeDir returns the shared prefix include directory.
func (o *Options) IncludeDir() string {
	return filepath.Join(o.ReleaseDir, "include")
}

// LibDir returns the shared prefix library directory.
func (o *Options) LibDir() string {
	return filepath.Join(o.ReleaseDir, "lib")
}

// PkgConfigDir returns the directory holding installed .pc files.
func (o *Options) PkgConfigDir() string {
	return filepath.Join(o.ReleaseDir, "lib", "pkgconfig")
}
