package options

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// File mirrors the optional ffbuild.toml configuration file. Every field is
// a default that explicit command-line flags override.
type File struct {
	Jobs            int      `toml:"jobs"`
	Quiet           bool     `toml:"quiet"`
	TargetDir       string   `toml:"target_dir"`
	ReleaseDir      string   `toml:"release_dir"`
	Targets         []string `toml:"targets"`
	ExcludeTargets  []string `toml:"exclude_targets"`
	ExtraCFlags     string   `toml:"extra_cflags"`
	ExtraLDFlags    string   `toml:"extra_ldflags"`
	ExtraLibs       string   `toml:"extra_libs"`
	ExtraFFmpegArgs string   `toml:"extra_ffmpeg_args"`
	StaticFFmpeg    bool     `toml:"static_ffmpeg"`
	NonFree         bool     `toml:"use_nonfree_libs"`
	DisableFFplay   bool     `toml:"disable_ffplay"`
	SystemTools     *bool    `toml:"use_system_build_tools"`
}

// Load parses the configuration file at path. An empty path, or a path that
// does not exist, yields an empty File.
func Load(path string) (*File, error) {
	var f File
	if path == "" {
		return &f, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &f, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if f.Jobs < 0 {
		return nil, fmt.Errorf("parse config %s: jobs must be positive, got %d", path, f.Jobs)
	}
	return &f, nil
}

// Apply copies the file values into o.
func (f *File) Apply(o *Options) {
	if f.Jobs > 0 {
		o.Threads = f.Jobs
	}
	o.Silent = o.Silent || f.Quiet
	if f.TargetDir != "" {
		o.TargetDir = f.TargetDir
	}
	if f.ReleaseDir != "" {
		o.ReleaseDir = f.ReleaseDir
	}
	if f.ExtraCFlags != "" {
		o.ExtraCFlags = f.ExtraCFlags
	}
	if f.ExtraLDFlags != "" {
		o.ExtraLDFlags = f.ExtraLDFlags
	}
	if f.ExtraLibs != "" {
		o.ExtraLibs = f.ExtraLibs
	}
	if f.ExtraFFmpegArgs != "" {
		o.ExtraFFmpegArgs = f.ExtraFFmpegArgs
	}
	o.StaticFFmpeg = o.StaticFFmpeg || f.StaticFFmpeg
	o.NonFree = o.NonFree || f.NonFree
}
