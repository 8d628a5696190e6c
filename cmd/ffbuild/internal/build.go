package internal

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sys/execabs"

	"github.com/goplus/ffbuild/internal/build"
	"github.com/goplus/ffbuild/internal/fetch"
	"github.com/goplus/ffbuild/internal/library"
	"github.com/goplus/ffbuild/internal/options"
	"github.com/goplus/ffbuild/internal/patches"
	"github.com/goplus/ffbuild/internal/preflight"
	"github.com/goplus/ffbuild/internal/runner"
	"github.com/goplus/ffbuild/internal/targets"
)

// buildFlags holds the values of the flags shared by build and targets.
type buildFlags struct {
	config          string
	targets         []string
	exclude         []string
	jobs            int
	quiet           bool
	targetDir       string
	releaseDir      string
	extraCFlags     string
	extraLDFlags    string
	extraLibs       string
	extraFFmpegArgs string
	disableFFplay   bool
	staticFFmpeg    bool
	nonFree         bool
	systemTools     bool
}

var buildOpts buildFlags

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build FFmpeg and the selected libraries",
	Long: `Build fetches every selected library, builds it into the release prefix
together with its dependencies and finally builds FFmpeg. Libraries that
already carry a completion marker are skipped.`,
	RunE: runBuild,
}

func init() {
	addSelectionFlags(buildCmd, &buildOpts)
	f := buildCmd.Flags()
	f.IntVarP(&buildOpts.jobs, "jobs", "j", runtime.NumCPU(), "Parallel jobs for make and ninja")
	f.BoolVarP(&buildOpts.quiet, "quiet", "q", false, "Capture build output, showing it only on failure")
	f.StringVar(&buildOpts.targetDir, "target-dir", "targets", "Directory for sources and completion markers")
	f.StringVar(&buildOpts.releaseDir, "release-dir", "release", "Install prefix")
	f.StringVar(&buildOpts.extraCFlags, "extra-cflags", "", "Extra CFLAGS for every library")
	f.StringVar(&buildOpts.extraLDFlags, "extra-ldflags", "", "Extra LDFLAGS for every library")
	f.StringVar(&buildOpts.extraLibs, "extra-libs", "", "Extra libraries for FFmpeg")
	f.StringVar(&buildOpts.extraFFmpegArgs, "extra-ffmpeg-args", "", "Extra FFmpeg configure arguments, shell quoted")
	f.BoolVar(&buildOpts.staticFFmpeg, "static-ffmpeg", false, "Link FFmpeg fully static")
	rootCmd.AddCommand(buildCmd)
}

// addSelectionFlags registers the flags that decide the target list.
func addSelectionFlags(cmd *cobra.Command, bf *buildFlags) {
	f := cmd.Flags()
	f.StringVarP(&bf.config, "config", "c", "", "TOML file with default settings")
	f.StringSliceVar(&bf.targets, "targets", nil, "Comma-separated targets to build (empty = all)")
	f.StringSliceVar(&bf.exclude, "exclude-targets", nil, "Comma-separated targets to skip")
	f.BoolVar(&bf.disableFFplay, "disable-ffplay", false, "Do not build ffplay (drops libsdl)")
	f.BoolVar(&bf.nonFree, "use-nonfree-libs", false, "Use non-free libraries (libfdk-aac, openssl)")
	f.BoolVar(&bf.systemTools, "use-system-build-tools", true, "Use cmake, nasm, yasm and pkg-config from the system")
}

// resolve merges the configuration file with the flags. A flag wins over
// the file only when it was set explicitly.
func resolve(file *options.File, bf *buildFlags, changed func(name string) bool) (options.Options, targets.Selection) {
	opts := options.Default()
	file.Apply(&opts)

	str := func(name string, dst *string, v string) {
		if changed(name) || *dst == "" {
			*dst = v
		}
	}
	if changed("jobs") || file.Jobs == 0 {
		opts.Threads = bf.jobs
	}
	if changed("quiet") {
		opts.Silent = bf.quiet
	}
	str("target-dir", &opts.TargetDir, bf.targetDir)
	str("release-dir", &opts.ReleaseDir, bf.releaseDir)
	str("extra-cflags", &opts.ExtraCFlags, bf.extraCFlags)
	str("extra-ldflags", &opts.ExtraLDFlags, bf.extraLDFlags)
	str("extra-libs", &opts.ExtraLibs, bf.extraLibs)
	str("extra-ffmpeg-args", &opts.ExtraFFmpegArgs, bf.extraFFmpegArgs)
	if changed("static-ffmpeg") {
		opts.StaticFFmpeg = bf.staticFFmpeg
	}
	if changed("use-nonfree-libs") {
		opts.NonFree = bf.nonFree
	}

	sel := targets.Selection{
		Only:          file.Targets,
		Exclude:       file.ExcludeTargets,
		NonFree:       opts.NonFree,
		DisableFFplay: file.DisableFFplay,
		GOOS:          runtime.GOOS,
	}
	sel.UseSystemTools = bf.systemTools
	if file.SystemTools != nil && !changed("use-system-build-tools") {
		sel.UseSystemTools = *file.SystemTools
	}
	if changed("targets") {
		sel.Only = bf.targets
	}
	if changed("exclude-targets") {
		sel.Exclude = bf.exclude
	}
	if changed("disable-ffplay") {
		sel.DisableFFplay = bf.disableFFplay
	}
	return opts, sel
}

// loadSelection reads the configuration file and resolves the flags of cmd.
func loadSelection(cmd *cobra.Command, bf *buildFlags) (options.Options, targets.Selection, error) {
	file, err := options.Load(bf.config)
	if err != nil {
		return options.Options{}, targets.Selection{}, err
	}
	opts, sel := resolve(file, bf, cmd.Flags().Changed)
	if unknown := targets.Unknown(sel.Only); len(unknown) > 0 {
		loggerFromContext(cmd.Context()).Warn("ignoring unknown targets", "targets", unknown)
	}
	return opts, sel, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	opts, sel, err := loadSelection(cmd, &buildOpts)
	if err != nil {
		return err
	}
	opts.Targets = targets.Select(sel)
	if len(opts.Targets) == 0 {
		return errors.New("no targets selected")
	}
	if err := opts.Normalize(); err != nil {
		return err
	}

	reg, err := library.LoadDefault(patches.Table())
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	reqs := preflight.Requirements(reg, opts.Targets, sel.UseSystemTools)
	statuses := preflight.Check(ctx, reqs, execabs.LookPath, preflight.ExecVersion)
	if err := preflight.Verify(statuses); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.NonFree {
		printBlock(out, "Non-free libraries enabled. The resulting build can not be redistributed.")
	} else {
		printBlock(out, "Building FFmpeg, free as in freedom!")
	}
	printHeader(out, "Processing targets:")
	printBlock(out, joinOrDash(opts.Targets))

	r := &runner.Exec{Quiet: opts.Silent, Logger: logger}
	cache := fetch.New(opts.TargetDir, fetch.NewHTTPGetter(!opts.Silent), logger)
	b := build.New(reg, &opts, r, cache, build.WithLogger(logger))

	printHeader(out, "Building process started")
	if err := b.Build(ctx, opts.Targets); err != nil {
		return err
	}

	ffmpeg := opts.BinPath() + string(os.PathSeparator) + "ffmpeg"
	printBlock(out,
		"Finished: "+ffmpeg,
		"Check the build by running: "+ffmpeg+" -version",
		"Study the protocols list carefully: "+ffmpeg+" -protocols",
	)
	printSuccess(out, "FFmpeg build success")
	return nil
}
