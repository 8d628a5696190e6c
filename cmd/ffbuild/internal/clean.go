package internal

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	cleanTargetDir  string
	cleanReleaseDir string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the target and release directories",
	Long:  `Clean deletes downloaded sources, completion markers and every installed file.`,
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().StringVar(&cleanTargetDir, "target-dir", "targets", "Directory for sources and completion markers")
	cleanCmd.Flags().StringVar(&cleanReleaseDir, "release-dir", "release", "Install prefix")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())
	for _, dir := range []string{cleanTargetDir, cleanReleaseDir} {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		logger.Info("removing", "dir", abs)
		if err := os.RemoveAll(abs); err != nil {
			return err
		}
	}
	return nil
}
