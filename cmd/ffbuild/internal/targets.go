package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/ffbuild/internal/targets"
)

var targetsOpts buildFlags

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Print the targets a build would process",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, sel, err := loadSelection(cmd, &targetsOpts)
		if err != nil {
			return err
		}
		for _, t := range targets.Select(sel) {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func init() {
	addSelectionFlags(targetsCmd, &targetsOpts)
	rootCmd.AddCommand(targetsCmd)
}
