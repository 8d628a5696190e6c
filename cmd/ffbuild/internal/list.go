package internal

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goplus/ffbuild/internal/build"
	"github.com/goplus/ffbuild/internal/library"
	"github.com/goplus/ffbuild/internal/patches"
)

var listTargetDir string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the known libraries",
	Long:  `List prints every library in the registry with its configuration system, dependencies and build state.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listTargetDir, "target-dir", "targets", "Directory holding completion markers")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	reg, err := library.LoadDefault(patches.Table())
	if err != nil {
		return err
	}
	dir, err := filepath.Abs(listTargetDir)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), libraryTable(reg, dir))
	return nil
}

func libraryTable(reg *library.Registry, targetDir string) string {
	var rows [][]string
	for _, name := range reg.Names() {
		lib, _ := reg.Get(name)
		state := ""
		if build.IsBuilt(targetDir, name) {
			state = "built"
		}
		rows = append(rows, []string{name, string(lib.Configuration()), joinOrDash(lib.Dependencies()), state})
	}
	return renderTable([]string{"Library", "Configuration", "Dependencies", "State"}, rows)
}
