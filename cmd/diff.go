package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/report"
)

var diffCmd = &cobra.Command{
	Use:   "diff <baseline.json> [current.json]",
	Short: "Compare two JSON reports: new, fixed and unchanged findings",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseline, err := engine.LoadSnapshot(args[0])
		if err != nil {
			return err
		}
		currentPath := filepath.Join(appConfig.OutputDir, report.JSONFileName)
		if len(args) == 2 {
			currentPath = args[1]
		}
		current, err := engine.LoadSnapshot(currentPath)
		if err != nil {
			return err
		}
		report.WriteDiff(os.Stdout, args[0], baseline, current)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
