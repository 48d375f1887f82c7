package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/report"
)

var listTemplates bool

var remediateCmd = &cobra.Command{
	Use:   "remediate [report.json]",
	Short: "Print fix, validation and rollback plans for the findings of a report",
	Long: `remediate renders a plan for every finding of a JSON report. Plans are
printed only; nothing is executed on the host.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		remediation, err := engine.NewRemediationEngine()
		if err != nil {
			return err
		}
		if appConfig.TemplatesDir != "" {
			if err := remediation.LoadTemplates(appConfig.TemplatesDir); err != nil {
				return fmt.Errorf("loading remediation templates: %w", err)
			}
		}

		if listTemplates {
			for _, t := range remediation.ListTemplates() {
				fmt.Println(t)
			}
			return nil
		}

		path := filepath.Join(appConfig.OutputDir, report.JSONFileName)
		if len(args) == 1 {
			path = args[0]
		}
		snapshot, err := engine.LoadSnapshot(path)
		if err != nil {
			return err
		}
		if len(snapshot.Findings) == 0 {
			fmt.Println("No findings to remediate.")
			return nil
		}

		vars := appConfig.Thresholds.Vars()
		for _, f := range snapshot.Findings {
			plan, ok, err := remediation.GeneratePlan(f, vars)
			if err != nil {
				return err
			}
			if !ok {
				plan = fmt.Sprintf("[FIX PLAN]\nIssue: %s\nSeverity: %s\nStandard: %s\n\nSuggested Fix:\n%s\n", f.Title, f.Severity, f.Reference, f.Recommendation)
			}
			fmt.Println(plan)
		}
		return nil
	},
}

func init() {
	remediateCmd.Flags().BoolVar(&listTemplates, "list", false, "List the available remediation templates")
	rootCmd.AddCommand(remediateCmd)
}
