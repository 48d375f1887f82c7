package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/isoaudit/pkg/advisor"
	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/logging"
	"github.com/user/isoaudit/pkg/report"
)

var showPrompt bool

var adviseCmd = &cobra.Command{
	Use:   "advise [report.json]",
	Short: "Summarize a report and prioritize fixes with a Gemini model",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(appConfig.OutputDir, report.JSONFileName)
		if len(args) == 1 {
			path = args[0]
		}
		snapshot, err := engine.LoadSnapshot(path)
		if err != nil {
			return err
		}

		if showPrompt {
			fmt.Println(advisor.SystemPrompt())
			fmt.Println(advisor.BuildPrompt(snapshot))
			return nil
		}

		providerName := appConfig.SelectedProvider
		ctx := cmd.Context()
		p, err := advisor.NewProvider(ctx, providerName, appConfig.GetAPIKey(providerName), appConfig.SelectedModel)
		if err != nil {
			return err
		}
		defer p.Close()

		logging.Debugf("Requesting advice from %s (model %s)", providerName, appConfig.SelectedModel)
		text, err := advisor.Advise(ctx, p, snapshot)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	adviseCmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "Print the prompt instead of sending it")
	rootCmd.AddCommand(adviseCmd)
}
