package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/user/isoaudit/pkg/advisor"
	"github.com/user/isoaudit/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration (thresholds, output, advisor keys)",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *appConfig
		shown.Providers = make(map[string]config.ProviderConfig, len(appConfig.Providers))
		for name, p := range appConfig.Providers {
			shown.SetAPIKey(name, maskKey(p.APIKey))
		}
		data, err := yaml.Marshal(&shown)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Manually set API key for a provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		key, _ := cmd.Flags().GetString("key")

		if provider == "" || key == "" {
			return fmt.Errorf("--provider and --key are required")
		}

		appConfig.SetAPIKey(strings.ToLower(provider), key)
		if err := saveConfig(appConfig); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("API key saved for provider: %s\n", provider)
		return nil
	},
}

var setModelCmd = &cobra.Command{
	Use:   "set-model",
	Short: "Manually set the active provider and model",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		model, _ := cmd.Flags().GetString("model")

		if provider != "" {
			appConfig.SelectedProvider = strings.ToLower(provider)
		}
		if model != "" {
			appConfig.SelectedModel = model
		}

		if err := saveConfig(appConfig); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Active configuration updated: Provider=%s, Model=%s\n", appConfig.SelectedProvider, appConfig.SelectedModel)
		return nil
	},
}

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List available models from the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := appConfig.SelectedProvider
		if provider == "" {
			return fmt.Errorf("no provider selected; run 'isoaudit config init'")
		}

		fmt.Printf("Fetching models for %s...\n", provider)
		ctx := cmd.Context()
		p, err := advisor.NewProvider(ctx, provider, appConfig.GetAPIKey(provider), "")
		if err != nil {
			return err
		}
		defer p.Close()

		models, err := p.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("fetching models: %w", err)
		}

		fmt.Printf("\nAvailable Models (%s):\n", provider)
		for _, m := range models {
			mark := " "
			if m == appConfig.SelectedModel {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, m)
		}
		return nil
	},
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func init() {
	setKeyCmd.Flags().StringP("provider", "p", "gemini", "Provider")
	setKeyCmd.Flags().StringP("key", "k", "", "API Key")

	setModelCmd.Flags().StringP("provider", "p", "", "Provider")
	setModelCmd.Flags().StringP("model", "m", "", "Model name")

	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(setModelCmd)
	configCmd.AddCommand(listModelsCmd)
	rootCmd.AddCommand(configCmd)
}
