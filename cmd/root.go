package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/isoaudit/pkg/config"
	"github.com/user/isoaudit/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "isoaudit",
	Short: "ISO/IEC 27001 compliance auditor for Windows hosts",
	Long: `isoaudit inspects the local Windows configuration against a set of
ISO/IEC 27001 / 27002 controls, scores compliance per Annex A section and
writes JSON and HTML reports with actionable findings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appConfig = cfg

		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		format := cfg.LogFormat
		if cmd.Flags().Changed("log-format") {
			format = logFormat
		}
		if DebugMode {
			level = "debug"
		}
		logging.DebugEnabled = DebugMode
		logger = logging.New(os.Stderr, logging.ParseLevel(level), format)
		slog.SetDefault(logger)
		return nil
	},
}

var (
	DebugMode bool
	cfgFile   string
	logLevel  string
	logFormat string

	appConfig *config.Config
	logger    = slog.Default()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadConfig()
}

func saveConfig(cfg *config.Config) error {
	if cfgFile != "" {
		return config.Save(cfgFile, cfg)
	}
	return config.SaveConfig(cfg)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.isoaudit/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}
