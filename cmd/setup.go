package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/isoaudit/pkg/advisor"
	"github.com/user/isoaudit/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(os.Stdin)
		ask := func(prompt, current string) string {
			fmt.Printf("%s [%s] > ", prompt, current)
			if !scanner.Scan() {
				return current
			}
			if answer := strings.TrimSpace(scanner.Text()); answer != "" {
				return answer
			}
			return current
		}

		cfg := appConfig
		fmt.Println("Welcome to the isoaudit setup wizard")
		fmt.Println("------------------------------------")

		// 1. Run settings
		fmt.Println("Step 1: Audit settings")
		cfg.OutputDir = ask("Report directory", cfg.OutputDir)
		if n, err := strconv.Atoi(ask("Concurrent checks", strconv.Itoa(cfg.Workers))); err == nil && n > 0 {
			cfg.Workers = n
		} else {
			fmt.Println("Invalid number, keeping", cfg.Workers)
		}
		if d, err := time.ParseDuration(ask("Probe timeout", cfg.ProbeTimeout.String())); err == nil && d > 0 {
			cfg.ProbeTimeout = d
		} else {
			fmt.Println("Invalid duration, keeping", cfg.ProbeTimeout)
		}
		cfg.OpenReport = strings.HasPrefix(strings.ToLower(ask("Open the HTML report after each run (y/n)", yesNo(cfg.OpenReport))), "y")

		// 2. Thresholds
		fmt.Println("\nStep 2: Control thresholds")
		t := &cfg.Thresholds
		for _, field := range []struct {
			prompt string
			value  *int
		}{
			{"Minimum password length", &t.MinPasswordLength},
			{"Maximum password age (days)", &t.MaxPasswordAgeDays},
			{"Maximum lockout threshold (attempts)", &t.MaxLockoutThreshold},
			{"Minimum Security log size (MB)", &t.MinSecurityLogMB},
			{"Maximum days since last patch", &t.MaxPatchAgeDays},
			{"Maximum antimalware signature age (days)", &t.MaxSignatureAgeDays},
		} {
			if n, err := strconv.Atoi(ask(field.prompt, strconv.Itoa(*field.value))); err == nil {
				*field.value = n
			}
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("invalid thresholds: %w", err)
		}

		// 3. Optional advisor
		fmt.Println("\nStep 3: Gemini advisor (optional, leave empty to skip)")
		fmt.Print("API key > ")
		scanner.Scan()
		if apiKey := strings.TrimSpace(scanner.Text()); apiKey != "" {
			cfg.SelectedProvider = "gemini"
			cfg.SetAPIKey("gemini", apiKey)
			cfg.SelectedModel = chooseModel(cmd, scanner, apiKey, cfg)
		}

		// 4. Save Configuration
		fmt.Println("\nStep 4: Saving Configuration...")
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Println("------------------------------------")
		fmt.Println("Setup Complete!")
		fmt.Printf("Reports: %s\n", cfg.OutputDir)
		if cfg.SelectedModel != "" {
			fmt.Printf("Model:   %s\n", cfg.SelectedModel)
		}
		fmt.Println("You can now run 'isoaudit run' from an elevated prompt")
		return nil
	},
}

// chooseModel lists the models the key can use and lets the user pick one.
func chooseModel(cmd *cobra.Command, scanner *bufio.Scanner, apiKey string, cfg *config.Config) string {
	fmt.Println("Validating key and fetching available models...")
	ctx := cmd.Context()
	p, err := advisor.NewProvider(ctx, "gemini", apiKey, "")
	if err != nil {
		fmt.Printf("Warning: could not initialize provider: %v\n", err)
		return cfg.SelectedModel
	}
	defer p.Close()

	models, err := p.ListModels(ctx)
	if err != nil || len(models) == 0 {
		fmt.Printf("Warning: Could not fetch models from API: %v\n", err)
		fmt.Printf("Please enter model name manually [%s] > ", cfg.SelectedModel)
		scanner.Scan()
		if m := strings.TrimSpace(scanner.Text()); m != "" {
			return m
		}
		return cfg.SelectedModel
	}

	fmt.Printf("Successfully retrieved %d models.\n", len(models))
	for i, m := range models {
		fmt.Printf("%d. %s\n", i+1, m)
	}
	fmt.Print("Select Model (number) > ")
	scanner.Scan()
	selIdx, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || selIdx < 1 || selIdx > len(models) {
		fmt.Println("Invalid selection. Using first available model.")
		return models[0]
	}
	return models[selIdx-1]
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}

func init() {
	configCmd.AddCommand(initCmd)
}
