package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/user/isoaudit/pkg/checks"
	"github.com/user/isoaudit/pkg/config"
	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/logging"
	"github.com/user/isoaudit/pkg/probe"
	"github.com/user/isoaudit/pkg/report"
	"github.com/user/isoaudit/pkg/telemetry"
)

type runOptions struct {
	outputDir   string
	workers     int
	timeout     time.Duration
	open        bool
	replay      string
	record      string
	profilesDir string
	only        []string
	trace       bool
	noColor     bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Audit this host and write the compliance reports",
	Example: `  isoaudit run
  isoaudit run --output-dir reports --no-open
  isoaudit run --record evidence.yaml
  isoaudit run --replay evidence.yaml --only Firewall,Encryption`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOpts
		applyConfigDefaults(cmd, &opts, appConfig)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runAudit(ctx, opts, appConfig)
	},
}

// applyConfigDefaults fills every flag the user did not set from the config file.
func applyConfigDefaults(cmd *cobra.Command, opts *runOptions, cfg *config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("output-dir") {
		opts.outputDir = cfg.OutputDir
	}
	if !flags.Changed("workers") {
		opts.workers = cfg.Workers
	}
	if !flags.Changed("timeout") {
		opts.timeout = cfg.ProbeTimeout
	}
	if !flags.Changed("open") && !flags.Changed("no-open") {
		opts.open = cfg.OpenReport
	}
	if flags.Changed("no-open") {
		noOpen, _ := flags.GetBool("no-open")
		opts.open = !noOpen
	}
	if !flags.Changed("profiles") {
		opts.profilesDir = cfg.ProfilesDir
	}
}

func runAudit(ctx context.Context, opts runOptions, cfg *config.Config) error {
	color.NoColor = opts.noColor || !report.IsTerminal(os.Stdout)
	console := report.Console{NoColor: color.NoColor}

	if opts.trace {
		shutdown := telemetry.Setup(logger)
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("trace shutdown failed", "error", err)
			}
		}()
	}

	runner, err := probeRunner(ctx, opts)
	if err != nil {
		return err
	}
	var recorder *probe.Recorder
	if opts.record != "" {
		recorder = probe.NewRecorder(runner)
		runner = recorder
	}

	var profiles []*checks.Profile
	if opts.profilesDir != "" {
		if profiles, err = checks.LoadProfiles(opts.profilesDir); err != nil {
			return fmt.Errorf("loading profiles: %w", err)
		}
		for _, p := range profiles {
			logging.Infof("Loaded compliance profile: %s (%s)", p.Category, p.Source)
		}
	}

	reg, sections, err := checks.NewRegistry(checks.Options{
		Probe:      runner,
		Thresholds: cfg.Thresholds,
	}, profiles...)
	if err != nil {
		return err
	}
	if len(opts.only) > 0 {
		if reg, err = reg.Filter(opts.only); err != nil {
			return err
		}
	}
	for _, category := range sections.Unmapped(reg) {
		logging.Warnf("%s has no ISO section; it only counts toward the overall score", category)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("WINDOWS SECURITY AUDIT - ISO/IEC 27001/27002")
	fmt.Println(strings.Repeat("=", 80))

	agg := engine.NewAggregator(sections, engine.WithAggregatorLogger(logger))
	r := engine.NewRunner(reg,
		engine.WithWorkers(opts.workers),
		engine.WithLogger(logger),
		engine.WithProgress(console.Progress(os.Stdout)),
	)
	if err := r.Run(ctx, agg); err != nil {
		return err
	}
	snapshot := agg.Finalize()

	if recorder != nil {
		if err := recorder.Save(opts.record); err != nil {
			return fmt.Errorf("saving probe evidence: %w", err)
		}
		logging.Infof("Probe evidence written to %s", opts.record)
	}

	fmt.Println("\nWriting reports...")
	jsonPath, htmlPath, err := writeReports(ctx, opts.outputDir, snapshot)
	if err != nil {
		return err
	}
	fmt.Printf("    %s %s\n", console.Mark(engine.StateCompliant), jsonPath)
	fmt.Printf("    %s %s\n", console.Mark(engine.StateCompliant), htmlPath)

	if err := console.Render(os.Stdout, snapshot); err != nil {
		return err
	}

	if opts.open {
		if err := report.Open(htmlPath); err != nil {
			logger.Debug("could not open report", "path", htmlPath, "error", err)
		}
	}
	return nil
}

// writeReports writes the report files unless the run was interrupted after
// the checks finished.
func writeReports(ctx context.Context, dir string, snapshot *engine.Snapshot) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", fmt.Errorf("%w: %v", engine.ErrInterrupted, err)
	}
	return report.WriteFiles(dir, snapshot)
}

// probeRunner selects replayed evidence or live commands.
func probeRunner(ctx context.Context, opts runOptions) (probe.Runner, error) {
	if opts.replay != "" {
		replay, err := probe.LoadReplay(opts.replay)
		if err != nil {
			return nil, fmt.Errorf("loading replay file: %w", err)
		}
		logging.Infof("Replaying probe evidence from %s", opts.replay)
		return replay, nil
	}

	live := probe.NewExec(opts.timeout, logger)
	if err := checks.Preflight(ctx, live, runtime.GOOS, logger); err != nil {
		if errors.Is(err, engine.ErrPrivilege) {
			return nil, fmt.Errorf("%w (right-click the terminal and choose \"Run as administrator\")", err)
		}
		return nil, err
	}
	return live, nil
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.outputDir, "output-dir", "o", ".", "Directory for security_report.json and security_report.html")
	f.IntVarP(&runOpts.workers, "workers", "w", engine.DefaultWorkers, "Checks run concurrently (1 runs them in order)")
	f.DurationVar(&runOpts.timeout, "timeout", probe.DefaultTimeout, "Deadline for each probe command")
	f.BoolVar(&runOpts.open, "open", true, "Open the HTML report when done")
	f.Bool("no-open", false, "Do not open the HTML report")
	f.StringVar(&runOpts.replay, "replay", "", "Serve probe output from a captured evidence file instead of running commands")
	f.StringVar(&runOpts.record, "record", "", "Save every probe output to this evidence file")
	f.StringVar(&runOpts.profilesDir, "profiles", "", "Directory of custom YAML control profiles")
	f.StringSliceVar(&runOpts.only, "only", nil, "Run only these categories (comma separated)")
	f.BoolVar(&runOpts.trace, "trace", false, "Log an OpenTelemetry span for every check")
	f.BoolVar(&runOpts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(runCmd)
}
