// Package probe runs host commands on behalf of checks. A probe never returns
// an error: missing binaries, non-zero exits and timeouts all produce an
// empty, failed Output that checks turn into fail-closed defaults.
package probe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds every probe that does not set its own.
const DefaultTimeout = 5 * time.Second

// Spec describes one command to run.
type Spec struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
	// Timeout overrides the adapter default when positive.
	Timeout time.Duration `yaml:"-"`
}

// Cmd builds a Spec.
func Cmd(command string, args ...string) Spec {
	return Spec{Command: command, Args: args}
}

// PowerShell builds a Spec running a PowerShell one-liner.
func PowerShell(script string) Spec {
	return Cmd("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
}

// String renders the spec as a single command line. It is also the key
// under which outputs are recorded and replayed.
func (s Spec) String() string {
	if len(s.Args) == 0 {
		return s.Command
	}
	return s.Command + " " + strings.Join(s.Args, " ")
}

// Output is the raw evidence returned by a probe.
type Output struct {
	Text      string `yaml:"text"`
	Succeeded bool   `yaml:"succeeded"`
}

// Empty reports whether the probe produced no usable text.
func (o Output) Empty() bool {
	return strings.TrimSpace(o.Text) == ""
}

// Runner executes probes.
type Runner interface {
	Run(ctx context.Context, spec Spec) Output
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, spec Spec) Output

func (f RunnerFunc) Run(ctx context.Context, spec Spec) Output {
	return f(ctx, spec)
}

// Exec runs probes as local processes.
type Exec struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewExec creates an exec adapter with the given default timeout.
func NewExec(timeout time.Duration, logger *slog.Logger) *Exec {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exec{Timeout: timeout, Logger: logger}
}

// Run executes the command with its own deadline and returns the captured
// stdout. Any failure yields Output{Succeeded: false} with no text.
func (e *Exec) Run(ctx context.Context, spec Spec) Output {
	if spec.Command == "" {
		return Output{}
	}
	timeout := e.Timeout
	if spec.Timeout > 0 {
		timeout = spec.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		reason := err.Error()
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			reason = "timed out after " + timeout.String()
		case errors.Is(ctx.Err(), context.Canceled):
			reason = "cancelled"
		case errors.As(err, &exitErr):
			reason = "exit code " + strconv.Itoa(exitErr.ExitCode())
		}
		e.Logger.Debug("probe unavailable", "command", spec.String(), "reason", reason, "duration", duration)
		return Output{}
	}

	e.Logger.Debug("probe ran", "command", spec.String(), "bytes", stdout.Len(), "duration", duration)
	return Output{Text: stdout.String(), Succeeded: true}
}

// BinaryExists checks if a binary exists in the system PATH.
func BinaryExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
