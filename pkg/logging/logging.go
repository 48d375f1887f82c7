// Package logging builds the structured logger and carries the small set of
// console helpers used by the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// DebugEnabled turns on Debugf output.
var DebugEnabled bool

// Output receives the console helpers' messages.
var Output io.Writer = os.Stdout

// New returns a logger writing to w in the given format ("text" or "json").
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel converts a level name; unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debugf prints messages only if DebugEnabled is true
func Debugf(format string, args ...interface{}) {
	if DebugEnabled {
		fmt.Fprintf(Output, "[DEBUG] "+format+"\n", args...)
	}
}

// Infof prints messages always
func Infof(format string, args ...interface{}) {
	fmt.Fprintf(Output, format+"\n", args...)
}

// Warnf prints a warning line.
func Warnf(format string, args ...interface{}) {
	fmt.Fprintf(Output, "[WARN] "+format+"\n", args...)
}
