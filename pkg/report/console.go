package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/user/isoaudit/pkg/engine"
)

// Console prints the run progress and the final summary for a terminal.
type Console struct {
	NoColor bool
}

// IsTerminal reports whether f is attached to a terminal that can show colour.
func IsTerminal(f *os.File) bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (c Console) paint(attrs ...color.Attribute) *color.Color {
	p := color.New(attrs...)
	if c.NoColor {
		p.DisableColor()
	} else {
		p.EnableColor()
	}
	return p
}

// Mark returns the progress symbol of a check state.
func (c Console) Mark(state engine.State) string {
	switch state {
	case engine.StateCompliant:
		return c.paint(color.FgGreen).Sprint("✓")
	case engine.StateNonCompliant:
		return c.paint(color.FgRed).Sprint("✗")
	default:
		return c.paint(color.FgYellow).Sprint("!")
	}
}

// Progress returns a callback printing one line per finished check.
func (c Console) Progress(w io.Writer) func(engine.Progress) {
	return func(p engine.Progress) {
		fmt.Fprintf(w, "[%d/%d] %-24s %s %s\n", p.Index, p.Total, p.Category, c.Mark(p.State),
			c.paint(color.Faint).Sprint(p.Duration.Round(time.Millisecond)))
	}
}

func (c Console) score(pct int) *color.Color {
	switch {
	case pct >= 75:
		return c.paint(color.FgGreen, color.Bold)
	case pct >= 60:
		return c.paint(color.FgYellow, color.Bold)
	default:
		return c.paint(color.FgRed, color.Bold)
	}
}

func (c Console) Render(w io.Writer, s *engine.Snapshot) error {
	rule := strings.Repeat("=", 80)
	bold := c.paint(color.Bold)

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Overall score: %s (%d/%d controls)\n",
		c.score(s.OverallPercentage).Sprintf("%d%%", s.OverallPercentage), s.ControlsPassed, s.ControlsTotal)

	fmt.Fprintln(w)
	bold.Fprintln(w, "Score by ISO section:")
	for _, name := range s.SectionNames() {
		sc := s.Sections[name]
		fmt.Fprintf(w, "  %s: %s (%d/%d)\n", name, c.score(sc.Percentage).Sprintf("%d%%", sc.Percentage), sc.Passed, sc.Total)
	}

	var errored []engine.CheckResult
	for _, r := range s.OrderedChecks() {
		if r.State == engine.StateError {
			errored = append(errored, r)
		}
	}
	if len(errored) > 0 {
		fmt.Fprintln(w)
		c.paint(color.FgYellow).Fprintln(w, "Checks not evaluated:")
		for _, r := range errored {
			fmt.Fprintf(w, "  ! %s: %s\n", r.Category, r.Error)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total findings: %d", s.TotalFindings)
	if s.TotalFindings > 0 {
		counts := s.CountBySeverity()
		var parts []string
		for _, sev := range engine.AllSeverities() {
			if n := counts[sev]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, sev))
			}
		}
		fmt.Fprintf(w, " (%s)", strings.Join(parts, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	return nil
}
