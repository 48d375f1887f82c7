package engine

import "fmt"

// Severity is the impact level attached to a Finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// severityRanks orders severities for sorting and colouring only.
// Scoring never looks at them: every control weighs the same.
var severityRanks = map[Severity]int{
	SeverityCritical: 5,
	SeverityHigh:     4,
	SeverityMedium:   3,
	SeverityLow:      2,
	SeverityInfo:     1,
}

// IsValid reports whether s is one of the known levels.
func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Rank returns the position of s in the total order (critical highest), 0 if invalid.
func (s Severity) Rank() int {
	return severityRanks[s]
}

func (s Severity) String() string {
	return string(s)
}

// ParseSeverity converts a string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.IsValid() {
		return "", fmt.Errorf("invalid severity: %q", s)
	}
	return sev, nil
}

// CompareSeverity returns a negative number when a is less severe than b,
// zero when equal and a positive number otherwise.
func CompareSeverity(a, b Severity) int {
	return a.Rank() - b.Rank()
}

// AllSeverities lists every level from critical to info.
func AllSeverities() []Severity {
	return []Severity{
		SeverityCritical,
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
		SeverityInfo,
	}
}
