package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type tally struct {
	passed int
	total  int
}

// Aggregator folds check results into running totals for one run
type Aggregator struct {
	mu       sync.Mutex
	sections SectionMap
	order    []string
	results  map[string]CheckResult
	findings []Finding
	overall  tally
	bySec    map[string]*tally
	now      func() time.Time
	logger   *slog.Logger
}

// AggregatorOption customises an Aggregator.
type AggregatorOption func(*Aggregator)

// WithClock sets the clock used to stamp the snapshot.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// WithAggregatorLogger sets the logger used for per-record diagnostics.
func WithAggregatorLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = l }
}

// NewAggregator creates an aggregator using the given category to section table
func NewAggregator(sections SectionMap, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		sections: sections,
		results:  make(map[string]CheckResult),
		findings: make([]Finding, 0),
		bySec:    make(map[string]*tally),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record adds one check result. Findings are appended in call order; controls
// of error results are left out of every total.
func (a *Aggregator) Record(category string, r CheckResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.results[category]; exists {
		return fmt.Errorf("%w: %s already recorded", ErrDuplicateCategory, category)
	}
	a.order = append(a.order, category)
	a.results[category] = r
	a.findings = append(a.findings, r.Findings...)

	if r.State == StateError {
		a.logger.Debug("excluding errored check from scoring", "category", category, "error", r.Error)
		return nil
	}

	passed, total := r.Passed(), len(r.Controls)
	a.overall.passed += passed
	a.overall.total += total

	section, ok := a.sections.Section(category)
	if !ok {
		a.logger.Warn("category has no section; counted in overall score only", "category", category)
		return nil
	}
	t := a.bySec[section]
	if t == nil {
		t = &tally{}
		a.bySec[section] = t
	}
	t.passed += passed
	t.total += total
	return nil
}

// Finalize computes the scores and returns an independent snapshot.
func (a *Aggregator) Finalize() *Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := &Snapshot{
		Timestamp:         a.now(),
		OverallPercentage: percentage(a.overall.passed, a.overall.total),
		ControlsPassed:    a.overall.passed,
		ControlsTotal:     a.overall.total,
		Sections:          make(map[string]SectionScore, len(a.bySec)),
		TotalFindings:     len(a.findings),
		Findings:          make([]Finding, len(a.findings)),
		Checks:            make(map[string]CheckResult, len(a.results)),
		CheckOrder:        make([]string, len(a.order)),
	}
	for section, t := range a.bySec {
		if t.total == 0 {
			continue
		}
		s.Sections[section] = SectionScore{
			Passed:     t.passed,
			Total:      t.total,
			Percentage: percentage(t.passed, t.total),
		}
	}
	copy(s.Findings, a.findings)
	copy(s.CheckOrder, a.order)
	for category, r := range a.results {
		s.Checks[category] = cloneResult(r)
	}
	return s
}

// percentage truncates: 1 of 6 is 16, never 17.
func percentage(passed, total int) int {
	if total <= 0 {
		return 0
	}
	return passed * 100 / total
}

func cloneResult(r CheckResult) CheckResult {
	out := r
	out.Controls = make([]Control, len(r.Controls))
	copy(out.Controls, r.Controls)
	out.Findings = make([]Finding, len(r.Findings))
	copy(out.Findings, r.Findings)
	return out
}
