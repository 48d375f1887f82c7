package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// SectionScore is the rollup of every control mapped to one standard section.
type SectionScore struct {
	Passed     int `json:"controls_passed"`
	Total      int `json:"controls_total"`
	Percentage int `json:"percentage"`
}

// Snapshot is the final report of a run. It is built once by
// Aggregator.Finalize and must be treated as read-only afterwards.
type Snapshot struct {
	Timestamp         time.Time               `json:"timestamp"`
	OverallPercentage int                     `json:"overall_percentage"`
	ControlsPassed    int                     `json:"controls_passed"`
	ControlsTotal     int                     `json:"controls_total"`
	Sections          map[string]SectionScore `json:"section_scores"`
	TotalFindings     int                     `json:"total_findings"`
	Checks            map[string]CheckResult  `json:"checks"`
	CheckOrder        []string                `json:"check_order"`
	Findings          []Finding               `json:"findings"`
}

// SectionNames returns the scored sections in lexical order.
func (s *Snapshot) SectionNames() []string {
	names := make([]string, 0, len(s.Sections))
	for name := range s.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OrderedChecks returns the check results in run order.
func (s *Snapshot) OrderedChecks() []CheckResult {
	out := make([]CheckResult, 0, len(s.CheckOrder))
	for _, category := range s.CheckOrder {
		if r, ok := s.Checks[category]; ok {
			out = append(out, r)
		}
	}
	return out
}

// CountBySeverity tallies findings per severity level.
func (s *Snapshot) CountBySeverity() map[Severity]int {
	out := make(map[Severity]int)
	for _, f := range s.Findings {
		out[f.Severity]++
	}
	return out
}

// LoadSnapshot reads a JSON report previously written by the JSON renderer.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	if s.Sections == nil {
		s.Sections = make(map[string]SectionScore)
	}
	if s.Checks == nil {
		s.Checks = make(map[string]CheckResult)
	}
	return &s, nil
}

// SnapshotDiff classifies findings of two reports by finding id.
type SnapshotDiff struct {
	New       []Finding
	Fixed     []Finding
	Unchanged []Finding
	Delta     int // overall percentage change, current minus baseline
}

// CompareSnapshot compares s (current) against baseline.
func (s *Snapshot) CompareSnapshot(baseline *Snapshot) SnapshotDiff {
	diff := SnapshotDiff{Delta: s.OverallPercentage - baseline.OverallPercentage}

	before := make(map[string]bool, len(baseline.Findings))
	for _, f := range baseline.Findings {
		before[f.ID] = true
	}
	now := make(map[string]bool, len(s.Findings))
	for _, f := range s.Findings {
		now[f.ID] = true
		if before[f.ID] {
			diff.Unchanged = append(diff.Unchanged, f)
		} else {
			diff.New = append(diff.New, f)
		}
	}
	for _, f := range baseline.Findings {
		if !now[f.ID] {
			diff.Fixed = append(diff.Fixed, f)
		}
	}
	return diff
}
