package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCheck returns a fixed result, optionally after a delay or a panic.
type stubCheck struct {
	category  string
	reference string
	result    CheckResult
	delay     time.Duration
	panics    bool
}

func (s *stubCheck) Category() string  { return s.category }
func (s *stubCheck) Reference() string { return s.reference }

func (s *stubCheck) Verify(ctx context.Context) CheckResult {
	if s.panics {
		panic("probe parser exploded")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	return s.result
}

// scored builds a result with passed compliant controls out of total.
func scored(category string, passed, total int) CheckResult {
	b := NewResult(category, "ref")
	for i := 0; i < total; i++ {
		id := category + "." + string(rune('a'+i))
		b.Evaluate(i < passed, id, id, "observed", Finding{Title: id, Severity: SeverityMedium})
	}
	return b.Result()
}

func stub(category string, passed, total int) *stubCheck {
	return &stubCheck{category: category, reference: "ref", result: scored(category, passed, total)}
}

var fixedClock = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

func TestSeverityOrder(t *testing.T) {
	all := AllSeverities()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Positive(t, CompareSeverity(all[i-1], all[i]), "%s should outrank %s", all[i-1], all[i])
	}

	s, err := ParseSeverity("high")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, s)

	_, err = ParseSeverity("urgent")
	assert.Error(t, err)
	assert.Zero(t, Severity("urgent").Rank())
}

func TestFindingIDIsDeterministic(t *testing.T) {
	assert.Equal(t, FindingID("firewall.public"), FindingID("firewall.public"))
	assert.NotEqual(t, FindingID("firewall.public"), FindingID("firewall.domain"))

	r := NewResult("Firewall", "ref").
		Fail("firewall.public", "Public profile", "OFF", Finding{Title: "off"}).
		Result()
	require.Len(t, r.Findings, 1)
	assert.Equal(t, FindingID("firewall.public"), r.Findings[0].ID)
	assert.Equal(t, "firewall.public", r.Findings[0].Control)
}

func TestResultBuilderStates(t *testing.T) {
	r := NewResult("A", "ref").Pass("a.1", "one", "yes").Result()
	assert.Equal(t, StateCompliant, r.State)
	assert.NoError(t, r.Validate())

	r = NewResult("A", "ref").Pass("a.1", "one", "yes").Fail("a.2", "two", "no", Finding{}).Result()
	assert.Equal(t, StateNonCompliant, r.State)
	assert.Equal(t, 1, r.Passed())
	assert.NoError(t, r.Validate())
}

func TestResultBuilderBlankObserved(t *testing.T) {
	r := NewResult("A", "ref").Pass("a.1", "one", "").Fail("a.2", "two", "  ", Finding{}).Result()
	assert.Equal(t, "unknown", r.Controls[0].Observed)
	assert.Equal(t, "unknown", r.Controls[1].Observed)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		result CheckResult
	}{
		{"empty category", CheckResult{State: StateCompliant}},
		{"unknown state", CheckResult{Category: "A", State: "maybe"}},
		{"compliant with findings", CheckResult{Category: "A", State: StateCompliant, Findings: []Finding{{Control: "a"}}}},
		{"non-compliant without findings", CheckResult{Category: "A", State: StateNonCompliant}},
		{"finding for passing control", CheckResult{
			Category: "A", State: StateNonCompliant,
			Controls: []Control{{ID: "a", Compliant: true}},
			Findings: []Finding{{Control: "a"}},
		}},
		{"failing control without finding", CheckResult{
			Category: "A", State: StateNonCompliant,
			Controls: []Control{{ID: "a"}, {ID: "b"}},
			Findings: []Finding{{Control: "a"}},
		}},
		{"two findings for one control", CheckResult{
			Category: "A", State: StateNonCompliant,
			Controls: []Control{{ID: "a"}},
			Findings: []Finding{{Control: "a"}, {Control: "a"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.result.Validate(), ErrInvalidResult)
		})
	}

	assert.NoError(t, ErrorResult("A", "ref", errors.New("boom")).Validate())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(stub("B", 1, 1)))
	require.NoError(t, reg.Add(stub("A", 1, 1)))
	assert.ErrorIs(t, reg.Add(stub("A", 0, 1)), ErrDuplicateCategory)
	assert.Error(t, reg.Add(stub("", 0, 0)))

	assert.Equal(t, []string{"B", "A"}, reg.Categories())
	assert.Equal(t, 2, reg.Len())
	_, ok := reg.Get("A")
	assert.True(t, ok)

	var visited []string
	reg.ForEach(func(category string, _ Check) bool {
		visited = append(visited, category)
		return false
	})
	assert.Equal(t, []string{"B"}, visited)

	filtered, err := reg.Filter([]string{"A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, filtered.Categories())
	_, err = reg.Filter([]string{"Z"})
	assert.Error(t, err)

	assert.Panics(t, func() { NewRegistry().MustAdd(stub("A", 0, 0), stub("A", 0, 0)) })
}

func TestSectionMap(t *testing.T) {
	m := SectionMap{"A": "S1", "B": "S2"}
	merged := m.Merge(SectionMap{"C": "S1", "B": "S3"})
	assert.Equal(t, "S3", merged["B"])
	assert.Equal(t, "S2", m["B"])
	assert.Equal(t, []string{"S1", "S3"}, merged.Sections())

	reg := NewRegistry().MustAdd(stub("A", 0, 0), stub("X", 0, 0))
	assert.Equal(t, []string{"X"}, m.Unmapped(reg))
}
