package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorSectionScore(t *testing.T) {
	agg := NewAggregator(SectionMap{"A": "S", "B": "S"}, WithClock(fixedClock))
	require.NoError(t, agg.Record("A", scored("A", 2, 2)))
	require.NoError(t, agg.Record("B", scored("B", 1, 3)))

	s := agg.Finalize()
	assert.Equal(t, SectionScore{Passed: 3, Total: 5, Percentage: 60}, s.Sections["S"])
	assert.Equal(t, 60, s.OverallPercentage)
	assert.Equal(t, 2, s.TotalFindings)
	assert.Equal(t, fixedClock(), s.Timestamp)
}

func TestAggregatorTruncates(t *testing.T) {
	tests := []struct {
		passed, total, want int
	}{
		{1, 3, 33},
		{2, 3, 66},
		{1, 6, 16},
		{5, 5, 100},
		{0, 4, 0},
	}
	for _, tt := range tests {
		agg := NewAggregator(SectionMap{"A": "S"})
		require.NoError(t, agg.Record("A", scored("A", tt.passed, tt.total)))
		s := agg.Finalize()
		assert.Equal(t, tt.want, s.OverallPercentage, "%d/%d", tt.passed, tt.total)
		assert.Equal(t, tt.want, s.Sections["S"].Percentage, "%d/%d", tt.passed, tt.total)
	}
}

func TestAggregatorEmpty(t *testing.T) {
	s := NewAggregator(SectionMap{"A": "S"}).Finalize()
	assert.Zero(t, s.OverallPercentage)
	assert.Zero(t, s.ControlsTotal)
	assert.Empty(t, s.Sections)
	assert.Empty(t, s.Findings)
	assert.NotNil(t, s.Findings)
}

func TestAggregatorUnmappedCategory(t *testing.T) {
	agg := NewAggregator(SectionMap{"A": "S"})
	require.NoError(t, agg.Record("A", scored("A", 1, 1)))
	require.NoError(t, agg.Record("Extra", scored("Extra", 0, 1)))

	s := agg.Finalize()
	assert.Equal(t, 1, s.ControlsPassed)
	assert.Equal(t, 2, s.ControlsTotal)
	assert.Equal(t, 50, s.OverallPercentage)
	assert.Equal(t, []string{"S"}, s.SectionNames())
	assert.Equal(t, 100, s.Sections["S"].Percentage)
}

func TestAggregatorExcludesErrors(t *testing.T) {
	agg := NewAggregator(SectionMap{"A": "S", "B": "S"})
	require.NoError(t, agg.Record("A", scored("A", 1, 2)))
	require.NoError(t, agg.Record("B", ErrorResult("B", "ref", assert.AnError)))

	s := agg.Finalize()
	assert.Equal(t, 2, s.ControlsTotal)
	assert.Equal(t, 50, s.Sections["S"].Percentage)
	assert.Equal(t, StateError, s.Checks["B"].State)
	assert.Equal(t, []string{"A", "B"}, s.CheckOrder)
}

func TestAggregatorRejectsDuplicate(t *testing.T) {
	agg := NewAggregator(nil)
	require.NoError(t, agg.Record("A", scored("A", 1, 1)))
	assert.ErrorIs(t, agg.Record("A", scored("A", 1, 1)), ErrDuplicateCategory)
}

func TestFinalizeReturnsIndependentCopy(t *testing.T) {
	agg := NewAggregator(SectionMap{"A": "S"})
	require.NoError(t, agg.Record("A", scored("A", 0, 2)))

	first := agg.Finalize()
	first.Findings[0].Title = "changed"
	first.Checks["A"].Controls[0].Observed = "changed"

	second := agg.Finalize()
	assert.NotEqual(t, "changed", second.Findings[0].Title)
	assert.NotEqual(t, "changed", second.Checks["A"].Controls[0].Observed)
}

func TestSnapshotHelpers(t *testing.T) {
	agg := NewAggregator(SectionMap{"A": "S2", "B": "S1"})
	require.NoError(t, agg.Record("B", scored("B", 0, 1)))
	require.NoError(t, agg.Record("A", scored("A", 1, 3)))
	s := agg.Finalize()

	assert.Equal(t, []string{"S1", "S2"}, s.SectionNames())
	ordered := s.OrderedChecks()
	require.Len(t, ordered, 2)
	assert.Equal(t, "B", ordered[0].Category)
	assert.Equal(t, map[Severity]int{SeverityMedium: 3}, s.CountBySeverity())
}
