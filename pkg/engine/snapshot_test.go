package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotOperations(t *testing.T) {
	// Baseline: controls a and b failing.
	baseAgg := NewAggregator(SectionMap{"A": "S"}, WithClock(fixedClock))
	require.NoError(t, baseAgg.Record("A", NewResult("A", "ref").
		Fail("a", "a", "no", Finding{Title: "Finding a"}).
		Fail("b", "b", "no", Finding{Title: "Finding b"}).
		Result()))
	baseline := baseAgg.Finalize()

	path := filepath.Join(t.TempDir(), "baseline.json")
	data, err := json.Marshal(baseline)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, baseline.Findings, loaded.Findings)
	assert.Equal(t, baseline.Sections, loaded.Sections)

	// Current: a still failing, b fixed, c new.
	curAgg := NewAggregator(SectionMap{"A": "S"}, WithClock(fixedClock))
	require.NoError(t, curAgg.Record("A", NewResult("A", "ref").
		Fail("a", "a", "no", Finding{Title: "Finding a"}).
		Pass("b", "b", "yes").
		Fail("c", "c", "no", Finding{Title: "Finding c"}).
		Result()))
	current := curAgg.Finalize()

	diff := current.CompareSnapshot(loaded)
	require.Len(t, diff.New, 1)
	assert.Equal(t, "Finding c", diff.New[0].Title)
	require.Len(t, diff.Fixed, 1)
	assert.Equal(t, "Finding b", diff.Fixed[0].Title)
	require.Len(t, diff.Unchanged, 1)
	assert.Equal(t, "Finding a", diff.Unchanged[0].Title)
	assert.Equal(t, 33, diff.Delta)
}

func TestLoadSnapshotErrors(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = LoadSnapshot(path)
	assert.ErrorContains(t, err, "failed to parse report")
}

func TestRemediationPlans(t *testing.T) {
	e, err := NewRemediationEngine()
	require.NoError(t, err)
	assert.NotEmpty(t, e.ListTemplates())

	f := Finding{Control: "password.min_length", Title: "Minimum password length is insufficient", Severity: SeverityHigh, Reference: "ISO/IEC 27001 A.9.2.1"}
	plan, ok, err := e.GeneratePlan(f, map[string]string{"min_password_length": "14"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, plan, "[FIX PLAN]")
	assert.Contains(t, plan, "net accounts /minpwlen:14")
	assert.Contains(t, plan, "Severity: high")
	assert.Contains(t, plan, "Rollback:")

	_, ok, err = e.GeneratePlan(f, nil)
	assert.True(t, ok)
	assert.ErrorContains(t, err, "missing required variable")

	_, ok, err = e.GeneratePlan(Finding{Control: "custom.unknown"}, nil)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestRemediationPlanWithoutRollback(t *testing.T) {
	e, err := NewRemediationEngine()
	require.NoError(t, err)
	plan, ok, err := e.GeneratePlan(Finding{Control: "password.complexity"}, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, plan, "Rollback:")
}

func TestRemediationTemplatesCoverBuiltinControls(t *testing.T) {
	e, err := NewRemediationEngine()
	require.NoError(t, err)
	for _, id := range []string{
		"password.min_length", "password.complexity", "password.max_age",
		"updates.service", "updates.patch_age",
		"firewall.domain", "firewall.private", "firewall.public",
		"antimalware.service", "antimalware.realtime", "antimalware.signatures",
		"audit.log_size", "audit.logon",
		"accounts.guest", "accounts.admin", "accounts.lockout",
		"encryption.filesystem", "encryption.bitlocker",
	} {
		_, ok := e.Templates[id]
		assert.True(t, ok, id)
	}
}

func TestLoadTemplatesOverrides(t *testing.T) {
	dir := t.TempDir()
	doc := "templates:\n  - control: firewall.public\n    name: Custom firewall fix\n    fix_command: Set-NetFirewallProfile -Profile Public -Enabled True\n    validation_command: Get-NetFirewallProfile -Profile Public\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fw.yaml"), []byte(doc), 0o600))

	e, err := NewRemediationEngine()
	require.NoError(t, err)
	require.NoError(t, e.LoadTemplates(dir))
	assert.Equal(t, "Custom firewall fix", e.Templates["firewall.public"].Name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("templates:\n  - name: no id\n"), 0o600))
	assert.ErrorContains(t, e.LoadTemplates(dir), "without control id")
}
