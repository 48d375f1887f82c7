package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/isoaudit/pkg/engine"
)

type fakeProvider struct {
	system, prompt string
	reply          string
	err            error
}

func (f *fakeProvider) Generate(_ context.Context, system, prompt string) (string, error) {
	f.system, f.prompt = system, prompt
	return f.reply, f.err
}

func (f *fakeProvider) ListModels(context.Context) ([]string, error) { return []string{"fake-1"}, nil }
func (f *fakeProvider) Close() error                                  { return nil }

func snapshot(t *testing.T) *engine.Snapshot {
	t.Helper()
	agg := engine.NewAggregator(engine.SectionMap{"Users and Accounts": "ISO/IEC 27001 A.9"},
		engine.WithClock(func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }))
	require.NoError(t, agg.Record("Users and Accounts", engine.NewResult("Users and Accounts", "ISO/IEC 27001 A.9.2").
		Pass("accounts.admin", "Built-in Administrator disabled", "No").
		Fail("accounts.guest", "Guest account disabled", "Yes", engine.Finding{
			Title:          "Guest account is enabled",
			Description:    "The built-in Guest account allows unauthenticated local access.",
			Severity:       engine.SeverityHigh,
			Reference:      "ISO/IEC 27001 A.9.2.1",
			Recommendation: "net user Guest /active:no",
		}).Result()))
	require.NoError(t, agg.Record("Encryption", engine.ErrorResult("Encryption", "ISO/IEC 27001 A.10.1", errors.New("manage-bde not found"))))
	return agg.Finalize()
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(snapshot(t))
	assert.Contains(t, prompt, "Audit date: 2024-06-01 08:00")
	assert.Contains(t, prompt, "Overall score: 50% (1/2 controls compliant)")
	assert.Contains(t, prompt, "- ISO/IEC 27001 A.9: 50% (1/2)")
	assert.Contains(t, prompt, "- [high] Guest account is enabled (ISO/IEC 27001 A.9.2.1)")
	assert.Contains(t, prompt, "Recommendation: net user Guest /active:no")
	assert.Contains(t, prompt, "Checks not evaluated:\n- Encryption: manage-bde not found")
}

func TestBuildPromptWithoutFindings(t *testing.T) {
	prompt := BuildPrompt(engine.NewAggregator(nil).Finalize())
	assert.Contains(t, prompt, "Findings:\n- none")
	assert.NotContains(t, prompt, "Checks not evaluated")
}

func TestAdvise(t *testing.T) {
	p := &fakeProvider{reply: "  Disable the Guest account first.\n"}
	text, err := Advise(context.Background(), p, snapshot(t))
	require.NoError(t, err)
	assert.Equal(t, "Disable the Guest account first.", text)
	assert.Equal(t, SystemPrompt(), p.system)
	assert.True(t, strings.HasPrefix(p.prompt, "Audit date:"))

	_, err = Advise(context.Background(), &fakeProvider{err: errors.New("quota")}, snapshot(t))
	assert.ErrorContains(t, err, "quota")
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(context.Background(), "gemini", "", "")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = NewProvider(context.Background(), "openai", "key", "")
	assert.ErrorContains(t, err, "unknown provider")
}

func TestSystemPromptEmbedded(t *testing.T) {
	assert.Contains(t, SystemPrompt(), "ISO/IEC 27001")
}
