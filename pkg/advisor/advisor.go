// Package advisor turns an audit snapshot into a narrative remediation
// summary using a generative model. It only reads the snapshot.
package advisor

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/user/isoaudit/pkg/engine"
)

//go:embed prompts/advisor_prompt.md
var systemPrompt string

// ErrNoAPIKey is returned when the selected provider has no key configured.
var ErrNoAPIKey = errors.New("no API key configured: run 'isoaudit config set-key' or set GOOGLE_API_KEY")

// Provider is a text generation backend.
type Provider interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
	Close() error
}

// NewProvider creates the named provider.
func NewProvider(ctx context.Context, providerName, apiKey, modelName string) (Provider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	switch providerName {
	case "gemini":
		return NewGeminiProvider(ctx, apiKey, modelName)
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}

// SystemPrompt returns the instructions sent with every request.
func SystemPrompt() string {
	return systemPrompt
}

// Advise asks p for a summary of s.
func Advise(ctx context.Context, p Provider, s *engine.Snapshot) (string, error) {
	text, err := p.Generate(ctx, systemPrompt, BuildPrompt(s))
	if err != nil {
		return "", fmt.Errorf("advisor request failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// BuildPrompt renders the audit results as plain text for the model.
func BuildPrompt(s *engine.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Audit date: %s\n", s.Timestamp.Format("2006-01-02 15:04"))
	fmt.Fprintf(&sb, "Overall score: %d%% (%d/%d controls compliant)\n\n", s.OverallPercentage, s.ControlsPassed, s.ControlsTotal)

	sb.WriteString("Section scores:\n")
	for _, name := range s.SectionNames() {
		sc := s.Sections[name]
		fmt.Fprintf(&sb, "- %s: %d%% (%d/%d)\n", name, sc.Percentage, sc.Passed, sc.Total)
	}

	sb.WriteString("\nFindings:\n")
	if len(s.Findings) == 0 {
		sb.WriteString("- none\n")
	}
	for _, f := range s.Findings {
		fmt.Fprintf(&sb, "- [%s] %s (%s): %s Recommendation: %s\n", f.Severity, f.Title, f.Reference, f.Description, f.Recommendation)
	}

	var errored []string
	for _, r := range s.OrderedChecks() {
		if r.State == engine.StateError {
			errored = append(errored, fmt.Sprintf("- %s: %s", r.Category, r.Error))
		}
	}
	if len(errored) > 0 {
		sb.WriteString("\nChecks not evaluated:\n")
		sb.WriteString(strings.Join(errored, "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}
