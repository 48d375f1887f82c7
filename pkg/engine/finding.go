package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// findingNamespace seeds the UUIDv5 ids so that the same control always
// yields the same finding id across runs and hosts.
var findingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/user/isoaudit/finding"))

// Finding represents a non-compliant control
type Finding struct {
	ID             string   `json:"id"`
	Control        string   `json:"control"` // id of the failing Control
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	Reference      string   `json:"reference"` // clause, e.g. ISO/IEC 27001 A.9.2.1
	Recommendation string   `json:"recommendation"`
}

// FindingID returns the deterministic finding id for a control id.
func FindingID(controlID string) string {
	return uuid.NewSHA1(findingNamespace, []byte(controlID)).String()
}

// Control is one measured requirement inside a check.
type Control struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Compliant bool   `json:"compliant"`
	Observed  string `json:"observed"`
}

// State is the outcome of a whole check.
type State string

const (
	StateCompliant    State = "compliant"
	StateNonCompliant State = "non_compliant"
	StateError        State = "error"
)

// CheckResult is what a Check hands back to the runner.
type CheckResult struct {
	Category  string    `json:"category"`
	State     State     `json:"state"`
	Reference string    `json:"reference"`
	Controls  []Control `json:"controls"`
	Findings  []Finding `json:"findings"`
	Error     string    `json:"error,omitempty"`
}

// Passed counts the compliant controls of the result.
func (r CheckResult) Passed() int {
	n := 0
	for _, c := range r.Controls {
		if c.Compliant {
			n++
		}
	}
	return n
}

// Validate checks the state/findings/controls invariants of a result.
func (r CheckResult) Validate() error {
	if r.Category == "" {
		return fmt.Errorf("%w: empty category", ErrInvalidResult)
	}
	switch r.State {
	case StateError:
		return nil
	case StateCompliant:
		if len(r.Findings) != 0 {
			return fmt.Errorf("%w: %s is compliant with %d findings", ErrInvalidResult, r.Category, len(r.Findings))
		}
	case StateNonCompliant:
		if len(r.Findings) == 0 {
			return fmt.Errorf("%w: %s is non-compliant without findings", ErrInvalidResult, r.Category)
		}
	default:
		return fmt.Errorf("%w: %s has unknown state %q", ErrInvalidResult, r.Category, r.State)
	}

	failing := make(map[string]bool, len(r.Controls))
	for _, c := range r.Controls {
		if !c.Compliant {
			failing[c.ID] = true
		}
	}
	seen := make(map[string]bool, len(r.Findings))
	for _, f := range r.Findings {
		if !failing[f.Control] {
			return fmt.Errorf("%w: %s finding %q has no failing control", ErrInvalidResult, r.Category, f.Control)
		}
		if seen[f.Control] {
			return fmt.Errorf("%w: %s control %q has more than one finding", ErrInvalidResult, r.Category, f.Control)
		}
		seen[f.Control] = true
	}
	if len(seen) != len(failing) {
		return fmt.Errorf("%w: %s has %d failing controls but %d findings", ErrInvalidResult, r.Category, len(failing), len(seen))
	}
	return nil
}

// ErrorResult builds the result of a check that could not form an opinion.
func ErrorResult(category, reference string, err error) CheckResult {
	return CheckResult{
		Category:  category,
		State:     StateError,
		Reference: reference,
		Controls:  []Control{},
		Findings:  []Finding{},
		Error:     err.Error(),
	}
}

// ResultBuilder accumulates controls for one check. Fail always records the
// finding together with the control, so the two can never disagree.
type ResultBuilder struct {
	category  string
	reference string
	controls  []Control
	findings  []Finding
}

// NewResult starts a result for the given category.
func NewResult(category, reference string) *ResultBuilder {
	return &ResultBuilder{category: category, reference: reference}
}

// Pass records a compliant control.
func (b *ResultBuilder) Pass(id, name, observed string) *ResultBuilder {
	b.controls = append(b.controls, Control{ID: id, Name: name, Compliant: true, Observed: observedOrUnknown(observed)})
	return b
}

// Fail records a non-compliant control and its finding.
func (b *ResultBuilder) Fail(id, name, observed string, f Finding) *ResultBuilder {
	b.controls = append(b.controls, Control{ID: id, Name: name, Compliant: false, Observed: observedOrUnknown(observed)})
	f.ID = FindingID(id)
	f.Control = id
	b.findings = append(b.findings, f)
	return b
}

func observedOrUnknown(observed string) string {
	if strings.TrimSpace(observed) == "" {
		return "unknown"
	}
	return observed
}

// Evaluate records the control as passing or failing depending on ok.
func (b *ResultBuilder) Evaluate(ok bool, id, name, observed string, f Finding) *ResultBuilder {
	if ok {
		return b.Pass(id, name, observed)
	}
	return b.Fail(id, name, observed, f)
}

// Result freezes the builder into a CheckResult.
func (b *ResultBuilder) Result() CheckResult {
	state := StateCompliant
	if len(b.findings) > 0 {
		state = StateNonCompliant
	}
	controls := make([]Control, len(b.controls))
	copy(controls, b.controls)
	findings := make([]Finding, len(b.findings))
	copy(findings, b.findings)
	return CheckResult{
		Category:  b.category,
		State:     state,
		Reference: b.reference,
		Controls:  controls,
		Findings:  findings,
	}
}
