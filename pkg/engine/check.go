package engine

import (
	"context"
	"fmt"
)

// Check verifies one compliance area. Verify must not panic or block past
// its probes' deadlines; probe failures are folded into the result.
type Check interface {
	Category() string
	Reference() string
	Verify(ctx context.Context) CheckResult
}

// Registry is the ordered set of checks for a run
type Registry struct {
	order  []string
	checks map[string]Check
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		checks: make(map[string]Check),
	}
}

// Add appends a check; its category must be unique.
func (r *Registry) Add(c Check) error {
	category := c.Category()
	if category == "" {
		return fmt.Errorf("check has empty category")
	}
	if _, exists := r.checks[category]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, category)
	}
	r.order = append(r.order, category)
	r.checks[category] = c
	return nil
}

// MustAdd is Add for statically known checks.
func (r *Registry) MustAdd(checks ...Check) *Registry {
	for _, c := range checks {
		if err := r.Add(c); err != nil {
			panic(err)
		}
	}
	return r
}

// Get retrieves a check by category
func (r *Registry) Get(category string) (Check, bool) {
	c, ok := r.checks[category]
	return c, ok
}

// Categories returns the categories in insertion order
func (r *Registry) Categories() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered checks
func (r *Registry) Len() int {
	return len(r.order)
}

// ForEach visits the checks in insertion order until fn returns false.
func (r *Registry) ForEach(fn func(category string, c Check) bool) {
	for _, category := range r.order {
		if !fn(category, r.checks[category]) {
			return
		}
	}
}

// Filter returns a new registry holding only the given categories, in the
// original order. Unknown categories are reported as an error.
func (r *Registry) Filter(categories []string) (*Registry, error) {
	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		if _, ok := r.checks[c]; !ok {
			return nil, fmt.Errorf("unknown category %q", c)
		}
		want[c] = true
	}
	out := NewRegistry()
	for _, category := range r.order {
		if want[category] {
			out.order = append(out.order, category)
			out.checks[category] = r.checks[category]
		}
	}
	return out, nil
}
