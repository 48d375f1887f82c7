package engine

import "sort"

// SectionMap assigns each category to exactly one standard section.
// A category missing from the map still counts toward the overall score
// but toward no section.
type SectionMap map[string]string

// Section returns the section of category, if mapped.
func (m SectionMap) Section(category string) (string, bool) {
	s, ok := m[category]
	return s, ok
}

// Merge returns a copy of m extended with extra. Entries in extra win.
func (m SectionMap) Merge(extra SectionMap) SectionMap {
	out := make(SectionMap, len(m)+len(extra))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Unmapped lists the categories of reg that have no section, in registry order.
func (m SectionMap) Unmapped(reg *Registry) []string {
	var out []string
	reg.ForEach(func(category string, _ Check) bool {
		if _, ok := m[category]; !ok {
			out = append(out, category)
		}
		return true
	})
	return out
}

// Sections returns the distinct section names, sorted.
func (m SectionMap) Sections() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range m {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
