package report

import (
	_ "embed"
	"html/template"
	"io"
	"sort"

	"github.com/user/isoaudit/pkg/engine"
)

//go:embed report.html.tmpl
var htmlSource string

var severityColors = map[engine.Severity]string{
	engine.SeverityCritical: "#dc3545",
	engine.SeverityHigh:     "#fd7e14",
	engine.SeverityMedium:   "#ffc107",
	engine.SeverityLow:      "#28a745",
	engine.SeverityInfo:     "#17a2b8",
}

// ScoreColor returns the traffic light colour for a percentage.
func ScoreColor(pct int) string {
	switch {
	case pct >= 75:
		return "#28a745"
	case pct >= 60:
		return "#ffc107"
	default:
		return "#dc3545"
	}
}

func severityColor(s engine.Severity) string {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return "#999999"
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"scoreColor":    func(pct int) template.CSS { return template.CSS(ScoreColor(pct)) },
	"severityColor": func(s engine.Severity) template.CSS { return template.CSS(severityColor(s)) },
}).Parse(htmlSource))

type htmlSection struct {
	Name  string
	Score engine.SectionScore
}

type htmlView struct {
	*engine.Snapshot
	SectionList []htmlSection
	Errored     []engine.CheckResult
	// Findings shadows the snapshot's list, most severe first.
	Findings []engine.Finding
}

// HTML renders a self-contained HTML page.
type HTML struct{}

func (HTML) Render(w io.Writer, s *engine.Snapshot) error {
	view := htmlView{Snapshot: s}
	for _, name := range s.SectionNames() {
		view.SectionList = append(view.SectionList, htmlSection{Name: name, Score: s.Sections[name]})
	}
	for _, r := range s.OrderedChecks() {
		if r.State == engine.StateError {
			view.Errored = append(view.Errored, r)
		}
	}
	view.Findings = append([]engine.Finding(nil), s.Findings...)
	sort.SliceStable(view.Findings, func(i, j int) bool {
		return engine.CompareSeverity(view.Findings[i].Severity, view.Findings[j].Severity) > 0
	})
	return htmlTemplate.Execute(w, view)
}
