package engine

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed remediation_templates.yaml
var defaultTemplates []byte

// RemediationTemplate describes how to fix one failing control
type RemediationTemplate struct {
	Control           string   `yaml:"control"`
	Name              string   `yaml:"name"`
	Risk              string   `yaml:"risk"`
	FixCommand        string   `yaml:"fix_command"`
	ValidationCommand string   `yaml:"validation_command"`
	RollbackCommand   string   `yaml:"rollback_command"`
	Variables         []string `yaml:"variables"`
}

// RemediationEngine manages remediation templates keyed by control id.
// Plans are text only; nothing here executes them.
type RemediationEngine struct {
	Templates map[string]RemediationTemplate
}

// NewRemediationEngine creates an engine preloaded with the built-in templates
func NewRemediationEngine() (*RemediationEngine, error) {
	e := &RemediationEngine{
		Templates: make(map[string]RemediationTemplate),
	}
	if err := e.load(defaultTemplates, "built-in templates"); err != nil {
		return nil, err
	}
	return e, nil
}

// LoadTemplates reads YAML template files from a directory, overriding built-ins
func (e *RemediationEngine) LoadTemplates(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && (filepath.Ext(entry.Name()) == ".yaml" || filepath.Ext(entry.Name()) == ".yml") {
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return err
			}
			if err := e.load(data, entry.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *RemediationEngine) load(data []byte, source string) error {
	var doc struct {
		Templates []RemediationTemplate `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", source, err)
	}
	for _, t := range doc.Templates {
		if t.Control == "" {
			return fmt.Errorf("%s: template without control id", source)
		}
		e.Templates[t.Control] = t
	}
	return nil
}

// ListTemplates returns "control: name" lines sorted by control id
func (e *RemediationEngine) ListTemplates() []string {
	list := make([]string, 0, len(e.Templates))
	for _, t := range e.Templates {
		list = append(list, fmt.Sprintf("%s: %s", t.Control, t.Name))
	}
	sort.Strings(list)
	return list
}

// GeneratePlan renders the fix plan for a finding. ok is false when no
// template exists for the finding's control.
func (e *RemediationEngine) GeneratePlan(f Finding, vars map[string]string) (plan string, ok bool, err error) {
	tmpl, ok := e.Templates[f.Control]
	if !ok {
		return "", false, nil
	}

	for _, requiredVar := range tmpl.Variables {
		if _, exists := vars[requiredVar]; !exists {
			return "", true, fmt.Errorf("template %s: missing required variable: %s", tmpl.Control, requiredVar)
		}
	}

	fixCmd, err := renderString("fix", tmpl.FixCommand, vars)
	if err != nil {
		return "", true, err
	}
	validateCmd, err := renderString("validate", tmpl.ValidationCommand, vars)
	if err != nil {
		return "", true, err
	}
	rollbackCmd, err := renderString("rollback", tmpl.RollbackCommand, vars)
	if err != nil {
		return "", true, err
	}

	var sb strings.Builder
	sb.WriteString("[FIX PLAN]\n")
	sb.WriteString(fmt.Sprintf("Issue: %s\n", f.Title))
	sb.WriteString(fmt.Sprintf("Severity: %s\n", f.Severity))
	sb.WriteString(fmt.Sprintf("Risk: %s\n", tmpl.Risk))
	sb.WriteString(fmt.Sprintf("Standard: %s\n\n", f.Reference))

	sb.WriteString("Suggested Fix:\n")
	sb.WriteString(fixCmd + "\n\n")

	sb.WriteString("Validation:\n")
	sb.WriteString(validateCmd + "\n")

	if rollbackCmd != "" {
		sb.WriteString("\nRollback:\n")
		sb.WriteString(rollbackCmd + "\n")
	}

	return sb.String(), true, nil
}

func renderString(name, tmplStr string, vars map[string]string) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
