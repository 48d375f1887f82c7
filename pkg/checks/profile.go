package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/probe"
)

// ProfileControl is one control of a custom profile.
type ProfileControl struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Command     string   `yaml:"command"`
	Args        []string `yaml:"args"`
	PowerShell  string   `yaml:"powershell"`
	Pass        string   `yaml:"pass"`
	Observed    string   `yaml:"observed"`
	Severity    string   `yaml:"severity"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Reference   string   `yaml:"reference"`
	Remediation string   `yaml:"remediation"`

	spec     probe.Spec
	severity engine.Severity
	pass     cel.Program
	observed cel.Program
}

// Profile is a category of controls declared in YAML. Each control runs one
// probe and decides compliance with a CEL expression over the probe output.
type Profile struct {
	Standard  string           `yaml:"standard"`
	Category  string           `yaml:"category"`
	Section   string           `yaml:"section"`
	Reference string           `yaml:"reference"`
	Controls  []ProfileControl `yaml:"controls"`

	// Source is the file the profile was loaded from.
	Source string `yaml:"-"`
}

func newProfileEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("output", cel.StringType),
		cel.Variable("lines", cel.ListType(cel.StringType)),
		cel.Variable("succeeded", cel.BoolType),
	)
}

// LoadProfiles reads every *.yaml and *.yml file in dir, sorted by name.
func LoadProfiles(dir string) ([]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	env, err := newProfileEnv()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if !entry.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var profiles []*Profile
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		p, err := parseProfile(env, data, path)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// ParseProfile decodes and compiles a single profile document.
func ParseProfile(data []byte, source string) (*Profile, error) {
	env, err := newProfileEnv()
	if err != nil {
		return nil, err
	}
	return parseProfile(env, data, source)
}

func parseProfile(env *cel.Env, data []byte, source string) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	p.Source = source
	if p.Category == "" {
		return nil, fmt.Errorf("%s: category is required", source)
	}
	if len(p.Controls) == 0 {
		return nil, fmt.Errorf("%s: profile %q declares no controls", source, p.Category)
	}
	if p.Reference == "" {
		p.Reference = p.Section
	}

	seen := make(map[string]bool)
	for i := range p.Controls {
		c := &p.Controls[i]
		if err := c.compile(env); err != nil {
			return nil, fmt.Errorf("%s: control %q: %w", source, c.ID, err)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("%s: duplicate control id %q", source, c.ID)
		}
		seen[c.ID] = true
	}
	return &p, nil
}

func (c *ProfileControl) compile(env *cel.Env) error {
	switch {
	case c.ID == "":
		return errors.New("id is required")
	case c.Pass == "":
		return errors.New("pass expression is required")
	case c.Command == "" && c.PowerShell == "":
		return errors.New("command or powershell is required")
	case c.Command != "" && c.PowerShell != "":
		return errors.New("command and powershell are mutually exclusive")
	}
	if c.Name == "" {
		c.Name = c.ID
	}

	c.severity = engine.SeverityMedium
	if c.Severity != "" {
		s, err := engine.ParseSeverity(strings.ToLower(c.Severity))
		if err != nil {
			return err
		}
		c.severity = s
	}

	if c.PowerShell != "" {
		c.spec = probe.PowerShell(c.PowerShell)
	} else {
		c.spec = probe.Cmd(c.Command, c.Args...)
	}

	prg, err := compileExpr(env, c.Pass, true)
	if err != nil {
		return fmt.Errorf("pass: %w", err)
	}
	c.pass = prg
	if c.Observed != "" {
		if c.observed, err = compileExpr(env, c.Observed, false); err != nil {
			return fmt.Errorf("observed: %w", err)
		}
	}
	return nil
}

func compileExpr(env *cel.Env, expr string, wantBool bool) (cel.Program, error) {
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	if wantBool {
		t := ast.OutputType()
		if !reflect.DeepEqual(t, cel.BoolType) && !reflect.DeepEqual(t, cel.DynType) {
			return nil, fmt.Errorf("expression must evaluate to bool, got %s", t)
		}
	}
	return env.Program(ast)
}

// Check binds the profile to a probe runner.
func (p *Profile) Check(r probe.Runner) engine.Check {
	return &profileCheck{profile: p, probe: r}
}

type profileCheck struct {
	profile *Profile
	probe   probe.Runner
}

func (c *profileCheck) Category() string  { return c.profile.Category }
func (c *profileCheck) Reference() string { return c.profile.Reference }

func (c *profileCheck) Verify(ctx context.Context) engine.CheckResult {
	b := engine.NewResult(c.Category(), c.Reference())
	for i := range c.profile.Controls {
		ctl := &c.profile.Controls[i]
		var out probe.Output
		if c.probe != nil {
			out = c.probe.Run(ctx, ctl.spec)
		}

		compliant, observed := false, "unknown"
		if !out.Empty() {
			vars := map[string]any{
				"output":    out.Text,
				"lines":     splitLines(out.Text),
				"succeeded": out.Succeeded,
			}
			val, _, err := ctl.pass.ContextEval(ctx, vars)
			if err != nil {
				return engine.ErrorResult(c.Category(), c.Reference(), &engine.CheckError{
					Category: c.Category(),
					Err:      fmt.Errorf("control %s: %w", ctl.ID, err),
				})
			}
			ok, isBool := val.Value().(bool)
			if !isBool {
				return engine.ErrorResult(c.Category(), c.Reference(), &engine.CheckError{
					Category: c.Category(),
					Err:      fmt.Errorf("control %s: pass expression returned %T", ctl.ID, val.Value()),
				})
			}
			compliant = ok
			observed = firstLine(out.Text)
			if ctl.observed != nil {
				if v, _, err := ctl.observed.ContextEval(ctx, vars); err == nil {
					observed = strings.TrimSpace(fmt.Sprint(v.Value()))
				}
			}
			observed = firstNonEmpty(observed, "unknown")
		}

		b.Evaluate(compliant, ctl.ID, ctl.Name, observed, engine.Finding{
			Title:          ctl.title(),
			Description:    ctl.describe(observed),
			Severity:       ctl.severity,
			Reference:      firstNonEmpty(ctl.Reference, c.profile.Reference),
			Recommendation: ctl.Remediation,
		})
	}
	return b.Result()
}

func (c *ProfileControl) title() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name + " is not compliant"
}

func (c *ProfileControl) describe(observed string) string {
	if c.Description != "" {
		return c.Description
	}
	return fmt.Sprintf("Observed %s.", observed)
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
