package checks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/probe"
)

var firewallState = probe.Cmd("netsh", "advfirewall", "show", "allprofiles", "state")

var firewallProfiles = []struct {
	key  string
	name string
}{
	{"domain", "Domain"},
	{"private", "Private"},
	{"public", "Public"},
}

// stateLabels and onStates cover English and Spanish netsh output.
var (
	stateLabels = map[string]bool{"state": true, "estado": true}
	onStates    = map[string]bool{"ON": true, "ACTIVAR": true, "ACTIVADO": true}
)

// Firewall verifies that every Windows Firewall profile is on (A.13.1).
type Firewall struct {
	Probe probe.Runner
}

func (c *Firewall) Category() string  { return CategoryFirewall }
func (c *Firewall) Reference() string { return "ISO/IEC 27001 A.13.1" }

func (c *Firewall) Verify(ctx context.Context) engine.CheckResult {
	text, ok := run(ctx, c.Probe, firewallState)
	states := map[string]string{}
	if ok {
		states = parseProfileStates(text)
		if len(states) == 0 {
			return engine.ErrorResult(c.Category(), c.Reference(), &engine.CheckError{
				Category: c.Category(),
				Err:      errors.New("unrecognised netsh output: no profile sections"),
			})
		}
	}

	b := engine.NewResult(c.Category(), c.Reference())
	for _, p := range firewallProfiles {
		state, found := states[p.key]
		if !found {
			state = "unknown"
		}
		b.Evaluate(onStates[strings.ToUpper(state)],
			"firewall."+p.key, p.name+" profile enabled", state,
			engine.Finding{
				Title:          fmt.Sprintf("%s firewall profile is disabled", p.name),
				Description:    fmt.Sprintf("The Windows Firewall %s profile state is %s.", p.name, state),
				Severity:       engine.SeverityCritical,
				Reference:      "ISO/IEC 27001 A.13.1.1",
				Recommendation: fmt.Sprintf("Enable the profile: netsh advfirewall set %sprofile state on", p.key),
			})
	}
	return b.Result()
}

// parseProfileStates maps each "<Name> Profile Settings:" section of netsh
// output to the value of its State line. Output without recognised section
// headers falls back to the order netsh prints profiles in.
func parseProfileStates(text string) map[string]string {
	states := make(map[string]string)
	var rows []string
	current := ""
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(strings.ToLower(line), "profile settings") {
			if fields := strings.Fields(line); len(fields) > 0 {
				current = strings.ToLower(fields[0])
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !stateLabels[strings.ToLower(fields[0])] {
			continue
		}
		value := strings.ToUpper(fields[len(fields)-1])
		rows = append(rows, value)
		if current != "" {
			states[current] = value
			current = ""
		}
	}
	if len(states) == 0 {
		for i, value := range rows {
			if i < len(firewallProfiles) {
				states[firewallProfiles[i].key] = value
			}
		}
	}
	return states
}
