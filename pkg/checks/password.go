package checks

import (
	"context"
	"fmt"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/probe"
)

var (
	netAccounts    = probe.Cmd("net", "accounts")
	securityPolicy = probe.PowerShell(`secedit /export /cfg "$env:TEMP\isoaudit-secpol.cfg" /areas SECURITYPOLICY | Out-Null; Get-Content "$env:TEMP\isoaudit-secpol.cfg"; Remove-Item "$env:TEMP\isoaudit-secpol.cfg"`)
)

// PasswordPolicy verifies the local password policy (A.9.2).
type PasswordPolicy struct {
	Probe      probe.Runner
	MinLength  int
	MaxAgeDays int
}

func (c *PasswordPolicy) Category() string  { return CategoryPassword }
func (c *PasswordPolicy) Reference() string { return "ISO/IEC 27001 A.9.2" }

func (c *PasswordPolicy) Verify(ctx context.Context) engine.CheckResult {
	b := engine.NewResult(c.Category(), c.Reference())
	accounts, _ := run(ctx, c.Probe, netAccounts)

	length, _ := numberAfter(accounts, "Minimum password length")
	b.Evaluate(length >= c.MinLength,
		"password.min_length", "Minimum password length", fmt.Sprintf("%d characters", length),
		engine.Finding{
			Title:          "Minimum password length is insufficient",
			Description:    fmt.Sprintf("Passwords may be %d characters long; at least %d are required.", length, c.MinLength),
			Severity:       engine.SeverityHigh,
			Reference:      "ISO/IEC 27001 A.9.2.1",
			Recommendation: fmt.Sprintf("Set a minimum of %d characters: net accounts /minpwlen:%d", c.MinLength, c.MinLength),
		})

	policy, _ := run(ctx, c.Probe, securityPolicy)
	complexity, _ := numberAfter(policy, "PasswordComplexity")
	required := containsFold(policy, "complexity") && complexity == 1
	b.Evaluate(required,
		"password.complexity", "Password complexity", enabled(required),
		engine.Finding{
			Title:          "Password complexity is not required",
			Description:    "Passwords are not required to mix upper case, lower case, digits and symbols.",
			Severity:       engine.SeverityHigh,
			Reference:      "ISO/IEC 27001 A.9.2.1",
			Recommendation: "Enable \"Password must meet complexity requirements\" in Local Security Policy (secpol.msc > Account Policies > Password Policy).",
		})

	maxAge, _ := numberAfter(accounts, "Maximum password age")
	observed := fmt.Sprintf("%d days", maxAge)
	if line, ok := lineContaining(accounts, "Maximum password age"); ok && containsFold(line, "unlimited") {
		observed = "unlimited"
	}
	b.Evaluate(maxAge > 0 && maxAge <= c.MaxAgeDays,
		"password.max_age", "Maximum password age", observed,
		engine.Finding{
			Title:          "Password expiration is not configured",
			Description:    fmt.Sprintf("Maximum password age is %s; it must be between 1 and %d days.", observed, c.MaxAgeDays),
			Severity:       engine.SeverityMedium,
			Reference:      "ISO/IEC 27001 A.9.2.3",
			Recommendation: fmt.Sprintf("Expire passwords every %d days: net accounts /maxpwage:%d", c.MaxAgeDays, c.MaxAgeDays),
		})

	return b.Result()
}
