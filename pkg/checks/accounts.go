package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/probe"
)

var (
	guestAccount = probe.Cmd("net", "user", "Guest")
	adminAccount = probe.Cmd("net", "user", "Administrator")
)

// Accounts verifies built-in account hygiene and lockout (A.9.2).
type Accounts struct {
	Probe               probe.Runner
	MaxLockoutThreshold int
}

func (c *Accounts) Category() string  { return CategoryAccounts }
func (c *Accounts) Reference() string { return "ISO/IEC 27001 A.9.2" }

func (c *Accounts) Verify(ctx context.Context) engine.CheckResult {
	b := engine.NewResult(c.Category(), c.Reference())

	guest, _ := run(ctx, c.Probe, guestAccount)
	active, disabled := accountActive(guest)
	b.Evaluate(disabled,
		"accounts.guest", "Guest account disabled", active,
		engine.Finding{
			Title:          "Guest account is enabled",
			Description:    "The built-in Guest account allows unauthenticated local access.",
			Severity:       engine.SeverityHigh,
			Reference:      "ISO/IEC 27001 A.9.2.1",
			Recommendation: "Disable the account: net user Guest /active:no",
		})

	admin, _ := run(ctx, c.Probe, adminAccount)
	active, disabled = accountActive(admin)
	b.Evaluate(disabled,
		"accounts.admin", "Built-in Administrator disabled", active,
		engine.Finding{
			Title:          "Built-in Administrator account is enabled",
			Description:    "The well-known Administrator account is a common brute force target.",
			Severity:       engine.SeverityMedium,
			Reference:      "ISO/IEC 27001 A.9.2.3",
			Recommendation: "Use named administrator accounts and disable this one: net user Administrator /active:no",
		})

	accounts, _ := run(ctx, c.Probe, netAccounts)
	observed := "unknown"
	threshold, known := 0, false
	if v, ok := field(accounts, "Lockout threshold"); ok && v != "" {
		observed = v
		threshold, known = lastNumber(v)
	}
	b.Evaluate(known && threshold >= 1 && threshold <= c.MaxLockoutThreshold,
		"accounts.lockout", "Account lockout threshold", observed,
		engine.Finding{
			Title:          "Account lockout is not enforced",
			Description:    fmt.Sprintf("Lockout threshold is %s; accounts must lock after at most %d failed attempts.", observed, c.MaxLockoutThreshold),
			Severity:       engine.SeverityMedium,
			Reference:      "ISO/IEC 27001 A.9.4.2",
			Recommendation: fmt.Sprintf("Lock accounts after %d attempts: net accounts /lockoutthreshold:%d", c.MaxLockoutThreshold, c.MaxLockoutThreshold),
		})

	return b.Result()
}

// accountActive reads the "Account active" row of net user output. The
// account counts as disabled only when the row explicitly says No.
func accountActive(output string) (string, bool) {
	v, ok := field(output, "Account active")
	if !ok || v == "" {
		return "unknown", false
	}
	return v, strings.EqualFold(v, "no")
}
