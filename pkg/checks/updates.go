package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/probe"
)

var (
	updateService = probe.PowerShell("(Get-Service wuauserv).Status")
	lastHotfix    = probe.PowerShell("(Get-HotFix | Where-Object InstalledOn | Sort-Object InstalledOn -Descending | Select-Object -First 1).InstalledOn.ToString('yyyy-MM-dd')")
)

// Updates verifies that the host receives security patches (A.12.6).
type Updates struct {
	Probe           probe.Runner
	MaxPatchAgeDays int
	Now             func() time.Time
}

func (c *Updates) Category() string  { return CategoryUpdates }
func (c *Updates) Reference() string { return "ISO/IEC 27001 A.12.6" }

func (c *Updates) Verify(ctx context.Context) engine.CheckResult {
	b := engine.NewResult(c.Category(), c.Reference())

	status, ok := run(ctx, c.Probe, updateService)
	observed := "unknown"
	if ok {
		observed = firstLine(status)
	}
	b.Evaluate(containsFold(status, "running"),
		"updates.service", "Windows Update service", observed,
		engine.Finding{
			Title:          "Automatic updates are disabled",
			Description:    fmt.Sprintf("The Windows Update service is %s.", observed),
			Severity:       engine.SeverityHigh,
			Reference:      "ISO/IEC 27001 A.12.6.1",
			Recommendation: "Enable automatic updates: sc config wuauserv start= auto && net start wuauserv",
		})

	age, known := c.patchAge(ctx)
	observed = "unknown"
	if known {
		observed = fmt.Sprintf("%d days", age)
	}
	b.Evaluate(known && age <= c.MaxPatchAgeDays,
		"updates.patch_age", "Last patch age", observed,
		engine.Finding{
			Title:          "Security patches are out of date",
			Description:    fmt.Sprintf("The most recent update was installed %s ago; the limit is %d days.", observed, c.MaxPatchAgeDays),
			Severity:       engine.SeverityHigh,
			Reference:      "ISO/IEC 27001 A.12.6.1",
			Recommendation: "Install pending updates from Settings > Windows Update, or run: UsoClient StartScan",
		})

	return b.Result()
}

// patchAge returns the calendar days since the newest hotfix was installed.
// InstalledOn is printed as a local date, so both ends are compared as dates
// in the host's time zone.
func (c *Updates) patchAge(ctx context.Context) (int, bool) {
	text, ok := run(ctx, c.Probe, lastHotfix)
	if !ok {
		return 0, false
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	today := now()
	installed, err := time.ParseInLocation("2006-01-02", firstLine(text), today.Location())
	if err != nil {
		return 0, false
	}
	age := calendarDays(installed, today)
	if age < 0 {
		age = 0
	}
	return age, true
}

// calendarDays counts date boundaries between from and to, ignoring the time
// of day and DST shifts.
func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
