package checks

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/probe"
)

var (
	securityLog = probe.Cmd("wevtutil", "gl", "Security")
	logonPolicy = probe.Cmd("auditpol", "/get", "/subcategory:Logon")
)

// AuditLogging verifies event logging (A.12.4).
type AuditLogging struct {
	Probe        probe.Runner
	MinLogSizeMB int
}

func (c *AuditLogging) Category() string  { return CategoryAudit }
func (c *AuditLogging) Reference() string { return "ISO/IEC 27001 A.12.4" }

func (c *AuditLogging) Verify(ctx context.Context) engine.CheckResult {
	b := engine.NewResult(c.Category(), c.Reference())

	logCfg, _ := run(ctx, c.Probe, securityLog)
	sizeMB, known := 0, false
	if v, ok := field(logCfg, "maxSize"); ok {
		var size int
		if size, known = lastNumber(v); known {
			sizeMB = size / (1024 * 1024)
		}
	}
	observed := "unknown"
	if known {
		observed = fmt.Sprintf("%d MB", sizeMB)
	}
	b.Evaluate(known && sizeMB >= c.MinLogSizeMB,
		"audit.log_size", "Security log size", observed,
		engine.Finding{
			Title:          "Security log is too small",
			Description:    fmt.Sprintf("The Security event log holds %s; at least %d MB are required.", observed, c.MinLogSizeMB),
			Severity:       engine.SeverityMedium,
			Reference:      "ISO/IEC 27001 A.12.4.1",
			Recommendation: fmt.Sprintf("Grow the log: wevtutil sl Security /ms:%d", int64(c.MinLogSizeMB)*1024*1024),
		})

	policy, _ := run(ctx, c.Probe, logonPolicy)
	setting := logonSetting(policy)
	audited := containsFold(setting, "success and failure")
	if setting == "" {
		setting = "unknown"
	}
	b.Evaluate(audited,
		"audit.logon", "Logon auditing", setting,
		engine.Finding{
			Title:          "Logon events are not fully audited",
			Description:    fmt.Sprintf("Logon auditing is set to %q; both success and failure must be recorded.", setting),
			Severity:       engine.SeverityMedium,
			Reference:      "ISO/IEC 27001 A.12.4.1",
			Recommendation: `Audit logons: auditpol /set /subcategory:"Logon" /success:enable /failure:enable`,
		})

	return b.Result()
}

// logonSetting returns the setting column of the "Logon" subcategory row,
// ignoring the "Logon/Logoff" category header.
func logonSetting(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "logon") || strings.HasPrefix(lower, "logon/logoff") {
			continue
		}
		return strings.TrimSpace(line[len("logon"):])
	}
	return ""
}
