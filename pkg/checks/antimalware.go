package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/probe"
)

var defenderStatus = probe.PowerShell("Get-MpComputerStatus | Format-List AMServiceEnabled,RealTimeProtectionEnabled,AntivirusSignatureAge")

// Antimalware verifies Microsoft Defender protection (A.12.2).
type Antimalware struct {
	Probe               probe.Runner
	MaxSignatureAgeDays int
}

func (c *Antimalware) Category() string  { return CategoryAntimalware }
func (c *Antimalware) Reference() string { return "ISO/IEC 27001 A.12.2" }

func (c *Antimalware) Verify(ctx context.Context) engine.CheckResult {
	b := engine.NewResult(c.Category(), c.Reference())
	status, _ := run(ctx, c.Probe, defenderStatus)

	service := boolField(status, "AMServiceEnabled")
	b.Evaluate(service,
		"antimalware.service", "Antimalware service", enabled(service),
		engine.Finding{
			Title:          "Antimalware service is not running",
			Description:    "The Microsoft Defender antimalware engine is disabled.",
			Severity:       engine.SeverityCritical,
			Reference:      "ISO/IEC 27001 A.12.2.1",
			Recommendation: "Start Defender: Set-Service WinDefend -StartupType Automatic; Start-Service WinDefend",
		})

	realtime := boolField(status, "RealTimeProtectionEnabled")
	b.Evaluate(realtime,
		"antimalware.realtime", "Real-time protection", enabled(realtime),
		engine.Finding{
			Title:          "Real-time protection is disabled",
			Description:    "Files are not scanned on access.",
			Severity:       engine.SeverityCritical,
			Reference:      "ISO/IEC 27001 A.12.2.1",
			Recommendation: "Enable real-time protection: Set-MpPreference -DisableRealtimeMonitoring $false",
		})

	age, known := -1, false
	if v, ok := field(status, "AntivirusSignatureAge"); ok {
		age, known = firstNumber(v)
	}
	observed := "unknown"
	if known {
		observed = fmt.Sprintf("%d days", age)
	}
	b.Evaluate(known && age <= c.MaxSignatureAgeDays,
		"antimalware.signatures", "Signature age", observed,
		engine.Finding{
			Title:          "Antimalware signatures are out of date",
			Description:    fmt.Sprintf("Signatures are %s old; the limit is %d days.", observed, c.MaxSignatureAgeDays),
			Severity:       engine.SeverityMedium,
			Reference:      "ISO/IEC 27001 A.12.2.1",
			Recommendation: "Update signatures: Update-MpSignature",
		})

	return b.Result()
}

func boolField(output, key string) bool {
	v, ok := field(output, key)
	return ok && strings.EqualFold(v, "true")
}
