package checks

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/probe"
)

var logicalDisks = probe.PowerShell("Get-CimInstance Win32_LogicalDisk -Filter 'DriveType=3' | ForEach-Object { $_.DeviceID + ' ' + $_.FileSystem }")

// Encryption verifies file system and volume encryption support (A.10.1).
type Encryption struct {
	Probe       probe.Runner
	SystemDrive string
}

func (c *Encryption) Category() string  { return CategoryEncryption }
func (c *Encryption) Reference() string { return "ISO/IEC 27001 A.10.1" }

func (c *Encryption) Verify(ctx context.Context) engine.CheckResult {
	b := engine.NewResult(c.Category(), c.Reference())

	disks, ok := run(ctx, c.Probe, logicalDisks)
	fs := fileSystems(disks)
	observed := "unknown"
	if ok && len(fs) > 0 {
		observed = strings.Join(fs, ", ")
	}
	b.Evaluate(ok && allNTFS(fs),
		"encryption.filesystem", "Encrypting file system support", observed,
		engine.Finding{
			Title:          "Volumes without NTFS",
			Description:    fmt.Sprintf("Fixed volumes use %s; FAT volumes cannot hold EFS or BitLocker protected data safely.", observed),
			Severity:       engine.SeverityMedium,
			Reference:      "ISO/IEC 27001 A.10.1.1",
			Recommendation: "Convert FAT volumes to NTFS: convert <drive>: /fs:ntfs",
		})

	drive := c.SystemDrive
	if drive == "" {
		drive = "C:"
	}
	status, _ := run(ctx, c.Probe, probe.Cmd("manage-bde", "-status", drive))
	protection, found := field(status, "Protection Status")
	if !found || protection == "" {
		protection = "unknown"
	}
	protected := containsFold(protection, "protection on")
	b.Evaluate(protected,
		"encryption.bitlocker", "BitLocker on "+drive, protection,
		engine.Finding{
			Title:          "System drive is not encrypted",
			Description:    fmt.Sprintf("BitLocker protection status of %s is %s.", drive, protection),
			Severity:       engine.SeverityHigh,
			Reference:      "ISO/IEC 27001 A.10.1.1",
			Recommendation: fmt.Sprintf("Enable BitLocker: manage-bde -on %s -RecoveryPassword", drive),
		})

	return b.Result()
}

// fileSystems returns the "<drive> <fs>" rows of the disk listing.
func fileSystems(output string) []string {
	var rows []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if row := strings.TrimSpace(scanner.Text()); row != "" {
			rows = append(rows, row)
		}
	}
	return rows
}

func allNTFS(rows []string) bool {
	ntfs := false
	for _, row := range rows {
		if containsFold(row, "fat") {
			return false
		}
		if containsFold(row, "ntfs") {
			ntfs = true
		}
	}
	return ntfs
}
