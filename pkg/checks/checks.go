// Package checks holds the built-in ISO/IEC 27001 control checks and the
// loader for custom YAML profiles. Every check reads its evidence through a
// probe.Runner and never lets a probe failure escape: missing evidence is
// scored as non-compliant.
package checks

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/probe"
)

// Built-in categories, in run order.
const (
	CategoryPassword    = "Password Policy"
	CategoryUpdates     = "Updates and Patching"
	CategoryFirewall    = "Firewall"
	CategoryAntimalware = "Antimalware"
	CategoryAudit       = "Audit and Logging"
	CategoryAccounts    = "Users and Accounts"
	CategoryEncryption  = "Encryption"
)

// Standard sections.
const (
	SectionAccessControl = "ISO/IEC 27001 A.9"
	SectionCryptography  = "ISO/IEC 27001 A.10"
	SectionOperations    = "ISO/IEC 27001 A.12"
	SectionCommunication = "ISO/IEC 27001 A.13"
)

// DefaultSections is the static category to section table.
func DefaultSections() engine.SectionMap {
	return engine.SectionMap{
		CategoryPassword:    SectionAccessControl,
		CategoryAccounts:    SectionAccessControl,
		CategoryEncryption:  SectionCryptography,
		CategoryUpdates:     SectionOperations,
		CategoryAntimalware: SectionOperations,
		CategoryAudit:       SectionOperations,
		CategoryFirewall:    SectionCommunication,
	}
}

// Thresholds are the pass limits of the numeric controls.
type Thresholds struct {
	MinPasswordLength   int `yaml:"min_password_length"`
	MaxPasswordAgeDays  int `yaml:"max_password_age_days"`
	MaxLockoutThreshold int `yaml:"max_lockout_threshold"`
	MinSecurityLogMB    int `yaml:"min_security_log_mb"`
	MaxPatchAgeDays     int `yaml:"max_patch_age_days"`
	MaxSignatureAgeDays int `yaml:"max_signature_age_days"`
}

// DefaultThresholds returns the limits recommended by ISO/IEC 27002 guidance.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinPasswordLength:   12,
		MaxPasswordAgeDays:  90,
		MaxLockoutThreshold: 5,
		MinSecurityLogMB:    512,
		MaxPatchAgeDays:     30,
		MaxSignatureAgeDays: 7,
	}
}

// Validate rejects limits no host could ever meet or that disable a control.
func (t Thresholds) Validate() error {
	switch {
	case t.MinPasswordLength <= 0:
		return fmt.Errorf("min_password_length must be positive, got %d", t.MinPasswordLength)
	case t.MaxPasswordAgeDays <= 0:
		return fmt.Errorf("max_password_age_days must be positive, got %d", t.MaxPasswordAgeDays)
	case t.MaxLockoutThreshold <= 0:
		return fmt.Errorf("max_lockout_threshold must be positive, got %d", t.MaxLockoutThreshold)
	case t.MinSecurityLogMB <= 0:
		return fmt.Errorf("min_security_log_mb must be positive, got %d", t.MinSecurityLogMB)
	case t.MaxPatchAgeDays < 0:
		return fmt.Errorf("max_patch_age_days must not be negative, got %d", t.MaxPatchAgeDays)
	case t.MaxSignatureAgeDays < 0:
		return fmt.Errorf("max_signature_age_days must not be negative, got %d", t.MaxSignatureAgeDays)
	}
	return nil
}

// Vars exposes the thresholds to remediation templates.
func (t Thresholds) Vars() map[string]string {
	return map[string]string{
		"min_password_length":    strconv.Itoa(t.MinPasswordLength),
		"max_password_age_days":  strconv.Itoa(t.MaxPasswordAgeDays),
		"max_lockout_threshold":  strconv.Itoa(t.MaxLockoutThreshold),
		"min_security_log_mb":    strconv.Itoa(t.MinSecurityLogMB),
		"min_security_log_bytes": strconv.FormatInt(int64(t.MinSecurityLogMB)*1024*1024, 10),
		"max_patch_age_days":     strconv.Itoa(t.MaxPatchAgeDays),
		"max_signature_age_days": strconv.Itoa(t.MaxSignatureAgeDays),
	}
}

// Options wires the built-in checks.
type Options struct {
	Probe      probe.Runner
	Thresholds Thresholds
	// Now is the clock used for age based controls; defaults to time.Now.
	Now func() time.Time
	// SystemDrive is the volume checked for BitLocker; defaults to C:.
	SystemDrive string
}

// Builtin returns the built-in checks in run order.
func Builtin(opts Options) []engine.Check {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SystemDrive == "" {
		opts.SystemDrive = "C:"
	}
	t := opts.Thresholds
	return []engine.Check{
		&PasswordPolicy{Probe: opts.Probe, MinLength: t.MinPasswordLength, MaxAgeDays: t.MaxPasswordAgeDays},
		&Updates{Probe: opts.Probe, MaxPatchAgeDays: t.MaxPatchAgeDays, Now: opts.Now},
		&Firewall{Probe: opts.Probe},
		&Antimalware{Probe: opts.Probe, MaxSignatureAgeDays: t.MaxSignatureAgeDays},
		&AuditLogging{Probe: opts.Probe, MinLogSizeMB: t.MinSecurityLogMB},
		&Accounts{Probe: opts.Probe, MaxLockoutThreshold: t.MaxLockoutThreshold},
		&Encryption{Probe: opts.Probe, SystemDrive: opts.SystemDrive},
	}
}

// NewRegistry builds the registry of built-in checks followed by the custom
// profiles, and the section table extended with the profiles' sections.
func NewRegistry(opts Options, profiles ...*Profile) (*engine.Registry, engine.SectionMap, error) {
	reg := engine.NewRegistry().MustAdd(Builtin(opts)...)
	extra := engine.SectionMap{}
	for _, p := range profiles {
		if err := reg.Add(p.Check(opts.Probe)); err != nil {
			return nil, nil, fmt.Errorf("profile %s: %w", p.Source, err)
		}
		if p.Section != "" {
			extra[p.Category] = p.Section
		}
	}
	return reg, DefaultSections().Merge(extra), nil
}

// run executes spec and reports whether it produced usable text.
func run(ctx context.Context, r probe.Runner, spec probe.Spec) (string, bool) {
	if r == nil {
		return "", false
	}
	out := r.Run(ctx, spec)
	if out.Empty() {
		return "", false
	}
	return out.Text, true
}

func enabled(ok bool) string {
	if ok {
		return "enabled"
	}
	return "disabled"
}
