package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateCategory is returned when a category is registered or recorded twice.
	ErrDuplicateCategory = errors.New("duplicate category")

	// ErrInvalidResult marks a CheckResult that breaks the state/findings invariants.
	ErrInvalidResult = errors.New("invalid check result")

	// ErrInterrupted means the run was cancelled before every check finished.
	ErrInterrupted = errors.New("audit interrupted")

	// ErrPrivilege means the audit needs administrative rights it does not have.
	ErrPrivilege = errors.New("insufficient privileges: run as Administrator")

	// ErrUnsupportedPlatform is returned for live audits on hosts the probes do not cover.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// CheckError is the fault that turned a check into an error result.
type CheckError struct {
	Category string
	Err      error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("check %q: %v", e.Category, e.Err)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}
