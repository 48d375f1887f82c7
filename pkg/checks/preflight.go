package checks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/isoaudit/pkg/engine"
	"github.com/user/isoaudit/pkg/probe"
)

// netSession only succeeds for members of the Administrators group.
var netSession = probe.Cmd("net", "session")

// toolchain lists the binaries the built-in checks shell out to.
var toolchain = []string{"net", "netsh", "powershell", "wevtutil", "auditpol", "manage-bde"}

// Preflight verifies that a live audit can run on this host: the probes are
// Windows commands and several of them need an elevated shell. Missing
// binaries are only logged; their controls fail closed.
func Preflight(ctx context.Context, r probe.Runner, goos string, logger *slog.Logger) error {
	if goos != "windows" {
		return fmt.Errorf("%w: live probes need Windows, this host runs %s (use --replay with captured evidence)", engine.ErrUnsupportedPlatform, goos)
	}
	if logger == nil {
		logger = slog.Default()
	}
	for _, bin := range toolchain {
		if !probe.BinaryExists(bin) {
			logger.Warn("probe binary not found in PATH", "binary", bin)
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrInterrupted, err)
	}
	if !r.Run(ctx, netSession).Succeeded {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", engine.ErrInterrupted, err)
		}
		return engine.ErrPrivilege
	}
	return nil
}
