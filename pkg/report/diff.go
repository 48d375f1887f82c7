package report

import (
	"fmt"
	"io"

	"github.com/user/isoaudit/pkg/engine"
)

// maxUnchanged caps the unchanged findings listed in a diff.
const maxUnchanged = 10

// WriteDiff prints the comparison of current against baseline.
func WriteDiff(w io.Writer, baselineName string, baseline, current *engine.Snapshot) engine.SnapshotDiff {
	diff := current.CompareSnapshot(baseline)

	fmt.Fprintf(w, "Snapshot comparison (vs %s):\n", baselineName)
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Overall score: %d%% -> %d%% (%+d)\n\n", baseline.OverallPercentage, current.OverallPercentage, diff.Delta)

	fmt.Fprintf(w, "NEW FINDINGS: %d\n", len(diff.New))
	for _, f := range diff.New {
		fmt.Fprintf(w, "  [+] [%s] %s (%s)\n", f.Severity, f.Title, f.Control)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "FIXED FINDINGS: %d\n", len(diff.Fixed))
	for _, f := range diff.Fixed {
		fmt.Fprintf(w, "  [-] [%s] %s (%s)\n", f.Severity, f.Title, f.Control)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "UNCHANGED FINDINGS: %d\n", len(diff.Unchanged))
	for i, f := range diff.Unchanged {
		if i == maxUnchanged {
			fmt.Fprintf(w, "  ... and %d more.\n", len(diff.Unchanged)-maxUnchanged)
			break
		}
		fmt.Fprintf(w, "  [=] [%s] %s (%s)\n", f.Severity, f.Title, f.Control)
	}
	return diff
}
