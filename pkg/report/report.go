// Package report renders audit snapshots. Renderers only read the snapshot;
// they never re-run checks or change scores.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/user/isoaudit/pkg/engine"
)

// Default report file names.
const (
	JSONFileName = "security_report.json"
	HTMLFileName = "security_report.html"
)

// Renderer writes a snapshot in one output format.
type Renderer interface {
	Render(w io.Writer, s *engine.Snapshot) error
}

// WriteFiles renders the JSON and HTML reports into dir and returns their paths.
func WriteFiles(dir string, s *engine.Snapshot) (jsonPath, htmlPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}
	jsonPath = filepath.Join(dir, JSONFileName)
	if err := writeFile(jsonPath, &JSON{}, s); err != nil {
		return "", "", err
	}
	htmlPath = filepath.Join(dir, HTMLFileName)
	if err := writeFile(htmlPath, &HTML{}, s); err != nil {
		return jsonPath, "", err
	}
	return jsonPath, htmlPath, nil
}

func writeFile(path string, r Renderer, s *engine.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := r.Render(f, s); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
