package report

import (
	"encoding/json"
	"io"

	"github.com/user/isoaudit/pkg/engine"
)

// JSON renders the snapshot as an indented JSON document. Non-ASCII text is
// written as-is.
type JSON struct{}

func (JSON) Render(w io.Writer, s *engine.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(s)
}
