package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v2"
)

// WriteReport writes a report in the requested format: "text" uses the
// report's String method, "json" and "yaml" encode its fields.
func WriteReport(w io.Writer, format string, report fmt.Stringer) error {
	switch strings.ToLower(format) {
	case "", "text":
		_, err := fmt.Fprintln(w, report.String())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		raw, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode yaml report: %w", err)
		}
		_, err = w.Write(raw)
		return err
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}
