package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects an output encoding.
type Format string

const (
	FormatText       Format = "text"
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatPrometheus Format = "prom"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = fmt.Errorf("unknown output format")

// ParseFormat accepts text, json, yaml/yml and prom/prometheus.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "prom", "prometheus":
		return FormatPrometheus, nil
	default:
		return "", fmt.Errorf("%w: %q (want text, json, yaml or prom)", ErrUnknownFormat, s)
	}
}

// Write renders doc in the requested format.
func Write(w io.Writer, doc *Document, format Format, opts RenderOptions) error {
	switch format {
	case FormatText:
		return RenderText(w, doc, opts)
	case FormatJSON, FormatYAML:
		return Export(w, doc, format)
	case FormatPrometheus:
		return WritePrometheus(w, doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Export writes doc as indented JSON or YAML.
func Export(w io.Writer, doc *Document, format Format) error {
	return ExportValue(w, doc, format)
}

// ExportValue writes any part of a document, such as its bucket or impact
// list, as indented JSON or YAML.
func ExportValue(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
