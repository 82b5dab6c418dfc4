package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatJSON writes v as indented JSON. Markup in display texts is kept
// as-is rather than escaped.
func (f *Formatter) FormatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}

// FormatPage formats a trait page as JSON
func (f *Formatter) FormatPage(page PageDTO) error {
	return f.FormatJSON(page)
}

// FormatScanResult formats a scan result as JSON
func (f *Formatter) FormatScanResult(result ScanResultDTO) error {
	return f.FormatJSON(result)
}
