package render

import (
	"fmt"
	"strings"
)

// Format selects how a trait page is rendered.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatPretty   Format = "pretty" // markdown through glamour
	FormatANSI     Format = "ansi"   // lipgloss + chroma
	FormatJSON     Format = "json"   // handled by presentation, never by Renderer
)

// Formats lists the formats Renderer.Render accepts.
var Formats = []Format{FormatText, FormatMarkdown, FormatPretty, FormatANSI}

// ParseFormat parses a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatMarkdown, FormatPretty, FormatANSI, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown render format %q (want text, markdown, pretty, ansi or json)", s)
	}
}
