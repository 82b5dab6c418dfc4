// Package render turns a trait's implementors table into readable output.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"github.com/zjrosen/implbridge/internal/implementors"
	"github.com/zjrosen/implbridge/internal/log"
)

const (
	DefaultWidth          = 100
	DefaultMarkdownStyle  = "dark"
	DefaultHighlightStyle = "monokai"
)

// noMarginStyle removes glamour's document margins.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Options tune rendering. Zero values fall back to the defaults above.
type Options struct {
	Width          int
	NoColor        bool
	MarkdownStyle  string
	HighlightStyle string
}

// Renderer renders trait pages. Safe for concurrent use.
type Renderer struct {
	opts   Options
	lip    *lipgloss.Renderer
	title  lipgloss.Style
	header lipgloss.Style
	crate  lipgloss.Style

	prettyOnce sync.Once
	pretty     *glamour.TermRenderer
	prettyErr  error
}

// New creates a renderer.
func New(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.MarkdownStyle == "" {
		opts.MarkdownStyle = DefaultMarkdownStyle
	}
	if opts.HighlightStyle == "" {
		opts.HighlightStyle = DefaultHighlightStyle
	}

	profile := termenv.ANSI256
	if opts.NoColor {
		profile = termenv.Ascii
	}
	lip := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(profile))
	lip.SetColorProfile(profile)

	return &Renderer{
		opts:   opts,
		lip:    lip,
		title:  lip.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		header: lip.NewStyle().Bold(true).Underline(true),
		crate:  lip.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

// Options returns the effective options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render dispatches on format.
func (r *Renderer) Render(format Format, trait string, table implementors.Table) (string, error) {
	switch format {
	case FormatText, "":
		return r.Text(trait, table), nil
	case FormatMarkdown:
		return r.Markdown(trait, table), nil
	case FormatPretty:
		return r.Pretty(trait, table)
	case FormatANSI:
		return r.ANSI(trait, table), nil
	default:
		return "", fmt.Errorf("render: format %q not supported here", format)
	}
}

// section is one heading's worth of crates: explicit impls or auto impls.
type section struct {
	heading string
	crates  []crateLines
}

type crateLines struct {
	crate string
	lines []string
}

// sections splits a table the way the generated page does: written impls
// first, compiler-derived ones under their own heading. Empty sections are
// dropped.
func sections(table implementors.Table) []section {
	explicit := section{heading: "Implementors"}
	auto := section{heading: "Auto implementors"}
	table.Each(func(crate string, descs []implementors.Descriptor) bool {
		var ex, au []string
		for _, d := range descs {
			text := PlainText(d.DisplayText())
			if d.Synthetic() {
				au = append(au, text)
			} else {
				ex = append(ex, text)
			}
		}
		if len(ex) > 0 {
			explicit.crates = append(explicit.crates, crateLines{crate: crate, lines: ex})
		}
		if len(au) > 0 {
			auto.crates = append(auto.crates, crateLines{crate: crate, lines: au})
		}
		return true
	})

	var out []section
	for _, s := range []section{explicit, auto} {
		if len(s.crates) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Text renders plain text with underlined headings.
func (r *Renderer) Text(trait string, table implementors.Table) string {
	var b strings.Builder
	title := "Implementors of " + trait
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", runewidth.StringWidth(title)) + "\n")

	secs := sections(table)
	if len(secs) == 0 {
		b.WriteString("\n(no implementors)\n")
		return b.String()
	}
	for _, s := range secs {
		b.WriteString("\n" + s.heading + "\n")
		b.WriteString(strings.Repeat("-", runewidth.StringWidth(s.heading)) + "\n")
		for _, c := range s.crates {
			b.WriteString(c.crate + "\n")
			for _, line := range c.lines {
				b.WriteString(r.wrap(line, 2) + "\n")
			}
		}
	}
	return b.String()
}

// Markdown renders a markdown document.
func (r *Renderer) Markdown(trait string, table implementors.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Implementors of %s\n", codeSpan(trait))

	secs := sections(table)
	if len(secs) == 0 {
		b.WriteString("\n_No implementors._\n")
		return b.String()
	}
	for _, s := range secs {
		fmt.Fprintf(&b, "\n## %s\n", s.heading)
		for _, c := range s.crates {
			fmt.Fprintf(&b, "\n### %s\n\n", c.crate)
			for _, line := range c.lines {
				fmt.Fprintf(&b, "- %s\n", codeSpan(line))
			}
		}
	}
	return b.String()
}

// Pretty renders the markdown form through glamour.
func (r *Renderer) Pretty(trait string, table implementors.Table) (string, error) {
	r.prettyOnce.Do(func() {
		style := r.opts.MarkdownStyle
		if r.opts.NoColor {
			style = "notty"
		}
		r.pretty, r.prettyErr = glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
			glamour.WithWordWrap(r.opts.Width),
		)
	})
	if r.prettyErr != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", r.prettyErr)
	}
	out, err := r.pretty.Render(r.Markdown(trait, table))
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// ANSI renders styled terminal output with Rust highlighting of each impl.
func (r *Renderer) ANSI(trait string, table implementors.Table) string {
	var b strings.Builder
	b.WriteString(r.title.Render("Implementors of "+trait) + "\n")

	secs := sections(table)
	if len(secs) == 0 {
		b.WriteString("\n(no implementors)\n")
		return b.String()
	}
	for _, s := range secs {
		b.WriteString("\n" + r.header.Render(s.heading) + "\n")
		for _, c := range s.crates {
			b.WriteString(r.crate.Render(c.crate) + "\n")
			for _, line := range c.lines {
				b.WriteString(r.wrap(r.highlight(line), 2) + "\n")
			}
		}
	}
	return b.String()
}

func (r *Renderer) highlight(code string) string {
	if r.opts.NoColor {
		return code
	}
	var b strings.Builder
	if err := quick.Highlight(&b, code, "rust", "terminal256", r.opts.HighlightStyle); err != nil {
		log.Debug(log.CatRender, "highlight failed", "error", err)
		return code
	}
	return strings.TrimRight(b.String(), "\n")
}

// wrap word-wraps s to the configured width and indents every line by n.
func (r *Renderer) wrap(s string, n uint) string {
	width := r.opts.Width - int(n)
	if width < 20 {
		width = 20
	}
	return indent.String(wordwrap.String(s, width), n)
}

// codeSpan wraps s in a backtick fence long enough not to clash with s.
func codeSpan(s string) string {
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}
