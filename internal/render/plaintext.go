package render

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips markup from a display text, leaving what a reader sees:
// tags dropped, entities decoded, runs of whitespace collapsed.
func PlainText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return collapseSpace(markup)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
