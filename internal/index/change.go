package index

import (
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/implbridge/internal/implementors"
)

// Change summarizes what one delivery did to a trait's page. Added and
// Removed hold one line per implementor, "crate: [auto] display text
// (type::path)", with the marker only on synthetic impls and the path only
// when one is known.
type Change struct {
	Trait    string
	Delivery int
	Crates   []string
	Added    []string
	Removed  []string
	At       time.Time
}

// Empty reports whether the delivery left the page as it was.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// diffTables compares the lists of the crates named in incoming against what
// current held for them.
func diffTables(trait string, current, incoming implementors.Table) Change {
	var oldText, newText strings.Builder
	incoming.Each(func(crate string, descs []implementors.Descriptor) bool {
		prev, _ := current.Implementors(crate)
		writeLines(&oldText, crate, prev)
		writeLines(&newText, crate, descs)
		return true
	})

	change := Change{Trait: trait, Crates: incoming.Crates()}
	if oldText.String() == newText.String() {
		return change
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText.String(), newText.String())
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			change.Added = append(change.Added, splitLines(d.Text)...)
		case diffmatchpatch.DiffDelete:
			change.Removed = append(change.Removed, splitLines(d.Text)...)
		}
	}
	return change
}

func writeLines(b *strings.Builder, crate string, descs []implementors.Descriptor) {
	for _, d := range descs {
		b.WriteString(changeLine(crate, d))
		b.WriteByte('\n')
	}
}

func changeLine(crate string, d implementors.Descriptor) string {
	var b strings.Builder
	b.WriteString(crate)
	b.WriteString(": ")
	if d.Synthetic() {
		b.WriteString(autoMarker)
	}
	b.WriteString(strings.ReplaceAll(d.DisplayText(), "\n", " "))
	if name := d.QualifiedName(); name != "" {
		b.WriteString(" (")
		b.WriteString(name)
		b.WriteByte(')')
	}
	return b.String()
}

const autoMarker = "[auto] "

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
