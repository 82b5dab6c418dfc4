// Package testutil builds documentation roots full of implementors fragments
// for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/implbridge/internal/fragment"
	"github.com/zjrosen/implbridge/internal/implementors"
)

type pageData struct {
	trait string
	table implementors.Table
	raw   string
}

// Builder accumulates trait pages and writes them as fragments.
type Builder struct {
	t     *testing.T
	root  string
	pages []pageData
}

// NewBuilder creates a builder writing into a fresh temporary doc root.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, root: t.TempDir()}
}

// NewBuilderAt creates a builder writing into root.
func NewBuilderAt(t *testing.T, root string) *Builder {
	t.Helper()
	return &Builder{t: t, root: root}
}

// WithPage adds a page for trait built from crate options.
func (b *Builder) WithPage(trait string, crates ...CrateOption) *Builder {
	tb := implementors.NewTableBuilder()
	for _, c := range crates {
		c(tb)
	}
	return b.WithTable(trait, tb.Build())
}

// WithTable adds a page for trait with a prepared table.
func (b *Builder) WithTable(trait string, table implementors.Table) *Builder {
	b.pages = append(b.pages, pageData{trait: trait, table: table})
	return b
}

// WithRawFragment adds a fragment file for trait with arbitrary contents,
// for exercising decode failures.
func (b *Builder) WithRawFragment(trait, contents string) *Builder {
	b.pages = append(b.pages, pageData{trait: trait, raw: contents})
	return b
}

// Build writes every page and returns the doc root.
func (b *Builder) Build() string {
	b.t.Helper()
	for _, page := range b.pages {
		b.writePage(page)
	}
	return b.root
}

func (b *Builder) writePage(page pageData) {
	b.t.Helper()
	path := FragmentPath(b.t, b.root, page.trait)
	require.NoError(b.t, os.MkdirAll(filepath.Dir(path), 0o750))

	contents := page.raw
	if contents == "" {
		var err error
		contents, err = fragment.EncodeToString(page.table)
		require.NoError(b.t, err)
	}
	require.NoError(b.t, os.WriteFile(path, []byte(contents), 0o600))
}

// FragmentPath returns the absolute fragment path of trait under root.
func FragmentPath(t *testing.T, root, trait string) string {
	t.Helper()
	rel, err := fragment.PathForTrait(trait)
	require.NoError(t, err)
	return filepath.Join(root, filepath.FromSlash(rel))
}
