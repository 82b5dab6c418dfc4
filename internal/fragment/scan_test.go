package fragment

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestScan_Testdata(t *testing.T) {
	pages, err := Scan(os.DirFS("testdata"), ".")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, "core::marker::StructuralEq", pages[0].Trait)
	require.Equal(t, "implementors/core/marker/trait.StructuralEq.js", pages[0].Path)
	require.Equal(t, 110, pages[0].Table.Count())
}

func TestScan_SkipsBadFilesAndReportsThem(t *testing.T) {
	fsys := fstest.MapFS{
		"doc/implementors/a/trait.One.js":   {Data: []byte(prologue + `implementors["a"] = [];` + trailer)},
		"doc/implementors/a/trait.Two.js":   {Data: []byte("not a fragment")},
		"doc/implementors/b/c/trait.Tri.js": {Data: []byte(prologue + trailer)},
		"doc/implementors/a/README.md":      {Data: []byte("ignored")},
		"doc/index.html":                    {Data: []byte("<html/>")},
	}

	pages, err := Scan(fsys, "doc")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNotFragment)
	require.Contains(t, err.Error(), "trait.Two.js")

	require.Len(t, pages, 2)
	require.Equal(t, "a::One", pages[0].Trait)
	require.Equal(t, "b::c::Tri", pages[1].Trait)
}

func TestScan_NoImplementorsDir(t *testing.T) {
	pages, err := Scan(fstest.MapFS{"index.html": {Data: []byte("x")}}, ".")
	require.NoError(t, err)
	require.Empty(t, pages)
}
