package render

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/implbridge/internal/implementors"
)

const trait = "core::marker::StructuralEq"

func sampleTable() implementors.Table {
	return implementors.NewTableBuilder().
		Crate("proc_macro2",
			implementors.NewDescriptor(`impl <a href="x">StructuralEq</a> for <a href="y">Delimiter</a>`, "proc_macro2::Delimiter"),
			implementors.NewDescriptor("impl StructuralEq for Spacing", "proc_macro2::Spacing"),
		).
		Crate("syn",
			implementors.NewDescriptor("impl StructuralEq for Ident", "syn::Ident"),
			implementors.NewSyntheticDescriptor("impl Send for Ident", "syn::Ident"),
		).
		Build()
}

func TestText(t *testing.T) {
	r := New(Options{NoColor: true})

	got := r.Text(trait, sampleTable())

	want := strings.Join([]string{
		"Implementors of core::marker::StructuralEq",
		strings.Repeat("=", len("Implementors of core::marker::StructuralEq")),
		"",
		"Implementors",
		"------------",
		"proc_macro2",
		"  impl StructuralEq for Delimiter",
		"  impl StructuralEq for Spacing",
		"syn",
		"  impl StructuralEq for Ident",
		"",
		"Auto implementors",
		"-----------------",
		"syn",
		"  impl Send for Ident",
		"",
	}, "\n")
	require.Equal(t, want, got)
}

func TestText_Empty(t *testing.T) {
	r := New(Options{})
	got := r.Text(trait, implementors.Table{})
	require.Contains(t, got, "(no implementors)")
}

func TestText_Wraps(t *testing.T) {
	r := New(Options{Width: 30})
	long := implementors.NewTableBuilder().
		Crate("syn", implementors.NewDescriptor("impl StructuralEq for SomeVeryLongTypeName with extra words here")).
		Build()

	got := r.Text(trait, long)
	for _, line := range strings.Split(got, "\n")[2:] {
		require.LessOrEqual(t, len(line), 32, "line %q", line)
	}
}

func TestMarkdown(t *testing.T) {
	r := New(Options{})

	got := r.Markdown(trait, sampleTable())

	require.True(t, strings.HasPrefix(got, "# Implementors of `core::marker::StructuralEq`\n"))
	require.Contains(t, got, "\n## Implementors\n\n### proc_macro2\n\n- `impl StructuralEq for Delimiter`\n- `impl StructuralEq for Spacing`\n")
	require.Contains(t, got, "\n## Auto implementors\n\n### syn\n\n- `impl Send for Ident`\n")
	require.Less(t, strings.Index(got, "## Implementors"), strings.Index(got, "## Auto implementors"))
}

func TestCodeSpan(t *testing.T) {
	require.Equal(t, "`a`", codeSpan("a"))
	require.Equal(t, "``a`b``", codeSpan("a`b"))
	require.Equal(t, "`` `a ``", codeSpan("`a"))
}

func TestANSI_NoColorMatchesPlainLayout(t *testing.T) {
	r := New(Options{NoColor: true})

	got := r.ANSI(trait, sampleTable())

	require.Contains(t, got, "Implementors of core::marker::StructuralEq\n")
	require.Contains(t, got, "  impl Send for Ident\n")
}

func TestANSI_ColorStripsToSameText(t *testing.T) {
	colored := New(Options{}).ANSI(trait, sampleTable())
	plain := New(Options{NoColor: true}).ANSI(trait, sampleTable())

	require.NotEqual(t, plain, colored)
	require.Equal(t, ansi.Strip(plain), ansi.Strip(colored))
}

func TestPretty(t *testing.T) {
	r := New(Options{NoColor: true, Width: 80})

	got, err := r.Pretty(trait, sampleTable())
	require.NoError(t, err)
	require.Contains(t, ansi.Strip(got), "impl StructuralEq for Spacing")
	require.Contains(t, ansi.Strip(got), "Auto implementors")
}

func TestRender_Dispatch(t *testing.T) {
	r := New(Options{NoColor: true})
	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			out, err := r.Render(f, trait, sampleTable())
			require.NoError(t, err)
			require.Contains(t, ansi.Strip(out), "Spacing")
		})
	}

	_, err := r.Render(FormatJSON, trait, sampleTable())
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatText, f)

	f, err = ParseFormat(" Markdown ")
	require.NoError(t, err)
	require.Equal(t, FormatMarkdown, f)

	_, err = ParseFormat("html")
	require.Error(t, err)
}

type fakeSource struct {
	calls  int
	tables map[string]implementors.Table
	// onRead runs after the table is read and before it is returned.
	onRead func()
}

func (f *fakeSource) Table(trait string) (implementors.Table, error) {
	f.calls++
	if f.onRead != nil {
		defer f.onRead()
	}
	table, ok := f.tables[trait]
	if !ok {
		return implementors.Table{}, fmt.Errorf("no table for %s", trait)
	}
	return table, nil
}

func TestCache_MemoizesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{tables: map[string]implementors.Table{trait: sampleTable()}}
	c := NewCache(New(Options{NoColor: true}), src, true, 0)

	first, err := c.Render(ctx, FormatText, trait)
	require.NoError(t, err)
	second, err := c.Render(ctx, FormatText, trait)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, src.calls)

	_, err = c.Render(ctx, FormatMarkdown, trait)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	c.Invalidate(trait)
	require.Equal(t, 0, c.Len())

	_, err = c.Render(ctx, FormatText, trait)
	require.NoError(t, err)
	require.Equal(t, 3, src.calls)
}

func TestCache_Disabled(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{tables: map[string]implementors.Table{trait: sampleTable()}}
	c := NewCache(New(Options{}), src, false, 0)

	_, _ = c.Render(ctx, FormatText, trait)
	_, _ = c.Render(ctx, FormatText, trait)
	require.Equal(t, 2, src.calls)
	require.Equal(t, 0, c.Len())
}

func TestCache_SourceError(t *testing.T) {
	c := NewCache(New(Options{}), &fakeSource{}, true, 0)
	_, err := c.Render(context.Background(), FormatText, "core::marker::Copy")
	require.Error(t, err)
	require.Equal(t, 0, c.Len())
}

func TestCache_InvalidateDuringRenderIsNotServed(t *testing.T) {
	ctx := context.Background()
	updated := implementors.NewTableBuilder().
		Crate("syn", implementors.NewDescriptor("impl StructuralEq for Lifetime", "syn::Lifetime")).
		Build()
	src := &fakeSource{tables: map[string]implementors.Table{trait: sampleTable()}}
	c := NewCache(New(Options{NoColor: true}), src, true, 0)

	// The table changes and is invalidated while the first render is in flight.
	src.onRead = func() {
		src.onRead = nil
		src.tables[trait] = updated
		c.Invalidate(trait)
	}
	stale, err := c.Render(ctx, FormatText, trait)
	require.NoError(t, err)
	require.NotContains(t, stale, "Lifetime")

	fresh, err := c.Render(ctx, FormatText, trait)
	require.NoError(t, err)
	require.Contains(t, fresh, "Lifetime")
	require.Equal(t, 2, src.calls)
}
