package implementors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescriptor_Accessors(t *testing.T) {
	d := NewDescriptor("impl Trait for X", "crateA", "X")

	require.Equal(t, "impl Trait for X", d.DisplayText())
	require.Equal(t, []string{"crateA", "X"}, d.TypePath())
	require.Equal(t, "crateA::X", d.QualifiedName())
	require.False(t, d.Synthetic())
}

func TestDescriptor_TypePathIsCopied(t *testing.T) {
	path := []string{"crateA", "X"}
	d := NewDescriptor("impl Trait for X", path...)

	path[1] = "Y"
	require.Equal(t, []string{"crateA", "X"}, d.TypePath(), "constructor must copy its input")

	got := d.TypePath()
	got[0] = "mutated"
	require.Equal(t, []string{"crateA", "X"}, d.TypePath(), "accessor must return a copy")
}

func TestDescriptor_Synthetic(t *testing.T) {
	d := NewSyntheticDescriptor("impl Send for X", "crateA::X")
	require.True(t, d.Synthetic())
	require.False(t, d.Equal(NewDescriptor("impl Send for X", "crateA::X")))
}

func TestTableBuilder_PreservesOrder(t *testing.T) {
	table := NewTableBuilder().
		Crate("syn",
			NewDescriptor("impl A", "syn::attr::AttrStyle"),
			NewDescriptor("impl B", "syn::attr::Meta"),
		).
		Crate("proc_macro2", NewDescriptor("impl C", "proc_macro2::Delimiter")).
		Build()

	require.Equal(t, []string{"syn", "proc_macro2"}, table.Crates())
	require.Equal(t, 2, table.Len())
	require.Equal(t, 3, table.Count())

	descs, ok := table.Implementors("syn")
	require.True(t, ok)
	require.Len(t, descs, 2)
	require.Equal(t, "impl A", descs[0].DisplayText())
	require.Equal(t, "impl B", descs[1].DisplayText())
}

func TestTableBuilder_RepeatedCrateAppends(t *testing.T) {
	table := NewTableBuilder().
		Crate("a", NewDescriptor("one", "a::One")).
		Crate("b").
		Crate("a", NewDescriptor("two", "a::Two")).
		Build()

	require.Equal(t, []string{"a", "b"}, table.Crates())
	descs, _ := table.Implementors("a")
	require.Len(t, descs, 2)
	require.Equal(t, "two", descs[1].DisplayText())
}

func TestTable_EmptyCrateIsPresent(t *testing.T) {
	table := NewTableBuilder().Crate("crateB").Build()

	require.False(t, table.IsEmpty())
	require.True(t, table.Has("crateB"))

	descs, ok := table.Implementors("crateB")
	require.True(t, ok)
	require.NotNil(t, descs)
	require.Empty(t, descs)
}

func TestTable_ZeroValue(t *testing.T) {
	var table Table

	require.True(t, table.IsEmpty())
	require.Equal(t, 0, table.Count())
	_, ok := table.Implementors("missing")
	require.False(t, ok)
	require.True(t, table.Equal(NewTableBuilder().Build()))
}

func TestTable_ImmutableAfterBuild(t *testing.T) {
	b := NewTableBuilder().Crate("a", NewDescriptor("one", "a::One"))
	table := b.Build()

	b.Crate("a", NewDescriptor("two", "a::Two")).Crate("z")

	require.Equal(t, []string{"a"}, table.Crates())
	require.Equal(t, 1, table.Count())

	crates := table.Crates()
	crates[0] = "mutated"
	require.Equal(t, []string{"a"}, table.Crates())

	descs, _ := table.Implementors("a")
	descs[0] = NewDescriptor("mutated")
	again, _ := table.Implementors("a")
	require.Equal(t, "one", again[0].DisplayText())
}

func TestTable_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Table
		equal bool
	}{
		{
			name:  "identical",
			a:     NewTableBuilder().Crate("a", NewDescriptor("x", "a::X")).Build(),
			b:     NewTableBuilder().Crate("a", NewDescriptor("x", "a::X")).Build(),
			equal: true,
		},
		{
			name:  "crate order differs",
			a:     NewTableBuilder().Crate("a").Crate("b").Build(),
			b:     NewTableBuilder().Crate("b").Crate("a").Build(),
			equal: false,
		},
		{
			name: "descriptor order differs",
			a: NewTableBuilder().Crate("a",
				NewDescriptor("x", "a::X"), NewDescriptor("y", "a::Y")).Build(),
			b: NewTableBuilder().Crate("a",
				NewDescriptor("y", "a::Y"), NewDescriptor("x", "a::X")).Build(),
			equal: false,
		},
		{
			name:  "empty crate vs no crate",
			a:     NewTableBuilder().Crate("a").Build(),
			b:     NewTableBuilder().Build(),
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.equal, tt.a.Equal(tt.b))
			require.Equal(t, tt.equal, tt.b.Equal(tt.a))
		})
	}
}

func TestTable_EachStopsEarly(t *testing.T) {
	table := NewTableBuilder().Crate("a").Crate("b").Crate("c").Build()

	var seen []string
	table.Each(func(crate string, _ []Descriptor) bool {
		seen = append(seen, crate)
		return crate != "b"
	})
	require.Equal(t, []string{"a", "b"}, seen)
}

func TestTable_Merge(t *testing.T) {
	current := NewTableBuilder().
		Crate("a", NewDescriptor("a1")).
		Crate("b", NewDescriptor("b1"), NewDescriptor("b2")).
		Build()
	incoming := NewTableBuilder().
		Crate("c", NewDescriptor("c1")).
		Crate("b", NewDescriptor("b3")).
		Build()

	merged := current.Merge(incoming)
	require.Equal(t, []string{"a", "b", "c"}, merged.Crates())

	b, _ := merged.Implementors("b")
	require.Len(t, b, 1)
	require.Equal(t, "b3", b[0].DisplayText())

	a, _ := merged.Implementors("a")
	require.Equal(t, "a1", a[0].DisplayText())

	require.True(t, Table{}.Merge(incoming).Equal(incoming))
	require.True(t, current.Merge(Table{}).Equal(current))
}
