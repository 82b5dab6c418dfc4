package implementors

import "slices"

// Table maps crate names to their ordered implementor descriptors.
// The zero value is an empty table.
type Table struct {
	crates  []string
	entries map[string][]Descriptor
}

// Crates returns the crate names in insertion order.
func (t Table) Crates() []string {
	return slices.Clone(t.crates)
}

// Implementors returns a copy of the descriptors listed for crate, in order.
// The boolean is false when the crate is not part of the table; a crate present
// with an empty list returns an empty, non-nil slice and true.
func (t Table) Implementors(crate string) ([]Descriptor, bool) {
	descs, ok := t.entries[crate]
	if !ok {
		return nil, false
	}
	out := make([]Descriptor, len(descs))
	copy(out, descs)
	return out, true
}

// Has reports whether the table lists crate.
func (t Table) Has(crate string) bool {
	_, ok := t.entries[crate]
	return ok
}

// Len returns the number of crates.
func (t Table) Len() int {
	return len(t.crates)
}

// Count returns the total number of descriptors across all crates.
func (t Table) Count() int {
	n := 0
	for _, descs := range t.entries {
		n += len(descs)
	}
	return n
}

// IsEmpty reports whether the table has no crates at all.
func (t Table) IsEmpty() bool {
	return len(t.crates) == 0
}

// Each calls fn for every crate in order, stopping early if fn returns false.
func (t Table) Each(fn func(crate string, descs []Descriptor) bool) {
	for _, crate := range t.crates {
		descs, _ := t.Implementors(crate)
		if !fn(crate, descs) {
			return
		}
	}
}

// Equal reports whether two tables hold the same crates in the same order with
// the same descriptors in the same order.
func (t Table) Equal(other Table) bool {
	if !slices.Equal(t.crates, other.crates) {
		return false
	}
	for _, crate := range t.crates {
		if !slices.EqualFunc(t.entries[crate], other.entries[crate], Descriptor.Equal) {
			return false
		}
	}
	return true
}

// TableBuilder accumulates crates and descriptors for a Table.
type TableBuilder struct {
	crates  []string
	entries map[string][]Descriptor
}

// NewTableBuilder creates an empty builder.
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{entries: make(map[string][]Descriptor)}
}

// Crate appends descs to crate. The first call for a crate fixes its position;
// later calls for the same crate append to its list. Calling Crate with no
// descriptors records the crate with an empty list.
func (b *TableBuilder) Crate(name string, descs ...Descriptor) *TableBuilder {
	if _, ok := b.entries[name]; !ok {
		b.crates = append(b.crates, name)
		b.entries[name] = []Descriptor{}
	}
	b.entries[name] = append(b.entries[name], descs...)
	return b
}

// Build returns an immutable Table. The builder may be reused afterwards
// without affecting tables it already produced.
func (b *TableBuilder) Build() Table {
	entries := make(map[string][]Descriptor, len(b.entries))
	for crate, descs := range b.entries {
		entries[crate] = slices.Clone(descs)
		if entries[crate] == nil {
			entries[crate] = []Descriptor{}
		}
	}
	return Table{
		crates:  slices.Clone(b.crates),
		entries: entries,
	}
}

// Merge returns t with each crate of incoming replacing that crate's list.
// Crates incoming does not mention keep theirs; crates new to t follow the
// existing ones in incoming's order.
func (t Table) Merge(incoming Table) Table {
	b := NewTableBuilder()
	for _, crate := range t.crates {
		if replacement, ok := incoming.entries[crate]; ok {
			b.Crate(crate, replacement...)
			continue
		}
		b.Crate(crate, t.entries[crate]...)
	}
	for _, crate := range incoming.crates {
		if !t.Has(crate) {
			b.Crate(crate, incoming.entries[crate]...)
		}
	}
	return b.Build()
}
