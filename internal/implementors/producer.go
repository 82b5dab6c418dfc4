package implementors

// Fact is one implementor as reported by the documentation generator.
type Fact struct {
	DisplayText string
	Synthetic   bool
	TypePath    []string
}

// CrateFacts lists the implementors a single crate contributes to a trait.
type CrateFacts struct {
	Crate        string
	Implementors []Fact
}

// Submitter receives a finished table for the page of trait. The bridge hub
// satisfies it.
type Submitter interface {
	Submit(trait string, table Table)
}

// Producer turns generation-time facts into tables and hands each one to its
// Submitter.
type Producer struct {
	sink Submitter
}

// NewProducer creates a producer that submits to sink.
func NewProducer(sink Submitter) *Producer {
	return &Producer{sink: sink}
}

// Produce assembles one table from crates and submits it exactly once for
// trait. The submitted table is returned for the caller's own use.
func (p *Producer) Produce(trait string, crates ...CrateFacts) Table {
	table := Assemble(crates...)
	if p.sink != nil {
		p.sink.Submit(trait, table)
	}
	return table
}

// Assemble shapes facts into a table without submitting it.
func Assemble(crates ...CrateFacts) Table {
	b := NewTableBuilder()
	for _, c := range crates {
		descs := make([]Descriptor, 0, len(c.Implementors))
		for _, f := range c.Implementors {
			d := NewDescriptor(f.DisplayText, f.TypePath...)
			d.synthetic = f.Synthetic
			descs = append(descs, d)
		}
		b.Crate(c.Crate, descs...)
	}
	return b.Build()
}
