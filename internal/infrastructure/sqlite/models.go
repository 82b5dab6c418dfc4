package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zjrosen/implbridge/internal/implementors"
)

// PageModel is a row of the pages table.
type PageModel struct {
	Trait      string
	Position   int
	Deliveries int
	UpdatedAt  int64 // Unix nanoseconds
}

// CrateModel is a row of the crates table.
type CrateModel struct {
	Trait    string
	Position int
	Name     string
}

// ImplementorModel is a row of the implementors table.
type ImplementorModel struct {
	Trait         string
	CratePosition int
	Position      int
	DisplayText   string
	Synthetic     bool
	TypePath      string // JSON array of path segments
}

func toImplementorModel(trait string, cratePos, pos int, d implementors.Descriptor) (ImplementorModel, error) {
	segments := d.TypePath()
	if segments == nil {
		segments = []string{}
	}
	encoded, err := json.Marshal(segments)
	if err != nil {
		return ImplementorModel{}, fmt.Errorf("encoding type path: %w", err)
	}
	return ImplementorModel{
		Trait:         trait,
		CratePosition: cratePos,
		Position:      pos,
		DisplayText:   d.DisplayText(),
		Synthetic:     d.Synthetic(),
		TypePath:      string(encoded),
	}, nil
}

func (m ImplementorModel) toDescriptor() (implementors.Descriptor, error) {
	var segments []string
	if err := json.Unmarshal([]byte(m.TypePath), &segments); err != nil {
		return implementors.Descriptor{}, fmt.Errorf("decoding type path of %s: %w", m.Trait, err)
	}
	if m.Synthetic {
		return implementors.NewSyntheticDescriptor(m.DisplayText, segments...), nil
	}
	return implementors.NewDescriptor(m.DisplayText, segments...), nil
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
