package index

import (
	"time"

	"github.com/zjrosen/implbridge/internal/implementors"
)

// Snapshot is a point-in-time copy of the index, used for persistence.
type Snapshot struct {
	Pages []PageSnapshot
}

// PageSnapshot is one trait's merged table plus bookkeeping.
type PageSnapshot struct {
	Trait      string
	Deliveries int
	UpdatedAt  time.Time
	Table      implementors.Table
}

// Snapshot copies the index in trait order.
func (idx *Index) Snapshot() Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s := Snapshot{Pages: make([]PageSnapshot, 0, len(idx.order))}
	for _, trait := range idx.order {
		e := idx.traits[trait]
		s.Pages = append(s.Pages, PageSnapshot{
			Trait:      trait,
			Deliveries: e.deliveries,
			UpdatedAt:  e.updatedAt,
			Table:      e.table,
		})
	}
	return s
}

// Restore replaces the index contents with s. Invalidators hear about every
// trait that was present before or after.
func (idx *Index) Restore(s Snapshot) {
	idx.mu.Lock()
	touched := make(map[string]struct{}, len(idx.order)+len(s.Pages))
	for _, trait := range idx.order {
		touched[trait] = struct{}{}
	}
	idx.order = idx.order[:0]
	idx.traits = make(map[string]*entry, len(s.Pages))
	for _, p := range s.Pages {
		if _, dup := idx.traits[p.Trait]; !dup {
			idx.order = append(idx.order, p.Trait)
		}
		idx.traits[p.Trait] = &entry{
			table:      p.Table,
			deliveries: p.Deliveries,
			updatedAt:  p.UpdatedAt,
		}
		touched[p.Trait] = struct{}{}
	}
	idx.mu.Unlock()

	for trait := range touched {
		for _, inv := range idx.invalidators {
			inv.Invalidate(trait)
		}
	}
}
