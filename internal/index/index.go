// Package index is the consumer side of the registration bridge: it takes the
// implementor tables delivered for each trait page and keeps them queryable
// across traits.
package index

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/zjrosen/implbridge/internal/bridge"
	"github.com/zjrosen/implbridge/internal/implementors"
	"github.com/zjrosen/implbridge/internal/log"
	"github.com/zjrosen/implbridge/internal/pubsub"
)

// ErrUnknownTrait is returned by queries for a trait that never received a table.
var ErrUnknownTrait = errors.New("unknown trait")

// Invalidator is told when a trait's implementors changed. The render cache
// implements it.
type Invalidator interface {
	Invalidate(trait string)
}

// Option configures an Index.
type Option func(*Index)

// WithInvalidator registers an invalidator called after every delivery that
// changed the trait's table.
func WithInvalidator(inv Invalidator) Option {
	return func(idx *Index) {
		if inv != nil {
			idx.invalidators = append(idx.invalidators, inv)
		}
	}
}

// WithChanges publishes a Change for every delivery on broker.
func WithChanges(broker *pubsub.Broker[Change]) Option {
	return func(idx *Index) {
		idx.changes = broker
	}
}

type entry struct {
	table      implementors.Table
	deliveries int
	updatedAt  time.Time
}

// Index holds the merged implementors table of every trait page seen so far.
type Index struct {
	mu           sync.RWMutex
	order        []string
	traits       map[string]*entry
	invalidators []Invalidator
	changes      *pubsub.Broker[Change]
	now          func() time.Time
}

// New creates an empty index.
func New(opts ...Option) *Index {
	idx := &Index{
		traits: make(map[string]*entry),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Consumer returns the intake for trait's page, ready to attach to a bridge.
func (idx *Index) Consumer(trait string) bridge.Consumer[implementors.Table] {
	return bridge.ConsumerFunc[implementors.Table](func(table implementors.Table) {
		idx.Intake(trait, table)
	})
}

// Intake merges a delivered table into trait's page. Each crate in table
// replaces that crate's previous list; crates not mentioned keep theirs. A
// crate seen for the first time is appended after the existing ones.
func (idx *Index) Intake(trait string, table implementors.Table) Change {
	idx.mu.Lock()
	e, ok := idx.traits[trait]
	if !ok {
		e = &entry{}
		idx.traits[trait] = e
		idx.order = append(idx.order, trait)
	}
	before := e.table
	e.table = before.Merge(table)
	modified := !e.table.Equal(before)
	e.deliveries++
	e.updatedAt = idx.now()
	change := diffTables(trait, before, table)
	change.Delivery = e.deliveries
	change.At = e.updatedAt
	idx.mu.Unlock()

	log.Debug(log.CatIndex, "intake",
		"trait", trait,
		"delivery", change.Delivery,
		"crates", table.Len(),
		"added", len(change.Added),
		"removed", len(change.Removed))

	if modified || !change.Empty() {
		for _, inv := range idx.invalidators {
			inv.Invalidate(trait)
		}
	}
	if idx.changes != nil {
		idx.changes.Publish(pubsub.ChangedEvent, change)
	}
	return change
}

// Traits returns the known traits in the order they were first delivered.
func (idx *Index) Traits() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return slices.Clone(idx.order)
}

// Table returns the merged table for trait.
func (idx *Index) Table(trait string) (implementors.Table, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.traits[trait]
	if !ok {
		return implementors.Table{}, fmt.Errorf("trait %q: %w", trait, ErrUnknownTrait)
	}
	return e.table, nil
}

// Implementors flattens trait's table into crate-ordered listings.
func (idx *Index) Implementors(trait string) ([]Listing, error) {
	table, err := idx.Table(trait)
	if err != nil {
		return nil, err
	}
	var out []Listing
	table.Each(func(crate string, descs []implementors.Descriptor) bool {
		for _, d := range descs {
			out = append(out, Listing{Trait: trait, Crate: crate, Descriptor: d})
		}
		return true
	})
	return out, nil
}

// TraitsImplementedBy lists every trait whose page names typePath
// ("syn::Ident" or its segments joined by "::") as an implementor.
func (idx *Index) TraitsImplementedBy(typePath string) []Listing {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []Listing
	for _, trait := range idx.order {
		idx.traits[trait].table.Each(func(crate string, descs []implementors.Descriptor) bool {
			for _, d := range descs {
				if d.QualifiedName() == typePath {
					out = append(out, Listing{Trait: trait, Crate: crate, Descriptor: d})
				}
			}
			return true
		})
	}
	return out
}

// Deliveries reports how many tables trait's consumer has received.
func (idx *Index) Deliveries(trait string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if e, ok := idx.traits[trait]; ok {
		return e.deliveries
	}
	return 0
}

// Len returns the number of known traits.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.order)
}

// Listing is one implementor as seen from the index.
type Listing struct {
	Trait      string
	Crate      string
	Descriptor implementors.Descriptor
}
