package bridge

import (
	"errors"
	"slices"
	"sync"

	"github.com/zjrosen/implbridge/internal/log"
)

// Hub owns one Bridge per page. Pages are created on first use.
type Hub[T any] struct {
	mu      sync.Mutex
	opts    options
	bridges map[string]*Bridge[T]
	order   []string
	factory func(page string) Consumer[T]
}

// NewHub creates an empty hub. opts apply to every bridge it creates;
// WithName is ignored because each bridge is named after its page.
func NewHub[T any](opts ...Option) *Hub[T] {
	return &Hub[T]{
		opts:    buildOptions(opts),
		bridges: make(map[string]*Bridge[T]),
	}
}

// Page returns the bridge for page, creating it if needed. When a consumer
// factory is installed, a new bridge is born with its consumer attached.
func (h *Hub[T]) Page(page string) *Bridge[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	if b, ok := h.bridges[page]; ok {
		return b
	}

	o := h.opts
	o.name = page
	b := newBridge[T](o)
	h.bridges[page] = b
	h.order = append(h.order, page)

	if h.factory != nil {
		// A fresh bridge has no consumer; only a nil one from the factory fails.
		if err := b.Attach(h.factory(page)); err != nil {
			log.Warn(log.CatBridge, "Page bridge left without consumer", "page", page, "error", err)
		}
	}
	log.Debug(log.CatBridge, "Page bridge created", "page", page, "state", b.State())
	return b
}

// Submit sends v through the bridge of page.
func (h *Hub[T]) Submit(page string, v T) {
	h.Page(page).Submit(v)
}

// Attach attaches c to the bridge of page.
func (h *Hub[T]) Attach(page string, c Consumer[T]) error {
	return h.Page(page).Attach(c)
}

// AttachAll installs factory as the consumer source for every page: existing
// bridges are attached now (flushing what they hold) and bridges created later
// are attached at birth. A page for which factory returns nil stays
// consumer-absent and shows up in Unflushed. Installing a second factory fails
// with ErrAlreadyAttached. Pages that already had a consumer keep it; their
// rejections are joined into the returned error.
func (h *Hub[T]) AttachAll(factory func(page string) Consumer[T]) error {
	if factory == nil {
		return ErrNilConsumer
	}

	h.mu.Lock()
	if h.factory != nil {
		h.mu.Unlock()
		log.Warn(log.CatBridge, "Rejected second hub-wide consumer")
		return ErrAlreadyAttached
	}
	h.factory = factory
	existing := make([]*Bridge[T], 0, len(h.order))
	for _, page := range h.order {
		existing = append(existing, h.bridges[page])
	}
	h.mu.Unlock()

	var errs []error
	for _, b := range existing {
		if err := b.Attach(factory(b.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	log.Info(log.CatBridge, "Consumer attached to all pages", "pages", len(existing), "rejected", len(errs))
	return errors.Join(errs...)
}

// Pages returns the page names in creation order.
func (h *Hub[T]) Pages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.order)
}

// Lookup returns the bridge for page without creating it.
func (h *Hub[T]) Lookup(page string) (*Bridge[T], bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.bridges[page]
	return b, ok
}

// Unflushed lists pages holding submissions with no consumer attached, in page
// creation order.
func (h *Hub[T]) Unflushed() []Diagnostic {
	h.mu.Lock()
	bridges := make([]*Bridge[T], 0, len(h.order))
	for _, page := range h.order {
		bridges = append(bridges, h.bridges[page])
	}
	h.mu.Unlock()

	var out []Diagnostic
	for _, b := range bridges {
		if n := b.Pending(); n > 0 && b.State() == StateConsumerAbsent {
			out = append(out, Diagnostic{Page: b.Name(), Pending: n, Policy: b.Policy()})
		}
	}
	return out
}

// Stats sums the counters of every page bridge.
func (h *Hub[T]) Stats() Stats {
	h.mu.Lock()
	bridges := make([]*Bridge[T], 0, len(h.bridges))
	for _, b := range h.bridges {
		bridges = append(bridges, b)
	}
	h.mu.Unlock()

	var total Stats
	for _, b := range bridges {
		s := b.Stats()
		total.Submitted += s.Submitted
		total.Delivered += s.Delivered
		total.Overwritten += s.Overwritten
		total.Rejected += s.Rejected
	}
	return total
}
