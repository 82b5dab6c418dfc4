package render

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/zjrosen/implbridge/internal/cachemanager"
	"github.com/zjrosen/implbridge/internal/implementors"
	"github.com/zjrosen/implbridge/internal/log"
)

// TableSource supplies the current table of a trait. The index satisfies it.
type TableSource interface {
	Table(trait string) (implementors.Table, error)
}

type request struct {
	format Format
	trait  string
}

// Cache memoizes rendered pages by trait and format. It is an index
// invalidator: a changed trait drops every format rendered for it.
//
// Keys carry a per-trait generation bumped by Invalidate, so a render that
// read the table before an invalidation stores under a key no later Render
// asks for.
type Cache struct {
	rt  *cachemanager.ReadThroughCache[string, string, request]
	ttl time.Duration

	mu   sync.Mutex
	gens map[string]uint64
}

// NewCache wires renderer to source. With enabled false every call renders
// afresh.
func NewCache(renderer *Renderer, source TableSource, enabled bool, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = cachemanager.DefaultExpiration
	}
	manager := cachemanager.NewInMemoryCacheManager[string, string]("rendered-pages", ttl, cachemanager.DefaultCleanupInterval)
	render := func(_ context.Context, req request) (string, error) {
		table, err := source.Table(req.trait)
		if err != nil {
			return "", err
		}
		log.Debug(log.CatRender, "rendering page", "trait", req.trait, "format", req.format)
		return renderer.Render(req.format, req.trait, table)
	}
	return &Cache{
		rt:   cachemanager.NewReadThroughCache(manager, render, !enabled),
		ttl:  ttl,
		gens: make(map[string]uint64),
	}
}

func cacheKey(trait string, format Format, gen uint64) string {
	return trait + "|" + string(format) + "|" + strconv.FormatUint(gen, 10)
}

// Render returns trait's page in format, from cache when possible.
func (c *Cache) Render(ctx context.Context, format Format, trait string) (string, error) {
	c.mu.Lock()
	gen := c.gens[trait]
	c.mu.Unlock()
	return c.rt.Get(ctx, cacheKey(trait, format, gen), request{format: format, trait: trait}, c.ttl)
}

// Invalidate drops every cached rendering of trait.
func (c *Cache) Invalidate(trait string) {
	c.mu.Lock()
	c.gens[trait]++
	c.mu.Unlock()
	c.rt.Cache().DeletePrefix(context.Background(), trait+"|")
}

// Len reports how many renderings are cached.
func (c *Cache) Len() int {
	return c.rt.Cache().Len()
}
