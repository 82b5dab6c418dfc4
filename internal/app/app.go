// Package app wires the registration bridge, the cross-trait index and the
// supporting services into one runtime, and exposes the operations the CLI
// commands call.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/implbridge/internal/bridge"
	"github.com/zjrosen/implbridge/internal/config"
	"github.com/zjrosen/implbridge/internal/flags"
	"github.com/zjrosen/implbridge/internal/fragment"
	"github.com/zjrosen/implbridge/internal/implementors"
	"github.com/zjrosen/implbridge/internal/index"
	"github.com/zjrosen/implbridge/internal/infrastructure/sqlite"
	"github.com/zjrosen/implbridge/internal/log"
	"github.com/zjrosen/implbridge/internal/paths"
	"github.com/zjrosen/implbridge/internal/pubsub"
	"github.com/zjrosen/implbridge/internal/render"
	"github.com/zjrosen/implbridge/internal/tracing"
)

// Attach modes for Load.
const (
	AttachEarly = "early"
	AttachLate  = "late"
)

// ErrStoreDisabled is returned by Save and Restore when persist-index is off.
var ErrStoreDisabled = errors.New("index store disabled (enable the persist-index flag)")

// App is the runtime shared by every command. Create it with New and release
// it with Close.
type App struct {
	cfg     config.Config
	docRoot string
	flags   *flags.Registry
	policy  bridge.Policy

	tracer   *tracing.Provider
	activity *pubsub.Broker[bridge.Activity]
	changes  *pubsub.Broker[index.Change]

	hub      *bridge.Hub[implementors.Table]
	index    *index.Index
	renderer *render.Renderer
	pages    *render.Cache

	mu       sync.Mutex
	attached bool
	db       *sqlite.DB
}

// New builds an App from cfg. The documentation root is resolved and made
// absolute; nothing is read from it until Load or Ingest.
func New(cfg config.Config) (*App, error) {
	if cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = config.DefaultTracesFilePath()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	policy, err := bridge.ParsePolicy(cfg.Bridge.PendingPolicy)
	if err != nil {
		return nil, err
	}

	docRoot, err := filepath.Abs(paths.ResolveDocRoot(cfg.DocRoot))
	if err != nil {
		return nil, fmt.Errorf("resolving doc root: %w", err)
	}

	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	registry := flags.WithDefaults(cfg.Flags)
	activity := pubsub.NewBroker[bridge.Activity]()
	changes := pubsub.NewBroker[index.Change]()

	a := &App{
		cfg:      cfg,
		docRoot:  docRoot,
		flags:    registry,
		policy:   policy,
		tracer:   provider,
		activity: activity,
		changes:  changes,
		hub:      bridge.NewHub[implementors.Table](bridge.WithPolicy(policy), bridge.WithActivity(activity)),
		renderer: render.New(render.Options{
			Width:          cfg.Render.Width,
			NoColor:        cfg.Render.NoColor,
			MarkdownStyle:  cfg.Render.MarkdownStyle,
			HighlightStyle: cfg.Render.HighlightStyle,
		}),
	}

	// The index and the page cache refer to each other: the cache reads tables
	// from the index and the index invalidates the cache on change.
	invalidator := &cacheInvalidator{}
	a.index = index.New(index.WithInvalidator(invalidator), index.WithChanges(changes))
	a.pages = render.NewCache(a.renderer, a.index, registry.Enabled(flags.FlagRenderCache), cfg.Render.CacheTTL)
	invalidator.cache = a.pages

	log.Info(log.CatApp, "App initialized",
		"docRoot", docRoot,
		"policy", policy,
		"attach", cfg.Bridge.Attach,
		"tracing", provider.Enabled())
	return a, nil
}

type cacheInvalidator struct {
	cache *render.Cache
}

func (c *cacheInvalidator) Invalidate(trait string) {
	if c.cache != nil {
		c.cache.Invalidate(trait)
	}
}

// DocRoot returns the absolute documentation root.
func (a *App) DocRoot() string { return a.docRoot }

// Config returns the configuration the app was built with.
func (a *App) Config() config.Config { return a.cfg }

// Hub returns the per-page bridges.
func (a *App) Hub() *bridge.Hub[implementors.Table] { return a.hub }

// Index returns the cross-trait index.
func (a *App) Index() *index.Index { return a.index }

// Activity returns the broker bridge activity is published on.
func (a *App) Activity() *pubsub.Broker[bridge.Activity] { return a.activity }

// Changes returns the broker index changes are published on.
func (a *App) Changes() *pubsub.Broker[index.Change] { return a.changes }

// Attached reports whether the index consumer has been attached to the hub.
func (a *App) Attached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attached
}

// AttachIndex attaches the index to every page, present and future. Pages
// holding submissions flush them now. Calling it again is a no-op.
func (a *App) AttachIndex() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.attached {
		return nil
	}
	if err := a.hub.AttachAll(a.index.Consumer); err != nil {
		return fmt.Errorf("attaching index: %w", err)
	}
	a.attached = true
	log.Debug(log.CatApp, "Index attached", "pages", len(a.hub.Pages()))
	return nil
}

// LoadResult describes one pass over the documentation root.
type LoadResult struct {
	DocRoot string
	Attach  string
	Pages   []fragment.Page
	Failed  []error
}

// Load scans the documentation root and submits every fragment to its page's
// bridge. With attach "early" the index is attached before the first
// submission, so every table is forwarded; with "late" the tables are held by
// their bridges until the index attaches after the scan. Decode failures are
// reported in LoadResult.Failed and do not stop the load.
func (a *App) Load(ctx context.Context) (LoadResult, error) {
	attach := a.cfg.Bridge.Attach
	if attach == "" {
		attach = AttachLate
	}

	ctx, span := tracing.Start(ctx, a.tracer.Tracer(), tracing.SpanLoad,
		attribute.String(tracing.AttrDocRoot, a.docRoot),
		attribute.String(tracing.AttrAttach, attach),
		attribute.String(tracing.AttrPendingPolicy, a.policy.String()))
	result, err := a.load(ctx, span, attach)
	span.SetAttributes(attribute.Int(tracing.AttrPages, len(result.Pages)))
	tracing.End(span, err)
	return result, err
}

func (a *App) load(ctx context.Context, span trace.Span, attach string) (LoadResult, error) {
	result := LoadResult{DocRoot: a.docRoot, Attach: attach}

	if attach == AttachEarly {
		if err := a.AttachIndex(); err != nil {
			return result, err
		}
		span.AddEvent(tracing.EventConsumerAttached)
	}

	pages, failed := a.scan(span)
	result.Failed = failed

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		a.submit(ctx, page)
		result.Pages = append(result.Pages, page)
	}

	if attach != AttachEarly {
		if err := a.AttachIndex(); err != nil {
			return result, err
		}
		span.AddEvent(tracing.EventConsumerAttached)
	}

	if a.flags.Enabled(flags.FlagPersistIndex) {
		if err := a.Save(ctx); err != nil {
			return result, err
		}
	}

	log.Info(log.CatApp, "Loaded documentation root",
		"docRoot", a.docRoot,
		"pages", len(result.Pages),
		"failed", len(result.Failed),
		"attach", attach)
	return result, nil
}

// Submit scans the documentation root and submits every fragment without
// attaching the index, leaving each table parked in its page's bridge unless
// a consumer is already attached. It returns the number of pages submitted.
func (a *App) Submit(ctx context.Context) (int, error) {
	ctx, span := tracing.Start(ctx, a.tracer.Tracer(), tracing.SpanLoad,
		attribute.String(tracing.AttrDocRoot, a.docRoot),
		attribute.String(tracing.AttrPendingPolicy, a.policy.String()))
	pages, _ := a.scan(span)
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			tracing.End(span, err)
			return 0, err
		}
		a.submit(ctx, page)
	}
	span.SetAttributes(attribute.Int(tracing.AttrPages, len(pages)))
	tracing.End(span, nil)
	return len(pages), nil
}

func (a *App) scan(span trace.Span) ([]fragment.Page, []error) {
	pages, err := fragment.Scan(os.DirFS(a.docRoot), ".")
	failed := unjoin(err)
	for _, err := range failed {
		span.AddEvent(tracing.EventFragmentSkipped, trace.WithAttributes(
			attribute.String(tracing.AttrErrorMessage, err.Error())))
	}
	return pages, failed
}

func (a *App) submit(ctx context.Context, page fragment.Page) {
	_, span := tracing.Start(ctx, a.tracer.Tracer(), tracing.SpanIngest,
		attribute.String(tracing.AttrTrait, page.Trait),
		attribute.String(tracing.AttrPath, page.Path),
		attribute.Int(tracing.AttrCrates, page.Table.Len()),
		attribute.Int(tracing.AttrImplementors, page.Table.Count()))
	id := a.hub.Page(page.Trait).Submit(page.Table)
	span.SetAttributes(attribute.String(tracing.AttrSubmissionID, id))
	tracing.End(span, nil)
}

// Ingest loads a single fragment, as happens when a page's script runs after
// the index is up. path may be absolute or relative to the documentation
// root. The index is attached first if it is not already.
func (a *App) Ingest(ctx context.Context, path string) (fragment.Page, error) {
	page, err := a.read(path)
	if err != nil {
		_, span := tracing.Start(ctx, a.tracer.Tracer(), tracing.SpanIngest,
			attribute.String(tracing.AttrPath, path))
		tracing.End(span, err)
		log.ErrorErr(log.CatApp, "Fragment load failed", err, "path", path)
		return fragment.Page{}, err
	}
	a.submit(ctx, page)
	return page, nil
}

func (a *App) read(path string) (fragment.Page, error) {
	rel := path
	if filepath.IsAbs(path) {
		var err error
		rel, err = filepath.Rel(a.docRoot, path)
		if err != nil {
			return fragment.Page{}, fmt.Errorf("%s is outside %s: %w", path, a.docRoot, err)
		}
	}
	if err := a.AttachIndex(); err != nil {
		return fragment.Page{}, err
	}
	return fragment.ReadPage(os.DirFS(a.docRoot), filepath.ToSlash(rel))
}

// Unflushed lists pages whose submissions never reached a consumer.
func (a *App) Unflushed() []bridge.Diagnostic {
	return a.hub.Unflushed()
}

// Render returns trait's page in format.
func (a *App) Render(ctx context.Context, format render.Format, trait string) (string, error) {
	return a.pages.Render(ctx, format, trait)
}

// Close releases the store and flushes traces.
func (a *App) Close() error {
	a.mu.Lock()
	db := a.db
	a.db = nil
	a.mu.Unlock()

	var errs []error
	if db != nil {
		errs = append(errs, db.Close())
	}
	errs = append(errs, a.tracer.Shutdown(context.Background()))
	a.activity.Close()
	a.changes.Close()
	return errors.Join(errs...)
}

func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
