package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/implbridge/internal/flags"
	"github.com/zjrosen/implbridge/internal/infrastructure/sqlite"
	"github.com/zjrosen/implbridge/internal/log"
	"github.com/zjrosen/implbridge/internal/tracing"
)

func (a *App) store() (*sqlite.DB, error) {
	if !a.flags.Enabled(flags.FlagPersistIndex) {
		return nil, ErrStoreDisabled
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db != nil {
		return a.db, nil
	}
	db, err := sqlite.NewDB(a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening index store: %w", err)
	}
	a.db = db
	return db, nil
}

// Save writes the current index to the store, replacing what was there.
func (a *App) Save(ctx context.Context) (err error) {
	ctx, span := tracing.Start(ctx, a.tracer.Tracer(), tracing.SpanStoreSave)
	defer func() { tracing.End(span, err) }()

	db, err := a.store()
	if err != nil {
		return err
	}
	snap := a.index.Snapshot()
	span.SetAttributes(attribute.Int(tracing.AttrPages, len(snap.Pages)))
	if err := db.SnapshotRepository().Save(ctx, snap); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	log.Info(log.CatStore, "Index saved", "pages", len(snap.Pages), "path", db.Path())
	return nil
}

// Restore replaces the index with the stored snapshot. It returns the number
// of pages restored.
func (a *App) Restore(ctx context.Context) (n int, err error) {
	ctx, span := tracing.Start(ctx, a.tracer.Tracer(), tracing.SpanStoreLoad)
	defer func() { tracing.End(span, err) }()

	db, err := a.store()
	if err != nil {
		return 0, err
	}
	snap, err := db.SnapshotRepository().Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading index: %w", err)
	}
	a.index.Restore(snap)
	span.SetAttributes(attribute.Int(tracing.AttrPages, len(snap.Pages)))
	log.Info(log.CatStore, "Index restored", "pages", len(snap.Pages), "path", db.Path())
	return len(snap.Pages), nil
}
