package app

import (
	"context"
	"fmt"
	"os"

	"github.com/zjrosen/implbridge/internal/log"
	"github.com/zjrosen/implbridge/internal/paths"
	"github.com/zjrosen/implbridge/internal/watcher"
)

// Watch ingests fragments as they are written under the documentation root
// until ctx is done. Each batch of changed fragments is loaded in path order;
// a fragment that fails to load is logged and skipped.
func (a *App) Watch(ctx context.Context) error {
	cfg := watcher.DefaultConfig(paths.ImplementorsDir(a.docRoot))
	if a.cfg.Watch.Debounce > 0 {
		cfg.DebounceDur = a.cfg.Watch.Debounce
	}

	if err := os.MkdirAll(cfg.Root, 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", cfg.Root, err)
	}

	w, err := watcher.New(cfg)
	if err != nil {
		return err
	}
	batches, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}
	defer func() { _ = w.Stop() }()

	if err := a.AttachIndex(); err != nil {
		return err
	}

	log.Info(log.CatApp, "Watching fragments", "dir", cfg.Root, "debounce", cfg.DebounceDur)
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-batches:
			for _, p := range batch {
				// Failures are logged by Ingest.
				_, _ = a.Ingest(ctx, p)
			}
		}
	}
}
