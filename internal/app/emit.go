package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/implbridge/internal/facts"
	"github.com/zjrosen/implbridge/internal/fragment"
	"github.com/zjrosen/implbridge/internal/implementors"
	"github.com/zjrosen/implbridge/internal/log"
	"github.com/zjrosen/implbridge/internal/tracing"
)

// EmitResult describes a fragment written by Emit.
type EmitResult struct {
	Trait string
	Path  string
	Table implementors.Table
}

// Emit produces the table described by f, submits it to the trait's bridge,
// and writes the fragment under the documentation root. When the fragment
// already exists, crates in f replace their entries and other crates are kept.
func (a *App) Emit(ctx context.Context, f facts.File) (EmitResult, error) {
	_, span := tracing.Start(ctx, a.tracer.Tracer(), tracing.SpanEmit,
		attribute.String(tracing.AttrTrait, f.Trait),
		attribute.Int(tracing.AttrCrates, len(f.Crates)))
	result, err := a.emit(f)
	if err == nil {
		span.SetAttributes(
			attribute.String(tracing.AttrPath, result.Path),
			attribute.Int(tracing.AttrImplementors, result.Table.Count()))
	}
	tracing.End(span, err)
	return result, err
}

func (a *App) emit(f facts.File) (EmitResult, error) {
	if err := f.Validate(); err != nil {
		return EmitResult{}, err
	}
	rel, err := fragment.PathForTrait(f.Trait)
	if err != nil {
		return EmitResult{}, err
	}
	target := filepath.Join(a.docRoot, filepath.FromSlash(rel))

	table := implementors.NewProducer(a.hub).Produce(f.Trait, f.CrateFacts()...)

	existing, err := fragment.ReadPage(os.DirFS(a.docRoot), rel)
	switch {
	case err == nil:
		table = existing.Table.Merge(table)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return EmitResult{}, err
	}

	if err := writeFragment(target, table); err != nil {
		return EmitResult{}, err
	}
	log.Info(log.CatApp, "Fragment written", "trait", f.Trait, "path", target, "crates", table.Len())
	return EmitResult{Trait: f.Trait, Path: target, Table: table}, nil
}

// writeFragment replaces path atomically so a watcher never sees a partial
// file.
func writeFragment(path string, table implementors.Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".fragment-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := fragment.Encode(tmp, table); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encoding fragment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	//nolint:gosec // G302: fragments are served as static files
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming fragment: %w", err)
	}
	return nil
}
