package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zjrosen/implbridge/internal/implementors"
	"github.com/zjrosen/implbridge/internal/index"
	"github.com/zjrosen/implbridge/internal/log"
)

// SnapshotRepository stores whole index snapshots. Save replaces whatever
// was stored before.
type SnapshotRepository struct {
	db *sql.DB
}

func newSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save writes snap in a single transaction.
func (r *SnapshotRepository) Save(ctx context.Context, snap index.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Cascades to crates and implementors.
	if _, err := tx.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("failed to clear pages: %w", err)
	}

	pageStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (trait, position, deliveries, updated_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer pageStmt.Close()

	crateStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO crates (trait, position, name) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare crate insert: %w", err)
	}
	defer crateStmt.Close()

	implStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO implementors (trait, crate_position, position, display_text, synthetic, type_path)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare implementor insert: %w", err)
	}
	defer implStmt.Close()

	rows := 0
	for pagePos, page := range snap.Pages {
		if _, err := pageStmt.ExecContext(ctx,
			page.Trait, pagePos, page.Deliveries, toUnixNano(page.UpdatedAt)); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", page.Trait, err)
		}

		var insertErr error
		cratePos := 0
		page.Table.Each(func(crate string, descs []implementors.Descriptor) bool {
			if _, insertErr = crateStmt.ExecContext(ctx, page.Trait, cratePos, crate); insertErr != nil {
				insertErr = fmt.Errorf("failed to insert crate %s of %s: %w", crate, page.Trait, insertErr)
				return false
			}
			for pos, d := range descs {
				model, err := toImplementorModel(page.Trait, cratePos, pos, d)
				if err != nil {
					insertErr = err
					return false
				}
				if _, err := implStmt.ExecContext(ctx,
					model.Trait, model.CratePosition, model.Position,
					model.DisplayText, model.Synthetic, model.TypePath); err != nil {
					insertErr = fmt.Errorf("failed to insert implementor of %s: %w", page.Trait, err)
					return false
				}
				rows++
			}
			cratePos++
			return true
		})
		if insertErr != nil {
			return insertErr
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	log.Info(log.CatStore, "snapshot saved", "pages", len(snap.Pages), "implementors", rows)
	return nil
}

// Load reads the stored snapshot. An empty database yields an empty snapshot.
func (r *SnapshotRepository) Load(ctx context.Context) (index.Snapshot, error) {
	pages, err := r.loadPages(ctx)
	if err != nil {
		return index.Snapshot{}, err
	}
	crates, err := r.loadCrates(ctx)
	if err != nil {
		return index.Snapshot{}, err
	}
	descs, err := r.loadImplementors(ctx)
	if err != nil {
		return index.Snapshot{}, err
	}

	snap := index.Snapshot{Pages: make([]index.PageSnapshot, 0, len(pages))}
	for _, p := range pages {
		b := implementors.NewTableBuilder()
		for _, c := range crates[p.Trait] {
			b.Crate(c.Name, descs[crateKey{p.Trait, c.Position}]...)
		}
		snap.Pages = append(snap.Pages, index.PageSnapshot{
			Trait:      p.Trait,
			Deliveries: p.Deliveries,
			UpdatedAt:  fromUnixNano(p.UpdatedAt),
			Table:      b.Build(),
		})
	}
	return snap, nil
}

type crateKey struct {
	trait    string
	position int
}

func (r *SnapshotRepository) loadPages(ctx context.Context) ([]PageModel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT trait, position, deliveries, updated_at FROM pages ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var pages []PageModel
	for rows.Next() {
		var m PageModel
		if err := rows.Scan(&m.Trait, &m.Position, &m.Deliveries, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, m)
	}
	return pages, rows.Err()
}

func (r *SnapshotRepository) loadCrates(ctx context.Context) (map[string][]CrateModel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT trait, position, name FROM crates ORDER BY trait, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query crates: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]CrateModel)
	for rows.Next() {
		var m CrateModel
		if err := rows.Scan(&m.Trait, &m.Position, &m.Name); err != nil {
			return nil, fmt.Errorf("failed to scan crate: %w", err)
		}
		out[m.Trait] = append(out[m.Trait], m)
	}
	return out, rows.Err()
}

func (r *SnapshotRepository) loadImplementors(ctx context.Context) (map[crateKey][]implementors.Descriptor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT trait, crate_position, position, display_text, synthetic, type_path
		FROM implementors ORDER BY trait, crate_position, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query implementors: %w", err)
	}
	defer rows.Close()

	out := make(map[crateKey][]implementors.Descriptor)
	for rows.Next() {
		var m ImplementorModel
		if err := rows.Scan(&m.Trait, &m.CratePosition, &m.Position,
			&m.DisplayText, &m.Synthetic, &m.TypePath); err != nil {
			return nil, fmt.Errorf("failed to scan implementor: %w", err)
		}
		d, err := m.toDescriptor()
		if err != nil {
			return nil, err
		}
		key := crateKey{m.Trait, m.CratePosition}
		out[key] = append(out[key], d)
	}
	return out, rows.Err()
}

// Count reports how many pages are stored.
func (r *SnapshotRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}
