// Package sqlite persists index snapshots in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/implbridge/internal/log"
)

// migrations are applied in order; PRAGMA user_version records how many ran.
var migrations = []string{
	`CREATE TABLE pages (
		trait      TEXT PRIMARY KEY,
		position   INTEGER NOT NULL,
		deliveries INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE crates (
		trait    TEXT NOT NULL REFERENCES pages(trait) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name     TEXT NOT NULL,
		PRIMARY KEY (trait, position)
	);
	CREATE TABLE implementors (
		trait          TEXT NOT NULL,
		crate_position INTEGER NOT NULL,
		position       INTEGER NOT NULL,
		display_text   TEXT NOT NULL,
		synthetic      INTEGER NOT NULL DEFAULT 0,
		type_path      TEXT NOT NULL,
		PRIMARY KEY (trait, crate_position, position),
		FOREIGN KEY (trait, crate_position) REFERENCES crates(trait, position) ON DELETE CASCADE
	);
	CREATE INDEX idx_implementors_type_path ON implementors(type_path);`,
}

// DB owns the SQLite connection.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (creating if needed) the database at path and brings its schema
// up to date. An existing file is copied to path+".bak" before any migration
// runs.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(wal)" +
		"&_pragma=foreign_keys(on)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	var version int
	if err := db.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= len(migrations) {
		return nil
	}

	if err := db.backup(); err != nil {
		return err
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("starting migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", i+1, err)
		}
		log.Info(log.CatStore, "applied migration", "version", i+1, "path", db.path)
	}
	return nil
}

// backup copies a non-empty database file aside.
func (db *DB) backup() error {
	info, err := os.Stat(db.path)
	if err != nil || info.Size() == 0 {
		return nil //nolint:nilerr // nothing to back up
	}

	src, err := os.Open(db.path)
	if err != nil {
		return fmt.Errorf("opening database for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(db.path+".bak", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("creating backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("writing backup: %w", err)
	}
	return dst.Close()
}

// Close closes the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Connection exposes the underlying *sql.DB.
func (db *DB) Connection() *sql.DB {
	return db.conn
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// SnapshotRepository returns the repository for index snapshots.
func (db *DB) SnapshotRepository() *SnapshotRepository {
	return newSnapshotRepository(db.conn)
}
