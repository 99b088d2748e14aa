package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades a database whose user_version is below version.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations are applied in order. schema.sql always describes the latest
// layout, so each step must be a no-op on a fresh database.
var migrations = []migration{
	{
		version: 1,
		name:    "graph index",
		stmts:   []string{`CREATE INDEX IF NOT EXISTS idx_quads_graph ON quads(graph)`},
	},
}

// schemaVersion is the user_version of a fully migrated database.
var schemaVersion = migrations[len(migrations)-1].version

// connPragmas configure every connection. Quads are written by a single
// importer, so the pool is pinned to one connection and these apply once.
var connPragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// Store is a durable RDF interpretation and dataset backed by SQLite.
// Resources, their terms and the quads over them live in one database
// file; ":memory:" gives a private in-memory store.
type Store struct {
	db *sql.DB
}

// Open opens the store at path, creating the file if needed, and brings
// its schema up to date. Opening an existing store is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, p := range connPragmas {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("failed to set pragma %s: %w", p.name, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return s.migrate(ctx)
}

// migrate runs the pending migrations in one transaction and records the
// resulting schema version.
func (s *Store) migrate(ctx context.Context) error {
	var from int
	if err := s.pragma(ctx, "user_version", &from); err != nil {
		return err
	}
	if from > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", from, schemaVersion)
	}
	if from == schemaVersion {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, m := range migrations {
		if m.version <= from {
			continue
		}
		for _, stmt := range m.stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
			}
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}

// pragma reads the current value of a pragma into dst.
func (s *Store) pragma(ctx context.Context, name string, dst any) error {
	if err := s.db.QueryRowContext(ctx, "PRAGMA "+name).Scan(dst); err != nil {
		return fmt.Errorf("read pragma %s: %w", name, err)
	}
	return nil
}

// Close releases the database. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
