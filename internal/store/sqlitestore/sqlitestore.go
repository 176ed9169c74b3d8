// Package sqlitestore is the default item store: a single SQLite file
// driven by the pure-Go modernc.org/sqlite driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/idilsaglam/shoplist/internal/model"
	"github.com/idilsaglam/shoplist/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryPath opens a private in-memory database. Handy for tests.
const MemoryPath = ":memory:"

// Store implements store.Store on SQLite.
type Store struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug and failure messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, s.fail("open", fmt.Errorf("create database directory: %w", err))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, s.fail("open", err)
	}

	// One connection: SQLite has a single writer, and an in-memory
	// database only lives as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{"PRAGMA busy_timeout=5000;", "PRAGMA synchronous=FULL;"}
	if path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL;")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, s.fail("open", fmt.Errorf("%s: %w", p, err))
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, s.fail("migrate", err)
	}

	s.db = db
	s.log.Debug("sqlite store opened", "path", path)
	return s, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}
	drv, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	// m.Close would close db as well, so the instance is just dropped.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Path returns the file the store was opened on.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return s.fail("close", err)
	}
	return nil
}

// GetAllItems returns every item ordered by ID.
func (s *Store) GetAllItems(ctx context.Context) ([]model.ShoppingItem, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, is_bought FROM shopping_items ORDER BY id")
	if err != nil {
		return nil, s.fail("load", err)
	}
	defer rows.Close()

	items := []model.ShoppingItem{}
	for rows.Next() {
		var it model.ShoppingItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Bought); err != nil {
			return nil, s.fail("load", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("load", err)
	}
	return items, nil
}

const upsertQuery = `INSERT INTO shopping_items (id, name, is_bought) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, is_bought = excluded.is_bought`

// InsertItem upserts item. A zero ID lets SQLite allocate one.
func (s *Store) InsertItem(ctx context.Context, item model.ShoppingItem) (int64, error) {
	var id any
	if item.ID != 0 {
		id = item.ID
	}
	res, err := s.db.ExecContext(ctx, upsertQuery, id, item.Name, item.Bought)
	if err != nil {
		return 0, s.fail("insert", err)
	}
	if item.ID != 0 {
		s.log.Debug("item upserted", "id", item.ID)
		return item.ID, nil
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, s.fail("insert", err)
	}
	s.log.Debug("item inserted", "id", newID, "name", item.Name)
	return newID, nil
}

// UpdateItem overwrites the record with item.ID.
func (s *Store) UpdateItem(ctx context.Context, item model.ShoppingItem) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE shopping_items SET name = ?, is_bought = ? WHERE id = ?",
		item.Name, item.Bought, item.ID)
	if err != nil {
		return s.fail("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.fail("update", err)
	}
	if n == 0 {
		return fmt.Errorf("update item %d: %w", item.ID, store.ErrNotFound)
	}
	s.log.Debug("item updated", "id", item.ID, "bought", item.Bought)
	return nil
}

// DeleteItem removes the record with item.ID if present.
func (s *Store) DeleteItem(ctx context.Context, item model.ShoppingItem) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM shopping_items WHERE id = ?", item.ID); err != nil {
		return s.fail("delete", err)
	}
	s.log.Debug("item deleted", "id", item.ID)
	return nil
}

func (s *Store) fail(op string, err error) error {
	s.log.Warn("sqlite store failure", "op", op, "path", s.path, "err", err)
	return &store.StorageError{Op: op, Path: s.path, Err: err}
}
