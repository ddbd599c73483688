// Package favorites persists pinned clipboard values in SQLite.
package favorites

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DefaultFile is the database file name inside the host data directory.
const DefaultFile = "store.db"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS favorite (
	id    INTEGER PRIMARY KEY,
	value TEXT NOT NULL
);`

// Favorite is one pinned clipboard value.
type Favorite struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
}

// Store is a SQLite backed favorites table.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the parent directory and schema when missing. ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("favorites: empty database path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("favorites: create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("favorites: open %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared and serializes sqlite writers
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("favorites: init schema: %w", err)
	}
	log.Debug().Str("path", path).Msg("favorites: store opened")
	return &Store{db: db, path: path}, nil
}

// Create stores value as given, including the empty string.
func (s *Store) Create(ctx context.Context, value string) (Favorite, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO favorite (value) VALUES (?)`, value)
	if err != nil {
		return Favorite{}, fmt.Errorf("favorites: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Favorite{}, fmt.Errorf("favorites: insert id: %w", err)
	}
	return Favorite{ID: id, Value: value}, nil
}

// List returns all favorites ordered by id.
func (s *Store) List(ctx context.Context) ([]Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, value FROM favorite ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("favorites: list: %w", err)
	}
	defer rows.Close()
	out := make([]Favorite, 0)
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.Value); err != nil {
			return nil, fmt.Errorf("favorites: scan: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Remove deletes the favorite with id. Removing an unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorite WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("favorites: delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.Debug().Int64("id", id).Msg("favorites: remove matched no rows")
	}
	return nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}
