// Package store persists announce records in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sha1n/announce-search/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY,
	label TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS announces (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category_id INTEGER NOT NULL REFERENCES categories(id),
	tags TEXT NOT NULL DEFAULT '',
	date_creation TEXT NOT NULL,
	published INTEGER NOT NULL DEFAULT 0,
	suspended INTEGER NOT NULL DEFAULT 0,
	suspended_by_user INTEGER NOT NULL DEFAULT 0
);
`

const selectPublished = `
SELECT a.id, a.title, a.description, a.category_id, COALESCE(c.label, ''), a.tags,
	a.date_creation, a.published, a.suspended, a.suspended_by_user
FROM announces a
LEFT JOIN categories c ON c.id = a.category_id
WHERE a.published = 1
ORDER BY a.id`

// Store is a SQLite-backed announce repository.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FindAllPublished returns published announces ordered by ID.
// Suspended announces are included; callers decide on eligibility.
func (s *Store) FindAllPublished(ctx context.Context) ([]domain.Announce, error) {
	rows, err := s.db.QueryContext(ctx, selectPublished)
	if err != nil {
		return nil, fmt.Errorf("query published announces: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var announces []domain.Announce
	for rows.Next() {
		var a domain.Announce
		var created string
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Category.ID, &a.Category.Label, &a.Tags,
			&created, &a.Published, &a.Suspended, &a.SuspendedByUser); err != nil {
			return nil, fmt.Errorf("scan announce: %w", err)
		}
		a.DateCreation, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("announce %d: parse date_creation: %w", a.ID, err)
		}
		announces = append(announces, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announces: %w", err)
	}

	return announces, nil
}

// SaveCategory inserts or replaces a category.
func (s *Store) SaveCategory(ctx context.Context, c domain.Category) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO categories (id, label) VALUES (?, ?)`, c.ID, c.Label)
	if err != nil {
		return fmt.Errorf("save category %d: %w", c.ID, err)
	}
	return nil
}

// Save inserts or replaces an announce. Its category must already exist.
func (s *Store) Save(ctx context.Context, a domain.Announce) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO announces
		(id, title, description, category_id, tags, date_creation, published, suspended, suspended_by_user)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Description, a.Category.ID, a.Tags,
		a.DateCreation.UTC().Format(time.RFC3339Nano),
		a.Published, a.Suspended, a.SuspendedByUser)
	if err != nil {
		return fmt.Errorf("save announce %d: %w", a.ID, err)
	}
	return nil
}
