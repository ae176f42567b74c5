// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const indexDBFile = "index.db"

// Index is the SQLite publication index under the cache root. It maps
// normalized publication title keys to author cache keys, so later runs
// can find the cached profile behind a name variant by the papers it
// wrote instead of scanning the author class. Callers pass titles
// already normalized; the index stores them as given.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the index database at dir/index.db,
// creating the schema if it does not exist.
func OpenIndex(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, indexDBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

func (i *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS authors (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS publications (
			author_key TEXT NOT NULL REFERENCES authors(key),
			title TEXT NOT NULL,
			UNIQUE(author_key, title)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_author ON publications(author_key)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_title ON publications(title)`,
	}
	for _, stmt := range statements {
		if _, err := i.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordPublications upserts the author and adds any titles not yet
// indexed for it.
func (i *Index) RecordPublications(ctx context.Context, key, name string, titles []string) error {
	if key == "" {
		return nil
	}
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO authors (key, name, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		key, name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting author: %w", err)
	}
	for _, title := range titles {
		if title == "" {
			continue
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO publications (author_key, title) VALUES (?, ?)`,
			key, title)
		if err != nil {
			return fmt.Errorf("inserting publication: %w", err)
		}
	}
	return tx.Commit()
}

// IndexedAuthor is one author the publication index knows about.
type IndexedAuthor struct {
	Key  string
	Name string
}

// AuthorsFor returns the authors recorded as having written the given
// normalized title, in author-key order.
func (i *Index) AuthorsFor(ctx context.Context, title string) ([]IndexedAuthor, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT a.key, a.name FROM publications p
		 JOIN authors a ON a.key = p.author_key
		 WHERE p.title = ? ORDER BY a.key`, title)
	if err != nil {
		return nil, fmt.Errorf("querying authors by title: %w", err)
	}
	defer rows.Close()

	var out []IndexedAuthor
	for rows.Next() {
		var ia IndexedAuthor
		if err := rows.Scan(&ia.Key, &ia.Name); err != nil {
			return nil, fmt.Errorf("scanning author: %w", err)
		}
		out = append(out, ia)
	}
	return out, rows.Err()
}

// TitlesFor returns the indexed publication titles for an author key.
func (i *Index) TitlesFor(ctx context.Context, key string) ([]string, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT title FROM publications WHERE author_key = ? ORDER BY title`, key)
	if err != nil {
		return nil, fmt.Errorf("querying publications: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning publication: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// AuthorCount reports how many authors the index knows.
func (i *Index) AuthorCount(ctx context.Context) (int, error) {
	var n int
	err := i.db.QueryRowContext(ctx, `SELECT count(*) FROM authors`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting authors: %w", err)
	}
	return n, nil
}
