package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS posts (
	post_id      TEXT PRIMARY KEY,
	author       TEXT NOT NULL,
	published_at_ms INTEGER NOT NULL DEFAULT 0,
	content      TEXT NOT NULL,
	collected_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_published ON posts(published_at_ms);
`

// Archive is the cross-run post store. CSV files are per-run outputs; the
// archive accumulates every post ever collected for a namespace and seeds
// the seen-ID set on resume.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (and migrates, if needed) the SQLite archive at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// modernc.org/sqlite serializes access per connection; a single
	// connection avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}

	return &Archive{db: db}, nil
}

// UpsertPosts inserts posts that are not yet archived. Already archived IDs
// are left untouched: the first collected version of a post wins.
func (a *Archive) UpsertPosts(ctx context.Context, posts []models.Post) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (post_id, author, published_at_ms, content, collected_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(post_id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare archive upsert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range posts {
		res, err := stmt.ExecContext(ctx, p.ID, p.Author, p.PublishedAtMs,
			p.Content, p.CollectedAt.Format(models.TimeFormat))
		if err != nil {
			return inserted, fmt.Errorf("archive post %s: %w", p.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit archive tx: %w", err)
	}
	return inserted, nil
}

// SeenIDs returns every archived post ID for seeding the dedup set.
func (a *Archive) SeenIDs(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT post_id FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("query archive IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan archive ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of archived posts.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count archive: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
