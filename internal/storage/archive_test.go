package storage

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchiveUpsertIdempotent(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	posts := []models.Post{testPost("p1", 100), testPost("p2", 200)}

	inserted, err := a.UpsertPosts(ctx, posts)
	if err != nil {
		t.Fatalf("UpsertPosts: %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}

	// Re-archiving the same posts changes nothing.
	inserted, err = a.UpsertPosts(ctx, posts)
	if err != nil {
		t.Fatalf("second UpsertPosts: %v", err)
	}
	if inserted != 0 {
		t.Errorf("second insert = %d, want 0", inserted)
	}

	n, err := a.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestArchiveFirstVersionWins(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	first := testPost("p1", 100)
	first.Content = "original"
	if _, err := a.UpsertPosts(ctx, []models.Post{first}); err != nil {
		t.Fatalf("UpsertPosts: %v", err)
	}

	changed := testPost("p1", 100)
	changed.Content = "rewritten"
	if _, err := a.UpsertPosts(ctx, []models.Post{changed}); err != nil {
		t.Fatalf("UpsertPosts: %v", err)
	}

	var content string
	err := a.db.QueryRowContext(ctx,
		`SELECT content FROM posts WHERE post_id = ?`, "p1").Scan(&content)
	if err != nil {
		t.Fatalf("query content: %v", err)
	}
	if content != "original" {
		t.Errorf("content = %q, want original version retained", content)
	}
}

func TestArchiveSeenIDs(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	if _, err := a.UpsertPosts(ctx, []models.Post{
		testPost("b", 100), testPost("a", 200), testPost("c", 0),
	}); err != nil {
		t.Fatalf("UpsertPosts: %v", err)
	}

	ids, err := a.SeenIDs(ctx)
	if err != nil {
		t.Fatalf("SeenIDs: %v", err)
	}
	sort.Strings(ids)
	want := []string{"a", "b", "c"}
	if len(ids) != len(want) {
		t.Fatalf("SeenIDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("SeenIDs[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestArchiveReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.db")
	ctx := context.Background()

	a, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	if _, err := a.UpsertPosts(ctx, []models.Post{testPost("p1", 100)}); err != nil {
		t.Fatalf("UpsertPosts: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	a2, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer a2.Close()

	n, err := a2.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count after reopen = %d, want 1", n)
	}
}
