package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
)

func testPost(id string, ms int64) models.Post {
	return models.Post{
		ID:            id,
		Author:        "alice",
		PublishedAtMs: ms,
		Content:       "content for " + id,
		CollectedAt:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordStoreAddDeduplicates(t *testing.T) {
	rs := NewRecordStore()

	if !rs.Add(testPost("a", 100)) {
		t.Fatal("first add should succeed")
	}
	if rs.Add(testPost("a", 999)) {
		t.Error("second add of same ID should be rejected")
	}
	if rs.Count() != 1 {
		t.Errorf("Count() = %d, want 1", rs.Count())
	}
	if !rs.Has("a") {
		t.Error("Has(a) = false after add")
	}

	// First-seen wins: the retained post keeps the original timestamp.
	got := rs.Snapshot()
	if got[0].PublishedAtMs != 100 {
		t.Errorf("retained PublishedAtMs = %d, want 100", got[0].PublishedAtMs)
	}
}

func TestRecordStoreMergePrevious(t *testing.T) {
	rs := NewRecordStore()
	rs.Add(testPost("new1", 300))
	rs.Add(testPost("new2", 200))

	merged := rs.MergePrevious([]models.Post{
		testPost("old1", 100),
		testPost("new1", 999), // already present this run, must not duplicate
	})
	if merged != 1 {
		t.Errorf("MergePrevious = %d, want 1", merged)
	}
	if rs.Count() != 2 {
		t.Errorf("Count() = %d (this run only), want 2", rs.Count())
	}
	if rs.TotalCount() != 3 {
		t.Errorf("TotalCount() = %d, want 3", rs.TotalCount())
	}

	// New posts come before carried posts in the snapshot.
	snap := rs.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot len = %d, want 3", len(snap))
	}
	if snap[0].ID != "new1" || snap[1].ID != "new2" || snap[2].ID != "old1" {
		t.Errorf("snapshot order = [%s %s %s], want [new1 new2 old1]",
			snap[0].ID, snap[1].ID, snap[2].ID)
	}
}

func TestRecordStoreSortedForOutput(t *testing.T) {
	rs := NewRecordStore()
	rs.Add(testPost("mid", 200))
	rs.Add(testPost("unknown1", 0))
	rs.Add(testPost("newest", 300))
	rs.Add(testPost("unknown2", 0))
	rs.Add(testPost("oldest", 100))

	got := rs.SortedForOutput()
	wantOrder := []string{"newest", "mid", "oldest", "unknown1", "unknown2"}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestWriteCompleteRoundTrip(t *testing.T) {
	layout := Layout{OutputDir: t.TempDir(), Namespace: "roundtrip"}
	if err := layout.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	rs := NewRecordStore()
	rs.Add(testPost("p1", 200))
	rs.Add(testPost("p2", 0))

	if err := rs.WriteComplete(layout); err != nil {
		t.Fatalf("WriteComplete: %v", err)
	}

	posts, err := LoadRecordsCSV(layout.CompleteFile())
	if err != nil {
		t.Fatalf("LoadRecordsCSV: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("loaded %d posts, want 2", len(posts))
	}
	if posts[0].ID != "p1" || posts[0].PublishedAtMs != 200 {
		t.Errorf("posts[0] = %+v, want p1/200", posts[0])
	}
	if posts[1].PublishedAtMs != 0 {
		t.Errorf("posts[1].PublishedAtMs = %d, want 0 (unknown)", posts[1].PublishedAtMs)
	}
	if posts[0].Content != "content for p1" {
		t.Errorf("posts[0].Content = %q", posts[0].Content)
	}
}

func TestWriteCompleteBacksUpPrevious(t *testing.T) {
	layout := Layout{OutputDir: t.TempDir(), Namespace: "backup"}
	if err := layout.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	rs := NewRecordStore()
	rs.Add(testPost("first", 100))
	if err := rs.WriteComplete(layout); err != nil {
		t.Fatalf("first WriteComplete: %v", err)
	}

	rs.Add(testPost("second", 200))
	if err := rs.WriteComplete(layout); err != nil {
		t.Fatalf("second WriteComplete: %v", err)
	}

	if _, err := os.Stat(layout.CompleteFile() + ".bak"); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
	backup, err := LoadRecordsCSV(layout.CompleteFile() + ".bak")
	if err != nil {
		t.Fatalf("load backup: %v", err)
	}
	if len(backup) != 1 {
		t.Errorf("backup has %d posts, want 1 (previous write)", len(backup))
	}
}

func TestLoadRecordsCSVSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posts.csv")
	content := "post_id,author,published_at,published_at_ms,content,collected_at\n" +
		"good,alice,2026-08-30 12:00:00,100,hi,2026-08-30 12:00:00\n" +
		"short-row,alice\n" +
		",alice,2026-08-30 12:00:00,100,no id,2026-08-30 12:00:00\n" +
		"no-time,alice,Unknown,bogus,hi,2026-08-30 12:00:00\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	posts, err := LoadRecordsCSV(path)
	if err != nil {
		t.Fatalf("LoadRecordsCSV: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("loaded %d posts, want 2", len(posts))
	}
	if posts[0].ID != "good" {
		t.Errorf("posts[0].ID = %s, want good", posts[0].ID)
	}
	// Unparseable millisecond field degrades to unknown time, not a skip.
	if posts[1].ID != "no-time" || posts[1].PublishedAtMs != 0 {
		t.Errorf("posts[1] = %s/%d, want no-time/0", posts[1].ID, posts[1].PublishedAtMs)
	}
}

func TestLoadRecordsCSVMissingFile(t *testing.T) {
	posts, err := LoadRecordsCSV(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if posts != nil {
		t.Errorf("posts = %v, want nil", posts)
	}
}

func TestWriteIntermediateNamesByCount(t *testing.T) {
	layout := Layout{OutputDir: t.TempDir(), Namespace: "inter"}
	if err := layout.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	rs := NewRecordStore()
	for _, id := range []string{"a", "b", "c"} {
		rs.Add(testPost(id, 100))
	}

	path, err := rs.WriteIntermediate(layout)
	if err != nil {
		t.Fatalf("WriteIntermediate: %v", err)
	}
	if path != layout.IntermediateFile(3) {
		t.Errorf("path = %s, want %s", path, layout.IntermediateFile(3))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("intermediate file missing: %v", err)
	}
}
