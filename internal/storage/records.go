package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/utils"
)

// csvHeader is the record-file column order.
var csvHeader = []string{"post_id", "author", "published_at", "published_at_ms", "content", "collected_at"}

// RecordStore is the in-memory ordered collection of collected posts plus the
// deduplication index. Posts discovered in the current run are kept ahead of
// posts carried over from prior runs; SortedForOutput renormalizes the order.
//
// The store is owned by one controller for the duration of a run.
type RecordStore struct {
	mu sync.RWMutex

	// posts holds this run's discoveries in page-enumeration order.
	posts []models.Post

	// carried holds posts merged from prior runs of the same target.
	carried []models.Post

	// index deduplicates by post ID across both slices.
	index map[string]struct{}
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		posts:   make([]models.Post, 0),
		carried: make([]models.Post, 0),
		index:   make(map[string]struct{}),
	}
}

// Add appends a post unless its ID is already known. The first-seen instance
// of an ID always wins.
func (rs *RecordStore) Add(post models.Post) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, exists := rs.index[post.ID]; exists {
		return false
	}

	rs.posts = append(rs.posts, post)
	rs.index[post.ID] = struct{}{}
	return true
}

// Has reports whether the ID is already stored.
func (rs *RecordStore) Has(id string) bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	_, exists := rs.index[id]
	return exists
}

// Count returns the number of posts discovered this run.
func (rs *RecordStore) Count() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.posts)
}

// TotalCount returns this run's posts plus carried-over posts.
func (rs *RecordStore) TotalCount() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.posts) + len(rs.carried)
}

// MergePrevious adds posts persisted by prior runs. Duplicates of anything
// already stored are dropped. Returns the number actually merged.
func (rs *RecordStore) MergePrevious(posts []models.Post) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	merged := 0
	for _, post := range posts {
		if _, exists := rs.index[post.ID]; exists {
			continue
		}
		rs.carried = append(rs.carried, post)
		rs.index[post.ID] = struct{}{}
		merged++
	}

	return merged
}

// Snapshot returns all posts in merge-time order: newly-discovered posts
// first, carried posts after.
func (rs *RecordStore) Snapshot() []models.Post {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	out := make([]models.Post, 0, len(rs.posts)+len(rs.carried))
	out = append(out, rs.posts...)
	out = append(out, rs.carried...)
	return out
}

// SortedForOutput returns all posts sorted by publish time descending.
// Posts without a timestamp sort last; equal or absent timestamps keep their
// relative discovery order (stable sort).
func (rs *RecordStore) SortedForOutput() []models.Post {
	out := rs.Snapshot()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		switch {
		case a.HasTime() && b.HasTime():
			return a.PublishedAtMs > b.PublishedAtMs
		case a.HasTime():
			return true
		default:
			return false
		}
	})

	return out
}

// WriteComplete persists the sorted store to the canonical record file.
// The previous complete file, if any, is kept as a .bak backup first.
func (rs *RecordStore) WriteComplete(layout Layout) error {
	return writeCSVAtomic(layout.CompleteFile(), rs.SortedForOutput(), true)
}

// WriteIntermediate persists a count-suffixed snapshot. Intermediate files
// are never overwritten by later saves.
func (rs *RecordStore) WriteIntermediate(layout Layout) (string, error) {
	path := layout.IntermediateFile(rs.TotalCount())
	if err := writeCSVAtomic(path, rs.Snapshot(), false); err != nil {
		return "", err
	}
	return path, nil
}

// WriteErrorRecovery persists whatever has been collected so far to the
// error-recovery variant. Used on unclassified failure; must not itself fail
// loudly, so callers log rather than abort on error.
func (rs *RecordStore) WriteErrorRecovery(layout Layout) (string, error) {
	path := layout.ErrorRecoveryFile()
	if err := writeCSVAtomic(path, rs.Snapshot(), false); err != nil {
		return "", err
	}
	return path, nil
}

// writeCSVAtomic writes posts to path via a temp file and rename, optionally
// retaining the previous file as a .bak backup.
func writeCSVAtomic(path string, posts []models.Post, backup bool) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create record file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}

	for i := range posts {
		p := &posts[i]
		msField := ""
		if p.HasTime() {
			msField = strconv.FormatInt(p.PublishedAtMs, 10)
		}
		row := []string{
			p.ID,
			p.Author,
			p.PublishedAt(),
			msField,
			p.Content,
			p.CollectedAt.UTC().Format(models.TimeFormat),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write record %s: %w", p.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush records: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close record file: %w", err)
	}

	if backup {
		if _, err := os.Stat(path); err == nil {
			if err := os.Rename(path, path+".bak"); err != nil {
				return fmt.Errorf("back up previous record file: %w", err)
			}
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace record file: %w", err)
	}

	utils.Debugf("records written: %s (%d posts)", path, len(posts))
	return nil
}

// LoadRecordsCSV reads a previously written record file. Rows that cannot be
// parsed are skipped with a warning rather than failing the load.
func LoadRecordsCSV(path string) ([]models.Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	// Header row.
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	posts := make([]models.Post, 0)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			utils.Warnf("skipping malformed record row in %s: %v", path, err)
			continue
		}

		if row[0] == "" {
			utils.Warnf("skipping record row without post ID in %s", path)
			continue
		}

		post := models.Post{
			ID:      row[0],
			Author:  row[1],
			Content: row[4],
		}
		if row[3] != "" {
			if ms, err := strconv.ParseInt(row[3], 10, 64); err == nil {
				post.PublishedAtMs = ms
			}
		}
		if collected, err := time.Parse(models.TimeFormat, row[5]); err == nil {
			post.CollectedAt = collected
		}

		posts = append(posts, post)
	}

	return posts, nil
}
