package crawlers

import (
	"strconv"
	"time"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/utils"
)

// SkipReason explains why an item handle produced no post.
type SkipReason string

const (
	// SkipNone marks a successful extraction.
	SkipNone SkipReason = ""

	// SkipNoID marks an item whose ID attribute could not be read; without
	// a stable ID the item cannot be deduplicated and is dropped.
	SkipNoID SkipReason = "no_id"

	// SkipSeen marks an item whose ID is already collected.
	SkipSeen SkipReason = "seen"
)

// Extractor turns item handles into posts. The ID is read first and checked
// against the seen set before any further element access, so already
// collected items cost one attribute read and nothing more.
type Extractor struct {
	selectors models.SelectorConfig
}

// NewExtractor creates an extractor for the given selector set.
func NewExtractor(selectors models.SelectorConfig) *Extractor {
	return &Extractor{selectors: selectors}
}

// Seen is the dedup lookup the extractor consults before full extraction.
type Seen interface {
	Has(id string) bool
}

// Extract reads one item. On success the returned post always has an ID and
// a capture time; author and content degrade to placeholders, publish time
// degrades to zero, and none of those degradations skip the item.
func (e *Extractor) Extract(handle ItemHandle, seen Seen) (models.Post, SkipReason) {
	id, ok := handle.Attribute(e.selectors.IDAttr)
	if !ok || id == "" {
		return models.Post{}, SkipNoID
	}
	if seen.Has(id) {
		return models.Post{}, SkipSeen
	}

	post := models.Post{
		ID:          id,
		Author:      models.UnknownAuthor,
		Content:     models.NoContent,
		CollectedAt: time.Now(),
	}

	if raw, ok := handle.Attribute(e.selectors.TimeAttr); ok && raw != "" {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms > 0 {
			post.PublishedAtMs = ms
		} else {
			utils.Debugf("post %s has unparseable publish time %q", id, raw)
		}
	}

	if e.selectors.Author != "" {
		if author, ok := handle.Text(e.selectors.Author); ok && author != "" {
			post.Author = author
		}
	}

	// Expand truncated content before reading it. A failed expansion still
	// yields the visible (truncated) text.
	if e.selectors.ReadAll != "" {
		handle.Expand(e.selectors.ReadAll)
	}
	if content, ok := handle.Text(e.selectors.Content); ok && content != "" {
		post.Content = content
	}

	return post, SkipNone
}
