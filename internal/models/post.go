package models

import (
	"encoding/json"
	"time"
)

const (
	// UnknownAuthor is recorded when the feed exposes no author element.
	UnknownAuthor = "Unknown"

	// NoContent is recorded when content extraction yields nothing.
	NoContent = "No content"

	// TimeFormat is the human-readable timestamp layout used in output files.
	TimeFormat = "2006-01-02 15:04:05"
)

// Post is one discovered feed item. Posts are immutable once created: the
// record store only appends or merges, never rewrites.
type Post struct {
	// ID is the stable identifier assigned by the source feed (natural key).
	ID string `json:"post_id"`

	// Author of the post; UnknownAuthor when the element is missing.
	Author string `json:"author"`

	// PublishedAtMs is the publish time in epoch milliseconds.
	// Zero means the source exposed no machine-readable time.
	PublishedAtMs int64 `json:"published_at_ms"`

	// Content is the post text, possibly truncated or a placeholder when
	// expansion or extraction failed.
	Content string `json:"content"`

	// CollectedAt is the local capture time, always present.
	CollectedAt time.Time `json:"collected_at"`
}

// HasTime reports whether the post carries a machine-readable publish time.
func (p *Post) HasTime() bool {
	return p.PublishedAtMs > 0
}

// PublishedAt formats the publish time for output, "Unknown" when absent.
func (p *Post) PublishedAt() string {
	if !p.HasTime() {
		return "Unknown"
	}
	return time.UnixMilli(p.PublishedAtMs).UTC().Format(TimeFormat)
}

// ToJSON serializes the post.
func (p *Post) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
