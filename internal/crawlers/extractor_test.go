package crawlers

import (
	"testing"
	"time"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
)

type staticSeen map[string]bool

func (s staticSeen) Has(id string) bool { return s[id] }

func TestExtractorFullItem(t *testing.T) {
	e := NewExtractor(models.DefaultSelectorConfig())
	ts := time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	item := &fakeItem{id: "p1", timeMs: ts, author: "alice", content: "hello"}

	post, skip := e.Extract(item, staticSeen{})
	if skip != SkipNone {
		t.Fatalf("skip = %q, want none", skip)
	}
	if post.ID != "p1" || post.Author != "alice" || post.Content != "hello" {
		t.Errorf("post = %+v", post)
	}
	if post.PublishedAtMs != ts {
		t.Errorf("PublishedAtMs = %d, want %d", post.PublishedAtMs, ts)
	}
	if post.CollectedAt.IsZero() {
		t.Error("CollectedAt not stamped")
	}
	if item.expandCalls != 1 {
		t.Errorf("expandCalls = %d, want 1 (expand before content read)", item.expandCalls)
	}
}

func TestExtractorSkipReasons(t *testing.T) {
	e := NewExtractor(models.DefaultSelectorConfig())

	tests := []struct {
		name string
		item *fakeItem
		seen staticSeen
		want SkipReason
	}{
		{"missing ID", &fakeItem{content: "x"}, staticSeen{}, SkipNoID},
		{"already seen", &fakeItem{id: "p1", content: "x"}, staticSeen{"p1": true}, SkipSeen},
		{"fresh", &fakeItem{id: "p2", content: "x"}, staticSeen{"p1": true}, SkipNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, skip := e.Extract(tt.item, tt.seen)
			if skip != tt.want {
				t.Errorf("skip = %q, want %q", skip, tt.want)
			}
		})
	}
}

func TestExtractorDegradesGracefully(t *testing.T) {
	e := NewExtractor(models.DefaultSelectorConfig())

	// No time attribute, no author element, no content text: the post is
	// still produced, with placeholders.
	post, skip := e.Extract(&fakeItem{id: "bare"}, staticSeen{})
	if skip != SkipNone {
		t.Fatalf("skip = %q, want none", skip)
	}
	if post.HasTime() {
		t.Errorf("PublishedAtMs = %d, want unknown", post.PublishedAtMs)
	}
	if post.Author != models.UnknownAuthor {
		t.Errorf("Author = %q, want %q", post.Author, models.UnknownAuthor)
	}
	if post.Content != models.NoContent {
		t.Errorf("Content = %q, want %q", post.Content, models.NoContent)
	}
	if post.PublishedAt() != "Unknown" {
		t.Errorf("PublishedAt() = %q, want Unknown", post.PublishedAt())
	}
}

func TestExtractorDedupGateBeforeReads(t *testing.T) {
	e := NewExtractor(models.DefaultSelectorConfig())
	item := &fakeItem{id: "p1", content: "x"}

	if _, skip := e.Extract(item, staticSeen{"p1": true}); skip != SkipSeen {
		t.Fatalf("skip = %q, want seen", skip)
	}
	// A seen item must cost one ID read and nothing more.
	if item.expandCalls != 0 {
		t.Errorf("expandCalls = %d, want 0 for a seen item", item.expandCalls)
	}
}
