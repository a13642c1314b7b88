package models

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// CrawlState is the resumable progress marker for one target. It is created
// on the first run for a target, loaded and merged on resume, and overwritten
// on each periodic save and at run end.
//
// Invariants: SeenIDs is a superset of all post IDs in the associated record
// store; OldestSeenMs only moves downward; ScrollCount only moves upward.
type CrawlState struct {
	// RunID identifies the run that last wrote this state.
	RunID string `json:"run_id"`

	// SourceAddress is the page/feed identity this state belongs to.
	// Verified on load: a mismatch means the namespace was reused for a
	// different target and the state must not be resumed from.
	SourceAddress string `json:"source_address"`

	// SeenIDs holds every post ID captured across all runs for this target.
	SeenIDs []string `json:"seen_ids"`

	// OldestSeenMs is the minimum publish time observed so far, in epoch
	// milliseconds. Zero means no timed post has been seen yet.
	OldestSeenMs int64 `json:"oldest_seen_ms"`

	// ScrollCount carries the scroll position estimate across resumes.
	ScrollCount int `json:"scroll_count"`

	UpdatedAt time.Time `json:"updated_at"`
}

// CheckpointFilename derives the checkpoint file name for a namespace.
func CheckpointFilename(namespace string) string {
	return fmt.Sprintf("checkpoint_%s.json", namespace)
}

// ToJSON serializes the state.
func (s *CrawlState) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FromJSON deserializes the state.
func (s *CrawlState) FromJSON(data []byte) error {
	return json.Unmarshal(data, s)
}

// SaveToFile writes the state to the given path.
func (s *CrawlState) SaveToFile(path string) error {
	data, err := s.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCrawlStateFromFile reads a previously saved state.
func LoadCrawlStateFromFile(path string) (*CrawlState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var state CrawlState
	if err := state.FromJSON(data); err != nil {
		return nil, err
	}

	return &state, nil
}
