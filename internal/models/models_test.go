package models

import (
	"path/filepath"
	"testing"
	"time"
)

func TestPostTimeHandling(t *testing.T) {
	timed := Post{ID: "p1", PublishedAtMs: time.Date(2022, 2, 1, 12, 30, 0, 0, time.UTC).UnixMilli()}
	if !timed.HasTime() {
		t.Error("HasTime() = false for a timed post")
	}
	if got := timed.PublishedAt(); got != "2022-02-01 12:30:00" {
		t.Errorf("PublishedAt() = %q", got)
	}

	untimed := Post{ID: "p2"}
	if untimed.HasTime() {
		t.Error("HasTime() = true for zero PublishedAtMs")
	}
	if got := untimed.PublishedAt(); got != "Unknown" {
		t.Errorf("PublishedAt() = %q, want Unknown", got)
	}
}

func TestCrawlStateRoundTrip(t *testing.T) {
	state := &CrawlState{
		RunID:         "run-1",
		SourceAddress: "https://example.com/feed",
		SeenIDs:       []string{"a", "b"},
		OldestSeenMs:  1700000000000,
		ScrollCount:   7,
		UpdatedAt:     time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}

	path := filepath.Join(t.TempDir(), CheckpointFilename("feed"))
	if err := state.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded, err := LoadCrawlStateFromFile(path)
	if err != nil {
		t.Fatalf("LoadCrawlStateFromFile: %v", err)
	}
	if loaded.RunID != state.RunID || loaded.SourceAddress != state.SourceAddress {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.OldestSeenMs != state.OldestSeenMs || loaded.ScrollCount != state.ScrollCount {
		t.Errorf("loaded progress = %d/%d", loaded.OldestSeenMs, loaded.ScrollCount)
	}
	if len(loaded.SeenIDs) != 2 {
		t.Errorf("SeenIDs = %v", loaded.SeenIDs)
	}
}

func TestTargetValidate(t *testing.T) {
	valid := Target{
		SourceAddress: "https://example.com/community",
		CutoffMs:      1600000000000,
		Namespace:     "example_community",
	}

	tests := []struct {
		name    string
		mutate  func(*Target)
		wantErr bool
	}{
		{"valid", func(*Target) {}, false},
		{"bad scheme", func(tg *Target) { tg.SourceAddress = "ftp://x.com" }, true},
		{"no host", func(tg *Target) { tg.SourceAddress = "https://" }, true},
		{"zero cutoff", func(tg *Target) { tg.CutoffMs = 0 }, true},
		{"empty namespace", func(tg *Target) { tg.Namespace = "" }, true},
		{"namespace with slash", func(tg *Target) { tg.Namespace = "a/b" }, true},
		{"namespace with dots", func(tg *Target) { tg.Namespace = "a.b-c_d" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := valid
			tt.mutate(&target)
			err := target.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNamespaceFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://coinmarketcap.com/community/search/latest/aave/", "coinmarketcap.com_community_search_latest_aave"},
		{"https://example.com/", "example.com"},
		{"https://example.com", "example.com"},
	}

	for _, tt := range tests {
		if got := NamespaceFromURL(tt.url); got != tt.want {
			t.Errorf("NamespaceFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestCrawlConfigValidate(t *testing.T) {
	valid := DefaultCrawlConfig()
	if err := valid.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*CrawlConfig)
	}{
		{"zero batch size", func(c *CrawlConfig) { c.BatchSize = 0 }},
		{"stall below empty", func(c *CrawlConfig) { c.StallStreakLimit = c.EmptyStreakLimit }},
		{"inverted scroll delay", func(c *CrawlConfig) { c.ScrollDelayMinSecs = 5; c.ScrollDelayMaxSecs = 1 }},
		{"zero recovery budget", func(c *CrawlConfig) { c.RecoveryBudget = 0 }},
		{"negative max duration", func(c *CrawlConfig) { c.MaxRunDurationSecs = -1 }},
		{"zero startup wait", func(c *CrawlConfig) { c.StartupWaitSecs = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCrawlConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestSelectorConfigValidate(t *testing.T) {
	valid := DefaultSelectorConfig()
	if err := valid.Validate(); err != nil {
		t.Fatalf("default selectors invalid: %v", err)
	}

	missingItem := valid
	missingItem.Item = ""
	if err := missingItem.Validate(); err == nil {
		t.Error("empty item selector accepted")
	}

	missingID := valid
	missingID.IDAttr = ""
	if err := missingID.Validate(); err == nil {
		t.Error("empty ID attribute accepted")
	}
}

func TestRunStateIsTerminal(t *testing.T) {
	terminal := []RunState{StateBoundaryReached, StateExhausted, StateTimeLimit}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false", s)
		}
	}

	transient := []RunState{StateResuming, StateDiscovering, StateRecovering, StateFinalizing}
	for _, s := range transient {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true", s)
		}
	}
}
