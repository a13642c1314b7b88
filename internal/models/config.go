package models

import (
	"fmt"
	"time"
)

// ScrollStrategy selects how the adapter advances the rendered viewport.
type ScrollStrategy string

const (
	// ScrollPageJump jumps straight to the current bottom of the document.
	ScrollPageJump ScrollStrategy = "page_jump"

	// ScrollFixedDelta scrolls by a fixed pixel delta.
	ScrollFixedDelta ScrollStrategy = "fixed_delta"

	// ScrollStepwise advances in several small increments.
	ScrollStepwise ScrollStrategy = "stepwise"

	// ScrollPercentJump scrolls by a percentage of the document height.
	ScrollPercentJump ScrollStrategy = "percent_jump"
)

// DefaultScrollRotation is the order in which the controller rotates
// strategies between iterations.
func DefaultScrollRotation() []ScrollStrategy {
	return []ScrollStrategy{ScrollFixedDelta, ScrollPageJump, ScrollStepwise, ScrollPercentJump}
}

// CrawlConfig holds the tunables of the incremental-crawl loop.
type CrawlConfig struct {
	// BatchSize bounds how many element handles are held live at once
	// during extraction (staleness mitigation, not concurrency).
	BatchSize int `json:"batch_size" mapstructure:"batch_size"`

	// EmptyStreakLimit is the number of consecutive empty enumerations
	// tolerated before escalating to recovery.
	EmptyStreakLimit int `json:"empty_streak_limit" mapstructure:"empty_streak_limit"`

	// StallStreakLimit is the number of consecutive no-progress iterations
	// tolerated before escalating to recovery. Must exceed EmptyStreakLimit.
	StallStreakLimit int `json:"stall_streak_limit" mapstructure:"stall_streak_limit"`

	// RecoveryBudget caps how many remedies one recovery episode may try.
	RecoveryBudget int `json:"recovery_budget" mapstructure:"recovery_budget"`

	// RecoveryWaitSecs is how long to wait for items to reappear after each
	// remedy.
	RecoveryWaitSecs int `json:"recovery_wait_secs" mapstructure:"recovery_wait_secs"`

	// ScrollDelayMinSecs/ScrollDelayMaxSecs bound the randomized pause
	// before each scroll (anti-ban pacing).
	ScrollDelayMinSecs float64 `json:"scroll_delay_min_secs" mapstructure:"scroll_delay_min_secs"`
	ScrollDelayMaxSecs float64 `json:"scroll_delay_max_secs" mapstructure:"scroll_delay_max_secs"`

	// LongBreakEvery inserts a longer randomized pause every N scrolls.
	// Zero disables long breaks.
	LongBreakEvery    int     `json:"long_break_every" mapstructure:"long_break_every"`
	LongBreakMinSecs  float64 `json:"long_break_min_secs" mapstructure:"long_break_min_secs"`
	LongBreakMaxSecs  float64 `json:"long_break_max_secs" mapstructure:"long_break_max_secs"`

	// StartupWaitSecs is how long to wait for the first items to render.
	// Expiry is fatal for the run.
	StartupWaitSecs int `json:"startup_wait_secs" mapstructure:"startup_wait_secs"`

	// ItemRetryAttempts bounds per-accessor retries against stale handles.
	ItemRetryAttempts int `json:"item_retry_attempts" mapstructure:"item_retry_attempts"`

	// CheckpointEveryPosts triggers an intermediate save each time this many
	// new posts have accumulated since the last one.
	CheckpointEveryPosts int `json:"checkpoint_every_posts" mapstructure:"checkpoint_every_posts"`

	// CheckpointIntervalSecs triggers a checkpoint save on wall clock.
	CheckpointIntervalSecs int `json:"checkpoint_interval_secs" mapstructure:"checkpoint_interval_secs"`

	// MaxRunDurationSecs is the hard ceiling on run duration. Zero disables.
	MaxRunDurationSecs int `json:"max_run_duration_secs" mapstructure:"max_run_duration_secs"`

	// ResumeScrollCap bounds the blind scrolls replayed when resuming.
	ResumeScrollCap int `json:"resume_scroll_cap" mapstructure:"resume_scroll_cap"`

	// Headless controls the browser mode.
	Headless bool `json:"headless" mapstructure:"headless"`

	// Resume enables loading prior state for the namespace.
	Resume bool `json:"resume" mapstructure:"resume"`
}

// DefaultCrawlConfig returns the tunables matching an unconfigured run.
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		BatchSize:              10,
		EmptyStreakLimit:       3,
		StallStreakLimit:       5,
		RecoveryBudget:         3,
		RecoveryWaitSecs:       3,
		ScrollDelayMinSecs:     1.5,
		ScrollDelayMaxSecs:     3.0,
		LongBreakEvery:         20,
		LongBreakMinSecs:       8.0,
		LongBreakMaxSecs:       15.0,
		StartupWaitSecs:        15,
		ItemRetryAttempts:      3,
		CheckpointEveryPosts:   100,
		CheckpointIntervalSecs: 60,
		MaxRunDurationSecs:     0,
		ResumeScrollCap:        50,
		Headless:               true,
	}
}

// Validate checks the configuration ranges.
func (c *CrawlConfig) Validate() error {
	if c.BatchSize < 1 || c.BatchSize > 100 {
		return fmt.Errorf("batch size must be between 1 and 100")
	}
	if c.EmptyStreakLimit < 1 {
		return fmt.Errorf("empty streak limit must be at least 1")
	}
	if c.StallStreakLimit <= c.EmptyStreakLimit {
		return fmt.Errorf("stall streak limit (%d) must exceed empty streak limit (%d)",
			c.StallStreakLimit, c.EmptyStreakLimit)
	}
	if c.RecoveryBudget < 1 || c.RecoveryBudget > 10 {
		return fmt.Errorf("recovery budget must be between 1 and 10")
	}
	if c.ScrollDelayMinSecs < 0 || c.ScrollDelayMaxSecs < c.ScrollDelayMinSecs {
		return fmt.Errorf("scroll delay range is invalid: [%.1f, %.1f]",
			c.ScrollDelayMinSecs, c.ScrollDelayMaxSecs)
	}
	if c.LongBreakEvery > 0 && c.LongBreakMaxSecs < c.LongBreakMinSecs {
		return fmt.Errorf("long break range is invalid: [%.1f, %.1f]",
			c.LongBreakMinSecs, c.LongBreakMaxSecs)
	}
	if c.StartupWaitSecs < 1 || c.StartupWaitSecs > 300 {
		return fmt.Errorf("startup wait must be between 1 and 300 seconds")
	}
	if c.ItemRetryAttempts < 1 || c.ItemRetryAttempts > 10 {
		return fmt.Errorf("item retry attempts must be between 1 and 10")
	}
	if c.CheckpointEveryPosts < 1 {
		return fmt.Errorf("checkpoint post count must be at least 1")
	}
	if c.MaxRunDurationSecs < 0 {
		return fmt.Errorf("max run duration must not be negative")
	}
	return nil
}

// StartupWait returns the startup wait as a duration.
func (c *CrawlConfig) StartupWait() time.Duration {
	return time.Duration(c.StartupWaitSecs) * time.Second
}

// CheckpointInterval returns the wall-clock checkpoint interval.
func (c *CrawlConfig) CheckpointInterval() time.Duration {
	return time.Duration(c.CheckpointIntervalSecs) * time.Second
}

// MaxRunDuration returns the run ceiling, zero when disabled.
func (c *CrawlConfig) MaxRunDuration() time.Duration {
	return time.Duration(c.MaxRunDurationSecs) * time.Second
}

// RecoveryWait returns the post-remedy settle wait.
func (c *CrawlConfig) RecoveryWait() time.Duration {
	return time.Duration(c.RecoveryWaitSecs) * time.Second
}

// SelectorConfig names the page hooks the adapter needs. Selectors are
// supplied as configuration, never hard-coded in the crawl loop.
type SelectorConfig struct {
	// Item matches one rendered feed-item element.
	Item string `json:"item" mapstructure:"item"`

	// IDAttr is the item attribute carrying the stable post ID.
	IDAttr string `json:"id_attr" mapstructure:"id_attr"`

	// TimeAttr is the item attribute carrying the publish time (epoch ms).
	TimeAttr string `json:"time_attr" mapstructure:"time_attr"`

	// Content matches the post body inside one item.
	Content string `json:"content" mapstructure:"content"`

	// Author matches the author element inside one item. Optional.
	Author string `json:"author" mapstructure:"author"`

	// ReadAll matches the "show full text" control inside one item.
	ReadAll string `json:"read_all" mapstructure:"read_all"`

	// LoadMoreHints are text fragments used to find a "load more" control
	// during recovery.
	LoadMoreHints []string `json:"load_more_hints" mapstructure:"load_more_hints"`

	// DismissHints are text fragments used to close interstitial dialogs
	// after a refresh.
	DismissHints []string `json:"dismiss_hints" mapstructure:"dismiss_hints"`
}

// DefaultSelectorConfig matches the CoinMarketCap community feed.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		Item:          "div.post-wrapper.community",
		IDAttr:        "data-post-id",
		TimeAttr:      "data-post-time",
		Content:       "div.post-text-wrapper.community",
		Author:        "span.post-author",
		ReadAll:       "span.read-all",
		LoadMoreHints: []string{"Load more", "Show more"},
		DismissHints:  []string{"Accept", "Got it", "Close"},
	}
}

// Validate checks that the required selectors are present.
func (s *SelectorConfig) Validate() error {
	if s.Item == "" {
		return fmt.Errorf("item selector must not be empty")
	}
	if s.IDAttr == "" {
		return fmt.Errorf("item ID attribute must not be empty")
	}
	if s.Content == "" {
		return fmt.Errorf("content selector must not be empty")
	}
	return nil
}

// RunStats aggregates the observable facts of one run.
type RunStats struct {
	PostsCollected    int    `json:"posts_collected"`
	PostsSkippedSeen  int    `json:"posts_skipped_seen"`
	PostsSkippedNoID  int    `json:"posts_skipped_no_id"`
	ScrollCount       int    `json:"scroll_count"`
	EmptyEnumerations int    `json:"empty_enumerations"`
	StallIterations   int    `json:"stall_iterations"`
	RecoveryAttempts  int    `json:"recovery_attempts"`
	CheckpointsSaved  int    `json:"checkpoints_saved"`
	OldestSeenMs      int64  `json:"oldest_seen_ms"`
	Resumed           bool   `json:"resumed"`
	Duration          float64 `json:"duration"`
	ErrorMessage      string `json:"error_message,omitempty"`
}
