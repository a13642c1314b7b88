package crawlers

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/storage"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/utils"
)

// heartbeatEvery is the scroll interval between progress log lines.
const heartbeatEvery = 5

// seenSet is the dedup index covering every post ID known for the target,
// including IDs restored from checkpoints and the archive that may have no
// post in the current record store.
type seenSet map[string]struct{}

func (s seenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s seenSet) add(id string) {
	s[id] = struct{}{}
}

// Controller runs the incremental-crawl state machine for one target.
//
// RESUMING -> DISCOVERING <-> RECOVERING -> BOUNDARY_REACHED | EXHAUSTED |
// TIME_LIMIT_REACHED, all terminal states lead to FINALIZING. The controller
// owns the crawl loop and the record/checkpoint plumbing; the browser stays
// behind the Adapter and is owned by the caller.
type Controller struct {
	adapter     Adapter
	extractor   *Extractor
	store       *storage.RecordStore
	checkpoints *storage.CheckpointManager
	layout      storage.Layout
	monitor     *ResourceMonitor

	target models.Target
	cfg    models.CrawlConfig

	runID string
	state models.RunState
	stats models.RunStats

	seen         seenSet
	oldestSeenMs int64
	scrollCount  int
	emptyStreak  int
	stallStreak  int

	rotation     []models.ScrollStrategy
	strategyTurn int

	lastCheckpointAt    time.Time
	lastCheckpointCount int

	rng       *rand.Rand
	startTime time.Time
}

// NewController wires a controller for one target. The adapter must already
// point at the target's source address; the caller keeps ownership of it.
func NewController(adapter Adapter, target models.Target, cfg models.CrawlConfig,
	selectors models.SelectorConfig, store *storage.RecordStore,
	checkpoints *storage.CheckpointManager, layout storage.Layout,
	monitor *ResourceMonitor) *Controller {

	return &Controller{
		adapter:     adapter,
		extractor:   NewExtractor(selectors),
		store:       store,
		checkpoints: checkpoints,
		layout:      layout,
		monitor:     monitor,
		target:      target,
		cfg:         cfg,
		runID:       uuid.New().String(),
		seen:        make(seenSet),
		rotation:    models.DefaultScrollRotation(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedSeen marks IDs as already collected before the run starts. Used to
// feed the archive's cross-run ID set into the dedup gate.
func (c *Controller) SeedSeen(ids []string) {
	for _, id := range ids {
		c.seen.add(id)
	}
}

// RunID returns the identifier of this run.
func (c *Controller) RunID() string {
	return c.runID
}

// Run executes the crawl to a terminal state and returns the report. The
// only error return is a failed startup render; everything after the first
// items appear resolves to a report, including unclassified mid-run
// failures.
func (c *Controller) Run(ctx context.Context) (*models.CrawlReport, error) {
	c.startTime = time.Now()
	utils.Infof("🚀 crawl started: %s (run %s)", c.target.SourceAddress, c.runID)

	if err := c.adapter.WaitForItems(ctx, c.cfg.StartupWait()); err != nil {
		return nil, fmt.Errorf("startup render: %w", err)
	}

	if c.cfg.Resume {
		c.resume(ctx)
	}

	if c.monitor != nil {
		c.monitor.Start(30 * time.Second)
		defer c.monitor.Stop()
	}

	final := c.runGuarded(ctx)
	return c.finalize(final), nil
}

// runGuarded runs the discovery loop with a recovery net at its outermost
// boundary. A panic anywhere in the loop persists current progress to the
// error-recovery output and resolves the run instead of propagating.
func (c *Controller) runGuarded(ctx context.Context) (final models.RunState) {
	defer func() {
		if r := recover(); r != nil {
			c.stats.ErrorMessage = fmt.Sprintf("unclassified failure: %v", r)
			utils.Errorf("💥 %s", c.stats.ErrorMessage)

			if path, err := c.store.WriteErrorRecovery(c.layout); err != nil {
				utils.Errorf("error-recovery save failed: %v", err)
			} else {
				utils.Warnf("partial progress saved to %s", path)
			}
			c.saveCheckpoint()

			final = c.state
			if final == "" {
				final = models.StateDiscovering
			}
		}
	}()

	return c.loop(ctx)
}

// loop is the DISCOVERING <-> RECOVERING cycle.
func (c *Controller) loop(ctx context.Context) models.RunState {
	c.setState(models.StateDiscovering)

	for {
		// Wall-clock ceiling, checked before anything else.
		if ctx.Err() != nil {
			utils.Warn("⏹️ run interrupted, stopping")
			return models.StateTimeLimit
		}
		if max := c.cfg.MaxRunDuration(); max > 0 && time.Since(c.startTime) >= max {
			utils.Warnf("⏱️ run duration ceiling reached (%s)", max)
			return models.StateTimeLimit
		}

		switch c.state {
		case models.StateDiscovering:
			if next := c.discoverOnce(ctx); next != "" {
				if next.IsTerminal() {
					return next
				}
				c.setState(next)
			}
		case models.StateRecovering:
			next := c.recoverOnce(ctx)
			if next.IsTerminal() {
				return next
			}
			c.setState(next)
		}
	}
}

// discoverOnce runs one DISCOVERING iteration: enumerate, extract, check the
// boundary, then scroll. Returns the next state, or "" to stay put.
func (c *Controller) discoverOnce(ctx context.Context) models.RunState {
	items := c.adapter.Items()

	if len(items) == 0 {
		c.emptyStreak++
		c.stats.EmptyEnumerations++
		utils.Debugf("empty enumeration (%d/%d)", c.emptyStreak, c.cfg.EmptyStreakLimit)
		if c.emptyStreak >= c.cfg.EmptyStreakLimit {
			utils.Warnf("🔄 %d consecutive empty enumerations, attempting recovery", c.emptyStreak)
			return models.StateRecovering
		}
		c.scrollAndPace(ctx)
		return ""
	}
	c.emptyStreak = 0

	newPosts, boundary := c.processItems(items)
	if boundary {
		utils.Infof("🎯 boundary reached: post older than %s found after %d posts",
			utils.FormatMs(c.target.CutoffMs), c.store.Count())
		return models.StateBoundaryReached
	}

	heightBefore := c.adapter.ContentHeight()
	c.scrollAndPace(ctx)
	heightAfter := c.adapter.ContentHeight()

	// Two independent progress signals: new posts and viewport growth.
	// A tall page can yield posts without its height moving yet, and a
	// growing page can render nothing new; only both together count as
	// progress.
	progressed := newPosts > 0 && heightAfter > heightBefore
	if progressed {
		c.stallStreak = 0
	} else {
		c.stallStreak++
		c.stats.StallIterations++
		utils.Debugf("no progress (%d/%d): new=%d height=%d->%d",
			c.stallStreak, c.cfg.StallStreakLimit, newPosts, heightBefore, heightAfter)
		if c.stallStreak >= c.cfg.StallStreakLimit {
			utils.Warnf("🔄 %d iterations without progress, attempting recovery", c.stallStreak)
			return models.StateRecovering
		}
	}

	c.maybeCheckpoint()
	c.heartbeat()
	return ""
}

// processItems extracts items in bounded batches. Returns the number of new
// posts and whether the age boundary was crossed. The boundary is a hard
// stop: the crossing item is dropped and no later item in any batch is
// touched, which is sound only because the feed enumerates approximately
// newest-first.
func (c *Controller) processItems(items []ItemHandle) (int, bool) {
	newPosts := 0

	for start := 0; start < len(items); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(items) {
			end = len(items)
		}

		for _, handle := range items[start:end] {
			post, skip := c.extractor.Extract(handle, c.seen)
			switch skip {
			case SkipNoID:
				c.stats.PostsSkippedNoID++
				continue
			case SkipSeen:
				c.stats.PostsSkippedSeen++
				continue
			}

			if post.HasTime() && post.PublishedAtMs < c.target.CutoffMs {
				return newPosts, true
			}

			if c.store.Add(post) {
				c.seen.add(post.ID)
				newPosts++
				c.stats.PostsCollected++
				if post.HasTime() && (c.oldestSeenMs == 0 || post.PublishedAtMs < c.oldestSeenMs) {
					c.oldestSeenMs = post.PublishedAtMs
				}
			}
		}
	}

	return newPosts, false
}

// recoverOnce runs one RECOVERING episode: remedies in order of escalating
// aggressiveness, each followed by a settle wait and a probe. Success means
// the page shows something new to do; returning to DISCOVERING resets the
// streak counters.
func (c *Controller) recoverOnce(ctx context.Context) models.RunState {
	remedies := []struct {
		name  string
		apply func() bool
	}{
		{"alternate scroll", func() bool {
			c.adapter.Scroll(c.nextStrategy())
			return true
		}},
		{"load-more control", func() bool {
			return c.adapter.ClickControl(c.selectorsLoadMoreHints())
		}},
		{"page refresh", func() bool {
			return c.adapter.Refresh(ctx, c.cfg.StartupWait())
		}},
	}

	for i, remedy := range remedies {
		if i >= c.cfg.RecoveryBudget {
			break
		}
		if ctx.Err() != nil {
			return models.StateTimeLimit
		}

		c.stats.RecoveryAttempts++
		utils.Infof("🔧 recovery attempt %d: %s", i+1, remedy.name)

		applied := remedy.apply()
		c.sleepCtx(ctx, c.cfg.RecoveryWait())

		if !applied {
			continue
		}
		if c.probeProgress() {
			utils.Info("✅ recovery succeeded, resuming discovery")
			c.emptyStreak = 0
			c.stallStreak = 0
			return models.StateDiscovering
		}
	}

	utils.Infof("🏁 recovery budget exhausted, feed appears fully harvested (%d posts)",
		c.store.Count())
	return models.StateExhausted
}

// probeProgress reports whether the page, after a remedy, offers anything
// not yet collected: an item with an unseen readable ID.
func (c *Controller) probeProgress() bool {
	for _, handle := range c.adapter.Items() {
		id, ok := handle.Attribute(c.extractor.selectors.IDAttr)
		if ok && id != "" && !c.seen.Has(id) {
			return true
		}
	}
	return false
}

// resume is the RESUMING phase: restore checkpoint state, merge prior
// output, and replay scroll position so discovery continues near where the
// previous run stopped.
func (c *Controller) resume(ctx context.Context) {
	c.setState(models.StateResuming)

	state, err := c.checkpoints.Load(c.target.SourceAddress)
	if err != nil {
		utils.Warnf("checkpoint load failed, starting fresh: %v", err)
		return
	}
	if state == nil {
		utils.Info("no prior state for this target, starting fresh")
		return
	}

	c.SeedSeen(state.SeenIDs)
	c.oldestSeenMs = state.OldestSeenMs
	c.scrollCount = state.ScrollCount
	c.stats.Resumed = true

	if prior, err := storage.LoadRecordsCSV(c.layout.CompleteFile()); err == nil {
		merged := c.store.MergePrevious(prior)
		utils.Infof("📂 resumed: %d seen IDs, %d prior posts merged, oldest %s",
			len(state.SeenIDs), merged, utils.FormatMs(state.OldestSeenMs))
	} else {
		utils.Infof("📂 resumed: %d seen IDs, no prior record file", len(state.SeenIDs))
	}

	// Replay scrolls blind to move the viewport back toward the frontier.
	// Capped: deep pages are cheaper to rediscover through the dedup gate
	// than to replay one scroll at a time. Replay does not add to
	// scrollCount: the restored count already covers this ground.
	replay := state.ScrollCount
	if replay > c.cfg.ResumeScrollCap {
		replay = c.cfg.ResumeScrollCap
	}
	if replay <= 0 {
		return
	}

	utils.Infof("⏩ replaying %d scrolls to restore position", replay)
	bar := utils.NewProgressBar(replay, "restoring scroll position")
	for i := 0; i < replay; i++ {
		if ctx.Err() != nil {
			return
		}
		c.adapter.Scroll(models.ScrollPageJump)
		_ = bar.Add(1)
		c.sleepCtx(ctx, c.randomDelay(c.cfg.ScrollDelayMinSecs, c.cfg.ScrollDelayMaxSecs))
	}
}

// finalize is the FINALIZING phase: persist everything and build the report.
func (c *Controller) finalize(final models.RunState) *models.CrawlReport {
	c.setState(models.StateFinalizing)

	if err := c.store.WriteComplete(c.layout); err != nil {
		utils.Errorf("final record save failed: %v", err)
	}
	c.saveCheckpoint()

	endTime := time.Now()
	c.stats.ScrollCount = c.scrollCount
	c.stats.OldestSeenMs = c.oldestSeenMs
	c.stats.Duration = endTime.Sub(c.startTime).Seconds()

	utils.Infof("🏁 crawl finished in %s: %d posts collected, %d duplicates skipped, final state %s",
		endTime.Sub(c.startTime).Round(time.Second), c.stats.PostsCollected,
		c.stats.PostsSkippedSeen, final)

	return &models.CrawlReport{
		RunID:         c.runID,
		SourceAddress: c.target.SourceAddress,
		Namespace:     c.target.Namespace,
		FinalState:    final,
		StartTime:     c.startTime,
		EndTime:       endTime,
		Duration:      c.stats.Duration,
		Stats:         c.stats,
		OutputDir:     c.layout.Dir(),
		RecordFile:    c.layout.CompleteFile(),
		Config:        c.cfg,
	}
}

// scrollAndPace issues one scroll with the rotating strategy and the
// randomized anti-burst pacing, including the periodic long break.
func (c *Controller) scrollAndPace(ctx context.Context) {
	c.sleepCtx(ctx, c.randomDelay(c.cfg.ScrollDelayMinSecs, c.cfg.ScrollDelayMaxSecs))

	c.adapter.Scroll(c.nextStrategy())
	c.scrollCount++

	if c.cfg.LongBreakEvery > 0 && c.scrollCount%c.cfg.LongBreakEvery == 0 {
		pause := c.randomDelay(c.cfg.LongBreakMinSecs, c.cfg.LongBreakMaxSecs)
		utils.Infof("☕ pausing %.1fs after %d scrolls", pause.Seconds(), c.scrollCount)
		c.sleepCtx(ctx, pause)
	}
}

// nextStrategy rotates through the configured scroll strategies.
func (c *Controller) nextStrategy() models.ScrollStrategy {
	s := c.rotation[c.strategyTurn%len(c.rotation)]
	c.strategyTurn++
	return s
}

// maybeCheckpoint saves progress when enough new posts accumulated or the
// wall-clock interval elapsed. Both triggers write an intermediate record
// file alongside the checkpoint, provided the count moved since the last
// save: intermediate filenames carry the count, so an unchanged count would
// just rewrite the same file.
func (c *Controller) maybeCheckpoint() {
	count := c.store.Count()

	byCount := c.cfg.CheckpointEveryPosts > 0 && count-c.lastCheckpointCount >= c.cfg.CheckpointEveryPosts
	byClock := c.cfg.CheckpointInterval() > 0 && time.Since(c.lastCheckpointAt) >= c.cfg.CheckpointInterval()
	if !byCount && !byClock {
		return
	}

	if count > c.lastCheckpointCount {
		if path, err := c.store.WriteIntermediate(c.layout); err != nil {
			utils.Warnf("intermediate save failed: %v", err)
		} else {
			utils.Infof("💾 intermediate save: %s", path)
		}
		c.lastCheckpointCount = count
	}
	c.saveCheckpoint()
}

// saveCheckpoint persists the current crawl state. Failures are logged, not
// fatal: losing a checkpoint degrades the next resume, not this run.
func (c *Controller) saveCheckpoint() {
	ids := make([]string, 0, len(c.seen))
	for id := range c.seen {
		ids = append(ids, id)
	}

	state := &models.CrawlState{
		RunID:         c.runID,
		SourceAddress: c.target.SourceAddress,
		SeenIDs:       ids,
		OldestSeenMs:  c.oldestSeenMs,
		ScrollCount:   c.scrollCount,
	}
	if err := c.checkpoints.Save(state); err != nil {
		utils.Warnf("checkpoint save failed: %v", err)
		return
	}
	c.stats.CheckpointsSaved++
	c.lastCheckpointAt = time.Now()
}

// heartbeat logs a progress line every few scrolls.
func (c *Controller) heartbeat() {
	if c.scrollCount == 0 || c.scrollCount%heartbeatEvery != 0 {
		return
	}

	line := fmt.Sprintf("📊 scroll %d: %d posts, %d dupes skipped, oldest %s",
		c.scrollCount, c.store.Count(), c.stats.PostsSkippedSeen,
		utils.FormatMs(c.oldestSeenMs))

	if c.monitor != nil {
		if snap := c.monitor.Snapshot(); !snap.SampledAt.IsZero() {
			line += fmt.Sprintf(" | heap %.0fMB, mem %.0f%%, cpu %.0f%% (%s)",
				snap.HeapAllocMB, snap.SystemUsedPercent, snap.CPUPercent, snap.Pressure)
		}
	}
	utils.Info(line)
}

func (c *Controller) setState(state models.RunState) {
	if c.state == state {
		return
	}
	utils.Debugf("state: %s -> %s", c.state, state)
	c.state = state
}

func (c *Controller) selectorsLoadMoreHints() []string {
	return c.extractor.selectors.LoadMoreHints
}

// randomDelay picks a uniform duration in [min, max] seconds.
func (c *Controller) randomDelay(minSecs, maxSecs float64) time.Duration {
	if maxSecs <= 0 || maxSecs < minSecs {
		return 0
	}
	secs := minSecs + c.rng.Float64()*(maxSecs-minSecs)
	return time.Duration(secs * float64(time.Second))
}

// sleepCtx sleeps for d or until the context ends, whichever comes first.
func (c *Controller) sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
