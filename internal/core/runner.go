package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/crawlers"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/storage"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/utils"
)

// Runner wires one target's crawl: browser adapter, record store,
// checkpoints, archive and reporting around the crawl controller.
type Runner struct {
	config *Config
	target models.Target
}

// NewRunner creates a runner for one target.
func NewRunner(config *Config, target models.Target) *Runner {
	return &Runner{config: config, target: target}
}

// Run executes the crawl to completion and returns the report.
func (r *Runner) Run(ctx context.Context) (*models.CrawlReport, error) {
	if err := r.target.Validate(); err != nil {
		return nil, fmt.Errorf("invalid target: %w", err)
	}

	layout := storage.Layout{
		OutputDir: r.config.Output.BaseDir,
		Namespace: r.target.Namespace,
	}
	if err := layout.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("prepare output dirs: %w", err)
	}

	store := storage.NewRecordStore()
	checkpoints := storage.NewCheckpointManager(layout)

	var archive *storage.Archive
	if r.config.Archive.Enabled {
		a, err := storage.OpenArchive(layout.ArchiveFile())
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		defer a.Close()
		archive = a
	}

	utils.Infof("🌐 opening %s (headless=%v)", r.target.SourceAddress, r.config.Crawl.Headless)
	adapter, err := crawlers.NewRodAdapter(r.target.SourceAddress, r.config.Selectors,
		r.config.Crawl.Headless, r.config.Crawl.ItemRetryAttempts)
	if err != nil {
		return nil, fmt.Errorf("start browser adapter: %w", err)
	}
	defer adapter.Close()

	monitor := crawlers.NewResourceMonitor()
	controller := crawlers.NewController(adapter, r.target, r.config.Crawl,
		r.config.Selectors, store, checkpoints, layout, monitor)

	// On resume the archive's full ID set joins the dedup gate, so posts
	// collected by runs whose checkpoint is gone are still not re-read.
	if archive != nil && r.config.Crawl.Resume {
		ids, err := archive.SeenIDs(ctx)
		if err != nil {
			utils.Warnf("archive ID load failed: %v", err)
		} else if len(ids) > 0 {
			controller.SeedSeen(ids)
			utils.Infof("📚 %s archived IDs joined the dedup set", humanize.Comma(int64(len(ids))))
		}
	}

	report, err := controller.Run(ctx)
	if err != nil {
		return nil, err
	}

	if archive != nil {
		inserted, err := archive.UpsertPosts(ctx, store.Snapshot())
		if err != nil {
			utils.Warnf("archive update failed: %v", err)
		} else if inserted > 0 {
			utils.Infof("📚 %d posts archived", inserted)
		}
	}

	reporter := utils.NewReporter(r.config.Output.BaseDir, r.target.Namespace)
	if err := reporter.GenerateReport(report); err != nil {
		utils.Warnf("report generation failed: %v", err)
	}

	r.printSummary(report)
	return report, nil
}

func (r *Runner) printSummary(report *models.CrawlReport) {
	utils.Info("==================================================")
	utils.Info("📊 crawl summary")
	utils.Info("==================================================")
	utils.Infof("target: %s", report.SourceAddress)
	utils.Infof("final state: %s", report.FinalState)
	utils.Infof("✅ posts collected: %s", humanize.Comma(int64(report.Stats.PostsCollected)))
	utils.Infof("⏭️  duplicates skipped: %s", humanize.Comma(int64(report.Stats.PostsSkippedSeen)))
	utils.Infof("🖱️  scrolls: %d", report.Stats.ScrollCount)
	if report.Stats.OldestSeenMs > 0 {
		utils.Infof("📅 oldest post: %s", utils.FormatMs(report.Stats.OldestSeenMs))
	}
	utils.Infof("⏱️  duration: %s", time.Duration(report.Duration*float64(time.Second)).Round(time.Second))
	if info, err := os.Stat(report.RecordFile); err == nil {
		utils.Infof("💾 records: %s (%s)", report.RecordFile, humanize.Bytes(uint64(info.Size())))
	}
	if report.Stats.ErrorMessage != "" {
		utils.Warnf("⚠️  run ended after a failure: %s", report.Stats.ErrorMessage)
	}
	utils.Info("==================================================")
}
