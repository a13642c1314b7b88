package core

import (
	"context"
	"time"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/utils"
)

// BatchRunner crawls a list of targets sequentially. Targets share the
// config but keep separate namespaces, so their records, checkpoints and
// archives never mix.
type BatchRunner struct {
	config        *Config
	batchDelay    time.Duration
	continueOnErr bool
}

// BatchResult is the outcome of one target in a batch.
type BatchResult struct {
	Target      models.Target
	Success     bool
	Error       error
	Report      *models.CrawlReport
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary aggregates a whole batch.
type BatchSummary struct {
	TotalTargets  int
	SuccessCount  int
	FailCount     int
	TotalPosts    int
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchRunner creates a batch runner.
func NewBatchRunner(config *Config, batchDelaySecs int, continueOnErr bool) *BatchRunner {
	return &BatchRunner{
		config:        config,
		batchDelay:    time.Duration(batchDelaySecs) * time.Second,
		continueOnErr: continueOnErr,
	}
}

// RunBatch crawls each target in order. A cancelled context stops the batch
// after the in-flight target finishes its own graceful shutdown.
func (br *BatchRunner) RunBatch(ctx context.Context, targets []models.Target) *BatchSummary {
	utils.Infof("🚀 batch crawl started: %d targets", len(targets))

	summary := &BatchSummary{
		TotalTargets: len(targets),
		Results:      make([]BatchResult, 0, len(targets)),
	}

	startTime := time.Now()

	for i, target := range targets {
		utils.Infof("==================== [%d/%d] ====================", i+1, len(targets))
		utils.Infof("target: %s -> %s", target.SourceAddress, target.Namespace)

		result := br.runOne(ctx, target)
		summary.Results = append(summary.Results, result)

		if result.Success {
			summary.SuccessCount++
			summary.TotalPosts += result.Report.Stats.PostsCollected
		} else {
			summary.FailCount++
			utils.Errorf("❌ target failed: %v", result.Error)

			if !br.continueOnErr {
				utils.Warn("batch stopped (--continue-on-error=false)")
				break
			}
		}

		if ctx.Err() != nil {
			utils.Warn("batch interrupted, remaining targets skipped")
			break
		}

		if i < len(targets)-1 && br.batchDelay > 0 {
			utils.Debugf("waiting %.0fs before the next target", br.batchDelay.Seconds())
			select {
			case <-ctx.Done():
			case <-time.After(br.batchDelay):
			}
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()
	br.printSummary(summary)
	return summary
}

func (br *BatchRunner) runOne(ctx context.Context, target models.Target) BatchResult {
	result := BatchResult{
		Target:      target,
		ProcessedAt: time.Now(),
	}

	startTime := time.Now()

	report, err := NewRunner(br.config, target).Run(ctx)
	result.Duration = time.Since(startTime).Seconds()
	if err != nil {
		result.Error = err
		return result
	}

	result.Success = true
	result.Report = report
	return result
}

func (br *BatchRunner) printSummary(summary *BatchSummary) {
	utils.Info("==================================================")
	utils.Info("📊 batch summary")
	utils.Info("==================================================")
	utils.Infof("targets: %d", summary.TotalTargets)
	utils.Infof("✅ succeeded: %d", summary.SuccessCount)
	utils.Infof("❌ failed: %d", summary.FailCount)
	utils.Infof("📦 posts collected: %d", summary.TotalPosts)
	utils.Infof("⏱️  total duration: %.2fs", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("failed targets:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.Target.SourceAddress, result.Error)
			}
		}
	}
}
