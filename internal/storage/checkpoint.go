package storage

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/utils"
)

// CheckpointManager persists crawl progress for one namespace. The on-disk
// checkpoint is the only cross-run shared resource; a run fully loads it
// before taking exclusive ownership, and overwrites it on each save.
type CheckpointManager struct {
	layout Layout
}

// NewCheckpointManager creates a manager for one namespace.
func NewCheckpointManager(layout Layout) *CheckpointManager {
	return &CheckpointManager{layout: layout}
}

// Path returns the checkpoint file location.
func (cm *CheckpointManager) Path() string {
	return cm.layout.CheckpointFile()
}

// Exists reports whether a checkpoint is present for the namespace.
func (cm *CheckpointManager) Exists() bool {
	_, err := os.Stat(cm.Path())
	return err == nil
}

// Load reads the checkpoint for the given source address. Returns nil state
// when no checkpoint exists. A checkpoint recorded for a different source
// address is ignored: the namespace was reused, resuming from it would
// poison the seen-ID set.
func (cm *CheckpointManager) Load(sourceAddress string) (*models.CrawlState, error) {
	if !cm.Exists() {
		return nil, nil
	}

	state, err := models.LoadCrawlStateFromFile(cm.Path())
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	if state.SourceAddress != sourceAddress {
		utils.Warnf("checkpoint in namespace %s belongs to %s, not %s; starting fresh",
			cm.layout.Namespace, state.SourceAddress, sourceAddress)
		return nil, nil
	}

	return state, nil
}

// Save overwrites the checkpoint atomically, keeping the previous file as a
// .bak backup.
func (cm *CheckpointManager) Save(state *models.CrawlState) error {
	state.UpdatedAt = time.Now()

	// Deterministic on-disk order makes checkpoint diffs readable.
	sort.Strings(state.SeenIDs)

	path := cm.Path()
	tmp := path + ".tmp"

	if err := state.SaveToFile(tmp); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".bak"); err != nil {
			return fmt.Errorf("back up checkpoint: %w", err)
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}

	utils.Debugf("checkpoint saved: %s (%d seen IDs, %d scrolls)",
		path, len(state.SeenIDs), state.ScrollCount)
	return nil
}
