package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/utils"
)

// Layout maps one output namespace to its on-disk files.
//
// output/<namespace>/
//   posts_complete.csv            canonical record file
//   posts_complete.csv.bak        previous complete file, kept before overwrite
//   posts_intermediate_<n>.csv    periodic saves, never overwritten
//   posts_error_recovery.csv      written on unclassified failure
//   checkpoints/checkpoint_<namespace>.json
//   reports/crawl_report.json
//   archive.db                    cross-run sqlite archive
type Layout struct {
	OutputDir string
	Namespace string
}

// Dir returns the namespace directory.
func (l Layout) Dir() string {
	return filepath.Join(l.OutputDir, l.Namespace)
}

// CompleteFile returns the canonical record file path.
func (l Layout) CompleteFile() string {
	return filepath.Join(l.Dir(), "posts_complete.csv")
}

// IntermediateFile returns the count-suffixed intermediate record path.
func (l Layout) IntermediateFile(count int) string {
	return filepath.Join(l.Dir(), fmt.Sprintf("posts_intermediate_%d.csv", count))
}

// ErrorRecoveryFile returns the error-recovery record path.
func (l Layout) ErrorRecoveryFile() string {
	return filepath.Join(l.Dir(), "posts_error_recovery.csv")
}

// CheckpointFile returns the checkpoint path for this namespace.
func (l Layout) CheckpointFile() string {
	return filepath.Join(l.Dir(), "checkpoints", models.CheckpointFilename(l.Namespace))
}

// ArchiveFile returns the sqlite archive path.
func (l Layout) ArchiveFile() string {
	return filepath.Join(l.Dir(), "archive.db")
}

// EnsureDirs creates the namespace directory tree.
func (l Layout) EnsureDirs() error {
	dirs := []string{
		l.Dir(),
		filepath.Join(l.Dir(), "checkpoints"),
		filepath.Join(l.Dir(), "reports"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
		utils.Debugf("created dir: %s", dir)
	}

	return nil
}
