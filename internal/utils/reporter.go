package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
)

// Reporter writes the end-of-run crawl report.
type Reporter struct {
	outputDir string
	namespace string
}

// NewReporter creates a reporter for one namespace.
func NewReporter(outputDir string, namespace string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		namespace: namespace,
	}
}

// GenerateReport writes the crawl report JSON under reports/.
func (r *Reporter) GenerateReport(report *models.CrawlReport) error {
	reportsDir := filepath.Join(r.outputDir, r.namespace, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	if err := r.saveJSONReport(reportsDir, "crawl_report.json", report); err != nil {
		return err
	}

	Infof("✅ report written: %s", reportsDir)
	return nil
}

// saveJSONReport writes one JSON document.
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	path := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}

	Debugf("report saved: %s", path)
	return nil
}

// NewProgressBar creates the progress bar used for resume scroll replay.
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
