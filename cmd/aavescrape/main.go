package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/core"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	// global flags
	configFile string
	verbose    bool
	logLevel   string

	// crawl flags
	targetURL          string
	targetsFile        string
	cutoff             string
	namespace          string
	outputDir          string
	maxDuration        int
	checkpointInterval int
	headless           bool
	resume             bool

	// batch flags
	batchDelay      int
	continueOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "aavescrape",
	Short: "Incremental crawler for community post feeds",
	Long: `aavescrape - incremental crawler for dynamically rendered community feeds

Harvests posts from an infinite-scroll community page down to a configured
age cutoff, with:
  • crash-safe checkpointing and resume
  • cross-run deduplication (checkpoint + sqlite archive)
  • stall detection and automatic recovery
  • per-target output namespaces and CSV record files

Examples:
  # crawl one feed back to October 2020
  aavescrape -u https://coinmarketcap.com/community/search/latest/aave/ --cutoff 2020-10-04

  # resume an interrupted crawl
  aavescrape -u https://coinmarketcap.com/community/search/latest/aave/ --cutoff 2020-10-04 --resume

  # crawl every URL in a file, 30s apart
  aavescrape -f targets.txt --cutoff 2021-01-01 --batch-delay 30

Version: ` + Version + `
Build time: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if targetURL == "" && targetsFile == "" {
			return cmd.Help()
		}

		if err := ValidateFlags(targetURL, cutoff, namespace, maxDuration, checkpointInterval); err != nil {
			return err
		}

		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		config.MergeCLIFlags(maxDuration, checkpointInterval, outputDir, headless, resume)
		if err := config.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		cutoffMs, err := utils.ParseCutoff(cutoff)
		if err != nil {
			return err
		}

		// Ctrl+C cancels the context; the controller treats cancellation
		// as its wall-clock ceiling and shuts down through FINALIZING, so
		// progress collected so far is persisted, not lost.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if targetsFile != "" {
			urls, err := utils.ReadURLsFromFile(targetsFile)
			if err != nil {
				return err
			}

			targets := make([]models.Target, 0, len(urls))
			for _, u := range urls {
				targets = append(targets, models.Target{
					SourceAddress: u,
					CutoffMs:      cutoffMs,
					Namespace:     models.NamespaceFromURL(u),
				})
			}

			summary := core.NewBatchRunner(config, batchDelay, continueOnError).RunBatch(ctx, targets)
			if summary.FailCount > 0 && summary.SuccessCount == 0 {
				return fmt.Errorf("all %d targets failed", summary.FailCount)
			}
			utils.Info("✨ batch crawl finished")
			return nil
		}

		target := models.Target{
			SourceAddress: targetURL,
			CutoffMs:      cutoffMs,
			Namespace:     namespace,
		}
		if target.Namespace == "" {
			target.Namespace = models.NamespaceFromURL(targetURL)
		}

		if _, err := core.NewRunner(config, target).Run(ctx); err != nil {
			return fmt.Errorf("crawl failed: %w", err)
		}

		utils.Info("✨ crawl finished")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aavescrape %s\n", Version)
		fmt.Printf("build time: %s\n", BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug level)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")

	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "feed URL to crawl (required unless --targets-file)")
	rootCmd.Flags().StringVarP(&targetsFile, "targets-file", "f", "", "file with one feed URL per line")
	rootCmd.Flags().StringVar(&cutoff, "cutoff", "", "age cutoff, e.g. 2020-10-04 (required)")
	rootCmd.Flags().StringVarP(&namespace, "namespace", "n", "", "output namespace (derived from the URL when empty)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	rootCmd.Flags().IntVar(&maxDuration, "max-duration", 0, "hard run-duration ceiling in seconds (0 = unlimited)")
	rootCmd.Flags().IntVar(&checkpointInterval, "checkpoint-interval", 0, "wall-clock checkpoint interval in seconds")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "headless browser mode")
	rootCmd.Flags().BoolVar(&resume, "resume", false, "resume from the namespace's checkpoint")

	rootCmd.Flags().IntVar(&batchDelay, "batch-delay", 1, "delay between targets in seconds")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "keep crawling remaining targets after a failure")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
