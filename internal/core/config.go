package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
)

// Config is the full application configuration.
type Config struct {
	Crawl     models.CrawlConfig    `mapstructure:"crawl"`
	Selectors models.SelectorConfig `mapstructure:"selectors"`
	Logging   LoggingConfig         `mapstructure:"logging"`
	Output    OutputConfig          `mapstructure:"output"`
	Archive   ArchiveConfig         `mapstructure:"archive"`
}

// LoggingConfig controls the log sinks.
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig controls log file rotation.
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig controls where records land.
type OutputConfig struct {
	// BaseDir is the root output directory; each target gets a namespace
	// subdirectory under it.
	BaseDir string `mapstructure:"base_dir"`
}

// ArchiveConfig controls the cross-run post archive.
type ArchiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads the config file, falling back to defaults when absent.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".aavescrape"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file means defaults only; anything else is real.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	crawl := models.DefaultCrawlConfig()
	v.SetDefault("crawl.batch_size", crawl.BatchSize)
	v.SetDefault("crawl.empty_streak_limit", crawl.EmptyStreakLimit)
	v.SetDefault("crawl.stall_streak_limit", crawl.StallStreakLimit)
	v.SetDefault("crawl.recovery_budget", crawl.RecoveryBudget)
	v.SetDefault("crawl.recovery_wait_secs", crawl.RecoveryWaitSecs)
	v.SetDefault("crawl.scroll_delay_min_secs", crawl.ScrollDelayMinSecs)
	v.SetDefault("crawl.scroll_delay_max_secs", crawl.ScrollDelayMaxSecs)
	v.SetDefault("crawl.long_break_every", crawl.LongBreakEvery)
	v.SetDefault("crawl.long_break_min_secs", crawl.LongBreakMinSecs)
	v.SetDefault("crawl.long_break_max_secs", crawl.LongBreakMaxSecs)
	v.SetDefault("crawl.startup_wait_secs", crawl.StartupWaitSecs)
	v.SetDefault("crawl.item_retry_attempts", crawl.ItemRetryAttempts)
	v.SetDefault("crawl.checkpoint_every_posts", crawl.CheckpointEveryPosts)
	v.SetDefault("crawl.checkpoint_interval_secs", crawl.CheckpointIntervalSecs)
	v.SetDefault("crawl.max_run_duration_secs", crawl.MaxRunDurationSecs)
	v.SetDefault("crawl.resume_scroll_cap", crawl.ResumeScrollCap)
	v.SetDefault("crawl.headless", crawl.Headless)
	v.SetDefault("crawl.resume", crawl.Resume)

	selectors := models.DefaultSelectorConfig()
	v.SetDefault("selectors.item", selectors.Item)
	v.SetDefault("selectors.id_attr", selectors.IDAttr)
	v.SetDefault("selectors.time_attr", selectors.TimeAttr)
	v.SetDefault("selectors.content", selectors.Content)
	v.SetDefault("selectors.author", selectors.Author)
	v.SetDefault("selectors.read_all", selectors.ReadAll)
	v.SetDefault("selectors.load_more_hints", selectors.LoadMoreHints)
	v.SetDefault("selectors.dismiss_hints", selectors.DismissHints)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("output.base_dir", "output")

	v.SetDefault("archive.enabled", true)
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return fmt.Errorf("crawl config: %w", err)
	}
	if err := c.Selectors.Validate(); err != nil {
		return fmt.Errorf("selector config: %w", err)
	}
	if c.Output.BaseDir == "" {
		return fmt.Errorf("output base dir must not be empty")
	}
	return nil
}

// MergeCLIFlags overlays command-line values onto the loaded config.
// Flags win over the config file.
func (c *Config) MergeCLIFlags(maxDurationSecs int, checkpointIntervalSecs int,
	outputDir string, headless bool, resume bool) {

	if maxDurationSecs > 0 {
		c.Crawl.MaxRunDurationSecs = maxDurationSecs
	}
	if checkpointIntervalSecs > 0 {
		c.Crawl.CheckpointIntervalSecs = checkpointIntervalSecs
	}
	if outputDir != "" {
		c.Output.BaseDir = outputDir
	}
	c.Crawl.Headless = headless
	c.Crawl.Resume = resume
}
