package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	TDnet      TDnetConfig      `yaml:"tdnet" mapstructure:"tdnet"`
	Schedule   ScheduleConfig   `yaml:"schedule" mapstructure:"schedule"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// NotionConfig holds Notion API credentials and the page the disclosure
// table lives under.
type NotionConfig struct {
	Token         string `yaml:"token" mapstructure:"token"`
	ParentPageID  string `yaml:"parent_page_id" mapstructure:"parent_page_id"`
	DatabaseName  string `yaml:"database_name" mapstructure:"database_name"`
	MinIntervalMS int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// MinInterval returns the spacing between Notion calls.
func (c NotionConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

// Timeout returns the per-request timeout for Notion calls.
func (c NotionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// TDnetConfig configures the disclosure feed and document downloads.
type TDnetConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	DownloadDir   string `yaml:"download_dir" mapstructure:"download_dir"`
	MinIntervalMS int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	DayPauseMS    int    `yaml:"day_pause_ms" mapstructure:"day_pause_ms"`
	RangePauseMS  int    `yaml:"range_pause_ms" mapstructure:"range_pause_ms"`
	Limit         int    `yaml:"limit" mapstructure:"limit"`
	MaxFileBytes  int64  `yaml:"max_file_bytes" mapstructure:"max_file_bytes"`
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// MinInterval returns the spacing between feed and download requests.
func (c TDnetConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

// DayPause returns the pause between days of a company history walk.
func (c TDnetConfig) DayPause() time.Duration {
	return time.Duration(c.DayPauseMS) * time.Millisecond
}

// RangePause returns the pause between days of a date range.
func (c TDnetConfig) RangePause() time.Duration {
	return time.Duration(c.RangePauseMS) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout.
func (c TDnetConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ScheduleConfig configures daily schedule mode.
type ScheduleConfig struct {
	Time     string `yaml:"time" mapstructure:"time"`
	PollSecs int    `yaml:"poll_secs" mapstructure:"poll_secs"`
}

// Poll returns how often schedule mode checks the clock.
func (c ScheduleConfig) Poll() time.Duration {
	return time.Duration(c.PollSecs) * time.Second
}

// StoreConfig configures the local run ledger.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// MonitoringConfig configures the post-sync health check.
type MonitoringConfig struct {
	// WebhookURL receives alerts as JSON POSTs. Empty disables delivery.
	WebhookURL                 string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	LookbackWindowHours        int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold       float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	RecordFailureRateThreshold float64 `yaml:"record_failure_rate_threshold" mapstructure:"record_failure_rate_threshold"`
	MinFinishedRuns            int     `yaml:"min_finished_runs" mapstructure:"min_finished_runs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// Dir, when set, adds a daily log file yuutai_YYYYMMDD.log in Dir.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("YUUTAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names used by earlier deployments. The prefixed name wins.
	bindings := map[string][]string{
		"notion.token":          {"YUUTAI_NOTION_TOKEN", "NOTION_API_KEY"},
		"notion.parent_page_id": {"YUUTAI_NOTION_PARENT_PAGE_ID", "YUUTAI_NOTION_PAGE_ID", "NOTION_PAGE_ID"},
		"tdnet.download_dir":    {"YUUTAI_TDNET_DOWNLOAD_DIR", "YUUTAI_DOWNLOAD_DIR"},
		"log.dir":               {"YUUTAI_LOG_DIR", "LOG_DIR"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("notion.database_name", "株主優待開示情報")
	v.SetDefault("notion.min_interval_ms", 334)
	v.SetDefault("notion.base_url", "https://api.notion.com/v1")
	v.SetDefault("notion.timeout_secs", 120)
	v.SetDefault("tdnet.base_url", "https://webapi.yanoshin.jp/webapi/tdnet/list")
	v.SetDefault("tdnet.download_dir", "./downloads/yuutai")
	v.SetDefault("tdnet.min_interval_ms", 1000)
	v.SetDefault("tdnet.day_pause_ms", 500)
	v.SetDefault("tdnet.range_pause_ms", 2000)
	v.SetDefault("tdnet.limit", 1000)
	v.SetDefault("tdnet.max_file_bytes", 50*1024*1024)
	v.SetDefault("tdnet.user_agent", "Yuutai Disclosure Client/1.0")
	v.SetDefault("tdnet.timeout_secs", 60)
	v.SetDefault("schedule.time", "09:00")
	v.SetDefault("schedule.poll_secs", 60)
	v.SetDefault("store.path", "yuutai.db")
	v.SetDefault("monitoring.lookback_window_hours", 168)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.record_failure_rate_threshold", 0.2)
	v.SetDefault("monitoring.min_finished_runs", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate reports settings the Notion-writing commands cannot run without.
func (c *Config) Validate() error {
	var errs []string
	if c.Notion.Token == "" {
		errs = append(errs, "notion.token is required (NOTION_API_KEY)")
	}
	if c.Notion.ParentPageID == "" {
		errs = append(errs, "notion.parent_page_id is required (YUUTAI_NOTION_PAGE_ID)")
	}
	if c.TDnet.MinIntervalMS < 0 || c.Notion.MinIntervalMS < 0 {
		errs = append(errs, "min_interval_ms must not be negative")
	}
	if len(errs) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LogFileName returns the daily log file name for t.
func LogFileName(t time.Time) string {
	return "yuutai_" + t.Format("20060102") + ".log"
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return eris.Wrap(err, "config: create log dir")
		}
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, filepath.Join(cfg.Dir, LogFileName(time.Now())))
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
