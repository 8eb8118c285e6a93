package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AllowFetchEnv is the opt-in guard that must be set before any command
// touches the network.
const AllowFetchEnv = "ALLOW_DECLARATION_FETCH"

// ErrFetchNotAllowed is returned by Validate for network modes when the
// opt-in guard is not set.
var ErrFetchNotAllowed = errors.New("config: declaration fetching is disabled; set " + AllowFetchEnv + "=1 to enable")

// Config holds the full application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Locate LocateConfig `yaml:"locate" mapstructure:"locate"`
	PDF    PDFConfig    `yaml:"pdf" mapstructure:"pdf"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Input  InputConfig  `yaml:"input" mapstructure:"input"`
}

// FetchConfig configures HTTP retrieval and pacing.
type FetchConfig struct {
	UserAgent          string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs        int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts        int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMs        int    `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	RateLimitBackoffMs int    `yaml:"rate_limit_backoff_ms" mapstructure:"rate_limit_backoff_ms"`
	RequestDelayMs     int    `yaml:"request_delay_ms" mapstructure:"request_delay_ms"`
	Concurrency        int    `yaml:"concurrency" mapstructure:"concurrency"`
	Allow              bool   `yaml:"allow" mapstructure:"allow"`
}

// Timeout returns the per-request timeout.
func (c FetchConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSecs) * time.Second }

// BaseDelay returns the linear retry step.
func (c FetchConfig) BaseDelay() time.Duration { return time.Duration(c.BaseDelayMs) * time.Millisecond }

// RateLimitBackoff returns the retry step used after a 429.
func (c FetchConfig) RateLimitBackoff() time.Duration {
	return time.Duration(c.RateLimitBackoffMs) * time.Millisecond
}

// RequestDelay returns the pause between outbound requests.
func (c FetchConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMs) * time.Millisecond
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Dir         string `yaml:"dir" mapstructure:"dir"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxAgeHours int    `yaml:"max_age_hours" mapstructure:"max_age_hours"`
}

// MaxAge returns how long a cached body stays fresh.
func (c CacheConfig) MaxAge() time.Duration { return time.Duration(c.MaxAgeHours) * time.Hour }

// LocateConfig configures declaration discovery.
type LocateConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	PathTemplate string `yaml:"path_template" mapstructure:"path_template"`
	MinScore     int    `yaml:"min_score" mapstructure:"min_score"`
}

// PDFConfig configures PDF text extraction.
type PDFConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// OutputConfig configures where records are written.
type OutputConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Changelog bool   `yaml:"changelog" mapstructure:"changelog"`
}

// InputConfig names the default seed list.
type InputConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Sheet string `yaml:"sheet" mapstructure:"sheet"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DISCLOSURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("fetch.allow", "DISCLOSURE_FETCH_ALLOW", AllowFetchEnv); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetch.user_agent", "disclosure-cli/1.0 (+research tool)")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.base_delay_ms", 2000)
	v.SetDefault("fetch.rate_limit_backoff_ms", 4000)
	v.SetDefault("fetch.request_delay_ms", 1000)
	v.SetDefault("fetch.concurrency", 3)
	v.SetDefault("fetch.allow", false)
	v.SetDefault("cache.driver", "file")
	v.SetDefault("cache.dir", "data/cache")
	v.SetDefault("cache.sqlite_path", "data/cache.db")
	v.SetDefault("cache.max_age_hours", 24)
	v.SetDefault("locate.base_url", "https://www.europarl.europa.eu")
	v.SetDefault("locate.path_template", "https://www.europarl.europa.eu/meps/en/{id}/{slug}/declarations")
	v.SetDefault("locate.min_score", 40)
	v.SetDefault("pdf.pdftotext_path", "pdftotext")
	v.SetDefault("output.dir", "data/declarations")
	v.SetDefault("output.changelog", true)
	v.SetDefault("input.path", "data/meps.csv")

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

// Validate checks the settings a command mode needs. The network modes
// ("fetch", "discover") also require the opt-in guard.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "fetch", "discover":
		if !c.Fetch.Allow {
			return ErrFetchNotAllowed
		}
		if c.Fetch.Concurrency < 1 || c.Fetch.Concurrency > 32 {
			errs = append(errs, "fetch.concurrency must be between 1 and 32")
		}
		if c.Fetch.MaxAttempts < 1 {
			errs = append(errs, "fetch.max_attempts must be >= 1")
		}
		if c.Fetch.TimeoutSecs <= 0 {
			errs = append(errs, "fetch.timeout_secs must be > 0")
		}
		if c.Fetch.BaseDelayMs < 0 || c.Fetch.RateLimitBackoffMs < 0 || c.Fetch.RequestDelayMs < 0 {
			errs = append(errs, "fetch delays must be >= 0")
		}
		if strings.TrimSpace(c.Fetch.UserAgent) == "" {
			errs = append(errs, "fetch.user_agent is required")
		}
		errs = append(errs, c.validateCache()...)
		if c.Locate.MinScore < 0 {
			errs = append(errs, "locate.min_score must be >= 0")
		}
		if mode == "fetch" && c.Output.Dir == "" {
			errs = append(errs, "output.dir is required")
		}
	case "parse":
		if c.PDF.PdfToTextPath == "" {
			errs = append(errs, "pdf.pdftotext_path is required")
		}
	case "validate":
		if c.Output.Dir == "" {
			errs = append(errs, "output.dir is required")
		}
	case "cache":
		errs = append(errs, c.validateCache()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateCache() []string {
	var errs []string
	switch c.Cache.Driver {
	case "file":
		if c.Cache.Dir == "" {
			errs = append(errs, "cache.dir is required for the file driver")
		}
	case "sqlite":
		if c.Cache.SQLitePath == "" {
			errs = append(errs, "cache.sqlite_path is required for the sqlite driver")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("cache.driver %q must be file, sqlite or memory", c.Cache.Driver))
	}
	if c.Cache.MaxAgeHours <= 0 {
		errs = append(errs, "cache.max_age_hours must be > 0")
	}
	return errs
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

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
