// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Chain      ChainConfig      `yaml:"chain" mapstructure:"chain"`
	Quota      QuotaConfig      `yaml:"quota" mapstructure:"quota"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Backfill   BackfillConfig   `yaml:"backfill" mapstructure:"backfill"`
	Sweep      SweepConfig      `yaml:"sweep" mapstructure:"sweep"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver             string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL        string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns           int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns           int32  `yaml:"min_conns" mapstructure:"min_conns"`
	StatementTimeoutMs int    `yaml:"statement_timeout_ms" mapstructure:"statement_timeout_ms"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ChainConfig points at the provider cascade definition. An empty path means
// the built-in default cascade.
type ChainConfig struct {
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
}

// QuotaConfig configures per-language daily generation limits.
type QuotaConfig struct {
	DefaultDailyCap int `yaml:"default_daily_cap" mapstructure:"default_daily_cap"`
}

// CacheConfig configures the in-process read-through cache.
type CacheConfig struct {
	TTLSecs int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	MaxSize int `yaml:"max_size" mapstructure:"max_size"`
}

// BackfillConfig configures batch generation defaults. Command-line flags
// override these per run.
type BackfillConfig struct {
	Concurrency    int     `yaml:"concurrency" mapstructure:"concurrency"`
	BatchSize      int     `yaml:"batch_size" mapstructure:"batch_size"`
	RatePerSecond  float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	BatchPauseSecs int     `yaml:"batch_pause_secs" mapstructure:"batch_pause_secs"`
}

// SweepConfig configures stale low-quality content cleanup.
type SweepConfig struct {
	MinAgeDays int `yaml:"min_age_days" mapstructure:"min_age_days"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures the periodic health checker and alerter.
type MonitoringConfig struct {
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	MaxFailedBacklog     int     `yaml:"max_failed_backlog" mapstructure:"max_failed_backlog"`
	DailyCostLimitUSD    float64 `yaml:"daily_cost_limit_usd" mapstructure:"daily_cost_limit_usd"`
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
	v.SetEnvPrefix("GUIDANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.statement_timeout_ms", 10000)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("quota.default_daily_cap", 100)
	v.SetDefault("cache.ttl_secs", 300)
	v.SetDefault("cache.max_size", 4096)
	v.SetDefault("backfill.concurrency", 4)
	v.SetDefault("backfill.batch_size", 25)
	v.SetDefault("backfill.rate_per_second", 2.0)
	v.SetDefault("backfill.batch_pause_secs", 2)
	v.SetDefault("sweep.min_age_days", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.max_failed_backlog", 100)
	v.SetDefault("monitoring.daily_cost_limit_usd", 25.0)
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
