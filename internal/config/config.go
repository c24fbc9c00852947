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
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Acquire   AcquireConfig   `yaml:"acquire" mapstructure:"acquire"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds completion service settings.
type AnthropicConfig struct {
	Key                string `yaml:"key" mapstructure:"key"`
	Model              string `yaml:"model" mapstructure:"model"`
	RequestTimeoutSecs int    `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// AcquireConfig configures the content acquisition chain.
type AcquireConfig struct {
	DisableBrowser     bool `yaml:"disable_browser" mapstructure:"disable_browser"`
	BrowserTimeoutSecs int  `yaml:"browser_timeout_secs" mapstructure:"browser_timeout_secs"`
	// BackendEndpoints maps a hostname to a query endpoint used as the
	// last-resort acquisition strategy for that site.
	BackendEndpoints map[string]string `yaml:"backend_endpoints" mapstructure:"backend_endpoints"`
}

// CacheConfig configures the local fetch cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Path     string `yaml:"path" mapstructure:"path"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// PipelineConfig configures extraction behavior.
type PipelineConfig struct {
	// ConfidenceThreshold gates deterministic enhancement of AI results.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	MaxRetries          int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimitBaseSecs   int     `yaml:"rate_limit_base_secs" mapstructure:"rate_limit_base_secs"`
	RequestsPerMinute   int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Workers             int     `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP extraction server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.request_timeout_secs", 120)
	v.SetDefault("acquire.browser_timeout_secs", 20)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "fetch-cache.db")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("pipeline.confidence_threshold", 0.7)
	v.SetDefault("pipeline.max_retries", 3)
	v.SetDefault("pipeline.rate_limit_base_secs", 5)
	v.SetDefault("pipeline.requests_per_minute", 20)
	v.SetDefault("pipeline.workers", 5)

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

// Validate checks the fields required for the given command mode.
func (c *Config) Validate(mode string) error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "extract", "batch", "serve":
		check(c.Anthropic.Key != "", "anthropic.key is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "serve" {
		check(c.Server.Port > 0, "server.port must be > 0")
	}

	check(c.Pipeline.ConfidenceThreshold >= 0 && c.Pipeline.ConfidenceThreshold <= 1,
		"pipeline.confidence_threshold must be between 0 and 1")
	check(c.Pipeline.Workers >= 1 && c.Pipeline.Workers <= 50,
		"pipeline.workers must be between 1 and 50")
	check(c.Pipeline.RequestsPerMinute >= 1,
		"pipeline.requests_per_minute must be >= 1")
	check(c.Pipeline.MaxRetries >= 0,
		"pipeline.max_retries must be >= 0")

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
