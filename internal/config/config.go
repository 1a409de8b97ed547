// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gloirembonyi/excel-data-extracter/pkg/gemini"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Gemini GeminiConfig `yaml:"gemini" mapstructure:"gemini"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Match  MatchConfig  `yaml:"match" mapstructure:"match"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// GeminiConfig holds extraction API settings.
type GeminiConfig struct {
	Keys              []string `yaml:"keys" mapstructure:"keys"`
	Model             string   `yaml:"model" mapstructure:"model"`
	Endpoint          string   `yaml:"endpoint" mapstructure:"endpoint"`
	RotationStrategy  string   `yaml:"rotation_strategy" mapstructure:"rotation_strategy"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TimeoutSecs       int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BatchConfig configures batch image processing.
type BatchConfig struct {
	MaxConcurrent      int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxConcurrentCap   int `yaml:"max_concurrent_cap" mapstructure:"max_concurrent_cap"`
	MaxImages          int `yaml:"max_images" mapstructure:"max_images"`
	MaxRetries         int `yaml:"max_retries" mapstructure:"max_retries"`
	AttemptTimeoutSecs int `yaml:"attempt_timeout_secs" mapstructure:"attempt_timeout_secs"`
}

// MatchConfig configures the matching engine.
type MatchConfig struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// ServerConfig configures the HTTP server.
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
	v.SetEnvPrefix("EXTRACTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "extracter.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("gemini.model", gemini.DefaultModel)
	v.SetDefault("gemini.endpoint", gemini.DefaultEndpoint)
	v.SetDefault("gemini.rotation_strategy", "pinned")
	v.SetDefault("gemini.requests_per_second", 2)
	v.SetDefault("gemini.timeout_secs", 60)
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("batch.max_concurrent_cap", 20)
	v.SetDefault("batch.max_images", 100)
	v.SetDefault("batch.max_retries", 3)
	v.SetDefault("batch.attempt_timeout_secs", 60)
	v.SetDefault("match.threshold", 0.5)

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
