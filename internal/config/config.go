package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Publish PublishConfig `yaml:"publish" mapstructure:"publish"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// APIConfig configures the reporting backend client.
type APIConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	Token            string  `yaml:"token" mapstructure:"token"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffMs        int     `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst            int     `yaml:"burst" mapstructure:"burst"`
	BreakerFailures  int     `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// CatalogConfig selects where fallback datasets are loaded from.
type CatalogConfig struct {
	Source      string `yaml:"source" mapstructure:"source"` // embedded, dir, postgres, sqlite
	Dir         string `yaml:"dir" mapstructure:"dir"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// ReportConfig configures one-shot reports.
type ReportConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	TopN        int `yaml:"top_n" mapstructure:"top_n"`
}

// PublishConfig configures the snapshot sink.
type PublishConfig struct {
	Driver       string   `yaml:"driver" mapstructure:"driver"` // none, redis, kafka
	RedisAddr    string   `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisChannel string   `yaml:"redis_channel" mapstructure:"redis_channel"`
	KafkaBrokers []string `yaml:"kafka_brokers" mapstructure:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic" mapstructure:"kafka_topic"`
	TTLSecs      int      `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DASHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "http://localhost:3000/api")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout_secs", 15)
	v.SetDefault("api.max_attempts", 1)
	v.SetDefault("api.backoff_ms", 250)
	v.SetDefault("api.rate_per_sec", 10)
	v.SetDefault("api.burst", 5)
	v.SetDefault("api.breaker_failures", 5)
	v.SetDefault("api.breaker_reset_secs", 30)
	v.SetDefault("catalog.source", "embedded")
	v.SetDefault("catalog.dir", "")
	v.SetDefault("catalog.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("report.concurrency", 3)
	v.SetDefault("report.top_n", 5)
	v.SetDefault("publish.driver", "none")
	v.SetDefault("publish.redis_addr", "")
	v.SetDefault("publish.redis_channel", "dashboard:views")
	v.SetDefault("publish.kafka_brokers", []string{})
	v.SetDefault("publish.kafka_topic", "dashboard-views")
	v.SetDefault("publish.ttl_secs", 900)
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

// Validate checks the settings required by a command mode: "serve",
// "report" or "catalog".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		errs = append(errs, c.validateAPI()...)
		errs = append(errs, c.validateCatalog()...)
		errs = append(errs, c.validatePublish()...)
	case "report":
		if c.Report.Concurrency < 1 || c.Report.Concurrency > 16 {
			errs = append(errs, "report.concurrency must be between 1 and 16")
		}
		if c.Report.TopN < 1 {
			errs = append(errs, "report.top_n must be >= 1")
		}
		errs = append(errs, c.validateAPI()...)
		errs = append(errs, c.validateCatalog()...)
		errs = append(errs, c.validatePublish()...)
	case "catalog":
		errs = append(errs, c.validateCatalog()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateAPI() []string {
	var errs []string
	if c.API.BaseURL == "" {
		errs = append(errs, "api.base_url is required")
	}
	if c.API.TimeoutSecs <= 0 {
		errs = append(errs, "api.timeout_secs must be > 0")
	}
	if c.API.MaxAttempts < 1 {
		errs = append(errs, "api.max_attempts must be >= 1")
	}
	if c.API.RatePerSec < 0 {
		errs = append(errs, "api.rate_per_sec must be >= 0")
	}
	if c.API.BreakerFailures < 1 {
		errs = append(errs, "api.breaker_failures must be >= 1")
	}
	if c.API.BreakerResetSecs <= 0 {
		errs = append(errs, "api.breaker_reset_secs must be > 0")
	}
	return errs
}

func (c *Config) validateCatalog() []string {
	switch c.Catalog.Source {
	case "embedded":
		return nil
	case "dir":
		if c.Catalog.Dir == "" {
			return []string{"catalog.dir is required for source dir"}
		}
	case "postgres", "sqlite":
		if c.Catalog.DatabaseURL == "" {
			return []string{fmt.Sprintf("catalog.database_url is required for source %s", c.Catalog.Source)}
		}
	default:
		return []string{fmt.Sprintf("catalog.source %q is not one of embedded, dir, postgres, sqlite", c.Catalog.Source)}
	}
	return nil
}

func (c *Config) validatePublish() []string {
	if c.Publish.TTLSecs < 0 {
		return []string{"publish.ttl_secs must be >= 0"}
	}
	switch c.Publish.Driver {
	case "", "none":
		return nil
	case "redis":
		if c.Publish.RedisAddr == "" {
			return []string{"publish.redis_addr is required for driver redis"}
		}
	case "kafka":
		var errs []string
		if len(c.Publish.KafkaBrokers) == 0 {
			errs = append(errs, "publish.kafka_brokers is required for driver kafka")
		}
		if c.Publish.KafkaTopic == "" {
			errs = append(errs, "publish.kafka_topic is required for driver kafka")
		}
		return errs
	default:
		return []string{fmt.Sprintf("publish.driver %q is not one of none, redis, kafka", c.Publish.Driver)}
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
