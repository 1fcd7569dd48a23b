package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000/api", cfg.API.BaseURL)
	assert.Equal(t, 15, cfg.API.TimeoutSecs)
	assert.Equal(t, 1, cfg.API.MaxAttempts)
	assert.InDelta(t, 10.0, cfg.API.RatePerSec, 0.001)
	assert.Equal(t, 5, cfg.API.BreakerFailures)
	assert.Equal(t, "embedded", cfg.Catalog.Source)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Report.Concurrency)
	assert.Equal(t, 5, cfg.Report.TopN)
	assert.Equal(t, "none", cfg.Publish.Driver)
	assert.Equal(t, "dashboard:views", cfg.Publish.RedisChannel)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.NoError(t, cfg.Validate("serve"))
	assert.NoError(t, cfg.Validate("report"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
api:
  base_url: https://police.example/api
  max_attempts: 3
catalog:
  source: sqlite
  database_url: catalog.db
log:
  level: debug
  format: console
server:
  port: 9090
  cors_origins:
    - http://localhost:5173
publish:
  driver: kafka
  kafka_brokers: [kafka-1:9092, kafka-2:9092]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://police.example/api", cfg.API.BaseURL)
	assert.Equal(t, 3, cfg.API.MaxAttempts)
	assert.Equal(t, "sqlite", cfg.Catalog.Source)
	assert.Equal(t, "catalog.db", cfg.Catalog.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Publish.KafkaBrokers)
	// Defaults still apply for unset values
	assert.Equal(t, "dashboard-views", cfg.Publish.KafkaTopic)
	assert.Equal(t, 15, cfg.API.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
catalog:
  source: dir
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("DASHBOARD_CATALOG_SOURCE", "postgres")
	t.Setenv("DASHBOARD_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Catalog.Source)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DASHBOARD_API_TOKEN=from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("DASHBOARD_API_TOKEN") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.API.Token)
}

func TestLoadDotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DASHBOARD_SERVER_PORT=4000\n"), 0644))
	t.Setenv("DASHBOARD_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.API.BaseURL = "http://localhost:3000/api"
	cfg.API.TimeoutSecs = 15
	cfg.API.MaxAttempts = 1
	cfg.API.BreakerFailures = 5
	cfg.API.BreakerResetSecs = 30
	cfg.Catalog.Source = "embedded"
	cfg.Server.Port = 8080
	cfg.Report.Concurrency = 3
	cfg.Report.TopN = 5
	cfg.Publish.Driver = "none"
	return cfg
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateAPI(t *testing.T) {
	cfg := validDefaults()
	cfg.API.BaseURL = ""
	cfg.API.MaxAttempts = 0
	cfg.API.RatePerSec = -1

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url is required")
	assert.Contains(t, err.Error(), "api.max_attempts must be >= 1")
	assert.Contains(t, err.Error(), "api.rate_per_sec must be >= 0")
}

func TestValidateCatalogSources(t *testing.T) {
	cfg := validDefaults()

	cfg.Catalog.Source = "dir"
	assert.ErrorContains(t, cfg.Validate("catalog"), "catalog.dir is required")
	cfg.Catalog.Dir = "./catalog"
	assert.NoError(t, cfg.Validate("catalog"))

	cfg.Catalog.Source = "postgres"
	assert.ErrorContains(t, cfg.Validate("catalog"), "catalog.database_url is required for source postgres")
	cfg.Catalog.DatabaseURL = "postgres://localhost/dashboard"
	assert.NoError(t, cfg.Validate("catalog"))

	cfg.Catalog.Source = "mongo"
	assert.ErrorContains(t, cfg.Validate("catalog"), "catalog.source \"mongo\"")
}

func TestValidatePublishDrivers(t *testing.T) {
	cfg := validDefaults()

	cfg.Publish.Driver = "redis"
	assert.ErrorContains(t, cfg.Validate("serve"), "publish.redis_addr is required")
	cfg.Publish.RedisAddr = "localhost:6379"
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Publish.Driver = "kafka"
	err := cfg.Validate("serve")
	assert.ErrorContains(t, err, "publish.kafka_brokers is required")
	assert.ErrorContains(t, err, "publish.kafka_topic is required")

	cfg.Publish.Driver = "nats"
	assert.ErrorContains(t, cfg.Validate("serve"), "publish.driver \"nats\"")

	cfg.Publish.Driver = "none"
	cfg.Publish.TTLSecs = -1
	assert.ErrorContains(t, cfg.Validate("serve"), "publish.ttl_secs must be >= 0")
}

func TestValidateReportBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Report.Concurrency = 0
	assert.ErrorContains(t, cfg.Validate("report"), "report.concurrency must be between 1 and 16")

	cfg.Report.Concurrency = 17
	assert.Error(t, cfg.Validate("report"))

	cfg.Report.Concurrency = 16
	cfg.Report.TopN = 0
	assert.ErrorContains(t, cfg.Validate("report"), "report.top_n must be >= 1")

	cfg.Report.TopN = 3
	assert.NoError(t, cfg.Validate("report"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
