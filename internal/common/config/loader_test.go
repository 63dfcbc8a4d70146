package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
app:
  name: subtrack-workers
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    port: 5432
    database: subtrack
    user: subtrack
    password: ${TEST_DB_PASSWORD}
  elasticsearch:
    addresses: ["http://localhost:9200"]
  redis:
    address: localhost:6379
storage:
  bucket: subtrack-imports
entitlements:
  plans_path: configs/plans.yaml
workers:
  check-feature-access:
    enabled: true
  index-subscriptions:
    enabled: false
    timeout: 5000
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.URL)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "configs/plans.yaml", cfg.Entitlements.PlansPath)

	// defaults
	assert.Equal(t, 5000, cfg.Import.MaxRows)
	assert.Equal(t, "subscriptions", cfg.Import.IndexName)
	assert.Equal(t, 5*time.Minute, cfg.UsageCacheTTL())
	assert.Equal(t, ":9090", cfg.Observability.MetricsAddr)
	assert.Equal(t, "subtrack-workers", cfg.Observability.ServiceName)
	assert.Equal(t, "configs/activity-registry.json", cfg.RegistryPath)

	assert.True(t, IsWorkerEnabled(cfg, "check-feature-access"))
	assert.False(t, IsWorkerEnabled(cfg, "index-subscriptions"))
	assert.True(t, IsWorkerEnabled(cfg, "not-configured"))

	w := GetWorkerConfig(cfg, "index-subscriptions")
	assert.Equal(t, 5000, w.Timeout)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_MissingRequired(t *testing.T) {
	body := `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: subtrack
    user: subtrack
  elasticsearch:
    url: http://localhost:9200
  redis:
    address: localhost:6379
`
	t.Setenv("IMPORT_BUCKET", "")

	_, err := LoadFromFile(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.bucket")
}

func TestLoadFromFile_BucketFromEnv(t *testing.T) {
	body := `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: subtrack
    user: subtrack
  elasticsearch:
    url: http://localhost:9200
  redis:
    address: localhost:6379
`
	t.Setenv("IMPORT_BUCKET", "from-env")

	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Storage.Bucket)
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", p.GetDSN())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
