package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "database:\n  path: "+filepath.Join(t.TempDir(), "test.db")+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL())

	p := cfg.Policy()
	assert.Equal(t, 30, p.DefaultBufferMinutes)
	assert.Equal(t, 5, p.MinIntervalMinutes)
	assert.False(t, p.MissingScheduleWorksAllDay)
	assert.True(t, p.UnassignedBlocksApplyToAll)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_REDIS_PASSWORD", "s3cret")
	path := writeConfig(t, `
database:
  path: `+filepath.Join(t.TempDir(), "test.db")+`
redis:
  enabled: true
  address: localhost:6379
  password: ${TEST_REDIS_PASSWORD}
  cache_ttl_seconds: 90
booking:
  default_buffer_minutes: 15
  unassigned_blocks_ignored: true
business:
  timezone: America/Bahia
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL())
	assert.Equal(t, "America/Bahia", cfg.Business.Timezone)

	p := cfg.Policy()
	assert.Equal(t, 15, p.DefaultBufferMinutes)
	assert.False(t, p.UnassignedBlocksApplyToAll)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
