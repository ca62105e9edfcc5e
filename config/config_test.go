package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fern-api", cfg.AppName)
	assert.Equal(t, 3004, cfg.Port)
	assert.Equal(t, 0.85, cfg.MatchThreshold)
	assert.False(t, cfg.MatchNgramBlocking)
	assert.Equal(t, 2000, cfg.MatchParallelMinCandidates)
	assert.Equal(t, "admin", cfg.AutoLinkRequiredRole)
	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
	assert.Equal(t, []string{"POST", "OPTIONS"}, cfg.AllowMethods)
	assert.Equal(t, []string{"authorization", "x-client-info", "apikey", "content-type"}, cfg.AllowHeaders)
	assert.Equal(t, 10*time.Minute, cfg.AutoLinkLockTTL)
	assert.Equal(t, 10*time.Second, cfg.DatabaseConnMaxLifetime)
	assert.True(t, cfg.DatabaseMigrationAutoRollback)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "0.9")
	t.Setenv("MATCH_NGRAM_BLOCKING", "true")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("AUTOLINK_LOCK_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.MatchThreshold)
	assert.True(t, cfg.MatchNgramBlocking)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.AutoLinkLockTTL)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=marketplace\nAUTOLINK_REQUIRED_ROLE=ops\n"), 0o600))
	t.Setenv("AUTOLINK_REQUIRED_ROLE", "platform-admin")
	t.Cleanup(func() { _ = os.Unsetenv("DB_NAME") })

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "marketplace", cfg.DatabaseName)
	assert.Equal(t, "platform-admin", cfg.AutoLinkRequiredRole)
}
