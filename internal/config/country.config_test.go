package config

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "REDIS_ADDR", "KAFKA_BROKERS", "REFRESH_INTERVAL", "SEED_ON_STARTUP", "SUMMARY_TOP_N", "ARTIFACT_STORE"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.KafkaEnabled())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "countries.refreshed", cfg.KafkaTopic)
	assert.Equal(t, 15*time.Second, cfg.ProviderTimeout)
	assert.Zero(t, cfg.RefreshInterval)
	assert.True(t, cfg.SeedOnStartup)
	assert.Equal(t, 5, cfg.SummaryTopN)
	assert.Equal(t, "file", cfg.ArtifactStore)
	assert.Equal(t, "cache/summary.png", cfg.ArtifactPath)
	assert.Equal(t, 2*time.Minute, cfg.LockTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("REFRESH_INTERVAL", "1h")
	t.Setenv("SEED_ON_STARTUP", "false")
	t.Setenv("SUMMARY_TOP_N", "50")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("ARTIFACT_STORE", "Redis")

	cfg := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.False(t, cfg.SeedOnStartup)
	assert.Equal(t, 5, cfg.SummaryTopN, "clamped")
	assert.Zero(t, cfg.RedisDB, "invalid values fall back")
	assert.Equal(t, "redis", cfg.ArtifactStore)
}

func TestDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "p@ss")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "countries")
	t.Setenv("DB_SSLMODE", "")
	assert.Equal(t, "postgres://app:p%40ss@db:5433/countries?sslmode=disable", DatabaseURL())

	t.Setenv("DATABASE_URL", "postgres://override")
	assert.Equal(t, "postgres://override", DatabaseURL())
}

func TestConnectRedis(t *testing.T) {
	client, err := ConnectRedis(AppConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	client, err = ConnectRedis(AppConfig{RedisAddr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, client.Ping(context.Background()).Err())
}
