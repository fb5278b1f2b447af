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

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 10, cfg.RateLimit.Buckets["video"].Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Buckets["video"].Window)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, time.Hour, cfg.Storage.SignedURLTTL)
	assert.Equal(t, 1, cfg.Worker.Concurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.Worker.PollInterval)
	assert.Equal(t, 0.35, cfg.Orchestrator.MinGroundingScore)
	assert.False(t, cfg.Fallback.AllowPlaceholder)
	assert.Equal(t, "x-api-key", cfg.Provider.APIKeyHeader)
	assert.Equal(t, 64<<20, cfg.Hooks.MaxOutputBytes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OMNI_MEDIA_SERVER_ADDRESS", ":9999")
	t.Setenv("OMNI_MEDIA_AUTH_KEYS", "k1,k2")
	t.Setenv("OMNI_MEDIA_FALLBACK_ALLOW_PLACEHOLDER", "true")
	t.Setenv("OMNI_MEDIA_RATELIMIT_BUCKETS_VIDEO_LIMIT", "3")
	t.Setenv("OMNI_MEDIA_WORKER_CONCURRENCY", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.Keys)
	assert.True(t, cfg.Fallback.AllowPlaceholder)
	assert.Equal(t, 3, cfg.RateLimit.Buckets["video"].Limit)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omni.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: ":7070"
storage:
  backend: s3
  s3:
    bucket: media-out
ratelimit:
  backend: redis
profiles:
  - name: image_default
    model: custom/model
    kind: image
    max_width: 800
    max_height: 800
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "media-out", cfg.Storage.S3.Bucket)
	assert.Equal(t, "omni-media", cfg.Storage.S3.KeyPrefix)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	require.Len(t, cfg.Profiles, 1)
	assert.Equal(t, "custom/model", cfg.Profiles[0].Model)
	assert.Equal(t, 800, cfg.Profiles[0].MaxWidth)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	cfg := valid()
	cfg.RateLimit.Backend = "memcached"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Storage.Backend = "s3"
	assert.Error(t, cfg.Validate(), "s3 needs a bucket")

	cfg = valid()
	cfg.Storage.Backend = "ftp"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Worker.Concurrency = 0
	assert.Error(t, cfg.Validate())

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
