package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "test")
	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "2022_07", cfg.Feed.Version)
	assert.Equal(t, "event-feed", cfg.Feed.EventFeedName)
	assert.Equal(t, time.Second, cfg.Feed.QuietPeriod)
	assert.Equal(t, BackendNone, cfg.MQ.Backend)
	assert.Equal(t, BackendNone, cfg.Storage.Backend)
	assert.False(t, cfg.Archive.Enabled)
	assert.True(t, cfg.Emulation.Start.IsZero())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CLICS_FEED_URLS", "https://cds.example/api, ,object://finals.tar.gz")
	t.Setenv("CLICS_URL_PREFIX_MAPPING", "https://cds.example/=http://mirror/,broken")
	t.Setenv("CLICS_QUIET_PERIOD", "250ms")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("MQ_BACKEND", "RabbitMQ")
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("MINIO_ACCESS_KEY", "key")
	t.Setenv("MINIO_SECRET_KEY", "secret")
	t.Setenv("ARCHIVE_ENABLED", "1")
	t.Setenv("EMULATION_SPEED", "10")
	t.Setenv("EMULATION_START", "2026-04-01T10:00:00Z")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []string{"https://cds.example/api", "object://finals.tar.gz"}, cfg.Feed.URLs)
	assert.Equal(t, map[string]string{"https://cds.example/": "http://mirror/"}, cfg.Feed.URLPrefixMapping)
	assert.Equal(t, 250*time.Millisecond, cfg.Feed.QuietPeriod)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, BackendRabbitMQ, cfg.MQ.Backend)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, 10.0, cfg.Emulation.Speed)
	assert.Equal(t, time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC), cfg.Emulation.Start)
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.ValidateFeeds())
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"port":            func(c *Config) { c.ServerPort = 70000 },
		"mq backend":      func(c *Config) { c.MQ.Backend = "kafka" },
		"pubsub project":  func(c *Config) { c.MQ.Backend = BackendPubSub },
		"storage backend": func(c *Config) { c.Storage.Backend = "s3" },
		"minio keys":      func(c *Config) { c.Storage.Backend = BackendMinio },
		"gcs bucket":      func(c *Config) { c.Storage.Backend = BackendGCS },
		"speed":           func(c *Config) { c.Emulation.Speed = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Config{ServerPort: 8080}
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidateFeeds(t *testing.T) {
	cfg := Config{Feed: FeedConfig{QuietPeriod: time.Second}}
	assert.ErrorIs(t, cfg.ValidateFeeds(), ErrInvalid)

	cfg.Feed.URLs = []string{"object://feed.ndjson"}
	assert.ErrorIs(t, cfg.ValidateFeeds(), ErrInvalid)

	cfg.Storage.Backend = BackendGCS
	assert.NoError(t, cfg.ValidateFeeds())
}
