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
	t.Setenv("GIGCACHE_UPSTREAM_ARTIST_MBID", "mbid-1")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "json", cfg.Store.Serializer)
	assert.Equal(t, "gigcache", cfg.Store.Namespace)
	assert.Equal(t, "https://api.setlist.fm/rest/1.0", cfg.Upstream.BaseURL)
	assert.Equal(t, "es", cfg.Upstream.Language)
	assert.Equal(t, "mbid-1", cfg.Upstream.ArtistMBID)
	assert.Equal(t, 30*time.Second, cfg.Windows.FirstPage.Fresh)
	assert.Equal(t, 7*24*time.Hour, cfg.Windows.FirstPage.Keep)
	assert.Equal(t, 24*time.Hour, cfg.Windows.History.Fresh)
	assert.Equal(t, 30*24*time.Hour, cfg.Windows.Show.Keep)
	assert.Equal(t, 0, cfg.Retries.Count)
	assert.False(t, cfg.Coalesce)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gigcache.yaml")
	content := `
listen: ":9090"
store:
  backend: tiered
  serializer: msgpack
upstream:
  artist_mbid: from-file
  api_key: file-key
windows:
  first_page:
    fresh: 1m
retries:
  count: 2
  backoff: 50ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("GIGCACHE_UPSTREAM_API_KEY", "env-key")
	t.Setenv("GIGCACHE_COALESCE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "tiered", cfg.Store.Backend)
	assert.Equal(t, "msgpack", cfg.Store.Serializer)
	assert.Equal(t, "from-file", cfg.Upstream.ArtistMBID)
	assert.Equal(t, "env-key", cfg.Upstream.APIKey)
	assert.Equal(t, time.Minute, cfg.Windows.FirstPage.Fresh)
	assert.Equal(t, 7*24*time.Hour, cfg.Windows.FirstPage.Keep)
	assert.Equal(t, 2, cfg.Retries.Count)
	assert.Equal(t, 50*time.Millisecond, cfg.Retries.Backoff)
	assert.True(t, cfg.Coalesce)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:    StoreConfig{Backend: "memory", Serializer: "json", L1MaxBytes: 1 << 20, L1TTL: time.Second},
			Upstream: UpstreamConfig{BaseURL: "http://localhost", ArtistMBID: "m"},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "memcached" }, wantErr: "unknown store backend"},
		{name: "tiered zero l1 ttl", mutate: func(c *Config) { c.Store.Backend = "tiered"; c.Store.L1TTL = 0 }, wantErr: "store.l1_ttl"},
		{name: "tiered negative l1 ttl", mutate: func(c *Config) { c.Store.Backend = "tiered"; c.Store.L1TTL = -time.Second }, wantErr: "store.l1_ttl"},
		{name: "memory zero l1 ttl allowed", mutate: func(c *Config) { c.Store.L1TTL = 0 }},
		{name: "memory zero max bytes", mutate: func(c *Config) { c.Store.L1MaxBytes = 0 }, wantErr: "store.l1_max_bytes"},
		{name: "unknown serializer", mutate: func(c *Config) { c.Store.Serializer = "gob" }, wantErr: "unknown serializer"},
		{name: "missing base url", mutate: func(c *Config) { c.Upstream.BaseURL = "" }, wantErr: "base_url"},
		{name: "missing artist", mutate: func(c *Config) { c.Upstream.ArtistMBID = "" }, wantErr: "artist_mbid"},
		{name: "negative retries", mutate: func(c *Config) { c.Retries.Count = -1 }, wantErr: "retries.count"},
		{name: "negative burst", mutate: func(c *Config) { c.RateLimit.Burst = -1 }, wantErr: "ratelimit"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestString_MasksAPIKey(t *testing.T) {
	c := Config{Upstream: UpstreamConfig{APIKey: "super-secret"}}
	assert.NotContains(t, c.String(), "super-secret")
	assert.Contains(t, c.String(), "api_key=********")
}
