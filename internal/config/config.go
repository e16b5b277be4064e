package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "GIGCACHE"

type Config struct {
	Listen string `mapstructure:"listen"`
	// TrustProxy takes client IPs from X-Forwarded-For / X-Real-IP.
	TrustProxy bool            `mapstructure:"trust_proxy"`
	Log        LogConfig       `mapstructure:"log"`
	Store      StoreConfig     `mapstructure:"store"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Upstream   UpstreamConfig  `mapstructure:"upstream"`
	Windows    WindowsConfig   `mapstructure:"windows"`
	Retries    RetryConfig     `mapstructure:"retries"`
	Coalesce   bool            `mapstructure:"coalesce"`
	RateLimit  RateLimitConfig `mapstructure:"ratelimit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | text
}

type StoreConfig struct {
	Backend    string        `mapstructure:"backend"` // redis | memory | tiered
	Namespace  string        `mapstructure:"namespace"`
	Serializer string        `mapstructure:"serializer"` // json | msgpack
	L1TTL      time.Duration `mapstructure:"l1_ttl"`
	L1MaxBytes int64         `mapstructure:"l1_max_bytes"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

type UpstreamConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Language   string        `mapstructure:"language"`
	ArtistMBID string        `mapstructure:"artist_mbid"`
}

type WindowConfig struct {
	Fresh time.Duration `mapstructure:"fresh"`
	Keep  time.Duration `mapstructure:"keep"`
}

type WindowsConfig struct {
	FirstPage WindowConfig `mapstructure:"first_page"`
	History   WindowConfig `mapstructure:"history"`
	Show      WindowConfig `mapstructure:"show"`
}

type RetryConfig struct {
	Count   int           `mapstructure:"count"`
	Backoff time.Duration `mapstructure:"backoff"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("trust_proxy", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.backend", "redis")
	v.SetDefault("store.namespace", "gigcache")
	v.SetDefault("store.serializer", "json")
	v.SetDefault("store.l1_ttl", 30*time.Second)
	v.SetDefault("store.l1_max_bytes", int64(64<<20))
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("upstream.base_url", "https://api.setlist.fm/rest/1.0")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.language", "es")
	v.SetDefault("upstream.artist_mbid", "")
	v.SetDefault("windows.first_page.fresh", 30*time.Second)
	v.SetDefault("windows.first_page.keep", 7*24*time.Hour)
	v.SetDefault("windows.history.fresh", 24*time.Hour)
	v.SetDefault("windows.history.keep", 30*24*time.Hour)
	v.SetDefault("windows.show.fresh", 24*time.Hour)
	v.SetDefault("windows.show.keep", 30*24*time.Hour)
	v.SetDefault("retries.count", 0)
	v.SetDefault("retries.backoff", 200*time.Millisecond)
	v.SetDefault("coalesce", false)
	v.SetDefault("ratelimit.rps", 5.0)
	v.SetDefault("ratelimit.burst", 20)
}

// Load reads defaults, then the optional config file at path, then GIGCACHE_* environment
// variables (e.g. GIGCACHE_UPSTREAM_API_KEY for upstream.api_key).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "redis", "memory", "tiered":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend != "redis" {
		if c.Store.L1MaxBytes <= 0 {
			return errors.New("store.l1_max_bytes must be positive")
		}
	}
	if c.Store.Backend == "tiered" && c.Store.L1TTL <= 0 {
		return errors.New("store.l1_ttl must be positive")
	}
	switch c.Store.Serializer {
	case "json", "msgpack":
	default:
		return fmt.Errorf("unknown serializer %q", c.Store.Serializer)
	}
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}
	if c.Upstream.ArtistMBID == "" {
		return errors.New("upstream.artist_mbid is required")
	}
	if c.Retries.Count < 0 {
		return errors.New("retries.count must be non-negative")
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("ratelimit values must be non-negative")
	}
	return nil
}

// String masks secrets.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("listen=%s store=%s/%s namespace=%s ", c.Listen, c.Store.Backend, c.Store.Serializer, c.Store.Namespace))
	sb.WriteString(fmt.Sprintf("redis=%s db=%d upstream=%s artist=%s ", c.Redis.Addr, c.Redis.DB, c.Upstream.BaseURL, c.Upstream.ArtistMBID))
	if c.Upstream.APIKey != "" {
		sb.WriteString("api_key=********")
	} else {
		sb.WriteString("api_key=(empty)")
	}
	return sb.String()
}
