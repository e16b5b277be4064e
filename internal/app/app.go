package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/orgball2608/gigcache"
	"github.com/orgball2608/gigcache/internal/config"
	"github.com/orgball2608/gigcache/internal/httpapi"
	"github.com/orgball2608/gigcache/metrics/prom"
	"github.com/orgball2608/gigcache/setlist"
	"github.com/orgball2608/gigcache/store/memory"
	"github.com/orgball2608/gigcache/store/redisstore"
	"github.com/orgball2608/gigcache/store/tiered"
	"github.com/orgball2608/gigcache/upstream"
	"github.com/prometheus/client_golang/prometheus"
)

// Store is what the app needs from a cache backend.
type Store interface {
	gigcache.Store
	Ping(ctx context.Context) error
	Close() error
}

type App struct {
	cfg      *config.Config
	log      *slog.Logger
	store    Store
	service  *setlist.Service
	registry *prometheus.Registry
	limiter  *httpapi.RateLimiter
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Build wires the store, upstream client, cache service and metrics.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("building application", "config", cfg.String())

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := upstream.New(upstream.Config{
		BaseURL:  cfg.Upstream.BaseURL,
		APIKey:   cfg.Upstream.APIKey,
		Timeout:  cfg.Upstream.Timeout,
		Language: cfg.Upstream.Language,
	}, logger.With("component", "upstream"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics, err := prom.New(registry, "gigcache")
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	var serializer gigcache.Serializer = gigcache.JSONSerializer{}
	if cfg.Store.Serializer == "msgpack" {
		serializer = gigcache.MsgPackSerializer{}
	}

	service, err := setlist.NewService(cfg.Upstream.ArtistMBID, client, store, windows(cfg.Windows),
		gigcache.WithNamespace(cfg.Store.Namespace),
		gigcache.WithSerializer(serializer),
		gigcache.WithLogger(logger.With("component", "cache")),
		gigcache.WithMetrics(metrics),
		gigcache.WithRetries(cfg.Retries.Count, cfg.Retries.Backoff),
		gigcache.WithCoalescing(cfg.Coalesce),
		gigcache.WithCoalesceTimeout(refreshBudget(cfg)),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var limiter *httpapi.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = httpapi.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	return &App{
		cfg:      cfg,
		log:      logger,
		store:    store,
		service:  service,
		registry: registry,
		limiter:  limiter,
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	storeLog := logger.With("component", "store")
	newRedis := func() (*redisstore.Store, error) {
		rs := redisstore.New(redisstore.NewClient(redisstore.Config{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		}), storeLog)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("failed init redis: %w", err)
		}
		return rs, nil
	}

	switch cfg.Store.Backend {
	case "memory":
		return memory.New(cfg.Store.L1MaxBytes)
	case "tiered":
		l1, err := memory.New(cfg.Store.L1MaxBytes)
		if err != nil {
			return nil, err
		}
		l2, err := newRedis()
		if err != nil {
			_ = l1.Close()
			return nil, err
		}
		s, err := tiered.New(l1, l2, cfg.Store.L1TTL, storeLog)
		if err != nil {
			_ = l1.Close()
			_ = l2.Close()
			return nil, err
		}
		return s, nil
	default:
		return newRedis()
	}
}

// refreshBudget is the longest a refresh can take: every attempt timing out plus
// every backoff, with a margin for the store write.
func refreshBudget(cfg *config.Config) time.Duration {
	timeout := cfg.Upstream.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	budget := timeout + 5*time.Second
	backoff := cfg.Retries.Backoff
	for i := 0; i < cfg.Retries.Count; i++ {
		budget += timeout + backoff
		backoff *= 2
	}
	return budget
}

func windows(c config.WindowsConfig) setlist.Windows {
	return setlist.Windows{
		FirstPage: gigcache.Window{Fresh: c.FirstPage.Fresh, Keep: c.FirstPage.Keep},
		History:   gigcache.Window{Fresh: c.History.Fresh, Keep: c.History.Keep},
		Show:      gigcache.Window{Fresh: c.Show.Fresh, Keep: c.Show.Keep},
	}
}

// Service exposes the cached concert-data service for one-shot commands.
func (a *App) Service() *setlist.Service { return a.service }

// Run serves HTTP until ctx is cancelled, then shuts down.
func (a *App) Run(ctx context.Context) error {
	handler := &httpapi.Handler{Setlists: a.service, Store: a.store, Log: a.log.With("component", "http")}
	server := httpapi.NewServer(a.cfg.Listen, httpapi.NewRouter(handler, a.limiter, a.registry, a.cfg.TrustProxy), a.log)

	if a.limiter != nil {
		stop := a.limiter.StartCleanup(time.Minute, 10*time.Minute)
		defer stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Close(stopCtx)
	return nil
}

func (a *App) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Error("failed to close store", "error", err)
	}
}
