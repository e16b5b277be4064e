// Package prom exports gigcache metrics to Prometheus.
package prom

import (
	"time"

	"github.com/orgball2608/gigcache"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements gigcache.Metrics with Prometheus collectors.
type Metrics struct {
	requests         *prometheus.CounterVec
	upstreamFetches  prometheus.Counter
	upstreamErrors   *prometheus.CounterVec
	storeErrors      prometheus.Counter
	upstreamDuration prometheus.Histogram
}

var _ gigcache.Metrics = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "The total number of cache lookups by resolution mode",
		}, []string{"mode"}),
		upstreamFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_fetches_total",
			Help:      "The total number of upstream calls",
		}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "The total number of failed upstream calls by kind",
		}, []string{"kind"}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "The total number of cache store failures",
		}),
		upstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Latency of upstream calls",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.upstreamFetches, m.upstreamErrors, m.storeErrors, m.upstreamDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	for _, mode := range gigcache.Modes {
		m.requests.WithLabelValues(string(mode))
	}
	return m, nil
}

func (m *Metrics) IncMode(mode gigcache.Mode) { m.requests.WithLabelValues(string(mode)).Inc() }
func (m *Metrics) IncUpstreamFetches()        { m.upstreamFetches.Inc() }
func (m *Metrics) IncUpstreamErrors(kind string) {
	m.upstreamErrors.WithLabelValues(kind).Inc()
}
func (m *Metrics) IncStoreErrors() { m.storeErrors.Inc() }
func (m *Metrics) ObserveUpstreamLatency(d time.Duration) {
	m.upstreamDuration.Observe(d.Seconds())
}
