// Package metrics holds the Prometheus collectors for the HTTP surface, the
// favorites store and the USGS upstream. A nil *Metrics is a valid no-op
// recorder so packages can be used without metrics wired in.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "rivergauge_"

	ResultSuccess = "success"
	ResultError   = "error"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	favoriteOps *prometheus.CounterVec

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamCacheHit *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. reg is also
// used to serve /metrics.
func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		gatherer: reg,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		favoriteOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "favorites_operations_total",
				Help: "Favorites operations by op and result",
			},
			[]string{"op", "result"},
		),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "usgs_requests_total",
				Help: "USGS Water Services requests by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: metricPrefix + "usgs_request_duration_seconds",
				Help: "USGS Water Services request latency in seconds",
				// USGS responses range from ~100ms to the 30s client timeout.
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"endpoint"},
		),
		upstreamCacheHit: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "usgs_cache_hits_total",
				Help: "USGS responses served from the in-memory cache",
			},
			[]string{"endpoint"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.httpRequests,
		m.httpDuration,
		m.favoriteOps,
		m.upstreamRequests,
		m.upstreamDuration,
		m.upstreamCacheHit,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) FavoriteOp(op string, err error) {
	if m == nil {
		return
	}
	m.favoriteOps.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) Upstream(endpoint string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(endpoint, result(err)).Inc()
	m.upstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) UpstreamCacheHit(endpoint string) {
	if m == nil {
		return
	}
	m.upstreamCacheHit.WithLabelValues(endpoint).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
