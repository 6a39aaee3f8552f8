package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for upload counters.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
)

// Metrics holds the service collectors. Each instance owns its registry so
// tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	uploads         *prometheus.CounterVec
	uploadBytes     *prometheus.HistogramVec
	thumbnailReads  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assets",
			Name:      "uploads_total",
			Help:      "Upload attempts by asset class and outcome.",
		}, []string{"class", "outcome"}),
		uploadBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assets",
			Name:      "upload_bytes",
			Help:      "Size of committed uploads by asset class.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 11),
		}, []string{"class"}),
		thumbnailReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assets",
			Name:      "thumbnail_reads_total",
			Help:      "Thumbnail fetches by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assets",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assets",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the upload rate limiter.",
		}),
	}

	m.registry.MustRegister(
		m.uploads,
		m.uploadBytes,
		m.thumbnailReads,
		m.requestDuration,
		m.rateLimited,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Upload records one upload attempt. size is only observed on success.
func (m *Metrics) Upload(class, outcome string, size int64) {
	m.uploads.WithLabelValues(class, outcome).Inc()
	if outcome == OutcomeSuccess {
		m.uploadBytes.WithLabelValues(class).Observe(float64(size))
	}
}

// ThumbnailRead records one thumbnail fetch.
func (m *Metrics) ThumbnailRead(outcome string) {
	m.thumbnailReads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	m.requestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}

func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
