package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request counts and latencies for the API surface.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{requests: requests, duration: duration}
}

// Observe records one finished request.
func (h *HTTPMetrics) Observe(method, route, status string, elapsed time.Duration) {
	if h == nil || h.requests == nil {
		return
	}
	h.requests.WithLabelValues(method, normalizeLabel(route), status).Inc()
	h.duration.WithLabelValues(method, normalizeLabel(route)).Observe(elapsed.Seconds())
}

// IssuanceMetrics tracks token issuance volume and supply exhaustion.
type IssuanceMetrics struct {
	issued    *prometheus.CounterVec
	exhausted *prometheus.CounterVec
	batchSize prometheus.Histogram
}

// NewIssuanceMetrics registers the issuance metrics on the provided registerer.
func NewIssuanceMetrics(reg prometheus.Registerer) *IssuanceMetrics {
	if reg == nil {
		return &IssuanceMetrics{}
	}
	issued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokens_issued_total",
		Help: "Tokens issued by rarity.",
	}, []string{"rarity"})
	exhausted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supply_exhausted_total",
		Help: "Issuance attempts rejected because the item supply cap was reached.",
	}, []string{"rarity"})
	batchSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "issuance_batch_size",
		Help:    "Number of tokens requested per issuance call.",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 70, 100},
	})
	reg.MustRegister(issued, exhausted, batchSize)
	return &IssuanceMetrics{issued: issued, exhausted: exhausted, batchSize: batchSize}
}

// IncIssued counts one issued token for the rarity tier.
func (m *IssuanceMetrics) IncIssued(rarity string) {
	if m == nil || m.issued == nil {
		return
	}
	m.issued.WithLabelValues(normalizeLabel(rarity)).Inc()
}

// IncExhausted counts one supply-exhausted rejection for the rarity tier.
func (m *IssuanceMetrics) IncExhausted(rarity string) {
	if m == nil || m.exhausted == nil {
		return
	}
	m.exhausted.WithLabelValues(normalizeLabel(rarity)).Inc()
}

// ObserveBatchSize records how many tokens one issuance call requested.
func (m *IssuanceMetrics) ObserveBatchSize(n int) {
	if m == nil || m.batchSize == nil {
		return
	}
	m.batchSize.Observe(float64(n))
}

// PublisherMetrics records outbox publisher outcomes.
type PublisherMetrics struct {
	published *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewPublisherMetrics registers the outbox publisher metrics.
func NewPublisherMetrics(reg prometheus.Registerer) *PublisherMetrics {
	if reg == nil {
		return &PublisherMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_total",
		Help: "Outbox publish attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_publish_batch_seconds",
		Help:    "Duration of one outbox publish cycle.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(published, duration)
	return &PublisherMetrics{published: published, duration: duration}
}

// IncOutcome counts one publish attempt with the given outcome label.
func (p *PublisherMetrics) IncOutcome(outcome string) {
	if p == nil || p.published == nil {
		return
	}
	p.published.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveCycle records the duration of one publish cycle.
func (p *PublisherMetrics) ObserveCycle(elapsed time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.Observe(elapsed.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
