package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "neuropredict"

// CaptureCounter reports how many capture sessions and clips are held.
type CaptureCounter interface {
	Counts() (sessions, clips int)
}

// Prometheus exposes request, assessment and capture metrics on its own
// registry so tests can create as many as they need.
type Prometheus struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	assessments *prometheus.CounterVec
	captures    *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
}

// NewPrometheus registers the service collectors. captures may be nil.
func NewPrometheus(captures CaptureCounter) *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Completed assessments by modality and risk tier.",
		}, []string{"modality", "tier"}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_events_total",
			Help:      "Capture lifecycle events.",
		}, []string{"event"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"scope"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.requests,
		p.latency,
		p.assessments,
		p.captures,
		p.rateLimited,
	)

	if captures != nil {
		p.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "capture_sessions_active",
				Help:      "Capture sessions currently held in memory.",
			}, func() float64 {
				sessions, _ := captures.Counts()
				return float64(sessions)
			}),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "clips_active",
				Help:      "Clips currently held in memory.",
			}, func() float64 {
				_, clips := captures.Counts()
				return float64(clips)
			}),
		)
	}

	return p
}

// ObserveRequest records one finished HTTP request. route is the matched
// route pattern, never the raw path.
func (p *Prometheus) ObserveRequest(method, route string, status int, duration time.Duration) {
	p.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveAssessment counts a result.
func (p *Prometheus) ObserveAssessment(modality, tier string) {
	p.assessments.WithLabelValues(modality, tier).Inc()
}

// ObserveCapture counts a capture event.
func (p *Prometheus) ObserveCapture(event string) {
	p.captures.WithLabelValues(event).Inc()
}

// ObserveRateLimited counts a rejected request.
func (p *Prometheus) ObserveRateLimited(scope string) {
	p.rateLimited.WithLabelValues(scope).Inc()
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
