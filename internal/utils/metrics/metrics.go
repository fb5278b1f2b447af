package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/omnimedia/server/internal/module/generation"
	"github.com/omnimedia/server/internal/module/media"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Generation metrics
	GenerationsTotal    *prometheus.CounterVec
	BackendCallDuration *prometheus.HistogramVec
	BackendCallsTotal   *prometheus.CounterVec
	SceneCallsTotal     *prometheus.CounterVec
	FallbacksTotal      *prometheus.CounterVec

	// Job metrics
	JobsTotal  *prometheus.CounterVec
	QueueDepth prometheus.Gauge

	// Admission metrics
	AdmissionsTotal *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "omnimedia"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "requests_total",
				Help:      "Total number of synchronous generation requests",
			},
			[]string{"modality", "status"}, // status: completed, failed, rejected
		),
		BackendCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "call_duration_seconds",
				Help:      "Backend generation call duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"modality", "profile"},
		),
		BackendCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "calls_total",
				Help:      "Total number of backend generation calls",
			},
			[]string{"modality", "profile", "result"},
		),
		SceneCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "scene_calls_total",
				Help:      "Total number of per-scene video calls",
			},
			[]string{"profile"},
		),
		FallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "fallbacks_total",
				Help:      "Total number of substituted outputs",
			},
			[]string{"kind"}, // kind: provider, placeholder
		),

		JobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "events_total",
				Help:      "Total number of job lifecycle events",
			},
			[]string{"event"}, // event: enqueued, completed, failed
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "queue_depth",
				Help:      "Number of jobs waiting in the queue",
			},
		),

		AdmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "admission",
				Name:      "decisions_total",
				Help:      "Total number of admission decisions",
			},
			[]string{"bucket", "outcome"}, // outcome: admitted, unauthorized, rate_limited, forbidden
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCodeToString(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveBackendCall records one backend call.
func (m *Metrics) ObserveBackendCall(modality media.Modality, profile string, seconds float64, err error) {
	result := "success"
	if err != nil {
		result = media.ErrorKind(err)
	}
	m.BackendCallsTotal.WithLabelValues(string(modality), profile, result).Inc()
	m.BackendCallDuration.WithLabelValues(string(modality), profile).Observe(seconds)
}

// ObserveSceneCall counts a per-scene video call.
func (m *Metrics) ObserveSceneCall(profile string) {
	m.SceneCallsTotal.WithLabelValues(profile).Inc()
}

// RecordGeneration records the outcome of a synchronous request.
func (m *Metrics) RecordGeneration(modality, status string) {
	m.GenerationsTotal.WithLabelValues(modality, status).Inc()
}

// RecordJob records a job lifecycle event.
func (m *Metrics) RecordJob(event string) {
	m.JobsTotal.WithLabelValues(event).Inc()
}

// RecordFallback records a substituted output.
func (m *Metrics) RecordFallback(kind string) {
	m.FallbacksTotal.WithLabelValues(kind).Inc()
}

// SetQueueDepth sets the queue depth gauge.
func (m *Metrics) SetQueueDepth(depth int) {
	m.QueueDepth.Set(float64(depth))
}

// RecordAdmission records an admission decision.
func (m *Metrics) RecordAdmission(bucket, outcome string) {
	m.AdmissionsTotal.WithLabelValues(bucket, outcome).Inc()
}

var (
	_ media.Observer      = (*Metrics)(nil)
	_ generation.Recorder = (*Metrics)(nil)
)

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
