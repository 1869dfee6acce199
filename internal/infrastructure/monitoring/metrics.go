package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Event bus metrics
	EventsPublished    prometheus.Counter
	EventsRejected     prometheus.Counter
	Deliveries         prometheus.Counter
	SubscriberFailures prometheus.Counter
	Subscribers        prometheus.Gauge

	// Module metrics
	ModulesRegistered prometheus.Gauge
	Lifecycle         *prometheus.CounterVec
	LifecycleDuration *prometheus.HistogramVec

	// Sandbox metrics
	ContainmentViolations *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
}

// NewMetrics creates a metrics collector registered on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swa_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swa_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "swa_events_published_total",
			Help: "Total number of events published on the bus",
		}),
		EventsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "swa_events_rejected_total",
			Help: "Total number of events rejected as not serializable",
		}),
		Deliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "swa_event_deliveries_total",
			Help: "Total number of events delivered to matching subscribers",
		}),
		SubscriberFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "swa_subscriber_failures_total",
			Help: "Total number of subscriber callbacks that failed",
		}),
		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "swa_subscribers",
			Help: "Number of subscribers registered on the bus",
		}),

		ModulesRegistered: factory.NewGauge(prometheus.GaugeOpts{
			Name: "swa_modules_registered",
			Help: "Number of modules in the application registry",
		}),
		Lifecycle: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swa_module_lifecycle_total",
				Help: "Module lifecycle transitions by phase and outcome",
			},
			[]string{"phase", "outcome"},
		),
		LifecycleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swa_module_lifecycle_duration_seconds",
				Help:    "Duration of module lifecycle phases",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"phase"},
		),

		ContainmentViolations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swa_containment_violations_total",
				Help: "Capability calls rejected because the element is outside the module box",
			},
			[]string{"capability"},
		),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "swa_ws_connections",
			Help: "Number of active WebSocket connections",
		}),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPublish records a publish call and the number of matching deliveries
func (m *Metrics) RecordPublish(delivered, failed int) {
	if m == nil {
		return
	}
	m.EventsPublished.Inc()
	m.Deliveries.Add(float64(delivered))
	m.SubscriberFailures.Add(float64(failed))
}

// RecordRejected records an event dropped before delivery
func (m *Metrics) RecordRejected() {
	if m == nil {
		return
	}
	m.EventsRejected.Inc()
}

// SetSubscribers sets the subscriber gauge
func (m *Metrics) SetSubscribers(count int) {
	if m == nil {
		return
	}
	m.Subscribers.Set(float64(count))
}

// SetModules sets the registered modules gauge
func (m *Metrics) SetModules(count int) {
	if m == nil {
		return
	}
	m.ModulesRegistered.Set(float64(count))
}

// RecordLifecycle records a module lifecycle phase ("create", "start", "end")
func (m *Metrics) RecordLifecycle(phase string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.Lifecycle.WithLabelValues(phase, outcome).Inc()
	m.LifecycleDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordContainmentViolation records a rejected capability call
func (m *Metrics) RecordContainmentViolation(capability string) {
	if m == nil {
		return
	}
	m.ContainmentViolations.WithLabelValues(capability).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
