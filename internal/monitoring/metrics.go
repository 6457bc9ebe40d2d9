package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the drive-thru collectors on a private registry. It
// satisfies the observer interfaces of the conversation, recovery and menu
// packages.
type Metrics struct {
	registry    *prometheus.Registry
	turns       *prometheus.CounterVec
	errors      *prometheus.CounterVec
	escalations *prometheus.CounterVec
	searches    *prometheus.CounterVec
	classifier  prometheus.Histogram
	orderValue  prometheus.Histogram
}

// NewMetrics creates and registers the collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivethru_turns_total",
				Help: "Conversation turns by resulting state",
			},
			[]string{"state"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivethru_errors_total",
				Help: "Recovery events by error kind",
			},
			[]string{"kind"},
		),
		escalations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivethru_escalations_total",
				Help: "Error kinds that reached the escalation threshold",
			},
			[]string{"kind"},
		),
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivethru_search_total",
				Help: "Menu searches by answering tier",
			},
			[]string{"tier"},
		),
		classifier: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drivethru_classifier_seconds",
			Help:    "Intent classification latency",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		orderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drivethru_order_value_dollars",
			Help:    "Order total when the customer reaches payment",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}),
	}

	registry.MustRegister(m.turns, m.errors, m.escalations, m.searches, m.classifier, m.orderValue)
	return m
}

// ObserveTurn implements conversation.Observer
func (m *Metrics) ObserveTurn(state string) {
	m.turns.WithLabelValues(state).Inc()
}

// ObserveClassifier implements conversation.Observer
func (m *Metrics) ObserveClassifier(d time.Duration) {
	m.classifier.Observe(d.Seconds())
}

// ObserveOrderValue implements conversation.Observer
func (m *Metrics) ObserveOrderValue(total float64) {
	m.orderValue.Observe(total)
}

// ObserveError implements recovery.Observer
func (m *Metrics) ObserveError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

// ObserveEscalation implements recovery.Observer
func (m *Metrics) ObserveEscalation(kind string) {
	m.escalations.WithLabelValues(kind).Inc()
}

// ObserveSearch implements menu.SearchObserver
func (m *Metrics) ObserveSearch(tier string) {
	m.searches.WithLabelValues(tier).Inc()
}

// Registry returns the registry holding every collector
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
