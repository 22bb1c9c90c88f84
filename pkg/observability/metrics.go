package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "arbor"

// Metrics records engine activity on a private Prometheus registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	subscriptions   *prometheus.CounterVec
	unsubscriptions *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	refreshes       prometheus.Histogram
	anomalies       prometheus.Counter
	pending         prometheus.Gauge
	watching        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them, together with the Go
// runtime collectors, on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_total",
			Help:      "Handlers attached to observed instances.",
		}, []string{"kind"}),
		unsubscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unsubscriptions_total",
			Help:      "Handlers revoked from observed instances.",
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications forwarded to the consumer.",
		}, []string{"kind"}),
		refreshes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of narrow shadow node refreshes.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Invariant violations and teardown inconsistencies.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_removals",
			Help:      "Entries in the pending-removal registry.",
		}),
		watching: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deferred_watches",
			Help:      "Live deferred-value poll loops.",
		}),
	}
	m.registry.MustRegister(
		m.subscriptions,
		m.unsubscriptions,
		m.notifications,
		m.refreshes,
		m.anomalies,
		m.pending,
		m.watching,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the private registry, e.g. for tests or extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns engine hooks feeding the collectors.
func (m *Metrics) Hooks() domain.Hooks {
	if m == nil {
		return domain.Hooks{}
	}
	return domain.Hooks{
		OnSubscribe: func(_ context.Context, e *domain.SubscriptionEvent) {
			m.subscriptions.WithLabelValues(string(e.Kind)).Inc()
		},
		OnUnsubscribe: func(_ context.Context, e *domain.SubscriptionEvent) {
			m.unsubscriptions.WithLabelValues(string(e.Kind)).Inc()
		},
		OnNotify: func(_ context.Context, e *domain.NotifyEvent) {
			m.notifications.WithLabelValues(string(e.Kind)).Inc()
		},
		OnRefresh: func(_ context.Context, e *domain.RefreshEvent) {
			m.refreshes.Observe(e.Duration.Seconds())
		},
		OnAnomaly: func(context.Context, *domain.AnomalyEvent) {
			m.anomalies.Inc()
		},
		OnPending: func(_ context.Context, n int) {
			m.pending.Set(float64(n))
		},
		OnWatching: func(_ context.Context, n int) {
			m.watching.Set(float64(n))
		},
	}
}
