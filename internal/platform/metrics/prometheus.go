// Package metrics exposes quote lifecycle counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/domain"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

const namespace = "quote"

// noStatus labels transitions into the first status of a quote.
const noStatus = "none"

// Lifecycle implements ports.LifecycleMetrics.
type Lifecycle struct {
	transitions   *prometheus.CounterVec
	collisions    prometheus.Counter
	sweepExpired  prometheus.Counter
	sweepDuration prometheus.Histogram
	notifications *prometheus.CounterVec
}

var _ ports.LifecycleMetrics = (*Lifecycle)(nil)

// NewLifecycle creates the collectors and registers them with reg.
func NewLifecycle(reg prometheus.Registerer) (*Lifecycle, error) {
	m := &Lifecycle{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Committed quote status transitions.",
		}, []string{"from", "to"}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_collisions_total",
			Help:      "Response tokens regenerated after a uniqueness collision.",
		}),
		sweepExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_expired_total",
			Help:      "Quotes expired by the sweep.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of one expiry sweep.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Lifecycle notifications by event type and outcome.",
		}, []string{"type", "result"}),
	}

	for _, c := range []prometheus.Collector{
		m.transitions, m.collisions, m.sweepExpired, m.sweepDuration, m.notifications,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// TransitionRecorded implements ports.LifecycleMetrics.
func (m *Lifecycle) TransitionRecorded(from, to domain.Status) {
	fromLabel := string(from)
	if fromLabel == "" {
		fromLabel = noStatus
	}

	m.transitions.WithLabelValues(fromLabel, string(to)).Inc()
}

// TokenCollision implements ports.LifecycleMetrics.
func (m *Lifecycle) TokenCollision() {
	m.collisions.Inc()
}

// SweepCompleted implements ports.LifecycleMetrics.
func (m *Lifecycle) SweepCompleted(expired int, duration time.Duration) {
	m.sweepExpired.Add(float64(expired))
	m.sweepDuration.Observe(duration.Seconds())
}

// NotificationPublished implements ports.LifecycleMetrics.
func (m *Lifecycle) NotificationPublished(eventType, result string) {
	m.notifications.WithLabelValues(eventType, result).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
