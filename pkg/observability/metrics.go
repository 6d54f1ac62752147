package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/aretw0/callflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "callflow"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the Prometheus collectors of a call flow server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
	renders     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	destroyed   prometheus.Counter
	gatherer    prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg.
// If reg is also a Gatherer, Handler serves it; otherwise Handler serves the default registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Total number of state transitions",
			},
			[]string{"state", "outcome"},
		),
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renders_total",
				Help:      "Total number of state renders",
			},
			[]string{"state", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of webhook requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		destroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_destroyed_total",
			Help:      "Total number of sessions destroyed by status callbacks",
		}),
		gatherer: prometheus.DefaultGatherer,
	}

	for _, c := range []prometheus.Collector{m.transitions, m.renders, m.duration, m.destroyed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m, nil
}

// Hooks returns lifecycle hooks that feed the transition and render counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	if m == nil {
		return domain.LifecycleHooks{}
	}
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(e.State, outcome(e.Err)).Inc()
		},
		OnRender: func(_ context.Context, e *domain.RenderEvent) {
			m.renders.WithLabelValues(e.State, outcome(e.Err)).Inc()
		},
	}
}

// ObserveRequest records the duration of one webhook request of the given route kind.
func (m *Metrics) ObserveRequest(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
}

// SessionDestroyed counts a session removed at the end of a call.
func (m *Metrics) SessionDestroyed() {
	if m == nil {
		return
	}
	m.destroyed.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
