package database

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts connection lifecycle, operations and polling.
// A nil *Metrics records nothing.
type Metrics struct {
	ConnectionsOpened prometheus.Counter
	ConnectionsClosed prometheus.Counter
	Operations        *prometheus.CounterVec
	PollAttempts      prometheus.Counter
	PollDuration      *prometheus.HistogramVec
}

// NewMetrics registers the dbprobe collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dbprobe",
			Name:      "connections_opened_total",
			Help:      "Connections opened by database handles.",
		}),
		ConnectionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dbprobe",
			Name:      "connections_closed_total",
			Help:      "Connections closed by database handles.",
		}),
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dbprobe",
			Name:      "operations_total",
			Help:      "Handle operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		PollAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dbprobe",
			Name:      "poll_attempts_total",
			Help:      "Queries issued while polling for a single record.",
		}),
		PollDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dbprobe",
			Name:      "poll_duration_seconds",
			Help:      "Time spent polling for a single record.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
	}
}

func (m *Metrics) connectionOpened() {
	if m != nil {
		m.ConnectionsOpened.Inc()
	}
}

func (m *Metrics) connectionClosed() {
	if m != nil {
		m.ConnectionsClosed.Inc()
	}
}

func (m *Metrics) operation(name string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Operations.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) pollAttempt() {
	if m != nil {
		m.PollAttempts.Inc()
	}
}

func (m *Metrics) pollFinished(outcome string, elapsed time.Duration) {
	if m != nil {
		m.PollDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	}
}
