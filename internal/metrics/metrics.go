package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Operations    *prometheus.CounterVec
	GamesFinished *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	ActiveLobbies prometheus.Gauge
}

// New регистрирует метрики в reg. nil - дефолтный регистратор (его отдает /metrics)
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clue_operations_total",
			Help: "Lobby operations by name and result.",
		}, []string{"op", "result"}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clue_games_finished_total",
			Help: "Finished games by reason.",
		}, []string{"reason"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clue_operation_duration_seconds",
			Help:    "Time spent applying a lobby operation.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"op"}),
		ActiveLobbies: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clue_active_lobbies",
			Help: "Lobbies currently held in memory.",
		}),
	}
	reg.MustRegister(m.Operations, m.GamesFinished, m.Duration, m.ActiveLobbies)
	return m
}

// Observe записывает результат и длительность одной операции
func (m *Metrics) Observe(op, result string, started time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, result).Inc()
	m.Duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) GameFinished(reason string) {
	if m == nil {
		return
	}
	m.GamesFinished.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetActiveLobbies(n int) {
	if m == nil {
		return
	}
	m.ActiveLobbies.Set(float64(n))
}
