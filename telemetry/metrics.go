package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lixenwraith/simon/core"
	"github.com/lixenwraith/simon/engine"
)

const namespace = "simon"

// Metrics records game activity as Prometheus series
// It subscribes to the engine and derives events by diffing consecutive snapshots
type Metrics struct {
	mu   sync.Mutex
	prev engine.Snapshot

	gamesStarted    *prometheus.CounterVec
	gamesOver       *prometheus.CounterVec
	roundsCompleted *prometheus.CounterVec
	signalsLit      *prometheus.CounterVec
	finalLevel      *prometheus.HistogramVec
	runDuration     *prometheus.HistogramVec
	bestScore       *prometheus.GaugeVec
	audioDegraded   prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates the collectors on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		gamesStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "games_started_total",
				Help:      "Total number of games started",
			},
			[]string{"difficulty"},
		),
		gamesOver: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "games_over_total",
				Help:      "Total number of games ended by a wrong answer",
			},
			[]string{"difficulty"},
		),
		roundsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rounds_completed_total",
				Help:      "Total number of rounds repeated correctly",
			},
			[]string{"difficulty"},
		),
		signalsLit: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_lit_total",
				Help:      "Total number of pad highlights, playback and presses",
			},
			[]string{"signal"},
		),
		finalLevel: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "final_level",
				Help:      "Sequence length reached when a game ends",
				Buckets:   prometheus.LinearBuckets(1, 2, 15),
			},
			[]string{"difficulty"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Play time of a game excluding pauses",
				Buckets:   prometheus.ExponentialBuckets(5, 2, 8),
			},
			[]string{"difficulty"},
		),
		bestScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "best_score",
				Help:      "Best recorded score",
			},
			[]string{"difficulty"},
		),
		audioDegraded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "audio_degraded",
				Help:      "1 when the sound player has failed",
			},
		),
	}

	registry.MustRegister(
		m.gamesStarted,
		m.gamesOver,
		m.roundsCompleted,
		m.signalsLit,
		m.finalLevel,
		m.runDuration,
		m.bestScore,
		m.audioDegraded,
	)

	return m
}

// Registry exposes the private registry for serving and tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// SetBest seeds the best score gauge from the store
func (m *Metrics) SetBest(d core.Difficulty, score int) {
	m.bestScore.WithLabelValues(d.Key()).Set(float64(score))
}

// OnSignalStart implements engine.Listener
func (m *Metrics) OnSignalStart(sig core.Signal) {
	m.signalsLit.WithLabelValues(sig.String()).Inc()
}

// OnSignalEnd implements engine.Listener
func (m *Metrics) OnSignalEnd() {}

// OnStateChange implements engine.StateListener
func (m *Metrics) OnStateChange(s engine.Snapshot) {
	m.mu.Lock()
	prev := m.prev
	m.prev = s
	m.mu.Unlock()

	diff := s.Difficulty.Key()

	if s.SessionID != "" && s.SessionID != prev.SessionID {
		m.gamesStarted.WithLabelValues(diff).Inc()
	}

	if s.Stage == engine.StageRoundComplete && (prev.Stage != engine.StageRoundComplete || prev.Level != s.Level) {
		m.roundsCompleted.WithLabelValues(diff).Inc()
	}

	if s.Phase == engine.PhaseGameOver && prev.Phase != engine.PhaseGameOver {
		m.gamesOver.WithLabelValues(diff).Inc()
		m.finalLevel.WithLabelValues(diff).Observe(float64(s.Level))
		m.runDuration.WithLabelValues(diff).Observe(s.Elapsed.Seconds())
	}

	// The record is written after game over is published, so it arrives as its own change
	if s.Phase == engine.PhaseGameOver && s.NewBest && !prev.NewBest {
		m.SetBest(s.Difficulty, s.Score)
	}

	if s.AudioDegraded {
		m.audioDegraded.Set(1)
	} else {
		m.audioDegraded.Set(0)
	}
}
