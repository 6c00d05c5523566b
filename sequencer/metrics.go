package sequencer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	KindMintAndWrap = "mint_and_wrap"
	KindWrap        = "wrap"
)

// Metrics counts finished sequences by kind and outcome.
type Metrics struct {
	sequences *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sequences: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mintwrap_sequences_total",
				Help: "Finished mint and wrap sequences.",
			},
			[]string{"kind", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mintwrap_sequence_duration_seconds",
				Help:    "Time from start of a sequence until it finished.",
				Buckets: []float64{1, 3, 5, 10, 30, 60, 120, 300},
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.sequences, m.duration)
	return m
}

func (m *Metrics) observe(kind string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sequences.WithLabelValues(kind, Outcome(err)).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}
