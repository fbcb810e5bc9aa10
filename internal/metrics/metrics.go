// Package metrics exports engine activity as Prometheus metrics.
//
// Recorder implements store.Observer so it can be attached to a store next
// to the journal.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/fastpath/internal/engine"
)

// Cycle outcome label values.
const (
	OutcomeConverged = "converged"
	OutcomeAdopted   = "adopted"
	OutcomeDiscarded = "discarded"
)

// Recorder holds the engine metrics.
type Recorder struct {
	Cycles       *prometheus.CounterVec
	Dropped      prometheus.Counter
	Dispatches   prometheus.Counter
	ReplayLength prometheus.Histogram
}

// NewRecorder creates the engine metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fastpath",
				Subsystem: "engine",
				Name:      "cycles_total",
				Help:      "Completed reconciliation cycles by outcome.",
			},
			[]string{"outcome"}, // converged, adopted, discarded
		),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fastpath",
			Subsystem: "engine",
			Name:      "dropped_total",
			Help:      "Queued authoritative operations dropped by the conservative policy.",
		}),
		Dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fastpath",
			Subsystem: "engine",
			Name:      "dispatches_total",
			Help:      "Authoritative operations handed to the collaborator.",
		}),
		ReplayLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fastpath",
			Subsystem: "engine",
			Name:      "replay_length",
			Help:      "Local operations replayed per reconciliation.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
	}
	if reg != nil {
		reg.MustRegister(r.Cycles, r.Dropped, r.Dispatches, r.ReplayLength)
	}
	return r
}

// ObserveDispatch implements store.Observer.
func (r *Recorder) ObserveDispatch(_ context.Context, _ engine.Dispatch) error {
	r.Dispatches.Inc()
	return nil
}

// ObserveCycle implements store.Observer.
func (r *Recorder) ObserveCycle(_ context.Context, c engine.Cycle) error {
	r.Cycles.WithLabelValues(Outcome(c)).Inc()
	r.Dropped.Add(float64(len(c.Dropped)))
	r.ReplayLength.Observe(float64(len(c.Replayed)))
	return nil
}

// Outcome classifies a cycle for the outcome label.
func Outcome(c engine.Cycle) string {
	switch {
	case !c.Diverged:
		return OutcomeConverged
	case c.Policy == engine.PolicyConservative:
		return OutcomeDiscarded
	default:
		return OutcomeAdopted
	}
}
