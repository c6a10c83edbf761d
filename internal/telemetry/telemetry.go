// Package telemetry exports batch execution metrics in the Prometheus format.
package telemetry

import (
	"errors"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/san-kum/markovsim/internal/markov"
)

// Recorder owns its own registry so that several recorders can coexist in
// one process (tests, repeated CLI runs).
type Recorder struct {
	registry    *prometheus.Registry
	machines    *prometheus.CounterVec
	transitions prometheus.Counter
	duration    prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		machines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markovsim_machines_total",
				Help: "Accumulations finished, by outcome",
			},
			[]string{"outcome"},
		),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "markovsim_transitions_total",
			Help: "Transitions returned by successful accumulations",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "markovsim_accumulate_seconds",
			Help:    "Wall-clock time of one accumulation",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
	r.registry.MustRegister(r.machines, r.transitions, r.duration)
	return r
}

// Outcome classifies an accumulation result for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, markov.ErrStopped):
		return "stopped"
	case errors.Is(err, markov.ErrSampling):
		return "sampling_error"
	case errors.Is(err, markov.ErrValidation):
		return "validation_error"
	default:
		return "error"
	}
}

// Observe has the markov.Observer signature and is safe for concurrent use.
func (r *Recorder) Observe(index int, traj []markov.Transition, err error, elapsed time.Duration) {
	r.machines.WithLabelValues(Outcome(err)).Inc()
	r.duration.Observe(elapsed.Seconds())
	if err == nil {
		r.transitions.Add(float64(len(traj)))
	}
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteText dumps every metric in the text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
