package metrics

import "github.com/san-kum/markovsim/internal/markov"

// Metric observes the transitions of one accumulated trajectory, whose times
// are absolute.
type Metric interface {
	Name() string
	Observe(tr markov.Transition)
	Value() float64
	Reset()
}

// Defaults returns a fresh set of the metrics reported for every machine.
func Defaults(state markov.State) []Metric {
	return []Metric{
		NewTransitionCount(),
		NewActivity(),
		NewMeanHoldingTime(),
		NewOccupancy(state),
	}
}

// Evaluate resets ms, feeds them traj and collects their values by name.
func Evaluate(ms []Metric, traj []markov.Transition) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for _, tr := range traj {
			m.Observe(tr)
		}
		out[m.Name()] = m.Value()
	}
	return out
}
