package metrics

import "github.com/san-kum/markovsim/internal/markov"

// MeanHoldingTime averages the time between consecutive transitions.
type MeanHoldingTime struct {
	name    string
	prev    markov.Time
	total   float64
	samples int
}

func NewMeanHoldingTime() *MeanHoldingTime {
	return &MeanHoldingTime{name: "mean_holding_time"}
}

func (m *MeanHoldingTime) Name() string { return m.name }

func (m *MeanHoldingTime) Observe(tr markov.Transition) {
	m.total += tr.Time - m.prev
	m.prev = tr.Time
	m.samples++
}

func (m *MeanHoldingTime) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanHoldingTime) Reset() {
	m.prev = 0
	m.total = 0
	m.samples = 0
}
