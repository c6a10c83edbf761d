package metrics

import (
	"fmt"

	"github.com/san-kum/markovsim/internal/markov"
)

// Occupancy is the fraction of time, up to the last transition, spent in one
// state.
type Occupancy struct {
	name  string
	state markov.State
	prev  markov.Time
	in    float64
}

func NewOccupancy(state markov.State) *Occupancy {
	return &Occupancy{
		name:  fmt.Sprintf("occupancy_%d", state),
		state: state,
	}
}

func (o *Occupancy) Name() string { return o.name }

func (o *Occupancy) Observe(tr markov.Transition) {
	if tr.From == o.state {
		o.in += tr.Time - o.prev
	}
	o.prev = tr.Time
}

func (o *Occupancy) Value() float64 {
	if o.prev <= 0 {
		return 0
	}
	return o.in / o.prev
}

func (o *Occupancy) Reset() {
	o.prev = 0
	o.in = 0
}
