package metrics

import "github.com/san-kum/markovsim/internal/markov"

type TransitionCount struct {
	name  string
	count int
}

func NewTransitionCount() *TransitionCount {
	return &TransitionCount{name: "transitions"}
}

func (c *TransitionCount) Name() string                 { return c.name }
func (c *TransitionCount) Observe(tr markov.Transition) { c.count++ }
func (c *TransitionCount) Value() float64               { return float64(c.count) }
func (c *TransitionCount) Reset()                       { c.count = 0 }

// Activity is the number of transitions per unit of simulated time, measured
// up to the last observed transition.
type Activity struct {
	name  string
	count int
	last  markov.Time
}

func NewActivity() *Activity {
	return &Activity{name: "activity"}
}

func (a *Activity) Name() string { return a.name }

func (a *Activity) Observe(tr markov.Transition) {
	a.count++
	a.last = tr.Time
}

func (a *Activity) Value() float64 {
	if a.last <= 0 {
		return 0
	}
	return float64(a.count) / a.last
}

func (a *Activity) Reset() {
	a.count = 0
	a.last = 0
}
