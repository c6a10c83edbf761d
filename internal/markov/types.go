package markov

import "math/rand/v2"

// State indexes the finite state space of a machine.
type State = uint32

// Time is simulated, not wall-clock, duration.
type Time = float64

// Transition is one state change. For a single step Time is the duration of
// the hop; inside an accumulated trajectory it is the absolute time since the
// start of the accumulation.
type Transition struct {
	From State `json:"from"`
	To   State `json:"to"`
	Time Time  `json:"time"`
}

// Stepper is a memoryless machine that can advance one transition at a time.
type Stepper interface {
	CurrentState() State
	NumStates() int
	Stopped() bool
	Step(ctrl []float64, rng *rand.Rand) (Transition, error)
}

// Accumulator drives a stepper until a stop condition is reached.
//
// The returned slice aliases internal storage and is only valid until the next
// call to Accumulate.
type Accumulator interface {
	Accumulate(s Stepper, ctrl []float64, rng *rand.Rand) ([]Transition, error)
}

// Runner is anything RunBatch can drive.
type Runner interface {
	CurrentState() State
	Step(ctrl []float64, rng *rand.Rand) (Transition, error)
	Accumulate(ctrl []float64, rng *rand.Rand) ([]Transition, error)
}
