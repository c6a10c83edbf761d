package markov

import "math/rand/v2"

// Machine pairs a stepper with the accumulator that drives it.
type Machine struct {
	stepper     Stepper
	accumulator Accumulator
}

func NewMachine(stepper Stepper, accumulator Accumulator) *Machine {
	return &Machine{stepper: stepper, accumulator: accumulator}
}

func (m *Machine) CurrentState() State { return m.stepper.CurrentState() }
func (m *Machine) NumStates() int      { return m.stepper.NumStates() }
func (m *Machine) Stopped() bool       { return m.stepper.Stopped() }

func (m *Machine) Step(ctrl []float64, rng *rand.Rand) (Transition, error) {
	return m.stepper.Step(ctrl, rng)
}

// Accumulate returns a view that is valid until the next call on m.
func (m *Machine) Accumulate(ctrl []float64, rng *rand.Rand) ([]Transition, error) {
	return m.accumulator.Accumulate(m.stepper, ctrl, rng)
}

// Overshoot reports the transition dropped at the end of the last
// accumulation, when the accumulator tracks one.
func (m *Machine) Overshoot() (Transition, bool) {
	if o, ok := m.accumulator.(interface{ Overshoot() (Transition, bool) }); ok {
		return o.Overshoot()
	}
	return Transition{}, false
}
