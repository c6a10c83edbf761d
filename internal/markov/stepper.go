package markov

import (
	"math"
	"math/rand/v2"

	"github.com/san-kum/markovsim/internal/arrays"
)

// NewStepper validates its inputs and returns a ConstantRateStepper when no
// coefficient tensor is given, or a ParametrizedRateStepper otherwise. The
// tensor, when present, overrides the static matrix for every step.
func NewStepper(initial State, matrix *arrays.Array2D, coefficients *arrays.Array4D) (Stepper, error) {
	if coefficients == nil {
		s, err := NewConstantRateStepper(initial, matrix)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := NewParametrizedRateStepper(initial, matrix, coefficients)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// race holds the only state a memoryless machine carries between steps.
type race struct {
	current State
	stopped bool
}

func newRace(initial State, numStates int) (race, error) {
	if int64(initial) >= int64(numStates) {
		return race{}, &ValidationError{Field: "initial state", Expected: numStates - 1, Actual: int(initial)}
	}
	return race{current: initial}, nil
}

func (r *race) CurrentState() State { return r.current }

func (r *race) Stopped() bool { return r.stopped }

// run draws one exponential variate per reachable column of the current row and
// moves to the column with the smallest one. Negative rates and the diagonal
// never compete.
func (r *race) run(rates *arrays.Array2D, rng *rand.Rand) (Transition, error) {
	from := r.current
	row := rates.Row(int(from))

	winner := -1
	best := math.Inf(1)
	competitors := 0
	for j, k := range row {
		if j == int(from) || k < 0 {
			continue
		}
		if math.IsNaN(k) || math.IsInf(k, 1) {
			return Transition{}, &SamplingError{From: from, To: State(j), Rate: k}
		}
		competitors++

		// A zero rate competes with an infinite variate and can never win.
		if k == 0 {
			continue
		}
		if v := rng.ExpFloat64() / k; v < best {
			best = v
			winner = j
		}
	}

	if competitors == 0 {
		r.stopped = true
		return Transition{}, &StoppedError{State: from}
	}
	if winner < 0 {
		return Transition{}, &SamplingError{From: from, To: from, Rate: 0}
	}

	r.current = State(winner)
	if absorbing(rates, winner) {
		r.stopped = true
	}

	return Transition{From: from, To: r.current, Time: best}, nil
}

// absorbing reports whether no other state can be reached from state i.
func absorbing(rates *arrays.Array2D, i int) bool {
	for j, k := range rates.Row(i) {
		if j != i && !(k < 0) {
			return false
		}
	}
	return true
}

// ConstantRateStepper steps with a rate matrix that does not depend on the
// control parameters.
type ConstantRateStepper struct {
	race
	model *ConstantRates
}

func NewConstantRateStepper(initial State, matrix *arrays.Array2D) (*ConstantRateStepper, error) {
	model, err := NewConstantRates(matrix)
	if err != nil {
		return nil, err
	}
	r, err := newRace(initial, model.NumStates())
	if err != nil {
		return nil, err
	}
	return &ConstantRateStepper{race: r, model: model}, nil
}

func (s *ConstantRateStepper) NumStates() int { return s.model.NumStates() }

// Step ignores ctrl.
func (s *ConstantRateStepper) Step(ctrl []float64, rng *rand.Rand) (Transition, error) {
	if s.stopped {
		return Transition{}, &StoppedError{State: s.current}
	}
	rates, err := s.model.Rates(ctrl)
	if err != nil {
		return Transition{}, err
	}
	return s.run(rates, rng)
}

// ParametrizedRateStepper recomputes its rate matrix from the control
// parameters on every step.
type ParametrizedRateStepper struct {
	race
	constants *arrays.Array2D
	model     *PolynomialRates
}

func NewParametrizedRateStepper(initial State, matrix *arrays.Array2D, coefficients *arrays.Array4D) (*ParametrizedRateStepper, error) {
	if err := validateMatrix(matrix); err != nil {
		return nil, err
	}
	model, err := NewPolynomialRates(coefficients)
	if err != nil {
		return nil, err
	}

	n := matrix.Rows()
	if got := coefficients.Shape[2]; got != n {
		return nil, &ValidationError{Field: "rate coefficient dimension 3", Expected: n, Actual: got}
	}
	if got := coefficients.Shape[3]; got != n {
		return nil, &ValidationError{Field: "rate coefficient dimension 4", Expected: n, Actual: got}
	}

	r, err := newRace(initial, n)
	if err != nil {
		return nil, err
	}
	return &ParametrizedRateStepper{race: r, constants: matrix, model: model}, nil
}

func (s *ParametrizedRateStepper) NumStates() int { return s.constants.Rows() }

// NumParams is the number of control parameters Step expects.
func (s *ParametrizedRateStepper) NumParams() int { return s.model.NumParams() }

// Rates exposes the effective rate matrix for ctrl without stepping.
func (s *ParametrizedRateStepper) Rates(ctrl []float64) (*arrays.Array2D, error) {
	return s.model.Rates(ctrl)
}

func (s *ParametrizedRateStepper) Step(ctrl []float64, rng *rand.Rand) (Transition, error) {
	if s.stopped {
		return Transition{}, &StoppedError{State: s.current}
	}
	rates, err := s.model.Rates(ctrl)
	if err != nil {
		return Transition{}, err
	}
	return s.run(rates, rng)
}
