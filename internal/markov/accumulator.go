package markov

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// DefaultCutoff is the accumulation window used when none is configured.
const DefaultCutoff Time = 1.0

// CutoffAccumulator steps a machine until the cumulative transition time would
// exceed a cutoff.
type CutoffAccumulator struct {
	cutoff    Time
	buf       []Transition
	overshoot Transition
	overshot  bool
}

func NewCutoffAccumulator(cutoff Time) (*CutoffAccumulator, error) {
	if err := ValidateCutoff(cutoff); err != nil {
		return nil, err
	}
	return &CutoffAccumulator{cutoff: cutoff}, nil
}

func ValidateCutoff(cutoff Time) error {
	if math.IsNaN(cutoff) || math.IsInf(cutoff, 0) || cutoff <= 0 {
		return fmt.Errorf("%w: cutoff must be finite and positive, got %v", ErrValidation, cutoff)
	}
	return nil
}

func (a *CutoffAccumulator) Cutoff() Time { return a.cutoff }

// Accumulate returns the transitions whose absolute time, measured from the
// start of this call, does not exceed the cutoff. Transition.Time holds that
// absolute time.
//
// The transition that crosses the cutoff is dropped from the result, but the
// stepper has already moved: a following call resumes from the state after the
// crossing. Overshoot reports the dropped transition.
//
// The returned slice is reused by the next call. On error nothing is returned.
func (a *CutoffAccumulator) Accumulate(s Stepper, ctrl []float64, rng *rand.Rand) ([]Transition, error) {
	a.buf = a.buf[:0]
	a.overshot = false

	var elapsed Time
	for {
		tr, err := s.Step(ctrl, rng)
		if err != nil {
			a.buf = a.buf[:0]
			return nil, err
		}

		tr.Time += elapsed
		if tr.Time > a.cutoff {
			a.overshoot = tr
			a.overshot = true
			break
		}

		elapsed = tr.Time
		a.buf = append(a.buf, tr)
	}

	return a.buf, nil
}

// Overshoot returns the transition that ended the last successful
// accumulation. Its Time is absolute and greater than the cutoff.
func (a *CutoffAccumulator) Overshoot() (Transition, bool) {
	return a.overshoot, a.overshot
}
