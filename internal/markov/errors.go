package markov

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrValidation indicates inconsistent shapes, lengths or indices.
	ErrValidation = errors.New("markov: validation failed")

	// ErrSampling indicates an exponential variate could not be drawn.
	ErrSampling = errors.New("markov: exponential sampling failed")

	// ErrStopped indicates a step was requested from an absorbing state.
	ErrStopped = errors.New("markov: machine is stopped")
)

// ValidationError reports the offending dimension of a malformed input.
type ValidationError struct {
	Field    string
	Expected int
	Actual   int
	Wrapped  error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("markov: invalid %s: expected %d, got %d", e.Field, e.Expected, e.Actual)
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// CountMismatchError is returned by RunBatch when machines and parameter sets
// cannot be paired by index.
type CountMismatchError struct {
	Machines int
	Params   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("markov: %d machine(s) but %d control parameter set(s)", e.Machines, e.Params)
}

func (e *CountMismatchError) Is(target error) bool { return target == ErrValidation }

// SamplingError reports the rate that made the race of exponentials fail.
type SamplingError struct {
	From State
	To   State
	Rate float64
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("markov: cannot sample transition %d -> %d with rate %v", e.From, e.To, e.Rate)
}

func (e *SamplingError) Unwrap() error { return ErrSampling }

// StoppedError carries the absorbing state a machine is stuck in.
type StoppedError struct {
	State State
}

func (e *StoppedError) Error() string {
	return fmt.Sprintf("markov: machine is stopped in absorbing state %d", e.State)
}

func (e *StoppedError) Unwrap() error { return ErrStopped }

// BatchError wraps the first failure of a batch with the index of the machine
// that produced it.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("machine %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
