// Package markov provides the simulation kernel for continuous-time Markov
// chains.
//
// The package is built from small pieces that are composed into a [Machine]:
//
//   - [RateModel]: derives the effective rate matrix from control parameters
//   - [Stepper]: samples the next transition by a race of exponentials
//   - [Accumulator]: drives a stepper until a cumulative-time cutoff
//   - [RunBatch]: accumulates many independent machines on a worker pool
//
// # Example
//
//	rates, _ := arrays.FromRows([][]float64{{-1, 1}, {1, -1}})
//	stepper, _ := markov.NewStepper(0, rates, nil)
//	acc, _ := markov.NewCutoffAccumulator(markov.DefaultCutoff)
//	m := markov.NewMachine(stepper, acc)
//	traj, err := m.Accumulate(nil, rng)
//
// # Thread Safety
//
// Steppers, accumulators and machines are NOT thread-safe. RunBatch hands each
// machine to exactly one worker for the duration of its accumulation.
package markov
