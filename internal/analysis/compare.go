package analysis

import (
	"math"

	"github.com/san-kum/markovsim/internal/arrays"
)

type Quantity string

const (
	HoldingTime Quantity = "holding_time"
	Branching   Quantity = "branching"
)

// Check is one comparison between an observed and a predicted value.
type Check struct {
	From      int
	To        int
	Quantity  Quantity
	Samples   int
	Expected  float64
	Observed  float64
	Tolerance float64
	Pass      bool
}

// Compare checks every pair of states against the rate matrix. Holding times
// use the exponential standard error mean/sqrt(n); branching probabilities use
// the binomial standard error sqrt(p(1-p)/n). Both are scaled by sigmas.
// Pairs that must never occur pass only with zero observations.
func Compare(stats *Stats, rates *arrays.Array2D, sigmas float64) []Check {
	n := stats.NumStates()
	holding := ExpectedHoldingTimes(rates)
	branching := BranchingProbabilities(rates)

	checks := make([]Check, 0, 2*n*n)
	for i := 0; i < n; i++ {
		out := stats.Outgoing(i)
		for j := 0; j < n; j++ {
			count := stats.Count(i, j)
			p := branching.At(i, j)

			if p == 0 {
				checks = append(checks, Check{
					From: i, To: j, Quantity: Branching, Samples: out,
					Observed: float64(count), Pass: count == 0,
				})
				continue
			}
			if out == 0 {
				continue
			}

			tol := sigmas * math.Sqrt(p*(1-p)/float64(out))
			obs := stats.Probability(i, j)
			checks = append(checks, Check{
				From: i, To: j, Quantity: Branching, Samples: out,
				Expected: p, Observed: obs, Tolerance: tol,
				Pass: math.Abs(obs-p) <= tol,
			})

			if count == 0 {
				continue
			}
			// In a race of exponentials the winning time does not depend on
			// the winner, so every pair out of i shares the holding time of i.
			mean := holding[i]
			tol = sigmas * mean / math.Sqrt(float64(count))
			obs = stats.MeanTime(i, j)
			checks = append(checks, Check{
				From: i, To: j, Quantity: HoldingTime, Samples: count,
				Expected: mean, Observed: obs, Tolerance: tol,
				Pass: math.Abs(obs-mean) <= tol,
			})
		}
	}
	return checks
}

// Failed filters the checks that did not pass.
func Failed(checks []Check) []Check {
	var out []Check
	for _, c := range checks {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}
