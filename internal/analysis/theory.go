package analysis

import (
	"math"

	"github.com/san-kum/markovsim/internal/arrays"
)

// ExitRate is the sum of the reachable off-diagonal rates out of state i.
func ExitRate(rates *arrays.Array2D, i int) float64 {
	total := 0.0
	for j, k := range rates.Row(i) {
		if j != i && k >= 0 {
			total += k
		}
	}
	return total
}

// ExpectedHoldingTimes returns 1/exit-rate per state; absorbing states hold
// forever.
func ExpectedHoldingTimes(rates *arrays.Array2D) []float64 {
	out := make([]float64, rates.Rows())
	for i := range out {
		if total := ExitRate(rates, i); total > 0 {
			out[i] = 1 / total
		} else {
			out[i] = math.Inf(1)
		}
	}
	return out
}

// BranchingProbabilities returns k_ij divided by the exit rate of i. Rows of
// absorbing states are all zero.
func BranchingProbabilities(rates *arrays.Array2D) *arrays.Array2D {
	n := rates.Rows()
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		total := ExitRate(rates, i)
		if total <= 0 {
			continue
		}
		for j, k := range rates.Row(i) {
			if j != i && k >= 0 {
				out[i*n+j] = k / total
			}
		}
	}
	return &arrays.Array2D{Data: out, Shape: [2]int{n, n}}
}
