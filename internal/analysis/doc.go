// Package analysis compares simulated trajectories with what the rate matrix
// predicts.
//
// The package includes tools for checking a CTMC simulation statistically:
//
//   - [ExpectedHoldingTimes]: mean time spent in each state before leaving
//   - [BranchingProbabilities]: probability of each destination when leaving
//   - [Stats]: empirical counts and hop-time moments per (from, to) pair
//   - [Compare]: sigma-tolerance checks of Stats against the theory
//
// # Acceptance Checks
//
// With N steps collected from a constant-rate machine:
//
//	stats := analysis.NewStats(3)
//	stats.AddSteps(steps)
//	for _, c := range analysis.Compare(stats, rates, 4) {
//	    if !c.Pass {
//	        // simulation disagrees with the rate matrix
//	    }
//	}
package analysis
