package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/markovsim/internal/markov"
)

// StateSeries samples the piecewise-constant state of an accumulated
// trajectory at n evenly spaced times over [0, cutoff]. initial is the state
// at time zero.
func StateSeries(traj []markov.Transition, initial markov.State, cutoff float64, n int) []float64 {
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	state := initial
	next := 0
	for k := range out {
		t := cutoff * float64(k) / float64(n-1)
		for next < len(traj) && traj[next].Time <= t {
			state = traj[next].To
			next++
		}
		out[k] = float64(state)
	}
	return out
}

// PlotTrajectory draws the state of one accumulation against simulated time.
func PlotTrajectory(traj []markov.Transition, initial markov.State, cutoff float64, width, height int, caption string) string {
	data := StateSeries(traj, initial, cutoff, width)
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(0),
		asciigraph.Caption(caption),
	)
}
