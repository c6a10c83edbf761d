package analysis

import (
	"math"

	"github.com/san-kum/markovsim/internal/markov"
)

// Stats accumulates per-pair transition counts and hop-time moments.
type Stats struct {
	n     int
	count []int
	sum   []float64
	sumSq []float64
}

func NewStats(numStates int) *Stats {
	return &Stats{
		n:     numStates,
		count: make([]int, numStates*numStates),
		sum:   make([]float64, numStates*numStates),
		sumSq: make([]float64, numStates*numStates),
	}
}

func (s *Stats) NumStates() int { return s.n }

// Add records one hop; dt is its duration, not an absolute time. Transitions
// referring to states outside the table are ignored.
func (s *Stats) Add(from, to markov.State, dt float64) {
	if int(from) >= s.n || int(to) >= s.n {
		return
	}
	idx := int(from)*s.n + int(to)
	s.count[idx]++
	s.sum[idx] += dt
	s.sumSq[idx] += dt * dt
}

// AddSteps records transitions returned by single Step calls.
func (s *Stats) AddSteps(steps []markov.Transition) {
	for _, tr := range steps {
		s.Add(tr.From, tr.To, tr.Time)
	}
}

// AddTrajectory records an accumulated trajectory, whose times are absolute.
func (s *Stats) AddTrajectory(traj []markov.Transition) {
	prev := 0.0
	for _, tr := range traj {
		s.Add(tr.From, tr.To, tr.Time-prev)
		prev = tr.Time
	}
}

func (s *Stats) Count(from, to int) int { return s.count[from*s.n+to] }

// Outgoing counts all hops leaving from.
func (s *Stats) Outgoing(from int) int {
	total := 0
	for j := 0; j < s.n; j++ {
		total += s.count[from*s.n+j]
	}
	return total
}

func (s *Stats) Total() int {
	total := 0
	for _, c := range s.count {
		total += c
	}
	return total
}

// MeanTime is NaN when the pair was never observed.
func (s *Stats) MeanTime(from, to int) float64 {
	idx := from*s.n + to
	if s.count[idx] == 0 {
		return math.NaN()
	}
	return s.sum[idx] / float64(s.count[idx])
}

func (s *Stats) StdTime(from, to int) float64 {
	idx := from*s.n + to
	c := float64(s.count[idx])
	if c == 0 {
		return math.NaN()
	}
	mean := s.sum[idx] / c
	return math.Sqrt(math.Max(s.sumSq[idx]/c-mean*mean, 0))
}

// Probability is the observed fraction of hops out of from that went to to.
func (s *Stats) Probability(from, to int) float64 {
	out := s.Outgoing(from)
	if out == 0 {
		return math.NaN()
	}
	return float64(s.Count(from, to)) / float64(out)
}

// Occupancy returns the fraction of total dwell time spent in each state,
// attributing each hop's duration to its source state.
func (s *Stats) Occupancy() []float64 {
	dwell := make([]float64, s.n)
	total := 0.0
	for i := 0; i < s.n; i++ {
		for j := 0; j < s.n; j++ {
			dwell[i] += s.sum[i*s.n+j]
		}
		total += dwell[i]
	}
	if total > 0 {
		for i := range dwell {
			dwell[i] /= total
		}
	}
	return dwell
}
