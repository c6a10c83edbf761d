package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/markovsim/internal/markov"
	"github.com/san-kum/markovsim/internal/metrics"
)

// Registry maps metric names to constructors. Occupancy is measured for the
// state passed to GetMetric.
type Registry struct {
	metrics map[string]func(markov.State) metrics.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func(markov.State) metrics.Metric),
	}

	r.metrics["transitions"] = func(markov.State) metrics.Metric { return metrics.NewTransitionCount() }
	r.metrics["activity"] = func(markov.State) metrics.Metric { return metrics.NewActivity() }
	r.metrics["mean_holding_time"] = func(markov.State) metrics.Metric { return metrics.NewMeanHoldingTime() }
	r.metrics["occupancy"] = func(s markov.State) metrics.Metric { return metrics.NewOccupancy(s) }

	return r
}

// Register adds or replaces a metric constructor.
func (r *Registry) Register(name string, fn func(markov.State) metrics.Metric) {
	r.metrics[name] = fn
}

func (r *Registry) GetMetric(name string, state markov.State) (metrics.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(state), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []string {
	return []string{"transitions", "activity", "mean_holding_time", "occupancy"}
}
