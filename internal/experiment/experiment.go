package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/markovsim/internal/config"
	"github.com/san-kum/markovsim/internal/logging"
	"github.com/san-kum/markovsim/internal/markov"
	"github.com/san-kum/markovsim/internal/metrics"
	"github.com/san-kum/markovsim/internal/telemetry"
)

// Result holds one batch run. Trajectories and Metrics are index-aligned with
// the machines that produced them.
type Result struct {
	Trajectories [][]markov.Transition
	Metrics      []map[string]float64
	Elapsed      time.Duration
}

// Mean averages one metric over all machines.
func (r *Result) Mean(name string) float64 {
	if len(r.Metrics) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range r.Metrics {
		sum += m[name]
	}
	return sum / float64(len(r.Metrics))
}

type Experiment struct {
	cfg         *config.Config
	log         *slog.Logger
	recorder    *telemetry.Recorder
	registry    *Registry
	metricNames []string
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg, log: logging.NewNop()}
}

func (e *Experiment) WithLogger(log *slog.Logger) *Experiment {
	e.log = log
	return e
}

func (e *Experiment) WithRecorder(r *telemetry.Recorder) *Experiment {
	e.recorder = r
	return e
}

// Setup selects the metrics evaluated per machine. An empty list selects the
// registry defaults.
func (e *Experiment) Setup(reg *Registry, names ...string) error {
	if len(names) == 0 {
		names = reg.DefaultMetrics()
	}
	for _, name := range names {
		if _, err := reg.GetMetric(name, e.cfg.InitialState); err != nil {
			return err
		}
	}
	e.registry = reg
	e.metricNames = names
	return nil
}

// Machines builds cfg.Machines fresh machines.
func (e *Experiment) Machines() ([]*markov.Machine, error) {
	out := make([]*markov.Machine, e.cfg.Machines)
	for i := range out {
		m, err := e.cfg.NewMachine()
		if err != nil {
			return nil, fmt.Errorf("machine %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}

// Run accumulates every machine once and evaluates the selected metrics on
// each trajectory.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	machines, err := e.Machines()
	if err != nil {
		return nil, err
	}

	opts := []markov.BatchOption{
		markov.WithWorkers(e.cfg.Workers),
		markov.WithObserver(e.observe),
	}
	if e.cfg.Seed != 0 {
		opts = append(opts, markov.WithSeed(e.cfg.Seed))
	}

	e.log.Info("batch started",
		"name", e.cfg.Name,
		"machines", len(machines),
		"workers", e.cfg.Workers,
		"cutoff", e.cfg.Cutoff,
		"seed", e.cfg.Seed,
	)

	start := time.Now()
	trajs, err := markov.RunBatch(ctx, machines, e.cfg.BatchParams(), opts...)
	elapsed := time.Since(start)
	if err != nil {
		e.log.Error("batch failed", "error", err, "elapsed", elapsed)
		return nil, err
	}

	res := &Result{
		Trajectories: trajs,
		Metrics:      make([]map[string]float64, len(trajs)),
		Elapsed:      elapsed,
	}
	for i, traj := range trajs {
		ms, err := e.newMetrics()
		if err != nil {
			return nil, err
		}
		res.Metrics[i] = metrics.Evaluate(ms, traj)
	}

	e.log.Info("batch finished", "machines", len(trajs), "elapsed", elapsed)
	return res, nil
}

// newMetrics builds a fresh set of the metrics selected in Setup; none when
// Setup was not called.
func (e *Experiment) newMetrics() ([]metrics.Metric, error) {
	if e.registry == nil {
		return nil, nil
	}
	ms := make([]metrics.Metric, 0, len(e.metricNames))
	for _, name := range e.metricNames {
		m, err := e.registry.GetMetric(name, e.cfg.InitialState)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, nil
}

func (e *Experiment) observe(index int, traj []markov.Transition, err error, elapsed time.Duration) {
	if e.recorder != nil {
		e.recorder.Observe(index, traj, err, elapsed)
	}
	if err != nil {
		e.log.Warn("machine failed", "index", index, "error", err)
		return
	}
	e.log.Debug("machine finished", "index", index, "transitions", len(traj), "elapsed", elapsed)
}
