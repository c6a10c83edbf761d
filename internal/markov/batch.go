package markov

import (
	"context"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Observer is notified once per finished machine. It is called concurrently
// from the batch workers and must be safe for concurrent use. traj is only
// valid for the duration of the call.
type Observer func(index int, traj []Transition, err error, elapsed time.Duration)

type batchConfig struct {
	workers  int
	seed     uint64
	seeded   bool
	observer Observer
}

type BatchOption func(*batchConfig)

// WithWorkers fixes the size of the worker pool. Values below one select
// GOMAXPROCS.
func WithWorkers(n int) BatchOption {
	return func(c *batchConfig) { c.workers = n }
}

// WithSeed makes a batch reproducible: machine i always draws from a source
// seeded with (seed, i), whatever the number of workers.
func WithSeed(seed uint64) BatchOption {
	return func(c *batchConfig) {
		c.seed = seed
		c.seeded = true
	}
}

func WithObserver(fn Observer) BatchOption {
	return func(c *batchConfig) { c.observer = fn }
}

// RunBatch accumulates machines[i] under ctrl[i] on a fixed pool of workers and
// returns the trajectories in input order. Each trajectory is an owned copy.
//
// The first failure is returned as a *BatchError and no results are surfaced.
// Workers stop taking new machines once a failure or cancellation is seen;
// machines already accumulating run to completion.
func RunBatch[M Runner](ctx context.Context, machines []M, ctrl [][]float64, opts ...BatchOption) ([][]Transition, error) {
	if len(machines) != len(ctrl) {
		return nil, &CountMismatchError{Machines: len(machines), Params: len(ctrl)}
	}

	cfg := batchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := len(machines)
	out := make([][]Transition, n)
	if n == 0 {
		return out, nil
	}

	workers := cfg.workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			var rng *rand.Rand
			if !cfg.seeded {
				rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
			}

			for i := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}

				r := rng
				if cfg.seeded {
					r = rand.New(rand.NewPCG(cfg.seed, uint64(i)))
				}

				start := time.Now()
				traj, err := machines[i].Accumulate(ctrl[i], r)
				if cfg.observer != nil {
					cfg.observer(i, traj, err, time.Since(start))
				}
				if err != nil {
					return &BatchError{Index: i, Err: err}
				}

				out[i] = append(make([]Transition, 0, len(traj)), traj...)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
