package markov_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/markovsim/internal/markov"
)

// indexRunner returns a one-transition trajectory that identifies both the
// machine and the parameters it was given.
type indexRunner struct {
	id    int
	err   error
	calls *atomic.Int32
}

func (r *indexRunner) CurrentState() markov.State { return markov.State(r.id) }

func (r *indexRunner) Step(ctrl []float64, rng *rand.Rand) (markov.Transition, error) {
	return markov.Transition{}, nil
}

func (r *indexRunner) Accumulate(ctrl []float64, rng *rand.Rand) ([]markov.Transition, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return []markov.Transition{{From: markov.State(r.id), To: markov.State(ctrl[0]), Time: ctrl[0]}}, nil
}

var _ = Describe("RunBatch", func() {
	var calls *atomic.Int32

	BeforeEach(func() {
		calls = &atomic.Int32{}
	})

	runners := func(n int) []*indexRunner {
		out := make([]*indexRunner, n)
		for i := range out {
			out[i] = &indexRunner{id: i, calls: calls}
		}
		return out
	}

	params := func(n int) [][]float64 {
		out := make([][]float64, n)
		for i := range out {
			out[i] = []float64{float64(100 + i)}
		}
		return out
	}

	It("fails on a count mismatch without running anything", func() {
		_, err := markov.RunBatch(context.Background(), runners(3), params(2))
		Expect(err).To(MatchError(markov.ErrValidation))

		var mismatch *markov.CountMismatchError
		Expect(errors.As(err, &mismatch)).To(BeTrue())
		Expect(mismatch.Machines).To(Equal(3))
		Expect(mismatch.Params).To(Equal(2))
		Expect(err.Error()).To(ContainSubstring("3 machine(s)"))
		Expect(err.Error()).To(ContainSubstring("2 control parameter set(s)"))
		Expect(calls.Load()).To(BeZero())
	})

	It("returns an empty result for an empty batch", func() {
		out, err := markov.RunBatch(context.Background(), []*markov.Machine{}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})

	DescribeTable("keeps results aligned with their inputs",
		func(workers int) {
			const n = 64
			out, err := markov.RunBatch(context.Background(), runners(n), params(n), markov.WithWorkers(workers))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(n))
			for i, traj := range out {
				Expect(traj).To(HaveLen(1))
				Expect(traj[0].From).To(Equal(markov.State(i)))
				Expect(traj[0].To).To(Equal(markov.State(100 + i)))
			}
			Expect(calls.Load()).To(BeEquivalentTo(n))
		},
		Entry("single worker", 1),
		Entry("a few workers", 3),
		Entry("default pool", 0),
		Entry("more workers than machines", 256),
	)

	It("fails fast and surfaces the failing index", func() {
		rs := runners(8)
		boom := errors.New("boom")
		rs[5].err = boom

		out, err := markov.RunBatch(context.Background(), rs, params(8), markov.WithWorkers(1))
		Expect(out).To(BeNil())
		Expect(err).To(MatchError(boom))

		var batchErr *markov.BatchError
		Expect(errors.As(err, &batchErr)).To(BeTrue())
		Expect(batchErr.Index).To(Equal(5))

		// With one worker nothing after the failure is started.
		Expect(calls.Load()).To(BeEquivalentTo(6))
	})

	It("propagates stepper errors from real machines", func() {
		machines := make([]*markov.Machine, 4)
		for i := range machines {
			rows := twoState
			cutoff := 1.0
			if i == 2 {
				rows, cutoff = oneWay, 1e6
			}
			s, err := markov.NewStepper(0, mustRows(rows), nil)
			Expect(err).NotTo(HaveOccurred())
			acc, err := markov.NewCutoffAccumulator(cutoff)
			Expect(err).NotTo(HaveOccurred())
			machines[i] = markov.NewMachine(s, acc)
		}

		_, err := markov.RunBatch(context.Background(), machines, make([][]float64, 4))
		Expect(err).To(MatchError(markov.ErrStopped))
	})

	It("does not start work on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := markov.RunBatch(ctx, runners(4), params(4))
		Expect(err).To(MatchError(context.Canceled))
		Expect(calls.Load()).To(BeZero())
	})

	It("notifies the observer once per machine", func() {
		var seen, mismatched atomic.Int32
		observer := func(index int, traj []markov.Transition, err error, elapsed time.Duration) {
			seen.Add(1)
			if err != nil || traj[0].From != markov.State(index) || elapsed < 0 {
				mismatched.Add(1)
			}
		}

		_, err := markov.RunBatch(context.Background(), runners(10), params(10), markov.WithObserver(observer))
		Expect(err).NotTo(HaveOccurred())
		Expect(seen.Load()).To(BeEquivalentTo(10))
		Expect(mismatched.Load()).To(BeZero())
	})

	It("is reproducible with a seed regardless of the pool size", func() {
		build := func() []*markov.Machine {
			machines := make([]*markov.Machine, 16)
			for i := range machines {
				s, err := markov.NewStepper(markov.State(i%3), mustRows(threeState), nil)
				Expect(err).NotTo(HaveOccurred())
				acc, err := markov.NewCutoffAccumulator(3)
				Expect(err).NotTo(HaveOccurred())
				machines[i] = markov.NewMachine(s, acc)
			}
			return machines
		}

		a, err := markov.RunBatch(context.Background(), build(), make([][]float64, 16), markov.WithSeed(7), markov.WithWorkers(1))
		Expect(err).NotTo(HaveOccurred())
		b, err := markov.RunBatch(context.Background(), build(), make([][]float64, 16), markov.WithSeed(7), markov.WithWorkers(5))
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))

		for i, traj := range a {
			if len(traj) > 0 {
				Expect(traj[0].From).To(Equal(markov.State(i % 3)))
			}
		}
	})

	It("returns owned copies of each trajectory", func() {
		s, err := markov.NewStepper(0, mustRows(twoState), nil)
		Expect(err).NotTo(HaveOccurred())
		acc, err := markov.NewCutoffAccumulator(30)
		Expect(err).NotTo(HaveOccurred())
		m := markov.NewMachine(s, acc)

		out, err := markov.RunBatch(context.Background(), []*markov.Machine{m}, [][]float64{nil})
		Expect(err).NotTo(HaveOccurred())
		before := append([]markov.Transition(nil), out[0]...)

		_, err = m.Accumulate(nil, newRNG())
		Expect(err).NotTo(HaveOccurred())
		Expect(out[0]).To(Equal(before))
	})
})
