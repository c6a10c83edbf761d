package markov_test

import (
	"errors"
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/markovsim/internal/arrays"
	"github.com/san-kum/markovsim/internal/markov"
)

var _ = Describe("Stepper", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = newRNG()
	})

	Describe("construction", func() {
		It("starts in the initial state", func() {
			for s0 := markov.State(0); s0 < 3; s0++ {
				s, err := markov.NewStepper(s0, mustRows(threeState), nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.CurrentState()).To(Equal(s0))
				Expect(s.NumStates()).To(Equal(3))
				Expect(s.Stopped()).To(BeFalse())
			}
		})

		It("picks the variant from the presence of a tensor", func() {
			s, err := markov.NewStepper(0, mustRows(twoState), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(s).To(BeAssignableToTypeOf(&markov.ConstantRateStepper{}))

			s, err = markov.NewStepper(0, mustRows(twoState), mustTensor([]float64{-1, 1, 1, -1}, [4]int{1, 1, 2, 2}))
			Expect(err).NotTo(HaveOccurred())
			Expect(s).To(BeAssignableToTypeOf(&markov.ParametrizedRateStepper{}))
		})

		DescribeTable("rejects inconsistent inputs",
			func(initial markov.State, matrix func() *arrays.Array2D, tensor func() *arrays.Array4D) {
				var t *arrays.Array4D
				if tensor != nil {
					t = tensor()
				}
				_, err := markov.NewStepper(initial, matrix(), t)
				Expect(err).To(MatchError(markov.ErrValidation))
			},
			Entry("non-square matrix", markov.State(0),
				func() *arrays.Array2D { m, _ := arrays.New2D(make([]float64, 6), 2, 3); return m }, nil),
			Entry("empty matrix", markov.State(0),
				func() *arrays.Array2D { m, _ := arrays.New2D(nil, 0, 0); return m }, nil),
			Entry("initial state out of range", markov.State(2),
				func() *arrays.Array2D { return mustRows(twoState) }, nil),
			Entry("tensor dimension 3 differs", markov.State(0),
				func() *arrays.Array2D { return mustRows(twoState) },
				func() *arrays.Array4D { return mustTensor(make([]float64, 9), [4]int{1, 1, 3, 3}) }),
			Entry("tensor dimension 4 differs", markov.State(0),
				func() *arrays.Array2D { return mustRows(twoState) },
				func() *arrays.Array4D { return mustTensor(make([]float64, 6), [4]int{1, 1, 2, 3}) }),
		)
	})

	Describe("stepping", func() {
		It("never transitions to the same state", func() {
			s, err := markov.NewStepper(0, mustRows(threeState), nil)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 1000; i++ {
				prev := s.CurrentState()
				tr, err := s.Step(nil, rng)
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.From).To(Equal(prev))
				Expect(tr.To).NotTo(Equal(tr.From))
				Expect(tr.To).To(Equal(s.CurrentState()))
				Expect(tr.Time).To(BeNumerically(">", 0))
			}
		})

		It("ignores control parameters on a constant-rate stepper", func() {
			s, err := markov.NewConstantRateStepper(0, mustRows(twoState))
			Expect(err).NotTo(HaveOccurred())

			for _, ctrl := range [][]float64{nil, {}, {1, 2, 3}} {
				tr, err := s.Step(ctrl, rng)
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.To).NotTo(Equal(tr.From))
			}
		})

		It("leaves a non-negative diagonal out of the race", func() {
			s, err := markov.NewStepper(0, mustRows([][]float64{{0.5, 1}, {1, 0.5}}), nil)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 1000; i++ {
				tr, err := s.Step(nil, rng)
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.From).To(Equal(markov.State(i % 2)))
				Expect(tr.To).To(Equal(markov.State((i + 1) % 2)))
			}
			Expect(s.Stopped()).To(BeFalse())
		})

		It("treats a state whose only non-negative rate is the diagonal as absorbing", func() {
			s, err := markov.NewStepper(0, mustRows([][]float64{{-1, 1}, {-1, 0.5}}), nil)
			Expect(err).NotTo(HaveOccurred())

			tr, err := s.Step(nil, rng)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.To).To(Equal(markov.State(1)))
			Expect(s.Stopped()).To(BeTrue())

			s, err = markov.NewStepper(0, mustRows([][]float64{{2, -1}, {1, -1}}), nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Step(nil, rng)
			Expect(err).To(MatchError(markov.ErrStopped))
		})

		It("alternates strictly on a two-state machine with unit exponential times", func() {
			s, err := markov.NewStepper(0, mustRows(twoState), nil)
			Expect(err).NotTo(HaveOccurred())

			const n = 10000
			sum, sumSq := 0.0, 0.0
			for i := 0; i < n; i++ {
				tr, err := s.Step(nil, rng)
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.From).To(Equal(markov.State(i % 2)))
				Expect(tr.To).To(Equal(markov.State((i + 1) % 2)))
				sum += tr.Time
				sumSq += tr.Time * tr.Time
			}

			mean := sum / n
			std := math.Sqrt(sumSq/n - mean*mean)
			Expect(mean).To(BeNumerically("~", 1.0, 4*std/math.Sqrt(n)))
		})

		It("stops after landing in an absorbing state", func() {
			s, err := markov.NewStepper(0, mustRows(oneWay), nil)
			Expect(err).NotTo(HaveOccurred())

			tr, err := s.Step(nil, rng)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.To).To(Equal(markov.State(1)))
			Expect(s.Stopped()).To(BeTrue())

			for i := 0; i < 3; i++ {
				_, err = s.Step(nil, rng)
				Expect(err).To(MatchError(markov.ErrStopped))
				Expect(s.CurrentState()).To(Equal(markov.State(1)))
			}

			var stopped *markov.StoppedError
			Expect(errors.As(err, &stopped)).To(BeTrue())
			Expect(stopped.State).To(Equal(markov.State(1)))
		})

		It("refuses to step out of an absorbing initial state", func() {
			s, err := markov.NewStepper(1, mustRows(oneWay), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Stopped()).To(BeFalse())

			_, err = s.Step(nil, rng)
			Expect(err).To(MatchError(markov.ErrStopped))
			Expect(s.Stopped()).To(BeTrue())
			Expect(s.CurrentState()).To(Equal(markov.State(1)))
		})

		It("ignores a zero rate as long as another state is reachable", func() {
			s, err := markov.NewStepper(0, mustRows([][]float64{{-1, 0, 2}, {1, -1, 1}, {1, 1, -1}}), nil)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 200; i++ {
				prev := s.CurrentState()
				tr, err := s.Step(nil, rng)
				Expect(err).NotTo(HaveOccurred())
				if prev == 0 {
					Expect(tr.To).To(Equal(markov.State(2)))
				}
			}
		})

		DescribeTable("reports sampling failures",
			func(rows [][]float64) {
				s, err := markov.NewStepper(0, mustRows(rows), nil)
				Expect(err).NotTo(HaveOccurred())

				_, err = s.Step(nil, rng)
				Expect(err).To(MatchError(markov.ErrSampling))
				Expect(s.CurrentState()).To(Equal(markov.State(0)))
			},
			Entry("only zero rates", [][]float64{{-1, 0}, {1, -1}}),
			Entry("NaN rate", [][]float64{{-1, math.NaN()}, {1, -1}}),
			Entry("infinite rate", [][]float64{{-1, math.Inf(1)}, {1, -1}}),
		)
	})

	Describe("parametrized rates", func() {
		// rates = ctrl[0] * [[-1, 2], [3, -1]]
		coefficients := []float64{-1, 2, 3, -1}

		newStepper := func() markov.Stepper {
			s, err := markov.NewStepper(0, mustRows(twoState), mustTensor(coefficients, [4]int{1, 1, 2, 2}))
			Expect(err).NotTo(HaveOccurred())
			return s
		}

		It("scales transition times with the control parameter", func() {
			s := newStepper()

			const n = 4000
			slow, fast := 0.0, 0.0
			for i := 0; i < n; i++ {
				tr, err := s.Step([]float64{0.5}, rng)
				Expect(err).NotTo(HaveOccurred())
				if tr.From == 0 {
					slow += tr.Time
				}
				tr, err = s.Step([]float64{0.5}, rng)
				Expect(err).NotTo(HaveOccurred())
				if tr.From == 0 {
					slow += tr.Time
				}
			}
			for i := 0; i < n; i++ {
				tr, err := s.Step([]float64{4}, rng)
				Expect(err).NotTo(HaveOccurred())
				if tr.From == 0 {
					fast += tr.Time
				}
				tr, err = s.Step([]float64{4}, rng)
				Expect(err).NotTo(HaveOccurred())
				if tr.From == 0 {
					fast += tr.Time
				}
			}

			// Mean time out of state 0 is 1/(2c): 1 at c=0.5, 0.125 at c=4.
			Expect(slow / n).To(BeNumerically("~", 1.0, 0.1))
			Expect(fast / n).To(BeNumerically("~", 0.125, 0.0125))
		})

		It("exposes the effective rates", func() {
			s := newStepper().(*markov.ParametrizedRateStepper)
			rates, err := s.Rates([]float64{2})
			Expect(err).NotTo(HaveOccurred())
			Expect(rates.Data).To(Equal([]float64{-2, 4, 6, -2}))
			Expect(s.NumParams()).To(Equal(1))
		})

		It("fails validation on a wrong number of control parameters", func() {
			s := newStepper()
			_, err := s.Step([]float64{1, 2}, rng)
			Expect(err).To(MatchError(markov.ErrValidation))
			Expect(s.Stopped()).To(BeFalse())
		})

		It("stops when the parameters make the current state absorbing", func() {
			s := newStepper()
			_, err := s.Step([]float64{-1}, rng)
			Expect(err).To(MatchError(markov.ErrStopped))
			Expect(s.Stopped()).To(BeTrue())

			_, err = s.Step([]float64{1}, rng)
			Expect(err).To(MatchError(markov.ErrStopped))
		})
	})
})
