package markov_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/markovsim/internal/arrays"
	"github.com/san-kum/markovsim/internal/markov"
)

var _ = Describe("Rate models", func() {
	regression := []float64{
		0, 0, 2, 0, 0, 2, 0.5, 0, 0, 1, 1, 0,
		0, 1, 4, 0, 0, 2, 0.5, 0, 0, 2, 2, 0,
	}

	It("returns the static matrix unchanged", func() {
		m := mustRows(twoState)
		model, err := markov.NewConstantRates(m)
		Expect(err).NotTo(HaveOccurred())

		rates, err := model.Rates([]float64{42})
		Expect(err).NotTo(HaveOccurred())
		Expect(rates.Data).To(Equal(m.Data))
		Expect(model.NumStates()).To(Equal(2))
	})

	It("contracts powers of the control parameters against the tensor", func() {
		model, err := markov.NewPolynomialRates(mustTensor(regression, [4]int{2, 3, 2, 2}))
		Expect(err).NotTo(HaveOccurred())
		Expect(model.Order()).To(Equal(3))
		Expect(model.NumParams()).To(Equal(2))

		rates, err := model.Rates([]float64{2, 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(rates.Shape).To(Equal([2]int{2, 2}))
		Expect(rates.Data).To(Equal([]float64{0, 91, 84.5, 0}))
	})

	It("rejects a control vector of the wrong length", func() {
		model, err := markov.NewPolynomialRates(mustTensor(regression, [4]int{2, 3, 2, 2}))
		Expect(err).NotTo(HaveOccurred())

		_, err = model.Rates([]float64{2})
		Expect(err).To(MatchError(markov.ErrValidation))

		var verr *markov.ValidationError
		Expect(err).To(BeAssignableToTypeOf(verr))
	})

	It("rejects a tensor whose state planes are not square", func() {
		_, err := markov.NewPolynomialRates(mustTensor(make([]float64, 6), [4]int{1, 1, 2, 3}))
		Expect(err).To(MatchError(markov.ErrValidation))
	})

	It("rejects an empty polynomial order", func() {
		_, err := markov.NewPolynomialRates(mustTensor(nil, [4]int{1, 0, 2, 2}))
		Expect(err).To(MatchError(markov.ErrValidation))
	})

	It("rejects a non-square static matrix", func() {
		m, err := arrays.New2D([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
		Expect(err).NotTo(HaveOccurred())

		_, err = markov.NewConstantRates(m)
		Expect(err).To(MatchError(markov.ErrValidation))
	})
})
