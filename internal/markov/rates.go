package markov

import (
	"github.com/san-kum/markovsim/internal/arrays"
)

// RateModel derives the effective rate matrix for a set of control parameters.
// Implementations are read-only once built and may be shared between steppers.
type RateModel interface {
	NumStates() int
	Rates(ctrl []float64) (*arrays.Array2D, error)
}

// ConstantRates ignores the control parameters.
type ConstantRates struct {
	matrix *arrays.Array2D
}

func NewConstantRates(matrix *arrays.Array2D) (*ConstantRates, error) {
	if err := validateMatrix(matrix); err != nil {
		return nil, err
	}
	return &ConstantRates{matrix: matrix}, nil
}

func (c *ConstantRates) NumStates() int { return c.matrix.Rows() }

// Rates returns the static matrix itself; callers must not modify it.
func (c *ConstantRates) Rates(ctrl []float64) (*arrays.Array2D, error) {
	return c.matrix, nil
}

// PolynomialRates expands the control parameters into powers 1..order and
// contracts them against a coefficient tensor of shape (params, order, N, N).
type PolynomialRates struct {
	coefficients *arrays.Array4D
}

func NewPolynomialRates(coefficients *arrays.Array4D) (*PolynomialRates, error) {
	if coefficients == nil {
		return nil, &ValidationError{Field: "rate coefficients", Expected: 4, Actual: 0}
	}
	shape := coefficients.Shape
	if shape[2] != shape[3] {
		return nil, &ValidationError{Field: "rate coefficient states", Expected: shape[2], Actual: shape[3]}
	}
	if shape[1] < 1 {
		return nil, &ValidationError{Field: "rate coefficient order", Expected: 1, Actual: shape[1]}
	}
	return &PolynomialRates{coefficients: coefficients}, nil
}

func (p *PolynomialRates) NumStates() int { return p.coefficients.Shape[2] }

// NumParams is the number of control parameters the tensor expects.
func (p *PolynomialRates) NumParams() int { return p.coefficients.Shape[0] }

// Order is the highest power of each control parameter, by definition the size
// of the tensor's second dimension.
func (p *PolynomialRates) Order() int { return p.coefficients.Shape[1] }

func (p *PolynomialRates) Rates(ctrl []float64) (*arrays.Array2D, error) {
	if len(ctrl) != p.NumParams() {
		return nil, &ValidationError{Field: "control parameter count", Expected: p.NumParams(), Actual: len(ctrl)}
	}

	rates, err := arrays.Tensordot(arrays.Power(ctrl, p.Order()), p.coefficients)
	if err != nil {
		return nil, &ValidationError{Field: "power matrix rows", Expected: p.NumParams(), Actual: len(ctrl), Wrapped: err}
	}
	return rates, nil
}

func validateMatrix(m *arrays.Array2D) error {
	if m == nil {
		return &ValidationError{Field: "rate matrix", Expected: 2, Actual: 0}
	}
	if !m.IsSquare() {
		return &ValidationError{Field: "rate matrix columns", Expected: m.Rows(), Actual: m.Cols()}
	}
	if m.Rows() == 0 {
		return &ValidationError{Field: "rate matrix states", Expected: 1, Actual: 0}
	}
	if len(m.Data) != m.Rows()*m.Cols() {
		return &ValidationError{
			Field:    "rate matrix elements",
			Expected: m.Rows() * m.Cols(),
			Actual:   len(m.Data),
			Wrapped:  arrays.ErrShape,
		}
	}
	return nil
}
