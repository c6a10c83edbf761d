// Package arrays provides the fixed-shape dense arrays used to describe rate
// matrices and rate-coefficient tensors.
//
// Data is stored row-major in a flat slice next to an explicit shape, so arrays
// can be handed across package boundaries without nested slices:
//
//   - [Array2D]: I x J matrix (rate matrices, power matrices)
//   - [Array4D]: I x J x K x L tensor (rate coefficients)
//   - [Power]: raises control parameters to integer powers
//   - [Tensordot]: contracts a power matrix against a coefficient tensor
package arrays

import (
	"errors"
	"fmt"
	"math"
)

// ErrShape indicates that data and shape disagree, or that two operands have
// incompatible dimensions.
var ErrShape = errors.New("arrays: shape mismatch")

// ShapeError carries the offending shapes of a failed construction or operation.
type ShapeError struct {
	Op       string
	Expected []int
	Actual   []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("arrays: %s: expected %v, got %v", e.Op, e.Expected, e.Actual)
}

func (e *ShapeError) Unwrap() error {
	return ErrShape
}

type Array2D struct {
	Data  []float64
	Shape [2]int
}

// New2D wraps data as a rows x cols array. The slice is not copied.
func New2D(data []float64, rows, cols int) (*Array2D, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, &ShapeError{Op: "new 2d", Expected: []int{rows * cols}, Actual: []int{len(data)}}
	}
	return &Array2D{Data: data, Shape: [2]int{rows, cols}}, nil
}

// FromRows copies a slice of equally long rows into a new array.
func FromRows(rows [][]float64) (*Array2D, error) {
	if len(rows) == 0 {
		return &Array2D{Data: []float64{}}, nil
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, &ShapeError{Op: fmt.Sprintf("row %d", i), Expected: []int{cols}, Actual: []int{len(r)}}
		}
		data = append(data, r...)
	}
	return &Array2D{Data: data, Shape: [2]int{len(rows), cols}}, nil
}

func (a *Array2D) Rows() int { return a.Shape[0] }
func (a *Array2D) Cols() int { return a.Shape[1] }

func (a *Array2D) IsSquare() bool { return a.Shape[0] == a.Shape[1] }

func (a *Array2D) At(i, j int) float64 {
	return a.Data[i*a.Shape[1]+j]
}

// Row returns a view of row i. Writes through the view modify the array.
func (a *Array2D) Row(i int) []float64 {
	cols := a.Shape[1]
	return a.Data[i*cols : (i+1)*cols]
}

// ToRows copies the array into nested slices.
func (a *Array2D) ToRows() [][]float64 {
	out := make([][]float64, a.Shape[0])
	for i := range out {
		out[i] = append([]float64(nil), a.Row(i)...)
	}
	return out
}

func (a *Array2D) Clone() *Array2D {
	data := make([]float64, len(a.Data))
	copy(data, a.Data)
	return &Array2D{Data: data, Shape: a.Shape}
}

type Array4D struct {
	Data  []float64
	Shape [4]int
}

// New4D wraps data as a tensor of the given shape. The slice is not copied.
func New4D(data []float64, shape [4]int) (*Array4D, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, &ShapeError{Op: "new 4d", Expected: []int{0}, Actual: shape[:]}
		}
		n *= d
	}
	if len(data) != n {
		return nil, &ShapeError{Op: "new 4d", Expected: []int{n}, Actual: []int{len(data)}}
	}
	return &Array4D{Data: data, Shape: shape}, nil
}

func (t *Array4D) At(i, j, k, l int) float64 {
	_, d1, d2, d3 := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	return t.Data[((i*d1+j)*d2+k)*d3+l]
}

// Power raises every parameter to the integer powers 1..order. Entry (i, j) of
// the result is params[i]^(j+1).
func Power(params []float64, order int) *Array2D {
	if order < 0 {
		order = 0
	}
	data := make([]float64, 0, len(params)*order)
	for _, p := range params {
		for j := 1; j <= order; j++ {
			data = append(data, math.Pow(p, float64(j)))
		}
	}
	return &Array2D{Data: data, Shape: [2]int{len(params), order}}
}

// Tensordot computes the Einstein summation "ijkl,ij->kl" of an I x J matrix and
// an I x J x K x L tensor.
func Tensordot(p *Array2D, t *Array4D) (*Array2D, error) {
	ni, nj := p.Shape[0], p.Shape[1]
	if t.Shape[0] != ni || t.Shape[1] != nj {
		return nil, &ShapeError{
			Op:       "tensordot",
			Expected: []int{t.Shape[0], t.Shape[1]},
			Actual:   []int{ni, nj},
		}
	}

	nk, nl := t.Shape[2], t.Shape[3]
	plane := nk * nl
	out := make([]float64, plane)

	// Each (i, j) pair scales one contiguous K x L plane of the tensor.
	for i := 0; i < ni; i++ {
		for j := 0; j < nj; j++ {
			w := p.Data[i*nj+j]
			base := (i*nj + j) * plane
			for kl := 0; kl < plane; kl++ {
				out[kl] += w * t.Data[base+kl]
			}
		}
	}

	return &Array2D{Data: out, Shape: [2]int{nk, nl}}, nil
}
