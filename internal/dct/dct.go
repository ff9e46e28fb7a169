package dct

import (
	"errors"
	"math"
)

// Size is the side length of a transform block
const Size = 8

// BlockLen is the number of samples in one 8x8 block
const BlockLen = Size * Size

const (
	invSqrtTwo = 1 / math.Sqrt2
	invSixteen = 1.0 / 16.0
	quarter    = 0.25
)

var (
	// ErrUninitializedTable indicates a transform was requested before the cosine table was built
	ErrUninitializedTable = errors.New("cosine table not initialized")
)

// Table holds the cosine basis shared by the forward and inverse transforms.
// cos[x][u] = cos(pi*(2x+1)*u/16) for x,u in [0,7]
//
// A zero Table is not usable; call Init (or use NewTable) first. Once built
// the table is read-only and may be shared between goroutines. Rebuilding a
// table while another goroutine transforms with it is not supported.
type Table struct {
	cos   [Size][Size]float64
	ready bool
}

// NewTable returns a built cosine table
func NewTable() *Table {
	t := &Table{}
	t.Init()
	return t
}

// Init (re)computes the cosine basis, overwriting any previous contents
func (t *Table) Init() {
	for j := 0; j < Size; j++ {
		for i := 0; i < Size; i++ {
			t.cos[i][j] = math.Cos(math.Pi * float64(2*i+1) * float64(j) * invSixteen)
		}
	}
	t.ready = true
}

// Ready reports whether Init has run
func (t *Table) Ready() bool {
	return t != nil && t.ready
}

// At returns the basis value cos(pi*(2x+1)*u/16)
func (t *Table) At(x, u int) float64 {
	return t.cos[x][u]
}

// Forward performs a 2D DCT on an 8x8 block.
// C(u,v) = 1/4 * s(u) * s(v) * sum(y) sum(x) src(x,y) * cos[x][u] * cos[y][v]
// where s(0) = 1/sqrt(2) and s(k) = 1 otherwise.
// src and dst are 64-element arrays in row-major order; dst is written
// with v (vertical frequency) as the outer index.
func (t *Table) Forward(src, dst *[BlockLen]float64) error {
	if !t.Ready() {
		return ErrUninitializedTable
	}

	for v := 0; v < Size; v++ {
		for u := 0; u < Size; u++ {
			sum := 0.0
			for y := 0; y < Size; y++ {
				for x := 0; x < Size; x++ {
					sum += src[y*Size+x] * t.cos[x][u] * t.cos[y][v]
				}
			}

			if u == 0 {
				sum *= invSqrtTwo
			}
			if v == 0 {
				sum *= invSqrtTwo
			}

			dst[v*Size+u] = sum * quarter
		}
	}
	return nil
}

// Inverse performs a 2D inverse DCT on an 8x8 block of coefficients laid
// out as produced by Forward. The s(u)*s(v) scaling is applied to every
// term before it is accumulated, which fixes the summation order and
// therefore the exact floating point result.
func (t *Table) Inverse(src, dst *[BlockLen]float64) error {
	if !t.Ready() {
		return ErrUninitializedTable
	}

	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			sum := 0.0
			for v := 0; v < Size; v++ {
				for u := 0; u < Size; u++ {
					tmp := src[v*Size+u] * t.cos[x][u] * t.cos[y][v]
					if u == 0 {
						tmp *= invSqrtTwo
					}
					if v == 0 {
						tmp *= invSqrtTwo
					}
					sum += tmp
				}
			}

			dst[y*Size+x] = sum * quarter
		}
	}
	return nil
}
