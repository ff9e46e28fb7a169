// Package icoder is an 8x8 block DCT image coder.
//
// The transform layer is a TransformContext holding the shared cosine
// basis, the fixed-size ForwardDCT8x8/InverseDCT8x8 pair and the generic
// ZigZagScan/ZigZagDescan reordering. On top of it Encode and Decode turn
// images into quantised, zig-zag ordered coefficient streams and back.
//
// A TransformContext is built once and is read-only afterwards, so a single
// context may be used from any number of goroutines. Rebuilding it with
// InitCosineTable while other goroutines transform with it is not supported.
package icoder

import (
	"fmt"

	"github.com/tuomass/icoder-go/internal/dct"
	"github.com/tuomass/icoder-go/internal/zigzag"
)

// BlockSize is the side length of a transform block
const BlockSize = dct.Size

// BlockLen is the number of samples in a transform block
const BlockLen = dct.BlockLen

var (
	// ErrInvalidLength indicates a zig-zag side length that is not a positive power of two
	ErrInvalidLength = zigzag.ErrInvalidLength
	// ErrUninitializedTable indicates a transform on a context whose cosine table was never built
	ErrUninitializedTable = dct.ErrUninitializedTable
	// ErrBufferSizeMismatch indicates a buffer of the wrong length
	ErrBufferSizeMismatch = zigzag.ErrBufferSizeMismatch
)

// TransformContext owns the cosine basis table used by the 8x8 transforms.
// The zero value is valid but uninitialised: transforms fail with
// ErrUninitializedTable until InitCosineTable has run.
type TransformContext struct {
	table dct.Table
}

// InitCosineTable returns a context with its cosine table built
func InitCosineTable() *TransformContext {
	tc := &TransformContext{}
	tc.InitCosineTable()
	return tc
}

// InitCosineTable (re)builds the cosine table
func (tc *TransformContext) InitCosineTable() {
	tc.table.Init()
}

// Initialized reports whether the cosine table has been built
func (tc *TransformContext) Initialized() bool {
	return tc != nil && tc.table.Ready()
}

// ForwardDCT8x8 returns the 2D DCT of a 64-sample row-major block.
// Coefficients are ordered with vertical frequency as the outer index.
func (tc *TransformContext) ForwardDCT8x8(src []float64) ([]float64, error) {
	dst := make([]float64, BlockLen)
	if err := tc.ForwardDCT8x8Into(src, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// ForwardDCT8x8Into is ForwardDCT8x8 writing into a caller-supplied buffer.
// src and dst must not overlap.
func (tc *TransformContext) ForwardDCT8x8Into(src, dst []float64) error {
	if err := tc.check(src, dst); err != nil {
		return err
	}
	return tc.table.Forward((*[BlockLen]float64)(src), (*[BlockLen]float64)(dst))
}

// InverseDCT8x8 reconstructs a 64-sample row-major block from coefficients
// laid out as ForwardDCT8x8 produces them.
func (tc *TransformContext) InverseDCT8x8(coeffs []float64) ([]float64, error) {
	dst := make([]float64, BlockLen)
	if err := tc.InverseDCT8x8Into(coeffs, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// InverseDCT8x8Into is InverseDCT8x8 writing into a caller-supplied buffer.
// coeffs and dst must not overlap.
func (tc *TransformContext) InverseDCT8x8Into(coeffs, dst []float64) error {
	if err := tc.check(coeffs, dst); err != nil {
		return err
	}
	return tc.table.Inverse((*[BlockLen]float64)(coeffs), (*[BlockLen]float64)(dst))
}

func (tc *TransformContext) check(src, dst []float64) error {
	if !tc.Initialized() {
		return ErrUninitializedTable
	}
	if len(src) != BlockLen || len(dst) != BlockLen {
		return fmt.Errorf("%w: got %d and %d elements, want %d", ErrBufferSizeMismatch, len(src), len(dst), BlockLen)
	}
	return nil
}

// ZigZagScan returns the elements of the row-major length x length matrix
// src in zig-zag order. length must be a power of two.
func ZigZagScan(src []float64, length int) ([]float64, error) {
	dst := make([]float64, len(src))
	if err := zigzag.Scan(src, dst, length); err != nil {
		return nil, err
	}
	return dst, nil
}

// ZigZagDescan rebuilds the row-major length x length matrix from a
// zig-zag ordered sequence. It is the exact inverse of ZigZagScan.
func ZigZagDescan(seq []float64, length int) ([]float64, error) {
	dst := make([]float64, len(seq))
	if err := zigzag.Descan(seq, dst, length); err != nil {
		return nil, err
	}
	return dst, nil
}
