package icoder

import (
	"fmt"

	"github.com/tuomass/icoder-go/internal/quant"
)

// DemoPeak is the magnitude test patterns and zig-zag sequences are scaled
// to before quantisation in RunBlock
const DemoPeak = 64.0

// Test patterns for RunBlock
const (
	PatternFace  = "face"
	PatternDC    = "dc"
	PatternPoint = "point"
)

var patterns = map[string][BlockLen]float64{
	PatternFace: {
		1, 1, 0, 0, 0, 0, 1, 1,
		1, 0, 7, 7, 7, 7, 0, 1,
		9, 7, 6, 7, 7, 6, 7, 9,
		9, 7, 7, 7, 7, 7, 7, 9,
		10, 7, 12, 7, 7, 12, 7, 10,
		10, 7, 7, 12, 12, 7, 7, 10,
		2, 10, 7, 7, 7, 7, 10, 2,
		2, 2, 10, 7, 7, 10, 2, 2,
	},
	PatternDC: {
		3, 3, 3, 3, 3, 3, 3, 3,
		3, 3, 3, 3, 3, 3, 3, 3,
		3, 3, 3, 3, 3, 3, 3, 3,
		3, 3, 3, 3, 3, 3, 3, 3,
		3, 3, 3, 3, 3, 3, 3, 3,
		3, 3, 3, 3, 3, 3, 3, 3,
		3, 3, 3, 3, 3, 3, 3, 3,
		3, 3, 3, 3, 3, 3, 3, 3,
	},
	PatternPoint: {
		1, 1, 1, 1, 1, 1, 1, 1,
		1, 15, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1,
	},
}

// Pattern returns a copy of a named 8x8 test pattern
func Pattern(name string) ([]float64, error) {
	p, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q", name)
	}
	return append([]float64(nil), p[:]...), nil
}

// BlockStages holds every intermediate result of RunBlock. All slices
// have BlockLen elements.
type BlockStages struct {
	// Source is the input scaled so its largest magnitude is DemoPeak
	Source []float64
	// Coefficients is the forward DCT of Source
	Coefficients []float64
	// ZigZag is Coefficients in zig-zag order, scaled so its largest
	// magnitude is DemoPeak
	ZigZag []float64
	// Gain is the factor applied to the zig-zag sequence
	Gain float64
	// Quantized is ZigZag after quantisation (equal to ZigZag when disabled)
	Quantized []float64
	// Descanned is Quantized restored to matrix order
	Descanned []float64
	// Reconstructed is the inverse DCT of Descanned. The zig-zag gain is
	// not undone, so it equals Source multiplied by Gain up to
	// quantisation error.
	Reconstructed []float64
}

// RunBlock pushes one 8x8 block through the coding chain: scale, forward
// DCT, zig-zag scan, scale, quantise, descan and inverse DCT. quantBits of 0
// disables quantisation.
func (tc *TransformContext) RunBlock(src []float64, quantBits int) (*BlockStages, error) {
	if len(src) != BlockLen {
		return nil, fmt.Errorf("%w: got %d elements, want %d", ErrBufferSizeMismatch, len(src), BlockLen)
	}

	var q *quant.Quantizer
	if quantBits != 0 {
		var err error
		if q, err = quant.New(quantBits, DemoPeak); err != nil {
			return nil, err
		}
	}

	st := &BlockStages{Source: append([]float64(nil), src...)}
	quant.Scale(st.Source, DemoPeak)

	var err error
	if st.Coefficients, err = tc.ForwardDCT8x8(st.Source); err != nil {
		return nil, err
	}
	if st.ZigZag, err = ZigZagScan(st.Coefficients, BlockSize); err != nil {
		return nil, err
	}
	st.Gain = quant.Scale(st.ZigZag, DemoPeak)

	st.Quantized = append([]float64(nil), st.ZigZag...)
	if q != nil {
		if err := q.Quantize(st.Quantized, st.Quantized); err != nil {
			return nil, err
		}
	}

	if st.Descanned, err = ZigZagDescan(st.Quantized, BlockSize); err != nil {
		return nil, err
	}
	if st.Reconstructed, err = tc.InverseDCT8x8(st.Descanned); err != nil {
		return nil, err
	}
	return st, nil
}
