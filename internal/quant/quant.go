// Package quant implements uniform N-bit quantisation of transform
// coefficients against a fixed peak input value.
package quant

import (
	"errors"
	"math"

	"golang.org/x/exp/constraints"
)

const (
	// MinBits is the smallest supported quantisation word length
	MinBits = 2
	// MaxBits is the largest supported quantisation word length
	MaxBits = 24

	fixMax        = math.MaxInt32
	fixWordLength = 32
)

var (
	// ErrInvalidBits indicates the word length is outside [MinBits, MaxBits]
	ErrInvalidBits = errors.New("quantisation bits out of range")
	// ErrInvalidPeak indicates the peak input value is not positive
	ErrInvalidPeak = errors.New("peak input value must be positive")
	// ErrLengthMismatch indicates source and destination differ in length
	ErrLengthMismatch = errors.New("source and destination lengths differ")
)

// Quantizer maps real values in [-Peak, Peak] onto signed integer codes
// of Bits bits. Values outside the range saturate.
type Quantizer struct {
	bits     int
	peak     float64
	max      int32
	scale    float64
	invScale float64
}

// New returns a quantizer for the given word length and peak input value
func New(bits int, peak float64) (*Quantizer, error) {
	if bits < MinBits || bits > MaxBits {
		return nil, ErrInvalidBits
	}
	if !(peak > 0) || math.IsInf(peak, 0) {
		return nil, ErrInvalidPeak
	}

	max := int32(uint32(fixMax) >> uint32(fixWordLength-bits))
	scale := float64(max) / peak
	return &Quantizer{
		bits:     bits,
		peak:     peak,
		max:      max,
		scale:    scale,
		invScale: 1 / scale,
	}, nil
}

// Bits returns the code word length
func (q *Quantizer) Bits() int { return q.bits }

// Peak returns the peak input value
func (q *Quantizer) Peak() float64 { return q.peak }

// MaxCode returns the largest code magnitude
func (q *Quantizer) MaxCode() int32 { return q.max }

// Step returns the distance between adjacent reconstruction levels
func (q *Quantizer) Step() float64 { return q.invScale }

// Code quantises a single value. The fraction is truncated toward zero.
func (q *Quantizer) Code(x float64) int32 {
	v := x * q.scale
	switch {
	case math.IsNaN(v):
		return 0
	case v >= float64(q.max):
		return q.max
	case v <= -float64(q.max):
		return -q.max
	}
	return int32(v)
}

// Value reconstructs the real value of a code
func (q *Quantizer) Value(code int32) float64 {
	return float64(code) * q.invScale
}

// Codes quantises src into dst
func (q *Quantizer) Codes(src []float64, dst []int32) error {
	if len(src) != len(dst) {
		return ErrLengthMismatch
	}
	for i, x := range src {
		dst[i] = q.Code(x)
	}
	return nil
}

// Values reconstructs dst from the codes in src
func (q *Quantizer) Values(src []int32, dst []float64) error {
	if len(src) != len(dst) {
		return ErrLengthMismatch
	}
	for i, c := range src {
		dst[i] = q.Value(c)
	}
	return nil
}

// Quantize replaces every value with its nearest lower-magnitude
// reconstruction level. src and dst may be the same slice.
func (q *Quantizer) Quantize(src, dst []float64) error {
	if len(src) != len(dst) {
		return ErrLengthMismatch
	}
	for i, x := range src {
		dst[i] = q.Value(q.Code(x))
	}
	return nil
}

// Scale multiplies every element of s by the factor needed to make its
// largest magnitude equal to peak. An all-zero slice is left untouched.
// It returns the factor applied.
func Scale[T constraints.Float](s []T, peak T) T {
	var largest T
	for _, v := range s {
		if v < 0 {
			v = -v
		}
		if v > largest {
			largest = v
		}
	}
	if largest == 0 {
		return 1
	}
	k := peak / largest
	for i := range s {
		s[i] *= k
	}
	return k
}
