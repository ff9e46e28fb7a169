package ycbcr

import (
	"image"
	"image/color"
)

// BlockSize is the side length of the blocks read and written by Plane
const BlockSize = 8

// levelShift centres 8-bit samples on zero before the transform
const levelShift = 128.0

// Plane represents a 2D plane of float64 values with width, height, and stride
type Plane struct {
	Pix    []float64
	Width  int
	Height int
	Stride int
}

// NewPlane allocates a plane filled with fill
func NewPlane(width, height int, fill float64) *Plane {
	pix := make([]float64, width*height)
	if fill != 0 {
		for i := range pix {
			pix[i] = fill
		}
	}
	return &Plane{Pix: pix, Width: width, Height: height, Stride: width}
}

// Block copies the 8x8 block at block coordinates (bx, by) into dst,
// level-shifted by -128. Samples past the right or bottom edge repeat the
// last column or row so partial blocks carry no artificial edge.
func (p *Plane) Block(bx, by int, dst *[BlockSize * BlockSize]float64) {
	for y := 0; y < BlockSize; y++ {
		srcY := min(by*BlockSize+y, p.Height-1)
		for x := 0; x < BlockSize; x++ {
			srcX := min(bx*BlockSize+x, p.Width-1)
			dst[y*BlockSize+x] = p.Pix[srcY*p.Stride+srcX] - levelShift
		}
	}
}

// SetBlock writes the level-shifted block src back at block coordinates
// (bx, by), clamping to [0, 255]. Samples outside the plane are dropped.
func (p *Plane) SetBlock(bx, by int, src *[BlockSize * BlockSize]float64) {
	for y := 0; y < BlockSize; y++ {
		dstY := by*BlockSize + y
		if dstY >= p.Height {
			break
		}
		for x := 0; x < BlockSize; x++ {
			dstX := bx*BlockSize + x
			if dstX >= p.Width {
				break
			}
			val := src[y*BlockSize+x] + levelShift
			if val < 0 {
				val = 0
			}
			if val > 255 {
				val = 255
			}
			p.Pix[dstY*p.Stride+dstX] = val
		}
	}
}

// ImageToPlanes converts an image to Y, Cb, Cr planes
// Uses BT.601 coefficients for RGB to YCbCr conversion
// YCbCr and grayscale sources are read without going through RGB
func ImageToPlanes(img image.Image) (y, cb, cr *Plane) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	y = NewPlane(width, height, 0)
	cb = NewPlane(width, height, 0)
	cr = NewPlane(width, height, 0)

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			idx := row*y.Stride + col
			c := img.At(bounds.Min.X+col, bounds.Min.Y+row)

			switch v := c.(type) {
			case color.YCbCr:
				y.Pix[idx] = float64(v.Y)
				cb.Pix[idx] = float64(v.Cb)
				cr.Pix[idx] = float64(v.Cr)
			case color.Gray:
				y.Pix[idx] = float64(v.Y)
				cb.Pix[idx] = levelShift
				cr.Pix[idx] = levelShift
			default:
				r, g, b, _ := c.RGBA()

				// Convert from 16-bit to 8-bit
				r8 := float64(r >> 8)
				g8 := float64(g >> 8)
				b8 := float64(b >> 8)

				// Y  = 0.299*R + 0.587*G + 0.114*B
				// Cb = -0.168736*R - 0.331264*G + 0.5*B + 128
				// Cr = 0.5*R - 0.418688*G - 0.081312*B + 128
				y.Pix[idx] = 0.299*r8 + 0.587*g8 + 0.114*b8
				cb.Pix[idx] = -0.168736*r8 - 0.331264*g8 + 0.5*b8 + levelShift
				cr.Pix[idx] = 0.5*r8 - 0.418688*g8 - 0.081312*b8 + levelShift
			}
		}
	}

	return y, cb, cr
}

// PlanesToImage converts Y, Cb, Cr planes back to an RGBA image (BT.601)
func PlanesToImage(y, cb, cr *Plane) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, y.Width, y.Height))

	for row := 0; row < y.Height; row++ {
		for col := 0; col < y.Width; col++ {
			idx := row*y.Stride + col

			Y := y.Pix[idx]
			Cb := cb.Pix[idx] - levelShift
			Cr := cr.Pix[idx] - levelShift

			// R = Y + 1.402*Cr
			// G = Y - 0.344136*Cb - 0.714136*Cr
			// B = Y + 1.772*Cb
			off := img.PixOffset(col, row)
			img.Pix[off+0] = clamp(Y + 1.402*Cr)
			img.Pix[off+1] = clamp(Y - 0.344136*Cb - 0.714136*Cr)
			img.Pix[off+2] = clamp(Y + 1.772*Cb)
			img.Pix[off+3] = 255
		}
	}

	return img
}

// PlaneToGray converts a luma plane to a grayscale image
func PlaneToGray(y *Plane) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, y.Width, y.Height))
	for row := 0; row < y.Height; row++ {
		for col := 0; col < y.Width; col++ {
			img.Pix[img.PixOffset(col, row)] = clamp(y.Pix[row*y.Stride+col])
		}
	}
	return img
}

// clamp clamps a float64 value to [0, 255] and returns as uint8
func clamp(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5) // Round
}
