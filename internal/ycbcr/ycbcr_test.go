package ycbcr

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestBlock_LevelShiftAndEdgeReplication(t *testing.T) {
	// 10x9 plane: the block at (1,1) covers only 2x1 real samples
	p := NewPlane(10, 9, 0)
	for i := range p.Pix {
		p.Pix[i] = float64(i % 256)
	}

	var blk [BlockSize * BlockSize]float64
	p.Block(0, 0, &blk)
	if blk[0] != p.Pix[0]-128 {
		t.Errorf("expected level-shifted sample %v, got %v", p.Pix[0]-128, blk[0])
	}
	if blk[9] != p.Pix[1*p.Stride+1]-128 {
		t.Errorf("expected sample (1,1), got %v", blk[9])
	}

	p.Block(1, 1, &blk)
	last := p.Pix[8*p.Stride+9] - 128
	for y := 0; y < BlockSize; y++ {
		for x := 1; x < BlockSize; x++ {
			if blk[y*BlockSize+x] != last {
				t.Fatalf("expected replicated edge %v at (%d,%d), got %v", last, x, y, blk[y*BlockSize+x])
			}
		}
	}
}

func TestSetBlock_ClampsAndClips(t *testing.T) {
	p := NewPlane(12, 12, 7)

	var blk [BlockSize * BlockSize]float64
	for i := range blk {
		blk[i] = float64(i) * 10 // exceeds 127 for larger i
	}
	blk[0] = -500

	p.SetBlock(1, 1, &blk)

	if got := p.Pix[8*p.Stride+8]; got != 0 {
		t.Errorf("expected clamped 0, got %v", got)
	}
	if got := p.Pix[11*p.Stride+11]; got != 255 {
		t.Errorf("expected clamped 255, got %v", got)
	}
	if got := p.Pix[7*p.Stride+7]; got != 7 {
		t.Errorf("expected untouched sample outside the block, got %v", got)
	}
}

func TestPlanesRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: uint8((x + y) * 8), A: 255})
		}
	}

	yp, cb, cr := ImageToPlanes(img)
	out := PlanesToImage(yp, cb, cr)

	maxDiff := 0
	for i := range img.Pix {
		d := int(img.Pix[i]) - int(out.Pix[i])
		if d < 0 {
			d = -d
		}
		if d > maxDiff {
			maxDiff = d
		}
	}
	if maxDiff > 1 {
		t.Errorf("RGB -> YCbCr -> RGB max difference %d, want <= 1", maxDiff)
	}
}

func TestImageToPlanes_Gray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(2, 3, color.Gray{Y: 200})

	yp, cb, cr := ImageToPlanes(img)
	if got := yp.Pix[3*yp.Stride+2]; got != 200 {
		t.Errorf("expected luma 200, got %v", got)
	}
	if cb.Pix[0] != 128 || cr.Pix[0] != 128 {
		t.Errorf("expected neutral chroma, got %v/%v", cb.Pix[0], cr.Pix[0])
	}

	gray := PlaneToGray(yp)
	if gray.GrayAt(2, 3).Y != 200 {
		t.Errorf("expected gray 200, got %d", gray.GrayAt(2, 3).Y)
	}
}

func TestImageToPlanes_YCbCr(t *testing.T) {
	img := image.NewYCbCr(image.Rect(0, 0, 8, 8), image.YCbCrSubsampleRatio444)
	for i := range img.Y {
		img.Y[i] = 90
		img.Cb[i] = 100
		img.Cr[i] = 160
	}

	yp, cb, cr := ImageToPlanes(img)
	if math.Abs(yp.Pix[10]-90) > 0 || cb.Pix[10] != 100 || cr.Pix[10] != 160 {
		t.Errorf("expected YCbCr samples to be read directly, got %v/%v/%v", yp.Pix[10], cb.Pix[10], cr.Pix[10])
	}
}
