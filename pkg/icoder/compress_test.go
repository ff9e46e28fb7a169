package icoder

import (
	"bytes"
	"errors"
	"testing"
)

func TestZstd_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("icoder coefficient payload "), 200)

	// Twice, so the second pass reuses pooled coders
	for i := 0; i < 2; i++ {
		packed, err := compressZstd(data)
		if err != nil {
			t.Fatalf("compressZstd failed: %v", err)
		}
		if len(packed) >= len(data) {
			t.Errorf("expected compression, got %d bytes from %d", len(packed), len(data))
		}
		out, err := decompressZstd(packed, int64(len(data)))
		if err != nil {
			t.Fatalf("decompressZstd failed: %v", err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("round trip mismatch")
		}
	}
}

func TestZstd_Limits(t *testing.T) {
	data := bytes.Repeat([]byte("icoder coefficient payload "), 200)
	packed, err := compressZstd(data)
	if err != nil {
		t.Fatalf("compressZstd failed: %v", err)
	}

	if _, err := decompressZstd(packed, int64(len(data)-1)); !errors.Is(err, errPayloadTooLarge) {
		t.Errorf("expected errPayloadTooLarge, got %v", err)
	}
	if _, err := decompressZstd(packed, int64(len(packed))*maxCompressionRatio+1); !errors.Is(err, errRatioExceeded) {
		t.Errorf("expected errRatioExceeded, got %v", err)
	}
}

func TestCompressible(t *testing.T) {
	tests := []struct {
		stored, packed int
		want           bool
	}{
		{stored: 1, packed: maxCompressionRatio, want: true},
		{stored: 1, packed: maxCompressionRatio + 1, want: false},
		{stored: 100, packed: 10, want: true},
		{stored: 64543, packed: 603979776, want: false},
	}
	for _, tt := range tests {
		if got := compressible(tt.stored, tt.packed); got != tt.want {
			t.Errorf("compressible(%d, %d) = %v, want %v", tt.stored, tt.packed, got, tt.want)
		}
	}
}
