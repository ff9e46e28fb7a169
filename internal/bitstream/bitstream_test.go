package bitstream

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriteBits(t *testing.T) {
	tests := []struct {
		name     string
		fields   []uint32
		width    int
		expected []byte
	}{
		{
			name:     "no fields",
			fields:   nil,
			width:    8,
			expected: nil,
		},
		{
			name:     "single byte",
			fields:   []uint32{0xA5},
			width:    8,
			expected: []byte{0xA5},
		},
		{
			name:     "single high bit",
			fields:   []uint32{1},
			width:    1,
			expected: []byte{0x80},
		},
		{
			name:     "three 3-bit fields pad the tail",
			fields:   []uint32{0x7, 0x0, 0x5},
			width:    3,
			expected: []byte{0xE2, 0x80},
		},
		{
			name:     "12-bit fields span bytes",
			fields:   []uint32{0xABC, 0x123},
			width:    12,
			expected: []byte{0xAB, 0xC1, 0x23},
		},
		{
			name:     "only the low bits are kept",
			fields:   []uint32{0xFFF1},
			width:    4,
			expected: []byte{0x10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(0)
			for _, f := range tt.fields {
				if err := w.WriteBits(f, tt.width); err != nil {
					t.Fatalf("WriteBits failed: %v", err)
				}
			}
			if !bytes.Equal(w.Bytes(), tt.expected) {
				t.Errorf("expected %x, got %x", tt.expected, w.Bytes())
			}
			if want := (len(tt.fields)*tt.width + 7) / 8; len(w.Bytes()) != want {
				t.Errorf("expected %d bytes, got %d", want, len(w.Bytes()))
			}
		})
	}
}

func TestSignedRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 15, -15, 7, -8, 2047, -2047}
	widths := []int{5, 5, 5, 5, 5, 4, 4, 12, 12}

	w := NewWriter(16)
	for i, v := range values {
		if err := w.WriteSigned(v, widths[i]); err != nil {
			t.Fatalf("WriteSigned failed: %v", err)
		}
	}

	r := NewReader(w.Bytes())
	for i, want := range values {
		got, err := r.ReadSigned(widths[i])
		if err != nil {
			t.Fatalf("ReadSigned failed: %v", err)
		}
		if got != want {
			t.Errorf("field %d: expected %d, got %d", i, want, got)
		}
	}
	if r.Remaining() >= 8 {
		t.Errorf("expected only padding to remain, got %d bits", r.Remaining())
	}
}

func TestReader_ShortRead(t *testing.T) {
	r := NewReader([]byte{0xFF})
	if _, err := r.ReadBits(6); err != nil {
		t.Fatalf("ReadBits failed: %v", err)
	}
	if _, err := r.ReadBits(3); !errors.Is(err, ErrShortRead) {
		t.Errorf("expected ErrShortRead, got %v", err)
	}
}

func TestInvalidWidth(t *testing.T) {
	w := NewWriter(0)
	if err := w.WriteBits(1, 0); !errors.Is(err, ErrInvalidWidth) {
		t.Errorf("width 0: expected ErrInvalidWidth, got %v", err)
	}
	if err := w.WriteBits(1, 33); !errors.Is(err, ErrInvalidWidth) {
		t.Errorf("width 33: expected ErrInvalidWidth, got %v", err)
	}
	r := NewReader([]byte{0})
	if _, err := r.ReadBits(0); !errors.Is(err, ErrInvalidWidth) {
		t.Errorf("read width 0: expected ErrInvalidWidth, got %v", err)
	}
}

func TestFullWidthField(t *testing.T) {
	w := NewWriter(4)
	if err := w.WriteBits(0xDEADBEEF, 32); err != nil {
		t.Fatalf("WriteBits failed: %v", err)
	}
	r := NewReader(w.Bytes())
	v, err := r.ReadBits(32)
	if err != nil {
		t.Fatalf("ReadBits failed: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Errorf("expected 0xDEADBEEF, got %#x", v)
	}
}
