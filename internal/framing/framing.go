package framing

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
)

const (
	// Magic is the 4-byte magic identifier for the stream format
	Magic = "ICD0"
	// HeaderSize is the total size of the frame header in bytes
	HeaderSize = 28
	// CurrentVersion is the current stream format version
	CurrentVersion = 0x01
)

// Flag bits stored in Header.Flags
const (
	// FlagZstd marks a zstd-compressed payload
	FlagZstd uint8 = 1 << 0
)

var (
	// ErrInvalidMagic indicates the frame magic bytes don't match
	ErrInvalidMagic = errors.New("invalid frame magic")
	// ErrUnsupportedVersion indicates a frame written by an unknown format version
	ErrUnsupportedVersion = errors.New("unsupported frame version")
	// ErrInvalidLength indicates the payload length doesn't match the header
	ErrInvalidLength = errors.New("invalid payload length")
	// ErrCRCMismatch indicates the CRC32 checksum doesn't match
	ErrCRCMismatch = errors.New("CRC32 checksum mismatch")
	// ErrFrameTooShort indicates the frame is shorter than the header
	ErrFrameTooShort = errors.New("frame too short")
)

// Header describes a coded coefficient stream
// Byte layout (big-endian):
//
//	0-3:   Magic ("ICD0")
//	4:     Version (0x01)
//	5:     QuantBits
//	6:     Channels (1 or 3)
//	7:     Flags
//	8-11:  Width
//	12-15: Height
//	16-19: Peak (IEEE-754 float32)
//	20-23: PayloadLength
//	24-27: PayloadCRC32 (CRC32-IEEE)
type Header struct {
	Version       uint8
	QuantBits     uint8
	Channels      uint8
	Flags         uint8
	Width         uint32
	Height        uint32
	Peak          float32
	PayloadLength uint32
	PayloadCRC32  uint32
}

// Compressed reports whether the payload is zstd-compressed
func (h *Header) Compressed() bool {
	return h.Flags&FlagZstd != 0
}

// BuildFrame constructs a frame from a header and payload.
// Version, PayloadLength and PayloadCRC32 are filled in from the payload.
// The frame consists of: header (28 bytes) || payload bytes
func BuildFrame(h Header, payload []byte) []byte {
	frame := make([]byte, HeaderSize+len(payload))

	copy(frame[0:4], Magic)
	frame[4] = CurrentVersion
	frame[5] = h.QuantBits
	frame[6] = h.Channels
	frame[7] = h.Flags
	binary.BigEndian.PutUint32(frame[8:12], h.Width)
	binary.BigEndian.PutUint32(frame[12:16], h.Height)
	binary.BigEndian.PutUint32(frame[16:20], math.Float32bits(h.Peak))
	binary.BigEndian.PutUint32(frame[20:24], uint32(len(payload)))
	binary.BigEndian.PutUint32(frame[24:28], crc32.ChecksumIEEE(payload))

	copy(frame[HeaderSize:], payload)
	return frame
}

// ParseHeader decodes and checks the fixed header without touching the payload
func ParseHeader(frame []byte) (*Header, error) {
	if len(frame) < HeaderSize {
		return nil, ErrFrameTooShort
	}
	if string(frame[0:4]) != Magic {
		return nil, ErrInvalidMagic
	}
	if frame[4] != CurrentVersion {
		return nil, ErrUnsupportedVersion
	}

	return &Header{
		Version:       frame[4],
		QuantBits:     frame[5],
		Channels:      frame[6],
		Flags:         frame[7],
		Width:         binary.BigEndian.Uint32(frame[8:12]),
		Height:        binary.BigEndian.Uint32(frame[12:16]),
		Peak:          math.Float32frombits(binary.BigEndian.Uint32(frame[16:20])),
		PayloadLength: binary.BigEndian.Uint32(frame[20:24]),
		PayloadCRC32:  binary.BigEndian.Uint32(frame[24:28]),
	}, nil
}

// ParseFrame parses a frame and validates its structure.
// Returns the header, payload bytes, and any error encountered.
func ParseFrame(frame []byte) (*Header, []byte, error) {
	header, err := ParseHeader(frame)
	if err != nil {
		return nil, nil, err
	}

	if uint64(len(frame)) < uint64(HeaderSize)+uint64(header.PayloadLength) {
		return nil, nil, ErrInvalidLength
	}
	payload := frame[HeaderSize : HeaderSize+int(header.PayloadLength)]

	if crc32.ChecksumIEEE(payload) != header.PayloadCRC32 {
		return nil, nil, ErrCRCMismatch
	}

	return header, payload, nil
}
