package icoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/tuomass/icoder-go/internal/quant"
)

const (
	// maxCompressionRatio bounds packed length over stored payload length.
	// Encode stores a payload raw rather than exceed it, so Decode can
	// reject streams whose header promises more data than the payload
	// could plausibly hold.
	maxCompressionRatio = 4096

	// maxPackedBytes is the largest packed coefficient payload a stream
	// within maxPixels can carry
	maxPackedBytes = maxPixels * 3 * quant.MaxBits / 8
)

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			panic(fmt.Sprintf("icoder: creating zstd encoder: %v", err))
		}
		return enc
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(maxPackedBytes),
		)
		if err != nil {
			panic(fmt.Sprintf("icoder: creating zstd decoder: %v", err))
		}
		return dec
	},
}

var (
	errPayloadTooLarge = errors.New("decompressed payload exceeds expected size")
	errRatioExceeded   = errors.New("payload too small for the declared image size")
)

// compressible reports whether a payload of storedLen bytes may stand in
// for packedLen bytes of coefficients
func compressible(storedLen, packedLen int) bool {
	return int64(storedLen)*maxCompressionRatio >= int64(packedLen)
}

func compressZstd(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	var buf bytes.Buffer

	enc := zstdEncPool.Get().(*zstd.Encoder)
	defer zstdEncPool.Put(enc)
	enc.Reset(&buf)

	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompressZstd inflates data into exactly limit bytes at most. Payloads
// too small to plausibly expand to limit are refused before decoding.
func decompressZstd(data []byte, limit int64) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if !compressible(len(data), int(limit)) {
		return nil, errRatioExceeded
	}

	dec := zstdDecPool.Get().(*zstd.Decoder)
	defer zstdDecPool.Put(dec)
	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if _, err := out.ReadFrom(io.LimitReader(dec, limit+1)); err != nil {
		return nil, err
	}
	if int64(out.Len()) > limit {
		return nil, errPayloadTooLarge
	}
	return out.Bytes(), nil
}
