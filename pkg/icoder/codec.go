package icoder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/tuomass/icoder-go/internal/bitstream"
	"github.com/tuomass/icoder-go/internal/framing"
	"github.com/tuomass/icoder-go/internal/imgutil"
	"github.com/tuomass/icoder-go/internal/quant"
	"github.com/tuomass/icoder-go/internal/ycbcr"
	"github.com/tuomass/icoder-go/internal/zigzag"
)

// maxPixels bounds the image size accepted from a stream header
const maxPixels = 1 << 26

var (
	// ErrInvalidOptions indicates encode options outside their valid range
	ErrInvalidOptions = errors.New("invalid encode options")
	// ErrEmptyImage indicates an image with no pixels
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrFrameCorrupt indicates the stream container is malformed
	ErrFrameCorrupt = errors.New("coded stream is corrupted")
	// ErrCRCMismatch indicates the payload checksum does not match
	ErrCRCMismatch = errors.New("CRC32 checksum mismatch")
	// ErrTruncatedStream indicates the payload holds fewer coefficients than the header implies
	ErrTruncatedStream = errors.New("coefficient stream truncated")
)

// EncodeOptions holds options for encoding
type EncodeOptions struct {
	// QuantBits is the code word length of each coefficient
	QuantBits int
	// Peak is the coefficient magnitude mapped to the largest code
	Peak float64
	// Grayscale stores only the luma plane
	Grayscale bool
	// Compress runs the packed coefficients through zstd
	Compress bool
	// Workers bounds the number of block rows transformed in parallel; 0 means GOMAXPROCS
	Workers int
}

// DefaultEncodeOptions returns default encoding options
func DefaultEncodeOptions() *EncodeOptions {
	return &EncodeOptions{
		QuantBits: 10,
		Peak:      1024, // DC of a full-scale level-shifted 8-bit block
		Grayscale: false,
		Compress:  true,
		Workers:   0,
	}
}

func (o *EncodeOptions) validate() error {
	if o.QuantBits < quant.MinBits || o.QuantBits > quant.MaxBits {
		return fmt.Errorf("%w: quantisation bits %d not in [%d, %d]", ErrInvalidOptions, o.QuantBits, quant.MinBits, quant.MaxBits)
	}
	if !(o.Peak > 0) || float64(float32(o.Peak)) == 0 {
		return fmt.Errorf("%w: peak %v must be positive", ErrInvalidOptions, o.Peak)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: negative worker count", ErrInvalidOptions)
	}
	return nil
}

func (o *EncodeOptions) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// StreamInfo describes a coded stream
type StreamInfo struct {
	Width  int
	Height int
	// Block grid, partial edge blocks included
	BlocksAcross int
	BlocksDown   int
	Channels     int
	QuantBits    int
	Peak         float64
	Compressed   bool
	// PayloadBytes is the stored (possibly compressed) coefficient payload size
	PayloadBytes int
	// StreamBytes is the full stream size including the header
	StreamBytes int
	// BitsPerPixel is StreamBytes*8 divided by the pixel count
	BitsPerPixel float64
}

func newStreamInfo(h *framing.Header, streamBytes int) *StreamInfo {
	width, height := int(h.Width), int(h.Height)
	across, down := imgutil.BlocksFor(width, height)
	info := &StreamInfo{
		Width:        width,
		Height:       height,
		BlocksAcross: across,
		BlocksDown:   down,
		Channels:     int(h.Channels),
		QuantBits:    int(h.QuantBits),
		Peak:         float64(h.Peak),
		Compressed:   h.Compressed(),
		PayloadBytes: int(h.PayloadLength),
		StreamBytes:  streamBytes,
	}
	if pixels := width * height; pixels > 0 {
		info.BitsPerPixel = float64(streamBytes*8) / float64(pixels)
	}
	return info
}

// codeCount is the number of coefficients a stream with this geometry carries
func (s *StreamInfo) codeCount() int {
	return s.Channels * s.BlocksAcross * s.BlocksDown * BlockLen
}

// Encode transforms img into a coded coefficient stream
func Encode(ctx context.Context, img image.Image, opts *EncodeOptions) ([]byte, error) {
	if opts == nil {
		opts = DefaultEncodeOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}
	if bounds.Dx()*bounds.Dy() > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds the supported size", ErrInvalidOptions, bounds.Dx(), bounds.Dy())
	}

	// The header stores the peak as float32; quantise against the value
	// the decoder will see.
	peak := float64(float32(opts.Peak))
	q, err := quant.New(opts.QuantBits, peak)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	yPlane, cbPlane, crPlane := ycbcr.ImageToPlanes(img)
	planes := []*ycbcr.Plane{yPlane}
	if !opts.Grayscale {
		planes = append(planes, cbPlane, crPlane)
	}

	tc := InitCosineTable()
	across, down := imgutil.BlocksFor(bounds.Dx(), bounds.Dy())
	perPlane := across * down * BlockLen
	codes := make([]int32, len(planes)*perPlane)

	for i, p := range planes {
		if err := tc.forwardPlane(ctx, p, q, codes[i*perPlane:(i+1)*perPlane], opts.workers()); err != nil {
			return nil, fmt.Errorf("failed to transform plane %d: %w", i, err)
		}
	}

	payload, err := packCodes(codes, opts.QuantBits)
	if err != nil {
		return nil, fmt.Errorf("failed to pack coefficients: %w", err)
	}

	header := framing.Header{
		QuantBits: uint8(opts.QuantBits),
		Channels:  uint8(len(planes)),
		Width:     uint32(bounds.Dx()),
		Height:    uint32(bounds.Dy()),
		Peak:      float32(q.Peak()),
	}
	if opts.Compress {
		packed, err := compressZstd(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to compress payload: %w", err)
		}
		// Highly repetitive planes are stored raw so every stream stays
		// within the ratio Decode accepts.
		if compressible(len(packed), len(payload)) {
			payload = packed
			header.Flags |= framing.FlagZstd
		}
	}

	return framing.BuildFrame(header, payload), nil
}

// Decode reconstructs an image from a coded coefficient stream. Single
// channel streams decode to *image.Gray, three channel streams to *image.RGBA.
func Decode(ctx context.Context, data []byte) (image.Image, *StreamInfo, error) {
	header, payload, err := parseStream(data)
	if err != nil {
		return nil, nil, err
	}
	info := newStreamInfo(header, len(data))

	q, err := quant.New(info.QuantBits, info.Peak)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFrameCorrupt, err)
	}

	n := info.codeCount()
	packedLen := (n*info.QuantBits + 7) / 8
	if info.Compressed {
		payload, err = decompressZstd(payload, int64(packedLen))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: failed to decompress payload: %v", ErrFrameCorrupt, err)
		}
	}

	codes, err := unpackCodes(payload, n, info.QuantBits)
	if err != nil {
		return nil, nil, err
	}

	tc := InitCosineTable()
	perPlane := info.BlocksAcross * info.BlocksDown * BlockLen
	planes := make([]*ycbcr.Plane, info.Channels)
	for i := range planes {
		planes[i] = ycbcr.NewPlane(info.Width, info.Height, 128)
		if err := tc.inversePlane(ctx, planes[i], q, codes[i*perPlane:(i+1)*perPlane], 0); err != nil {
			return nil, nil, fmt.Errorf("failed to reconstruct plane %d: %w", i, err)
		}
	}

	if info.Channels == 1 {
		return ycbcr.PlaneToGray(planes[0]), info, nil
	}
	return ycbcr.PlanesToImage(planes[0], planes[1], planes[2]), info, nil
}

// Inspect validates a coded stream and describes it without decoding the coefficients
func Inspect(data []byte) (*StreamInfo, error) {
	header, _, err := parseStream(data)
	if err != nil {
		return nil, err
	}
	return newStreamInfo(header, len(data)), nil
}

func parseStream(data []byte) (*framing.Header, []byte, error) {
	header, payload, err := framing.ParseFrame(data)
	if err != nil {
		if errors.Is(err, framing.ErrCRCMismatch) {
			return nil, nil, ErrCRCMismatch
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrFrameCorrupt, err)
	}

	if header.Channels != 1 && header.Channels != 3 {
		return nil, nil, fmt.Errorf("%w: unsupported channel count %d", ErrFrameCorrupt, header.Channels)
	}
	if header.Width == 0 || header.Height == 0 {
		return nil, nil, fmt.Errorf("%w: empty image", ErrFrameCorrupt)
	}
	if uint64(header.Width)*uint64(header.Height) > maxPixels {
		return nil, nil, fmt.Errorf("%w: %dx%d exceeds the supported size", ErrFrameCorrupt, header.Width, header.Height)
	}
	return header, payload, nil
}

// forwardPlane transforms, scans and quantises every block of p into out.
// Block rows are spread over up to workers goroutines sharing tc.
func (tc *TransformContext) forwardPlane(ctx context.Context, p *ycbcr.Plane, q *quant.Quantizer, out []int32, workers int) error {
	across, down := imgutil.BlocksFor(p.Width, p.Height)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for by := 0; by < down; by++ {
		by := by
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var spatial, coeffs, seq [BlockLen]float64
			for bx := 0; bx < across; bx++ {
				p.Block(bx, by, &spatial)
				if err := tc.table.Forward(&spatial, &coeffs); err != nil {
					return err
				}
				if err := zigzag.Scan(coeffs[:], seq[:], BlockSize); err != nil {
					return err
				}
				off := (by*across + bx) * BlockLen
				if err := q.Codes(seq[:], out[off:off+BlockLen]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// inversePlane is the mirror of forwardPlane, writing reconstructed blocks into p
func (tc *TransformContext) inversePlane(ctx context.Context, p *ycbcr.Plane, q *quant.Quantizer, in []int32, workers int) error {
	across, down := imgutil.BlocksFor(p.Width, p.Height)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for by := 0; by < down; by++ {
		by := by
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var seq, coeffs, spatial [BlockLen]float64
			for bx := 0; bx < across; bx++ {
				off := (by*across + bx) * BlockLen
				if err := q.Values(in[off:off+BlockLen], seq[:]); err != nil {
					return err
				}
				if err := zigzag.Descan(seq[:], coeffs[:], BlockSize); err != nil {
					return err
				}
				if err := tc.table.Inverse(&coeffs, &spatial); err != nil {
					return err
				}
				p.SetBlock(bx, by, &spatial)
			}
			return nil
		})
	}
	return g.Wait()
}

func packCodes(codes []int32, bits int) ([]byte, error) {
	w := bitstream.NewWriter((len(codes)*bits + 7) / 8)
	for _, c := range codes {
		if err := w.WriteSigned(c, bits); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

func unpackCodes(data []byte, n, bits int) ([]int32, error) {
	if len(data)*8 < n*bits {
		return nil, fmt.Errorf("%w: need %d bits, have %d", ErrTruncatedStream, n*bits, len(data)*8)
	}
	r := bitstream.NewReader(data)
	codes := make([]int32, n)
	for i := range codes {
		c, err := r.ReadSigned(bits)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedStream, err)
		}
		codes[i] = c
	}
	if r.Remaining() >= 8 {
		return nil, fmt.Errorf("%w: %d trailing payload bytes", ErrFrameCorrupt, r.Remaining()/8)
	}
	return codes, nil
}

// EncodeBytes decodes a PNG, JPEG or GIF image and encodes it
func EncodeBytes(ctx context.Context, input []byte, opts *EncodeOptions) ([]byte, error) {
	if input == nil {
		return nil, fmt.Errorf("input data required")
	}
	img, _, err := imgutil.LoadImage(input)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return Encode(ctx, img, opts)
}

// DecodeBytes decodes a coded stream and re-encodes the image as format
// ("png" or "jpeg"). quality only applies to JPEG output.
func DecodeBytes(ctx context.Context, data []byte, format string, quality int) ([]byte, error) {
	img, _, err := Decode(ctx, data)
	if err != nil {
		return nil, err
	}
	return imgutil.EncodeImage(img, format, quality)
}

// EncodeFile encodes the image at inputPath and writes the stream to outputPath
func EncodeFile(ctx context.Context, inputPath, outputPath string, opts *EncodeOptions) error {
	img, _, err := imgutil.LoadImageFromFile(inputPath)
	if err != nil {
		return err
	}

	data, err := Encode(ctx, img, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0644)
}

// DecodeFile decodes the stream at inputPath and writes the image to
// outputPath. An empty format is taken from the output file extension,
// falling back to PNG.
func DecodeFile(ctx context.Context, inputPath, outputPath, format string, quality int) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read stream: %w", err)
	}

	if format == "" {
		format = imgutil.NormalizeFormat(filepath.Ext(outputPath))
		if format != "jpeg" {
			format = "png"
		}
	}

	img, _, err := Decode(ctx, data)
	if err != nil {
		return err
	}
	return imgutil.SaveImageToFile(img, format, outputPath, quality)
}
