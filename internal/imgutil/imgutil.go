package imgutil

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"
)

// LoadImageFromFile decodes the PNG, JPEG or GIF image at path and
// reports its format
func LoadImageFromFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return decode(f)
}

// LoadImage decodes a PNG, JPEG or GIF image held in memory
func LoadImage(data []byte) (image.Image, string, error) {
	return decode(bytes.NewReader(data))
}

func decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// SaveImageToFile writes img to path as format ("png" or "jpeg"). quality
// only applies to JPEG. The file is not created for an unsupported format.
func SaveImageToFile(img image.Image, format, path string, quality int) (err error) {
	format = NormalizeFormat(format)
	if format != "png" && format != "jpeg" {
		return fmt.Errorf("unsupported format: %s", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close image file: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := encode(w, img, format, quality); err != nil {
		return err
	}
	return w.Flush()
}

// EncodeImage encodes img in memory as format ("png" or "jpeg")
func EncodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, img, format, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(w io.Writer, img image.Image, format string, quality int) error {
	switch NormalizeFormat(format) {
	case "png":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode PNG: %w", err)
		}
	case "jpeg":
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("failed to encode JPEG: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}

// NormalizeFormat maps format names, MIME types and file extensions onto
// "png" or "jpeg". Anything else is returned lower-cased.
func NormalizeFormat(format string) string {
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	switch format {
	case "png", "image/png":
		return "png"
	case "jpg", "jpeg", "image/jpeg":
		return "jpeg"
	}
	return format
}

// BlocksFor returns how many 8x8 blocks cover an image of the given size.
// Partial blocks at the right and bottom edges are counted.
func BlocksFor(width, height int) (across, down int) {
	return (width + 7) / 8, (height + 7) / 8
}
