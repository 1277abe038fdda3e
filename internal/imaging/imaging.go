// Package imaging prepares uploaded album cover art for storage.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// CoverSize is the edge length of stored covers. Covers are square.
const CoverSize = 600

// MaxUploadBytes is the largest accepted upload.
const MaxUploadBytes = 10 << 20

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// CoverMIME is the MIME type of every stored cover.
const CoverMIME = "image/jpeg"

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ErrUnsupportedFormat is returned for uploads that are not JPEG, PNG or WebP.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrTooLarge is returned for uploads over MaxUploadBytes.
var ErrTooLarge = errors.New("image too large")

// Cover is a processed cover image.
type Cover struct {
	Data []byte
	MIME string
}

// ProcessCover reads an uploaded image, checks its format by sniffing the
// bytes, crops it to a centered square, downscales it to at most CoverSize
// and re-encodes it as JPEG.
func ProcessCover(r io.Reader) (*Cover, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	// Client-supplied content types are not trusted.
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s (JPEG, PNG and WebP accepted)", ErrUnsupportedFormat, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = fit(cropSquare(img), CoverSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Cover{Data: buf.Bytes(), MIME: CoverMIME}, nil
}

// cropSquare returns the largest centered square of img.
func cropSquare(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h {
		return img
	}

	side := min(w, h)
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	rect := image.Rect(0, 0, side, side)

	dst := image.NewRGBA(rect)
	draw.Copy(dst, image.Point{}, img, image.Rect(x0, y0, x0+side, y0+side), draw.Src, nil)
	return dst
}

// fit downscales a square image to maxDim using Catmull-Rom interpolation.
// Smaller images are returned unchanged.
func fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxDim, maxDim))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
}
