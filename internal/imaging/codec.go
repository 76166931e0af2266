// Package imaging provides the production image codec: PNG and WebP in both
// directions, JPEG decode for imported references, and thumbnail scaling.
package imaging

import (
	"fmt"
	"image"
	"image/png"
	"io"

	_ "image/jpeg"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Codec implements media.Codec over the stdlib decoders, x/image webp
// decoding, and nativewebp encoding.
type Codec struct{}

// New returns the default codec.
func New() *Codec {
	return &Codec{}
}

// Decode sniffs the format and decodes PNG, JPEG, or WebP input.
func (*Codec) Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Encode writes img as "webp" or "png".
func (*Codec) Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
	case "webp":
		if err := nativewebp.Encode(w, toNRGBA(img), nil); err != nil {
			return fmt.Errorf("encode webp: %w", err)
		}
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
	return nil
}

// Thumbnail scales img so its longest edge is at most maxPx, preserving
// aspect ratio, and encodes the result as WebP. Images already within the
// bound are encoded unscaled.
func (*Codec) Thumbnail(w io.Writer, img image.Image, maxPx int) error {
	if maxPx < 1 {
		return fmt.Errorf("thumbnail bound must be >= 1, got %d", maxPx)
	}
	scaled := Scale(img, maxPx)
	if err := nativewebp.Encode(w, toNRGBA(scaled), nil); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return nil
}

// Scale returns img resized so its longest edge is at most maxPx. Smaller
// images pass through untouched.
func Scale(img image.Image, maxPx int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	longest := width
	if height > longest {
		longest = height
	}
	if longest <= maxPx {
		return img
	}

	scale := float64(maxPx) / float64(longest)
	dw := int(float64(width) * scale)
	dh := int(float64(height) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}
