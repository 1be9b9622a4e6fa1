// Package imaging provides the raster operations the capture pipeline needs:
// decoding screenshots, cropping overlap bands, stacking composites, and
// bounded downscaling.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Sentinel errors for imaging operations.
var (
	ErrEmptyImage = errors.New("image data is empty")
	ErrNoImages   = errors.New("no images to stack")
)

// Decode parses PNG or JPEG bytes into an image.
func Decode(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// CropTop returns img with its top rows removed. Cropping everything (or
// more) yields a zero-height image with the original width.
func CropTop(img image.Image, rows int) image.Image {
	if rows <= 0 {
		return img
	}
	b := img.Bounds()
	if rows > b.Dy() {
		rows = b.Dy()
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()-rows))
	draw.Draw(out, out.Bounds(), img, image.Pt(b.Min.X, b.Min.Y+rows), draw.Src)
	return out
}

// StackVertical concatenates images top to bottom. The composite is as wide
// as the widest input; narrower images are left-aligned on white.
func StackVertical(imgs []image.Image) (image.Image, error) {
	if len(imgs) == 0 {
		return nil, ErrNoImages
	}

	width, height := 0, 0
	for _, img := range imgs {
		b := img.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)

	y := 0
	for _, img := range imgs {
		b := img.Bounds()
		dst := image.Rect(0, y, b.Dx(), y+b.Dy())
		draw.Draw(out, dst, img, b.Min, draw.Src)
		y += b.Dy()
	}
	return out, nil
}

// ScaleToFit uniformly downscales img until both axes are within the given
// bounds. Images already within bounds are returned unchanged; aspect ratio
// is preserved.
func ScaleToFit(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth && h <= maxHeight {
		return img
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}

	outW := int(float64(w) * scale)
	outH := int(float64(h) * scale)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	out := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Over, nil)
	return out
}

// EncodeJPEG re-encodes img at the given quality (1-100). Screenshots with
// alpha are flattened onto white.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	flat := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
