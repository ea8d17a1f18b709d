// Package capture produces camera-like frames for the pipeline: a synthetic
// test pattern or a directory of still images played in a loop.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Capture errors
var (
	ErrInvalidImage      = errors.New("capture: invalid image data")
	ErrEmptyImage        = errors.New("capture: empty image data")
	ErrInvalidDimensions = errors.New("capture: invalid dimensions")
	ErrNoFrames          = errors.New("capture: no decodable images in source")
	ErrClosed            = errors.New("capture: source is closed")
)

// supportedExtensions lists the file types DirSource plays.
var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsSupportedImage reports whether path has an extension DirSource plays.
// This is a pure function with no side effects.
func IsSupportedImage(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// DecodeImage decodes PNG, JPEG, GIF, BMP, TIFF or WebP data.
// This is a pure function with no side effects.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// LoadImage reads and decodes an image file.
func LoadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	img, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// SavePNG encodes img as PNG at path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// Fit scales img to fit inside width x height with CatmullRom resampling,
// keeping its aspect ratio and centring it on black. An image already at the
// target size is converted without resampling.
func Fit(img image.Image, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: source is empty", ErrInvalidDimensions)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if bounds.Dx() == width && bounds.Dy() == height {
		draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
		return dst, nil
	}

	draw.Draw(dst, dst.Rect, image.NewUniform(color.Black), image.Point{}, draw.Src)

	scale := min(float64(width)/float64(bounds.Dx()), float64(height)/float64(bounds.Dy()))
	w := max(1, int(float64(bounds.Dx())*scale))
	h := max(1, int(float64(bounds.Dy())*scale))
	offX := (width - w) / 2
	offY := (height - h) / 2

	draw.CatmullRom.Scale(dst, image.Rect(offX, offY, offX+w, offY+h), img, bounds, draw.Over, nil)
	return dst, nil
}
