package pipeline

import (
	"fmt"
	"image"
	"strings"
)

// Effect is a display transform applied after edge detection.
type Effect string

const (
	EffectNone      Effect = "none"
	EffectGrayscale Effect = "grayscale"
	EffectInvert    Effect = "invert"
)

// effectCycle is the order CycleEffect walks.
var effectCycle = []Effect{EffectNone, EffectGrayscale, EffectInvert}

// ParseEffect parses an effect name case-insensitively.
func ParseEffect(s string) (Effect, error) {
	e := Effect(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range effectCycle {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEffect, s)
}

// Next returns the effect after e in the cycle.
func (e Effect) Next() Effect {
	for i, known := range effectCycle {
		if e == known {
			return effectCycle[(i+1)%len(effectCycle)]
		}
	}
	return EffectNone
}

// Apply transforms img in place.
func (e Effect) Apply(img *image.RGBA) {
	switch e {
	case EffectGrayscale:
		applyGrayscale(img)
	case EffectInvert:
		applyInvert(img)
	}
}

// applyGrayscale uses Rec. 601 weights 0.299, 0.587, 0.114 in fixed point.
func applyGrayscale(img *image.RGBA) {
	forEachPixel(img, func(p []byte) {
		y := byte((299*uint32(p[0]) + 587*uint32(p[1]) + 114*uint32(p[2]) + 500) / 1000)
		p[0], p[1], p[2] = y, y, y
	})
}

func applyInvert(img *image.RGBA) {
	forEachPixel(img, func(p []byte) {
		p[0], p[1], p[2] = 255-p[0], 255-p[1], 255-p[2]
	})
}

func forEachPixel(img *image.RGBA, fn func(p []byte)) {
	b := img.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		row := img.Pix[off : off+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			fn(row[i : i+4 : i+4])
		}
	}
}
