package capture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// Pattern colours.
var (
	backgroundColor = color.RGBA{R: 0x20, G: 0x20, B: 0x28, A: 0xff}
	barColor        = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	boxColor        = color.RGBA{R: 0xd0, G: 0x60, B: 0x30, A: 0xff}
)

// SyntheticSource draws a moving test pattern: a light vertical bar sweeping
// right and an orange box bouncing vertically over a dark background. Every
// frame has strong edges for the detector.
type SyntheticSource struct {
	width  int
	height int
	frame  int
	closed atomic.Bool
}

// NewSyntheticSource creates a pattern source of the given size.
func NewSyntheticSource(width, height int) (*SyntheticSource, error) {
	if width < 8 || height < 8 {
		return nil, fmt.Errorf("%w: %dx%d, need at least 8x8", ErrInvalidDimensions, width, height)
	}
	return &SyntheticSource{width: width, height: height}, nil
}

// Next implements Source.
func (s *SyntheticSource) Next(ctx context.Context) (image.Image, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := s.Render(s.frame)
	s.frame++
	return img, nil
}

// Render draws frame number n. It is deterministic.
func (s *SyntheticSource) Render(n int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(img, img.Rect, image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	barW := max(2, s.width/16)
	barX := (n * 4) % (s.width + barW)
	bar := image.Rect(barX-barW, 0, barX, s.height).Intersect(img.Rect)
	draw.Draw(img, bar, image.NewUniform(barColor), image.Point{}, draw.Src)

	side := max(4, min(s.width, s.height)/4)
	travel := s.height - side
	y := n * 3 % (2 * travel)
	if y > travel {
		y = 2*travel - y
	}
	x := (s.width - side) / 2
	draw.Draw(img, image.Rect(x, y, x+side, y+side), image.NewUniform(boxColor), image.Point{}, draw.Src)
	return img
}

// Close implements Source.
func (s *SyntheticSource) Close() error {
	s.closed.Store(true)
	return nil
}
