package bridge

import (
	"fmt"
	"math"

	"edgecam/mat"
)

// selfTestSize is the side of the square probe image used by SelfTest.
const selfTestSize = 100

// SelfTest filters a uniform mid-gray probe image and reports whether the
// filter produced a non-empty result. It never panics.
func (b *Bridge) SelfTest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	probe := mat.New(selfTestSize, selfTestSize, 3)
	probe.Fill(128)

	out, err := b.applyFilter(probe)
	if err != nil {
		b.logger.Errorw("self test failed", "filter", b.filter.Name(), "error", err)
		return false
	}
	b.logger.Infow("self test passed",
		"filter", b.filter.Name(),
		"width", out.Width,
		"height", out.Height,
	)
	return true
}

// ProcessFlatPixels filters a row-major array of packed RGBA pixels and
// returns a new array of the same length holding the edge map as opaque
// gray RGBA. Each pixel is little-endian packed: R | G<<8 | B<<16 | A<<24.
//
// On any failure it logs the cause and returns nil with the error.
func (b *Bridge) ProcessFlatPixels(pixels []uint32, width, height int) ([]uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out, err := b.processFlat(pixels, width, height)
	if err != nil {
		b.logger.Errorw("pixel array processing failed",
			"width", width,
			"height", height,
			"length", len(pixels),
			"kind", Kind(err),
			"error", err,
		)
		return nil, err
	}
	return out, nil
}

func (b *Bridge) processFlat(pixels []uint32, width, height int) ([]uint32, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidInput, width, height)
	}
	if width > math.MaxInt/4/height {
		return nil, fmt.Errorf("%w: dimensions %dx%d overflow", ErrInvalidInput, width, height)
	}
	if len(pixels) != width*height {
		return nil, fmt.Errorf("%w: %d pixels for %dx%d", ErrInvalidInput, len(pixels), width, height)
	}

	src := UnpackRGBA(pixels, width, height)
	edgeMap, err := b.applyFilter(src)
	if err != nil {
		return nil, err
	}

	rgba := mat.New(width, height, 4)
	if err := writeResult(edgeMap, rgba); err != nil {
		return nil, err
	}
	return PackRGBA(rgba), nil
}

// UnpackRGBA expands packed pixels into a 4-channel Mat. len(pixels) must be
// width*height.
func UnpackRGBA(pixels []uint32, width, height int) *mat.Mat {
	m := mat.New(width, height, 4)
	for i, p := range pixels {
		o := i * 4
		m.Pix[o+0] = byte(p)
		m.Pix[o+1] = byte(p >> 8)
		m.Pix[o+2] = byte(p >> 16)
		m.Pix[o+3] = byte(p >> 24)
	}
	return m
}

// PackRGBA packs a compact 4-channel Mat into little-endian RGBA words.
func PackRGBA(m *mat.Mat) []uint32 {
	out := make([]uint32, m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		row := m.Row(y)
		for x := 0; x < m.Width; x++ {
			p := row[x*4 : x*4+4]
			out[y*m.Width+x] = uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
		}
	}
	return out
}
