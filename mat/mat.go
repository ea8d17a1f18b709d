// Package mat provides the interleaved 8-bit image container shared by the
// buffer bridge and the edge filter.
//
// A Mat is either owned (allocated by New or Clone) or a view (built by Wrap
// over memory that belongs to someone else, typically a locked pixel buffer).
// Views never reallocate or retain their backing slice beyond the caller's
// lock scope; nothing in this package enforces that, the bridge does.
package mat

import (
	"errors"
	"fmt"
	"image"
)

// Mat errors
var (
	ErrInvalidGeometry = errors.New("mat: invalid geometry")
	ErrShortBuffer     = errors.New("mat: backing buffer too small")
	ErrSizeMismatch    = errors.New("mat: size mismatch")
	ErrChannelMismatch = errors.New("mat: channel count mismatch")
)

// Mat is a row-major, interleaved 8-bit image.
type Mat struct {
	// Width and Height are the pixel dimensions
	Width  int
	Height int

	// Channels is the number of interleaved samples per pixel (1..4)
	Channels int

	// Stride is the byte distance between the starts of consecutive rows
	Stride int

	// Pix holds the samples; for views it aliases foreign memory
	Pix []byte

	owned bool
}

// New allocates an owned, zeroed Mat with a compact stride.
func New(width, height, channels int) *Mat {
	if width < 0 || height < 0 || channels < 1 {
		return &Mat{owned: true}
	}
	return &Mat{
		Width:    width,
		Height:   height,
		Channels: channels,
		Stride:   width * channels,
		Pix:      make([]byte, width*height*channels),
		owned:    true,
	}
}

// Wrap builds a non-owning view over pix. No bytes are copied; writes through
// the view land in pix.
//
// stride may be 0 to mean width*channels.
func Wrap(pix []byte, width, height, channels, stride int) (*Mat, error) {
	if width <= 0 || height <= 0 || channels < 1 || channels > 4 {
		return nil, fmt.Errorf("%w: %dx%d with %d channels", ErrInvalidGeometry, width, height, channels)
	}
	if stride == 0 {
		stride = width * channels
	}
	if stride < width*channels {
		return nil, fmt.Errorf("%w: stride %d < row bytes %d", ErrInvalidGeometry, stride, width*channels)
	}
	need := (height-1)*stride + width*channels
	if len(pix) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, need, len(pix))
	}
	return &Mat{
		Width:    width,
		Height:   height,
		Channels: channels,
		Stride:   stride,
		Pix:      pix[:need],
	}, nil
}

// Empty reports whether the Mat holds no pixels.
func (m *Mat) Empty() bool {
	return m == nil || m.Width <= 0 || m.Height <= 0 || len(m.Pix) == 0
}

// Owned reports whether the Mat owns its memory.
func (m *Mat) Owned() bool {
	return m != nil && m.owned
}

// Row returns the samples of row y, without stride padding.
func (m *Mat) Row(y int) []byte {
	off := y * m.Stride
	return m.Pix[off : off+m.Width*m.Channels]
}

// At returns sample c of pixel (x, y).
func (m *Mat) At(x, y, c int) byte {
	return m.Pix[y*m.Stride+x*m.Channels+c]
}

// Set writes sample c of pixel (x, y).
func (m *Mat) Set(x, y, c int, v byte) {
	m.Pix[y*m.Stride+x*m.Channels+c] = v
}

// SameSize reports whether m and o have identical width and height.
func (m *Mat) SameSize(o *Mat) bool {
	return m.Width == o.Width && m.Height == o.Height
}

// Clone returns an owned deep copy with a compact stride.
func (m *Mat) Clone() *Mat {
	if m.Empty() {
		return &Mat{owned: true}
	}
	out := New(m.Width, m.Height, m.Channels)
	for y := 0; y < m.Height; y++ {
		copy(out.Row(y), m.Row(y))
	}
	return out
}

// CopyTo copies every row of m into dst. Both must have identical geometry
// and channel count; dst is untouched otherwise.
func (m *Mat) CopyTo(dst *Mat) error {
	if !m.SameSize(dst) {
		return fmt.Errorf("%w: %dx%d into %dx%d", ErrSizeMismatch, m.Width, m.Height, dst.Width, dst.Height)
	}
	if m.Channels != dst.Channels {
		return fmt.Errorf("%w: %d into %d", ErrChannelMismatch, m.Channels, dst.Channels)
	}
	for y := 0; y < m.Height; y++ {
		copy(dst.Row(y), m.Row(y))
	}
	return nil
}

// Fill sets every sample of every pixel to v.
func (m *Mat) Fill(v byte) {
	for y := 0; y < m.Height; y++ {
		row := m.Row(y)
		for i := range row {
			row[i] = v
		}
	}
}

// ToImage converts m into a standard library image for encoding.
// Single-channel Mats become *image.Gray; everything else becomes *image.RGBA
// (3-channel input gets opaque alpha, 2-channel input is rejected).
func (m *Mat) ToImage() (image.Image, error) {
	if m.Empty() {
		return nil, ErrInvalidGeometry
	}
	rect := image.Rect(0, 0, m.Width, m.Height)
	switch m.Channels {
	case 1:
		img := image.NewGray(rect)
		for y := 0; y < m.Height; y++ {
			copy(img.Pix[y*img.Stride:], m.Row(y))
		}
		return img, nil
	case 3:
		img := image.NewRGBA(rect)
		for y := 0; y < m.Height; y++ {
			src := m.Row(y)
			dst := img.Pix[y*img.Stride:]
			for x := 0; x < m.Width; x++ {
				dst[x*4+0] = src[x*3+0]
				dst[x*4+1] = src[x*3+1]
				dst[x*4+2] = src[x*3+2]
				dst[x*4+3] = 0xff
			}
		}
		return img, nil
	case 4:
		img := image.NewRGBA(rect)
		for y := 0; y < m.Height; y++ {
			copy(img.Pix[y*img.Stride:], m.Row(y))
		}
		return img, nil
	default:
		return nil, fmt.Errorf("%w: cannot render %d channels", ErrChannelMismatch, m.Channels)
	}
}

// FromRGBA wraps an *image.RGBA as a 4-channel view without copying.
func FromRGBA(img *image.RGBA) (*Mat, error) {
	b := img.Bounds()
	off := img.PixOffset(b.Min.X, b.Min.Y)
	return Wrap(img.Pix[off:], b.Dx(), b.Dy(), 4, img.Stride)
}
