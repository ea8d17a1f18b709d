// Package pixbuf defines externally owned pixel buffers and the scoped lock
// discipline used to borrow their memory.
//
// A Buffer is owned by its creator. Consumers query Info, take a Lease with
// Acquire, read or write the leased bytes, and Release the lease. Memory
// returned by a lease must not be retained after Release.
package pixbuf

import (
	"context"
	"errors"
	"fmt"
)

// Buffer errors
var (
	ErrUnsupportedFormat = errors.New("pixbuf: unsupported pixel format")
	ErrInvalidGeometry   = errors.New("pixbuf: invalid buffer geometry")
	ErrLockTimeout       = errors.New("pixbuf: timed out waiting for buffer lock")
	ErrNotLocked         = errors.New("pixbuf: buffer is not locked")
	ErrClosed            = errors.New("pixbuf: buffer is closed")
)

// Format identifies the in-memory pixel layout of a Buffer.
type Format int

const (
	// FormatUnknown is the zero value and never valid
	FormatUnknown Format = iota

	// FormatRGBA8888 stores 4 bytes per pixel in R, G, B, A order
	FormatRGBA8888

	// FormatRGB565 stores 2 bytes per pixel, little-endian, 5-6-5 bits
	FormatRGB565
)

// BytesPerPixel returns the pixel size in bytes, or 0 for unknown formats.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA8888:
		return 4
	case FormatRGB565:
		return 2
	default:
		return 0
	}
}

// String returns the conventional name of the format.
func (f Format) String() string {
	switch f {
	case FormatRGBA8888:
		return "RGBA_8888"
	case FormatRGB565:
		return "RGB_565"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Info describes a buffer's geometry.
type Info struct {
	Width  int
	Height int

	// Stride is the byte distance between rows
	Stride int

	Format Format
}

// Size returns the number of bytes spanned by the pixel rows.
func (i Info) Size() int {
	if i.Height <= 0 {
		return 0
	}
	return (i.Height-1)*i.Stride + i.Width*i.Format.BytesPerPixel()
}

// Validate checks that the geometry is usable.
func (i Info) Validate() error {
	bpp := i.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, i.Format)
	}
	if i.Width <= 0 || i.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, i.Width, i.Height)
	}
	if i.Stride < i.Width*bpp {
		return fmt.Errorf("%w: stride %d < %d", ErrInvalidGeometry, i.Stride, i.Width*bpp)
	}
	return nil
}

// NewInfo returns a compact Info for the given size and format.
func NewInfo(width, height int, format Format) Info {
	return Info{
		Width:  width,
		Height: height,
		Stride: width * format.BytesPerPixel(),
		Format: format,
	}
}

// Buffer is a fixed-size pixel region owned outside the caller.
//
// Lock must grant exclusive access and honour ctx cancellation while waiting.
// Unlock must be called exactly once per successful Lock.
type Buffer interface {
	Info() (Info, error)
	Lock(ctx context.Context) ([]byte, error)
	Unlock() error
}
