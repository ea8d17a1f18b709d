package pixbuf

import (
	"context"
	"fmt"
	"sync"

	"edgecam/mat"
)

// Lease is a scoped lock on a Buffer. Obtain one with Acquire and defer its
// Release; Release is idempotent so it is safe on every exit path.
type Lease struct {
	buf  Buffer
	info Info
	pix  []byte

	once sync.Once
	err  error
}

// Acquire locks buf and returns a Lease over its memory. The lock wait is
// bounded by ctx. On error nothing is held.
func Acquire(ctx context.Context, buf Buffer, info Info) (*Lease, error) {
	pix, err := buf.Lock(ctx)
	if err != nil {
		return nil, err
	}
	if len(pix) < info.Size() {
		unlockErr := buf.Unlock()
		if unlockErr != nil {
			return nil, fmt.Errorf("%w: locked %d bytes, need %d (unlock: %v)", ErrInvalidGeometry, len(pix), info.Size(), unlockErr)
		}
		return nil, fmt.Errorf("%w: locked %d bytes, need %d", ErrInvalidGeometry, len(pix), info.Size())
	}
	return &Lease{buf: buf, info: info, pix: pix}, nil
}

// Pixels returns the leased memory. It is only valid until Release.
func (l *Lease) Pixels() []byte {
	return l.pix
}

// Info returns the geometry the lease was taken with.
func (l *Lease) Info() Info {
	return l.info
}

// View wraps the leased memory as a non-owning Mat. RGBA8888 maps to four
// channels and RGB565 to two raw byte channels.
func (l *Lease) View() (*mat.Mat, error) {
	return mat.Wrap(l.pix, l.info.Width, l.info.Height, l.info.Format.BytesPerPixel(), l.info.Stride)
}

// Release unlocks the buffer. Only the first call has an effect; later calls
// return the first call's result.
func (l *Lease) Release() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() {
		l.pix = nil
		l.err = l.buf.Unlock()
	})
	return l.err
}

// Snapshot locks buf just long enough to clone its pixels into an owned Mat.
func Snapshot(ctx context.Context, buf Buffer) (*mat.Mat, Info, error) {
	info, err := buf.Info()
	if err != nil {
		return nil, Info{}, err
	}
	if err := info.Validate(); err != nil {
		return nil, info, err
	}

	lease, err := Acquire(ctx, buf, info)
	if err != nil {
		return nil, info, err
	}
	defer lease.Release()

	view, err := lease.View()
	if err != nil {
		return nil, info, err
	}
	return view.Clone(), info, nil
}
