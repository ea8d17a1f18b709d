package pixbuf

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// gate is a single-holder lock whose acquisition can be abandoned through a
// context, unlike sync.Mutex.
type gate struct {
	sem     chan struct{}
	locks   atomic.Int64
	unlocks atomic.Int64
}

func newGate() gate {
	return gate{sem: make(chan struct{}, 1)}
}

func (g *gate) lock(ctx context.Context) error {
	select {
	case g.sem <- struct{}{}:
		g.locks.Add(1)
		return nil
	default:
	}

	select {
	case g.sem <- struct{}{}:
		g.locks.Add(1)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
	}
}

func (g *gate) unlock() error {
	select {
	case <-g.sem:
		g.unlocks.Add(1)
		return nil
	default:
		return ErrNotLocked
	}
}

func (g *gate) held() bool {
	return len(g.sem) == 1
}

// MemoryBuffer is a heap-backed Buffer. It stands in for camera and display
// surfaces and lets callers inject Info and Lock failures.
type MemoryBuffer struct {
	info Info
	pix  []byte
	gate gate

	mu      sync.Mutex
	infoErr error
	lockErr error
}

// NewMemoryBuffer allocates a zeroed buffer with a compact stride.
func NewMemoryBuffer(width, height int, format Format) (*MemoryBuffer, error) {
	info := NewInfo(width, height, format)
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return &MemoryBuffer{
		info: info,
		pix:  make([]byte, info.Size()),
		gate: newGate(),
	}, nil
}

// NewMemoryBufferFromImage allocates an RGBA8888 buffer holding a copy of img.
func NewMemoryBufferFromImage(img image.Image) (*MemoryBuffer, error) {
	b := img.Bounds()
	buf, err := NewMemoryBuffer(b.Dx(), b.Dy(), FormatRGBA8888)
	if err != nil {
		return nil, err
	}
	buf.drawImage(img)
	return buf, nil
}

// Info implements Buffer.
func (b *MemoryBuffer) Info() (Info, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.infoErr != nil {
		return Info{}, b.infoErr
	}
	return b.info, nil
}

// Lock implements Buffer.
func (b *MemoryBuffer) Lock(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	lockErr := b.lockErr
	b.mu.Unlock()
	if lockErr != nil {
		return nil, lockErr
	}

	if err := b.gate.lock(ctx); err != nil {
		return nil, err
	}
	return b.pix, nil
}

// Unlock implements Buffer.
func (b *MemoryBuffer) Unlock() error {
	return b.gate.unlock()
}

// Locked reports whether the buffer is currently locked.
func (b *MemoryBuffer) Locked() bool {
	return b.gate.held()
}

// LockCount returns the number of successful Lock calls.
func (b *MemoryBuffer) LockCount() int64 {
	return b.gate.locks.Load()
}

// UnlockCount returns the number of successful Unlock calls.
func (b *MemoryBuffer) UnlockCount() int64 {
	return b.gate.unlocks.Load()
}

// FailInfo makes subsequent Info calls return err. Pass nil to clear.
func (b *MemoryBuffer) FailInfo(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.infoErr = err
}

// FailLock makes subsequent Lock calls return err. Pass nil to clear.
func (b *MemoryBuffer) FailLock(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lockErr = err
}

// Bytes returns a copy of the pixel memory, taken under the buffer lock.
func (b *MemoryBuffer) Bytes(ctx context.Context) ([]byte, error) {
	if err := b.gate.lock(ctx); err != nil {
		return nil, err
	}
	defer b.gate.unlock()
	out := make([]byte, len(b.pix))
	copy(out, b.pix)
	return out, nil
}

// Load replaces the buffer contents with img, which must match the buffer
// size. Only RGBA8888 buffers can be loaded.
func (b *MemoryBuffer) Load(ctx context.Context, img image.Image) error {
	if b.info.Format != FormatRGBA8888 {
		return fmt.Errorf("%w: cannot load into %s", ErrUnsupportedFormat, b.info.Format)
	}
	bounds := img.Bounds()
	if bounds.Dx() != b.info.Width || bounds.Dy() != b.info.Height {
		return fmt.Errorf("%w: image %dx%d, buffer %dx%d", ErrInvalidGeometry,
			bounds.Dx(), bounds.Dy(), b.info.Width, b.info.Height)
	}
	if err := b.gate.lock(ctx); err != nil {
		return err
	}
	defer b.gate.unlock()
	b.drawImage(img)
	return nil
}

// drawImage converts img into the buffer's RGBA memory. Caller holds the lock
// or owns the buffer exclusively.
func (b *MemoryBuffer) drawImage(img image.Image) {
	dst := &image.RGBA{
		Pix:    b.pix,
		Stride: b.info.Stride,
		Rect:   image.Rect(0, 0, b.info.Width, b.info.Height),
	}
	draw.Draw(dst, dst.Rect, img, img.Bounds().Min, draw.Src)
}
