//go:build unix

package pixbuf

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// flockPollInterval is how often a blocked Lock retries the advisory file lock.
const flockPollInterval = 2 * time.Millisecond

// MappedBuffer is a Buffer backed by a shared memory mapping of a file.
// Another process can map the same file and fill it; both sides coordinate
// through an exclusive flock on the file. The file carries no header, so the
// geometry is supplied by whoever opens it.
type MappedBuffer struct {
	info Info
	file *os.File
	data []byte
	gate gate

	mu     sync.Mutex
	closed bool
}

// CreateMappedBuffer creates (or truncates) path to hold a compact buffer of
// the given size and maps it read-write.
func CreateMappedBuffer(path string, width, height int, format Format) (*MappedBuffer, error) {
	info := NewInfo(width, height, format)
	if err := info.Validate(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("pixbuf: create %s: %w", path, err)
	}
	if err := f.Truncate(int64(info.Size())); err != nil {
		f.Close()
		return nil, fmt.Errorf("pixbuf: size %s: %w", path, err)
	}
	return mapFile(f, info)
}

// OpenMappedBuffer maps an existing file holding a buffer with geometry info.
func OpenMappedBuffer(path string, info Info) (*MappedBuffer, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("pixbuf: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pixbuf: stat %s: %w", path, err)
	}
	if st.Size() < int64(info.Size()) {
		f.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes, need %d", ErrInvalidGeometry, path, st.Size(), info.Size())
	}
	return mapFile(f, info)
}

func mapFile(f *os.File, info Info) (*MappedBuffer, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, info.Size(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pixbuf: mmap %s: %w", f.Name(), err)
	}
	return &MappedBuffer{
		info: info,
		file: f,
		data: data,
		gate: newGate(),
	}, nil
}

// Info implements Buffer.
func (b *MappedBuffer) Info() (Info, error) {
	if b.isClosed() {
		return Info{}, ErrClosed
	}
	return b.info, nil
}

// Lock implements Buffer. The in-process gate is taken first, then the
// cross-process flock; both waits are bounded by ctx.
func (b *MappedBuffer) Lock(ctx context.Context) ([]byte, error) {
	if b.isClosed() {
		return nil, ErrClosed
	}
	if err := b.gate.lock(ctx); err != nil {
		return nil, err
	}
	if err := b.flock(ctx); err != nil {
		b.gate.unlock()
		return nil, err
	}
	return b.data, nil
}

// Unlock implements Buffer.
func (b *MappedBuffer) Unlock() error {
	if !b.gate.held() {
		return ErrNotLocked
	}
	if err := unix.Flock(int(b.file.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("pixbuf: funlock %s: %w", b.file.Name(), err)
	}
	return b.gate.unlock()
}

// Close unmaps the memory and closes the file. It must not be called while
// the buffer is locked.
func (b *MappedBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	err := unix.Munmap(b.data)
	b.data = nil
	if cerr := b.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func (b *MappedBuffer) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *MappedBuffer) flock(ctx context.Context) error {
	fd := int(b.file.Fd())
	ticker := time.NewTicker(flockPollInterval)
	defer ticker.Stop()
	for {
		err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if err != unix.EWOULDBLOCK && err != unix.EINTR {
			return fmt.Errorf("pixbuf: flock %s: %w", b.file.Name(), err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}
