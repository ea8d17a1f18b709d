package capture

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
)

// DirSource plays the images of a directory in name order, looping forever.
// Each image is decoded and fitted to the frame size when it comes up.
type DirSource struct {
	dir    string
	files  []string
	width  int
	height int
	next   int
	closed atomic.Bool
}

// NewDirSource lists dir and returns a source over its supported images.
// Subdirectories are ignored.
func NewDirSource(dir string, width, height int) (*DirSource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedImage(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, dir)
	}
	sort.Strings(files)

	return &DirSource{dir: dir, files: files, width: width, height: height}, nil
}

// Files returns the playlist.
func (s *DirSource) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// Next implements Source. A file that fails to decode is skipped; if no
// file in a full cycle decodes, ErrNoFrames is returned.
func (s *DirSource) Next(ctx context.Context) (image.Image, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var lastErr error
	for range s.files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := s.files[s.next]
		s.next = (s.next + 1) % len(s.files)

		img, err := LoadImage(path)
		if err != nil {
			lastErr = err
			continue
		}
		return Fit(img, s.width, s.height)
	}
	return nil, fmt.Errorf("%w: %s (last error: %v)", ErrNoFrames, s.dir, lastErr)
}

// Close implements Source.
func (s *DirSource) Close() error {
	s.closed.Store(true)
	return nil
}
