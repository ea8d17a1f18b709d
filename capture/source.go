package capture

import (
	"context"
	"image"
)

// Synthetic is the source name that selects the built-in test pattern.
const Synthetic = "synthetic"

// Source yields frames on demand. Next blocks at most until ctx is done and
// returns a fresh image the caller may keep. Implementations are not safe
// for concurrent Next calls; the pipeline pulls from one goroutine.
type Source interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

// Open returns the source for name, which is "synthetic" or a directory path.
// Frames are delivered at width x height.
func Open(name string, width, height int) (Source, error) {
	if name == "" || name == Synthetic {
		return NewSyntheticSource(width, height)
	}
	return NewDirSource(name, width, height)
}
