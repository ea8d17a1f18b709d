package edges

import "errors"

// Filter errors
var (
	ErrUnsupportedChannels = errors.New("edges: unsupported channel count")
	ErrEmptyImage          = errors.New("edges: empty image")
	ErrBackendUnavailable  = errors.New("edges: backend not available in this build")
	ErrUnknownBackend      = errors.New("edges: unknown backend")
)
