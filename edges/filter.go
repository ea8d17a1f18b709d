package edges

import (
	"fmt"
	"strings"

	"edgecam/mat"
)

// Fixed filter parameters.
const (
	// LowThreshold is the Canny hysteresis lower bound
	LowThreshold = 50

	// HighThreshold is the Canny hysteresis upper bound
	HighThreshold = 150

	// ApertureSize is the Sobel kernel size
	ApertureSize = 3

	// BlurSize is the side of the normalised box blur kernel
	BlurSize = 3

	// EdgeValue marks an edge pixel in the output map
	EdgeValue = 255
)

// Backend names accepted by NewFilter.
const (
	BackendNative = "native"
	BackendOpenCV = "opencv"
)

// Filter turns an image with 1, 3 or 4 channels into a single-channel edge
// map of the same size. The input is never modified.
type Filter interface {
	Name() string
	Apply(src *mat.Mat) (*mat.Mat, error)
}

// Native is the pure Go Filter.
type Native struct{}

// Name implements Filter.
func (Native) Name() string { return BackendNative }

// Apply implements Filter.
func (Native) Apply(src *mat.Mat) (*mat.Mat, error) {
	return Detect(src)
}

// NewFilter returns the Filter for the named backend. An empty name selects
// the native backend.
func NewFilter(backend string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendNative:
		return Native{}, nil
	case BackendOpenCV:
		return newOpenCV()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Detect runs the fixed chain Gray -> Blur -> Canny on src.
func Detect(src *mat.Mat) (*mat.Mat, error) {
	gray, err := Gray(src)
	if err != nil {
		return nil, err
	}
	return Canny(Blur(gray)), nil
}

// checkInput validates the shape shared by every backend.
func checkInput(src *mat.Mat) error {
	if src.Empty() {
		return ErrEmptyImage
	}
	switch src.Channels {
	case 1, 3, 4:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedChannels, src.Channels)
	}
}
