//go:build !gocv

package edges

// newOpenCV reports that this binary was built without the gocv tag.
// Build with -tags gocv (and OpenCV 4 installed) to enable it.
func newOpenCV() (Filter, error) {
	return nil, ErrBackendUnavailable
}
