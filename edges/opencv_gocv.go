//go:build gocv

package edges

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"edgecam/mat"
)

// openCV runs the fixed chain through OpenCV. Input channels are read in the
// same R, G, B(, A) order as the native backend.
type openCV struct{}

func newOpenCV() (Filter, error) {
	return openCV{}, nil
}

// Name implements Filter.
func (openCV) Name() string { return BackendOpenCV }

// Apply implements Filter.
func (openCV) Apply(src *mat.Mat) (*mat.Mat, error) {
	if err := checkInput(src); err != nil {
		return nil, err
	}

	var typ gocv.MatType
	switch src.Channels {
	case 1:
		typ = gocv.MatTypeCV8UC1
	case 3:
		typ = gocv.MatTypeCV8UC3
	default:
		typ = gocv.MatTypeCV8UC4
	}

	// NewMatFromBytes needs a compact buffer
	compact := src
	if src.Stride != src.Width*src.Channels {
		compact = src.Clone()
	}
	in, err := gocv.NewMatFromBytes(src.Height, src.Width, typ, compact.Pix)
	if err != nil {
		return nil, fmt.Errorf("edges: opencv input: %w", err)
	}
	defer in.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	switch src.Channels {
	case 1:
		in.CopyTo(&gray)
	case 3:
		gocv.CvtColor(in, &gray, gocv.ColorRGBToGray)
	default:
		gocv.CvtColor(in, &gray, gocv.ColorRGBAToGray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.Blur(gray, &blurred, image.Pt(BlurSize, BlurSize))

	edgeMap := gocv.NewMat()
	defer edgeMap.Close()
	gocv.Canny(blurred, &edgeMap, LowThreshold, HighThreshold)

	out := mat.New(src.Width, src.Height, 1)
	copy(out.Pix, edgeMap.ToBytes())
	return out, nil
}
