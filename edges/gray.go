package edges

import "edgecam/mat"

// BT.601 luma weights in Q14 fixed point. They sum to 1<<14.
const (
	grayShift = 14
	grayR     = 4899
	grayG     = 9617
	grayB     = 1868
	grayRound = 1 << (grayShift - 1)
)

// Gray converts src to a single-channel image.
//
// Three-channel input is read as R, G, B and four-channel input as R, G, B, A
// with alpha ignored. Single-channel input is cloned unchanged, so Gray is
// idempotent. This is a pure function with no side effects.
func Gray(src *mat.Mat) (*mat.Mat, error) {
	if err := checkInput(src); err != nil {
		return nil, err
	}
	if src.Channels == 1 {
		return src.Clone(), nil
	}

	out := mat.New(src.Width, src.Height, 1)
	ch := src.Channels
	for y := 0; y < src.Height; y++ {
		in := src.Row(y)
		row := out.Row(y)
		for x := range row {
			p := in[x*ch : x*ch+3]
			row[x] = luma(p[0], p[1], p[2])
		}
	}
	return out, nil
}

func luma(r, g, b byte) byte {
	return byte((int(r)*grayR + int(g)*grayG + int(b)*grayB + grayRound) >> grayShift)
}
