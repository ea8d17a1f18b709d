package edges

import "edgecam/mat"

// Blur applies a normalised 3x3 box filter to a single-channel image.
// Borders are reflected without repeating the edge pixel (dcb|abcd|cba),
// and each output is the rounded mean of its nine neighbours.
func Blur(src *mat.Mat) *mat.Mat {
	w, h := src.Width, src.Height
	out := mat.New(w, h, 1)
	const n = BlurSize * BlurSize
	r := BlurSize / 2

	for y := 0; y < h; y++ {
		row := out.Row(y)
		for x := 0; x < w; x++ {
			sum := 0
			for ky := -r; ky <= r; ky++ {
				in := src.Row(reflect101(y+ky, h))
				for kx := -r; kx <= r; kx++ {
					sum += int(in[reflect101(x+kx, w)])
				}
			}
			row[x] = byte((sum + n/2) / n)
		}
	}
	return out
}

// reflect101 maps an out-of-range index back into [0, n).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*n - 2 - i
		}
	}
	return i
}

// clamp maps an out-of-range index to the nearest edge.
func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
