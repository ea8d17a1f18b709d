package edges

import "edgecam/mat"

// tan(22.5 degrees) in Q15, used to bin gradient directions without floats.
const tg22 = 13573

// Pixel states during hysteresis.
const (
	stateNone byte = iota
	stateWeak
	stateStrong
)

// Canny finds edges in a single-channel image using the fixed thresholds.
//
// Gradients come from a 3x3 Sobel operator with replicated borders and their
// magnitude is |gx|+|gy|. Non-maximum suppression keeps pixels that are a
// local maximum across the gradient, quantised to horizontal, vertical or
// one of two diagonals. Pixels above HighThreshold seed edges, which then
// grow through 8-connected neighbours above LowThreshold.
// This is a pure function with no side effects.
func Canny(src *mat.Mat) *mat.Mat {
	w, h := src.Width, src.Height
	dx, dy, mag := sobel(src)

	state := make([]byte, w*h)
	stack := make([]int, 0, w)

	magAt := func(x, y int) int32 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= LowThreshold {
				continue
			}

			gx, gy := dx[i], dy[i]
			xs, ys := abs32(gx), abs32(gy)
			t22 := int64(xs) * tg22
			ty := int64(ys) << 15

			var peak bool
			switch {
			case ty < t22:
				peak = m > magAt(x-1, y) && m >= magAt(x+1, y)
			case ty > t22+int64(xs)<<16:
				peak = m > magAt(x, y-1) && m >= magAt(x, y+1)
			default:
				s := 1
				if (gx < 0) != (gy < 0) {
					s = -1
				}
				peak = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
			}
			if !peak {
				continue
			}

			if m > HighThreshold {
				state[i] = stateStrong
				stack = append(stack, i)
			} else {
				state[i] = stateWeak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			if ny < 0 || ny >= h {
				continue
			}
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || nx >= w {
					continue
				}
				j := ny*w + nx
				if state[j] == stateWeak {
					state[j] = stateStrong
					stack = append(stack, j)
				}
			}
		}
	}

	out := mat.New(w, h, 1)
	for y := 0; y < h; y++ {
		row := out.Row(y)
		for x := range row {
			if state[y*w+x] == stateStrong {
				row[x] = EdgeValue
			}
		}
	}
	return out
}

// sobel returns the horizontal and vertical 3x3 Sobel derivatives of src and
// their L1 magnitude, indexed y*width+x.
func sobel(src *mat.Mat) (dx, dy, mag []int32) {
	w, h := src.Width, src.Height
	dx = make([]int32, w*h)
	dy = make([]int32, w*h)
	mag = make([]int32, w*h)

	for y := 0; y < h; y++ {
		up := src.Row(clamp(y-1, h))
		mid := src.Row(y)
		down := src.Row(clamp(y+1, h))
		for x := 0; x < w; x++ {
			l := clamp(x-1, w)
			r := clamp(x+1, w)

			gx := int32(up[r]) + 2*int32(mid[r]) + int32(down[r]) -
				int32(up[l]) - 2*int32(mid[l]) - int32(down[l])
			gy := int32(down[l]) + 2*int32(down[x]) + int32(down[r]) -
				int32(up[l]) - 2*int32(up[x]) - int32(up[r])

			i := y*w + x
			dx[i] = gx
			dy[i] = gy
			mag[i] = abs32(gx) + abs32(gy)
		}
	}
	return dx, dy, mag
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
