package mat

import "fmt"

// GrayToRGBA expands a single-channel Mat into a 4-channel destination by
// replicating the value into R, G and B with opaque alpha. dst may be a view;
// it is written in place and left untouched on error.
func GrayToRGBA(src, dst *Mat) error {
	if src.Channels != 1 {
		return fmt.Errorf("%w: gray source has %d channels", ErrChannelMismatch, src.Channels)
	}
	if dst.Channels != 4 {
		return fmt.Errorf("%w: rgba destination has %d channels", ErrChannelMismatch, dst.Channels)
	}
	if !src.SameSize(dst) {
		return fmt.Errorf("%w: %dx%d into %dx%d", ErrSizeMismatch, src.Width, src.Height, dst.Width, dst.Height)
	}

	for y := 0; y < src.Height; y++ {
		in := src.Row(y)
		out := dst.Row(y)
		for x, v := range in {
			o := x * 4
			out[o+0] = v
			out[o+1] = v
			out[o+2] = v
			out[o+3] = 0xff
		}
	}
	return nil
}

// RGB565ToRGB decodes a 2-byte-per-pixel little-endian RGB565 view into an
// owned 3-channel RGB Mat. The 5- and 6-bit fields are widened by bit
// replication so 0x1f maps to 0xff.
func RGB565ToRGB(src *Mat) (*Mat, error) {
	if src.Channels != 2 {
		return nil, fmt.Errorf("%w: rgb565 source has %d channels", ErrChannelMismatch, src.Channels)
	}
	out := New(src.Width, src.Height, 3)
	for y := 0; y < src.Height; y++ {
		in := src.Row(y)
		row := out.Row(y)
		for x := 0; x < src.Width; x++ {
			v := uint16(in[x*2]) | uint16(in[x*2+1])<<8
			r := byte(v>>11) & 0x1f
			g := byte(v>>5) & 0x3f
			b := byte(v) & 0x1f
			row[x*3+0] = r<<3 | r>>2
			row[x*3+1] = g<<2 | g>>4
			row[x*3+2] = b<<3 | b>>2
		}
	}
	return out, nil
}

// PackRGB565 encodes an 8-bit RGB triple into a little-endian RGB565 pair.
func PackRGB565(r, g, b byte) (lo, hi byte) {
	v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
	return byte(v), byte(v >> 8)
}
