package bridge

import (
	"context"

	"edgecam/pixbuf"
)

// std backs the package-level entry points. It uses the native filter and
// discards logs.
var std = New(Config{})

// SelfTest runs (*Bridge).SelfTest on the default bridge.
func SelfTest() bool {
	return std.SelfTest()
}

// ProcessBuffers runs (*Bridge).ProcessBuffers on the default bridge.
func ProcessBuffers(ctx context.Context, src, dst pixbuf.Buffer) error {
	return std.ProcessBuffers(ctx, src, dst)
}

// ProcessFlatPixels runs (*Bridge).ProcessFlatPixels on the default bridge.
func ProcessFlatPixels(pixels []uint32, width, height int) ([]uint32, error) {
	return std.ProcessFlatPixels(pixels, width, height)
}
