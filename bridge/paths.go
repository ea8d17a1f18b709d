package bridge

import (
	"context"
	"fmt"

	"edgecam/mat"
	"edgecam/pixbuf"
)

// pathStrategy is one way of getting src through the filter into dst.
type pathStrategy struct {
	path Path
	run  func(b *Bridge, ctx context.Context, src, dst pixbuf.Buffer) error
}

// strategies are tried in order until one succeeds.
var strategies = []pathStrategy{
	{path: PathDirect, run: (*Bridge).runDirect},
	{path: PathFallback, run: (*Bridge).runFallback},
}

// runDirect holds both locks for the whole call and filters the source
// memory in place. Only RGBA8888 is accepted on either side.
func (b *Bridge) runDirect(ctx context.Context, src, dst pixbuf.Buffer) error {
	srcInfo, err := queryInfo(src, "source")
	if err != nil {
		return err
	}
	dstInfo, err := queryInfo(dst, "destination")
	if err != nil {
		return err
	}
	if srcInfo.Format != pixbuf.FormatRGBA8888 {
		return fmt.Errorf("%w: direct source is %s", ErrUnsupportedFormat, srcInfo.Format)
	}
	if dstInfo.Format != pixbuf.FormatRGBA8888 {
		return fmt.Errorf("%w: destination is %s", ErrUnsupportedFormat, dstInfo.Format)
	}

	srcLease, err := b.acquire(ctx, src, srcInfo, "source")
	if err != nil {
		return err
	}
	defer b.release(srcLease, "source")

	dstLease, err := b.acquire(ctx, dst, dstInfo, "destination")
	if err != nil {
		return err
	}
	defer b.release(dstLease, "destination")

	srcView, err := srcLease.View()
	if err != nil {
		return fmt.Errorf("%w: source view: %v", ErrUnsupportedFormat, err)
	}
	dstView, err := dstLease.View()
	if err != nil {
		return fmt.Errorf("%w: destination view: %v", ErrUnsupportedFormat, err)
	}

	edgeMap, err := b.applyFilter(srcView)
	if err != nil {
		return err
	}
	return writeResult(edgeMap, dstView)
}

// runFallback never holds both locks at once. The source is cloned into
// owned memory (RGB565 is decoded to RGB), filtered unlocked, and written to
// the destination under its own lock.
func (b *Bridge) runFallback(ctx context.Context, src, dst pixbuf.Buffer) error {
	srcInfo, err := queryInfo(src, "source")
	if err != nil {
		return err
	}
	dstInfo, err := queryInfo(dst, "destination")
	if err != nil {
		return err
	}
	if dstInfo.Format != pixbuf.FormatRGBA8888 {
		return fmt.Errorf("%w: destination is %s", ErrUnsupportedFormat, dstInfo.Format)
	}

	input, err := b.copySource(ctx, src, srcInfo)
	if err != nil {
		return err
	}

	edgeMap, err := b.applyFilter(input)
	if err != nil {
		return err
	}

	dstLease, err := b.acquire(ctx, dst, dstInfo, "destination")
	if err != nil {
		return err
	}
	defer b.release(dstLease, "destination")

	dstView, err := dstLease.View()
	if err != nil {
		return fmt.Errorf("%w: destination view: %v", ErrUnsupportedFormat, err)
	}
	return writeResult(edgeMap, dstView)
}

// copySource clones the source pixels into an owned Mat and unlocks before
// returning.
func (b *Bridge) copySource(ctx context.Context, src pixbuf.Buffer, info pixbuf.Info) (*mat.Mat, error) {
	switch info.Format {
	case pixbuf.FormatRGBA8888, pixbuf.FormatRGB565:
	default:
		return nil, fmt.Errorf("%w: source is %s", ErrUnsupportedFormat, info.Format)
	}

	lease, err := b.acquire(ctx, src, info, "source")
	if err != nil {
		return nil, err
	}
	defer b.release(lease, "source")

	view, err := lease.View()
	if err != nil {
		return nil, fmt.Errorf("%w: source view: %v", ErrUnsupportedFormat, err)
	}

	var input *mat.Mat
	if info.Format == pixbuf.FormatRGB565 {
		input, err = mat.RGB565ToRGB(view)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
	} else {
		input = view.Clone()
	}
	if input.Empty() {
		return nil, fmt.Errorf("%w: source copy is empty", ErrUnsupportedFormat)
	}
	return input, nil
}

// queryInfo asks buf for its geometry and checks it is usable.
func queryInfo(buf pixbuf.Buffer, role string) (pixbuf.Info, error) {
	info, err := buf.Info()
	if err != nil {
		return pixbuf.Info{}, fmt.Errorf("%w: %s: %v", ErrInfoQuery, role, err)
	}
	if err := info.Validate(); err != nil {
		return info, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, role, err)
	}
	return info, nil
}

// acquire locks buf, bounding the wait by the bridge's lock timeout.
func (b *Bridge) acquire(ctx context.Context, buf pixbuf.Buffer, info pixbuf.Info, role string) (*pixbuf.Lease, error) {
	lockCtx, cancel := context.WithTimeout(ctx, b.lockTimeout)
	defer cancel()

	lease, err := pixbuf.Acquire(lockCtx, buf, info)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLock, role, err)
	}
	return lease, nil
}

func (b *Bridge) release(lease *pixbuf.Lease, role string) {
	if err := lease.Release(); err != nil {
		b.logger.Errorw("buffer unlock failed", "buffer", role, "error", err)
	}
}

// applyFilter runs the filter and checks its output. A panicking filter is
// reported as ErrFilter so deferred releases still run in order.
func (b *Bridge) applyFilter(src *mat.Mat) (out *mat.Mat, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %s panicked: %v", ErrFilter, b.filter.Name(), r)
		}
	}()

	out, err = b.filter.Apply(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilter, err)
	}
	if out.Empty() || out.Channels != 1 {
		return nil, fmt.Errorf("%w: %s returned no single-channel result", ErrFilter, b.filter.Name())
	}
	return out, nil
}

// writeResult expands edgeMap into dst, or reports a size mismatch and leaves
// dst untouched.
func writeResult(edgeMap, dst *mat.Mat) error {
	if !edgeMap.SameSize(dst) {
		return fmt.Errorf("%w: result %dx%d, destination %dx%d",
			ErrSizeMismatch, edgeMap.Width, edgeMap.Height, dst.Width, dst.Height)
	}
	if err := mat.GrayToRGBA(edgeMap, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return nil
}
