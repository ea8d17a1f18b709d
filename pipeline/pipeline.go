// Package pipeline runs the camera loop: pull a frame, run it through the
// buffer bridge, apply the display effect, encode JPEG and publish it to
// viewers.
//
// The loop runs on a single goroutine. Runtime switches live in Controls and
// may be changed from any goroutine.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"go.uber.org/zap"

	"edgecam/bridge"
	"edgecam/capture"
	"edgecam/logging"
	"edgecam/metrics"
	"edgecam/pixbuf"
	"edgecam/stream"
)

// Pipeline errors
var (
	ErrUnknownEffect = errors.New("pipeline: unknown effect")
	ErrNoSource      = errors.New("pipeline: no frame source")
)

// Processor runs the edge filter between two buffers. *bridge.Bridge
// implements it.
type Processor interface {
	Process(ctx context.Context, src, dst pixbuf.Buffer) bridge.Result
}

// Publisher receives encoded frames and overlay status. *stream.Hub
// implements it.
type Publisher interface {
	Publish(frame []byte)
	Broadcast(msg stream.Message) error
}

// OperationWrapper tracks a unit of work for graceful shutdown.
// *shutdown.Manager implements it.
type OperationWrapper interface {
	WrapOperation(ctx context.Context, name string, fn func(context.Context) error) error
}

// Config wires a Pipeline. Source and Processor are required.
type Config struct {
	Source    capture.Source
	Processor Processor
	Publisher Publisher
	Metrics   metrics.Collector
	Tracker   OperationWrapper
	Controls  *Controls
	Logger    *logging.Logger

	// FPS is the target frame rate (default 30)
	FPS int

	// JPEGQuality is 1..100 (default 80)
	JPEGQuality int
}

// Frame is the outcome of one Step.
type Frame struct {
	Record metrics.FrameRecord
	Image  *image.RGBA
	JPEG   []byte
}

// Pipeline is the frame loop.
type Pipeline struct {
	cfg      Config
	interval time.Duration
	fps      *metrics.FPSCounter

	// src and dst are reallocated when the incoming frame size changes
	src *pixbuf.MemoryBuffer
	dst *pixbuf.MemoryBuffer
}

// New validates cfg and returns a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, ErrNoSource
	}
	if cfg.Processor == nil {
		cfg.Processor = bridge.New(bridge.Config{})
	}
	if cfg.Controls == nil {
		cfg.Controls = NewControls(true, EffectNone)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 80
	}
	return &Pipeline{
		cfg:      cfg,
		interval: time.Second / time.Duration(cfg.FPS),
		fps:      metrics.NewFPSCounter(),
	}, nil
}

// Controls returns the pipeline's runtime switches.
func (p *Pipeline) Controls() *Controls {
	return p.cfg.Controls
}

// Run steps once per frame interval until ctx is done or the source closes.
// A failed frame is logged and the loop continues.
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cfg.Logger.Info("pipeline started",
		zap.Int("fps", p.cfg.FPS),
		zap.Int("jpeg_quality", p.cfg.JPEGQuality))

	for {
		select {
		case <-ctx.Done():
			p.cfg.Logger.Info("pipeline stopped")
			return nil
		case <-ticker.C:
		}

		err := p.tracked(ctx, func(ctx context.Context) error {
			_, err := p.Step(ctx)
			return err
		})
		switch {
		case err == nil:
		case ctx.Err() != nil:
			p.cfg.Logger.Info("pipeline stopped")
			return nil
		case errors.Is(err, capture.ErrClosed):
			return err
		default:
			p.cfg.Logger.Warn("frame failed", zap.Error(err))
		}
	}
}

func (p *Pipeline) tracked(ctx context.Context, fn func(context.Context) error) error {
	if p.cfg.Tracker == nil {
		return fn(ctx)
	}
	return p.cfg.Tracker.WrapOperation(ctx, "frame", fn)
}

// Step processes one frame. A bridge failure is not an error here: the
// frame is shown unprocessed and the failure is recorded. Errors are
// returned only when no frame could be produced.
func (p *Pipeline) Step(ctx context.Context) (*Frame, error) {
	rec := metrics.NewFrameRecord()
	start := time.Now()

	img, err := p.cfg.Source.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	if err := p.loadSource(ctx, img); err != nil {
		return nil, err
	}
	info, _ := p.src.Info()
	rec.Width, rec.Height = info.Width, info.Height

	state := p.cfg.Controls.State()
	out, err := p.render(ctx, state.Processing, &rec)
	if err != nil {
		return nil, err
	}
	state.Effect.Apply(out)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: p.cfg.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	rec.Duration = time.Since(start)

	if p.cfg.Publisher != nil {
		p.cfg.Publisher.Publish(buf.Bytes())
	}
	p.observe(rec, state)

	return &Frame{Record: rec, Image: out, JPEG: buf.Bytes()}, nil
}

// render returns the image to display: the edge map when processing is on
// and the bridge succeeds, otherwise a copy of the source frame.
func (p *Pipeline) render(ctx context.Context, processing bool, rec *metrics.FrameRecord) (*image.RGBA, error) {
	if !processing {
		rec.Status = metrics.StatusSkipped
		return p.snapshot(ctx, p.src)
	}

	if err := p.ensureDestination(); err != nil {
		return nil, err
	}
	res := p.cfg.Processor.Process(ctx, p.src, p.dst)
	rec.Path = res.Path.String()
	if res.Err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rec.Status = metrics.StatusFailed
		rec.ErrorKind = bridge.Kind(res.Err)
		rec.ErrorMsg = res.Err.Error()
		p.cfg.Logger.Warn("edge detection failed, showing original frame",
			logging.FailureFields(rec.ID, rec.ErrorKind, res.Err)...)
		return p.snapshot(ctx, p.src)
	}
	p.cfg.Logger.Debug("frame processed",
		logging.FrameFields(rec.ID, rec.Path, res.Duration, rec.Width, rec.Height)...)
	return p.snapshot(ctx, p.dst)
}

func (p *Pipeline) observe(rec metrics.FrameRecord, state ControlState) {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordFrame(rec)
	}
	fps, changed := p.fps.Tick()
	if !changed {
		return
	}
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.SetFPS(fps)
	}
	if p.cfg.Publisher != nil {
		msg := stream.NewStatusMessage(stream.StatusData{
			FPS:        fps,
			Path:       rec.Path,
			Processing: state.Processing,
			Effect:     string(state.Effect),
			Width:      rec.Width,
			Height:     rec.Height,
		})
		if err := p.cfg.Publisher.Broadcast(msg); err != nil {
			p.cfg.Logger.Warn("status broadcast failed", zap.Error(err))
		}
	}
}

// loadSource copies img into the source buffer, reallocating it when the
// frame size changes.
func (p *Pipeline) loadSource(ctx context.Context, img image.Image) error {
	b := img.Bounds()
	if p.src == nil || !sameSize(p.src, b.Dx(), b.Dy()) {
		buf, err := pixbuf.NewMemoryBufferFromImage(img)
		if err != nil {
			return fmt.Errorf("failed to allocate source buffer: %w", err)
		}
		if p.src != nil {
			p.cfg.Logger.Info("frame size changed",
				zap.Int("width", b.Dx()),
				zap.Int("height", b.Dy()))
		}
		p.src = buf
		return nil
	}
	if err := p.src.Load(ctx, img); err != nil {
		return fmt.Errorf("failed to load frame: %w", err)
	}
	return nil
}

// ensureDestination matches the destination buffer to the source size.
func (p *Pipeline) ensureDestination() error {
	info, err := p.src.Info()
	if err != nil {
		return err
	}
	if p.dst != nil && sameSize(p.dst, info.Width, info.Height) {
		return nil
	}
	dst, err := pixbuf.NewMemoryBuffer(info.Width, info.Height, pixbuf.FormatRGBA8888)
	if err != nil {
		return fmt.Errorf("failed to allocate destination buffer: %w", err)
	}
	p.dst = dst
	return nil
}

func (p *Pipeline) snapshot(ctx context.Context, buf *pixbuf.MemoryBuffer) (*image.RGBA, error) {
	info, err := buf.Info()
	if err != nil {
		return nil, err
	}
	pix, err := buf.Bytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read buffer: %w", err)
	}
	return &image.RGBA{
		Pix:    pix,
		Stride: info.Stride,
		Rect:   image.Rect(0, 0, info.Width, info.Height),
	}, nil
}

func sameSize(buf *pixbuf.MemoryBuffer, w, h int) bool {
	info, err := buf.Info()
	return err == nil && info.Width == w && info.Height == h
}
