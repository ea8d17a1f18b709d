package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"edgecam/edges"
	"edgecam/pixbuf"
)

// DefaultLockTimeout bounds each buffer lock wait when Config leaves it unset.
const DefaultLockTimeout = 2 * time.Second

// Path identifies which strategy produced a result.
type Path int

const (
	// PathNone means no strategy succeeded
	PathNone Path = iota

	// PathDirect filtered the locked source memory in place
	PathDirect

	// PathFallback filtered an owned copy of the source
	PathFallback
)

// String returns the lowercase path name.
func (p Path) String() string {
	switch p {
	case PathDirect:
		return "direct"
	case PathFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Config configures a Bridge. Zero values select defaults.
type Config struct {
	// Filter defaults to edges.Native
	Filter edges.Filter

	// Logger defaults to a no-op logger
	Logger Logger

	// LockTimeout defaults to DefaultLockTimeout
	LockTimeout time.Duration
}

// Result describes one ProcessBuffers call.
type Result struct {
	Path     Path
	Duration time.Duration
	Err      error
}

// Stats is a point-in-time copy of a Bridge's counters.
type Stats struct {
	Calls    uint64 `json:"calls"`
	Direct   uint64 `json:"direct"`
	Fallback uint64 `json:"fallback"`
	Failed   uint64 `json:"failed"`
}

// Bridge connects pixel buffers to an edge filter. Calls are serialised; a
// Bridge is safe for use from multiple goroutines but never runs two calls
// at once.
type Bridge struct {
	filter      edges.Filter
	logger      Logger
	lockTimeout time.Duration

	mu sync.Mutex

	calls    atomic.Uint64
	direct   atomic.Uint64
	fallback atomic.Uint64
	failed   atomic.Uint64
}

// New creates a Bridge from cfg.
func New(cfg Config) *Bridge {
	if cfg.Filter == nil {
		cfg.Filter = edges.Native{}
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	return &Bridge{
		filter:      cfg.Filter,
		logger:      cfg.Logger,
		lockTimeout: cfg.LockTimeout,
	}
}

// FilterName returns the name of the configured filter backend.
func (b *Bridge) FilterName() string {
	return b.filter.Name()
}

// Stats returns the bridge's counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Calls:    b.calls.Load(),
		Direct:   b.direct.Load(),
		Fallback: b.fallback.Load(),
		Failed:   b.failed.Load(),
	}
}

// ProcessBuffers writes the edge map of src into dst as opaque RGBA.
// See Process for details; the returned error is Result.Err.
func (b *Bridge) ProcessBuffers(ctx context.Context, src, dst pixbuf.Buffer) error {
	return b.Process(ctx, src, dst).Err
}

// Process tries the direct path and then the fallback path. The first
// success wins. A cancelled ctx stops the attempt without falling back.
func (b *Bridge) Process(ctx context.Context, src, dst pixbuf.Buffer) Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	b.calls.Add(1)

	var err error
	for _, s := range strategies {
		err = s.run(b, ctx, src, dst)
		if err == nil {
			b.countPath(s.path)
			return Result{Path: s.path, Duration: time.Since(start)}
		}
		if ctx.Err() != nil {
			break
		}
		b.logger.Infow("buffer path failed",
			"path", s.path.String(),
			"kind", Kind(err),
			"error", err,
		)
	}

	b.failed.Add(1)
	b.logger.Errorw("buffer processing failed",
		"kind", Kind(err),
		"error", err,
	)
	return Result{Path: PathNone, Duration: time.Since(start), Err: err}
}

func (b *Bridge) countPath(p Path) {
	switch p {
	case PathDirect:
		b.direct.Add(1)
	case PathFallback:
		b.fallback.Add(1)
	}
}
