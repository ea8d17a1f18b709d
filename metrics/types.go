// Package metrics records per-frame outcomes of the buffer bridge and serves
// aggregated snapshots to the web UI.
//
// Types in this file are atoms: plain data with JSON tags and no behavior
// beyond construction.
package metrics

import (
	"time"

	"github.com/google/uuid"
)

// Frame status values.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Path labels as reported by the bridge.
const (
	PathDirect   = "direct"
	PathFallback = "fallback"
	PathNone     = "none"
)

// Health values for SystemStatus.
const (
	HealthRunning  = "running"
	HealthDegraded = "degraded"
	HealthStopped  = "stopped"
)

// FrameRecord is the outcome of one pipeline tick.
type FrameRecord struct {
	ID string `json:"id"`

	// Path is the bridge path that produced the output, or "none" when the
	// frame was passed through or failed on every path
	Path string `json:"path"`

	// Status is ok, failed or skipped (processing disabled)
	Status string `json:"status"`

	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`

	// ErrorKind is the bridge failure category, e.g. "lock" or "size_mismatch"
	ErrorKind string `json:"error_kind,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// NewFrameRecord returns a record with a fresh random ID and the current time.
func NewFrameRecord() FrameRecord {
	return FrameRecord{
		ID:        uuid.NewString(),
		Path:      PathNone,
		Status:    StatusOK,
		Timestamp: time.Now(),
	}
}

// FrameTotals counts frames by outcome.
type FrameTotals struct {
	Total    int64 `json:"total"`
	Direct   int64 `json:"direct"`
	Fallback int64 `json:"fallback"`
	Failed   int64 `json:"failed"`
	Skipped  int64 `json:"skipped"`
}

// SystemStatus is the service health summary.
type SystemStatus struct {
	Health    string        `json:"health"`
	Version   string        `json:"version"`
	Uptime    time.Duration `json:"uptime"`
	LastFrame time.Time     `json:"last_frame,omitempty"`
}

// Snapshot is the metrics part of the /api/stats payload.
type Snapshot struct {
	System      SystemStatus     `json:"system"`
	Frames      FrameTotals      `json:"frames"`
	FailuresBy  map[string]int64 `json:"failures_by_kind"`
	FPS         float64          `json:"fps"`
	AvgDuration time.Duration    `json:"avg_duration"`
	Recent      []FrameRecord    `json:"recent"`
}
