package metrics

// Collector is the write side of the metrics system. The pipeline records
// through it; the web UI reads Snapshot. Implementations must be safe for
// concurrent use.
type Collector interface {
	// RecordFrame adds one frame outcome to history and totals
	RecordFrame(rec FrameRecord)

	// SetFPS publishes the latest frames-per-second measurement
	SetFPS(fps float64)

	// Snapshot returns aggregated statistics and up to recent records,
	// newest last
	Snapshot(recent int) Snapshot
}
