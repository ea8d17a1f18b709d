package metrics

import (
	"sync"
	"time"
)

// Store is the in-memory Collector. It keeps a bounded history of frame
// records plus running totals that survive history eviction.
//
//	store := metrics.NewStore(metrics.DefaultStoreConfig(), time.Now())
//	store.RecordFrame(rec)
//	snap := store.Snapshot(20)
type Store struct {
	history *History[FrameRecord]

	mu            sync.RWMutex
	totals        FrameTotals
	failuresBy    map[string]int64
	totalDuration time.Duration
	processed     int64
	fps           float64
	lastFrame     time.Time

	// recentFailures counts failed frames still in history; it drives the
	// degraded health state
	recentFailures int

	startTime time.Time
	version   string
	now       func() time.Time
}

// StoreConfig configures a Store.
type StoreConfig struct {
	// HistoryCapacity is the number of frame records retained
	HistoryCapacity int

	Version string
}

// DefaultStoreConfig returns a 300-frame history, ten seconds at 30 fps.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		HistoryCapacity: 300,
		Version:         "0.0.0",
	}
}

// NewStore creates a Store. startTime anchors uptime.
func NewStore(config StoreConfig, startTime time.Time) *Store {
	capacity := config.HistoryCapacity
	if capacity < 1 {
		capacity = DefaultStoreConfig().HistoryCapacity
	}
	return &Store{
		history:    NewHistory[FrameRecord](capacity),
		failuresBy: make(map[string]int64),
		startTime:  startTime,
		version:    config.Version,
		now:        time.Now,
	}
}

// RecordFrame implements Collector.
func (s *Store) RecordFrame(rec FrameRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted, full := s.oldestIfFull()
	s.history.Push(rec)

	s.totals.Total++
	switch rec.Status {
	case StatusFailed:
		s.totals.Failed++
		kind := rec.ErrorKind
		if kind == "" {
			kind = "other"
		}
		s.failuresBy[kind]++
		s.recentFailures++
	case StatusSkipped:
		s.totals.Skipped++
	default:
		switch rec.Path {
		case PathDirect:
			s.totals.Direct++
		case PathFallback:
			s.totals.Fallback++
		}
		s.totalDuration += rec.Duration
		s.processed++
	}
	if full && evicted.Status == StatusFailed {
		s.recentFailures--
	}
	if rec.Timestamp.After(s.lastFrame) {
		s.lastFrame = rec.Timestamp
	}
}

// oldestIfFull returns the record the next Push evicts. Caller holds s.mu.
func (s *Store) oldestIfFull() (FrameRecord, bool) {
	if s.history.Len() < s.history.Cap() {
		return FrameRecord{}, false
	}
	return s.history.Last(s.history.Cap())[0], true
}

// SetFPS implements Collector.
func (s *Store) SetFPS(fps float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fps = fps
}

// Snapshot implements Collector.
func (s *Store) Snapshot(recent int) Snapshot {
	records := s.history.Last(recent)

	s.mu.RLock()
	defer s.mu.RUnlock()

	failures := make(map[string]int64, len(s.failuresBy))
	for k, v := range s.failuresBy {
		failures[k] = v
	}

	var avg time.Duration
	if s.processed > 0 {
		avg = s.totalDuration / time.Duration(s.processed)
	}

	return Snapshot{
		System:      s.systemStatusLocked(),
		Frames:      s.totals,
		FailuresBy:  failures,
		FPS:         s.fps,
		AvgDuration: avg,
		Recent:      records,
	}
}

// SystemStatus returns the health summary. Health is degraded when more
// than half of the retained history failed.
func (s *Store) SystemStatus() SystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.systemStatusLocked()
}

func (s *Store) systemStatusLocked() SystemStatus {
	health := HealthRunning
	if n := s.history.Len(); n > 0 && s.recentFailures*2 > n {
		health = HealthDegraded
	}
	return SystemStatus{
		Health:    health,
		Version:   s.version,
		Uptime:    s.now().Sub(s.startTime),
		LastFrame: s.lastFrame,
	}
}

var _ Collector = (*Store)(nil)
