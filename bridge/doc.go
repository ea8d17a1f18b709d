// Package bridge runs the fixed edge filter over caller-owned pixel buffers.
//
// # Paths
//
// ProcessBuffers first tries the direct path: both buffers are locked, the
// locked memory is wrapped as mat views without copying, the filter reads the
// source view and the expanded RGBA result is written straight into the
// destination view. If any step fails it falls back to the copy path: the
// source is locked just long enough to clone it, the clone is filtered, and
// the destination is locked only to receive the result.
//
// Every lock is taken through pixbuf.Acquire and released by a deferred
// Lease.Release, so buffers are unlocked on every exit path including a
// panicking filter.
//
// # Reporting
//
// Failures are logged through the injected Logger and also returned as
// errors wrapping one of the sentinel errors below. The destination buffer is
// the only success channel; it is left unmodified when a call fails.
package bridge
