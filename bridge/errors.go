package bridge

import "errors"

// Bridge errors. Returned errors wrap exactly one of these.
var (
	ErrInfoQuery         = errors.New("bridge: buffer info query failed")
	ErrLock              = errors.New("bridge: buffer lock failed")
	ErrUnsupportedFormat = errors.New("bridge: unsupported buffer format")
	ErrSizeMismatch      = errors.New("bridge: size mismatch")
	ErrFilter            = errors.New("bridge: filter failed")
	ErrInvalidInput      = errors.New("bridge: invalid pixel array")
)

// Kind returns a short label for the sentinel wrapped by err, for metrics and
// log fields. It returns "" for nil and "other" for unrecognised errors.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInfoQuery):
		return "info_query"
	case errors.Is(err, ErrLock):
		return "lock"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrSizeMismatch):
		return "size_mismatch"
	case errors.Is(err, ErrFilter):
		return "filter"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "other"
	}
}
