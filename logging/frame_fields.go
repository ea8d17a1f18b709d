package logging

import (
	"time"

	"go.uber.org/zap"
)

// FrameFields returns the standard fields for one processed frame.
func FrameFields(frameID, path string, duration time.Duration, width, height int) []zap.Field {
	return []zap.Field{
		zap.String("frame_id", frameID),
		zap.String("path", path),
		zap.Duration("duration", duration),
		zap.Int("width", width),
		zap.Int("height", height),
	}
}

// FailureFields returns the standard fields for a failed frame.
func FailureFields(frameID, kind string, err error) []zap.Field {
	return []zap.Field{
		zap.String("frame_id", frameID),
		zap.String("kind", kind),
		zap.Error(err),
	}
}
