package webui

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingMiddleware logs one structured entry per request. Server errors log
// at warn, everything else at debug or info depending on the path.
type LoggingMiddleware struct {
	logger *zap.Logger

	// quietPaths log at debug, e.g. health probes and stats polling
	quietPaths map[string]bool
}

// NewLoggingMiddleware creates the middleware. quietPaths are demoted to
// debug level.
func NewLoggingMiddleware(logger *zap.Logger, quietPaths ...string) *LoggingMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}
	return &LoggingMiddleware{logger: logger, quietPaths: quiet}
}

// Handler wraps next.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		level := zapcore.InfoLevel
		switch {
		case wrapped.statusCode >= 500:
			level = zapcore.WarnLevel
		case m.quietPaths[r.URL.Path]:
			level = zapcore.DebugLevel
		}
		if ce := m.logger.Check(level, "http request"); ce != nil {
			ce.Write(
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", clientIP(r)),
				zap.Int64("bytes", wrapped.bytesWritten),
				zap.Bool("upgraded", wrapped.hijacked),
			)
		}
	})
}

// responseRecorder captures the status code and size. It forwards Hijack so
// WebSocket upgrades pass through the middleware.
type responseRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
	hijacked     bool
}

func (w *responseRecorder) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("webui: response writer does not support hijacking")
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		w.hijacked = true
		w.statusCode = http.StatusSwitchingProtocols
	}
	return conn, rw, err
}

func (w *responseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
