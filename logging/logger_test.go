package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// syncLogger ignores the "invalid argument" error Linux returns when syncing
// stdout.
func syncLogger(t testing.TB, logger *Logger) {
	t.Helper()
	if err := logger.Sync(); err != nil && !strings.Contains(err.Error(), "invalid argument") {
		t.Logf("Sync() warning: %v", err)
	}
}

func readJSONLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line is not JSON: %v\n%s", err, line)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger_WritesJSONFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "edgecam.log")

	logger, err := New(Options{FilePath: logPath, Console: zapcore.AddSync(&bytes.Buffer{})})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("frame processed", zap.String("path", "direct"), zap.Int("width", 640))
	syncLogger(t, logger)

	entries := readJSONLines(t, logPath)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e[FieldMessage] != "frame processed" {
		t.Errorf("msg = %v", e[FieldMessage])
	}
	if e[FieldLevel] != "info" {
		t.Errorf("level = %v, want info", e[FieldLevel])
	}
	if e["path"] != "direct" {
		t.Errorf("path = %v, want direct", e["path"])
	}
	if logger.LogFilePath() != logPath {
		t.Errorf("LogFilePath() = %q", logger.LogFilePath())
	}
}

func TestNewLogger_DevelopmentMode(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "dev.log")
	logger, err := NewLogger(true, logPath)
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	defer syncLogger(t, logger)

	if !logger.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
	logger.Debug("debug visible in development")
	syncLogger(t, logger)

	if entries := readJSONLines(t, logPath); len(entries) != 1 {
		t.Errorf("got %d entries, want debug entry written", len(entries))
	}
}

func TestNew_LevelOverride(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	level := zapcore.WarnLevel
	logger, err := New(Options{FilePath: logPath, Level: &level, Console: zapcore.AddSync(&bytes.Buffer{})})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept")
	syncLogger(t, logger)

	entries := readJSONLines(t, logPath)
	if len(entries) != 1 || entries[0][FieldMessage] != "kept" {
		t.Errorf("entries = %v, want only the warn entry", entries)
	}
}

func TestNew_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, err := New(Options{Console: zapcore.AddSync(&console)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Infow("self test passed", "size", 100)
	syncLogger(t, logger)

	if !strings.Contains(console.String(), "self test passed") {
		t.Errorf("console output = %q", console.String())
	}
	if logger.LogFilePath() != "" {
		t.Errorf("LogFilePath() = %q, want empty", logger.LogFilePath())
	}
}

func TestNew_UncreatableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(Options{FilePath: filepath.Join(blocker, "sub", "x.log")})
	if err == nil {
		t.Fatal("New() error = nil, want directory error")
	}
}

func TestLogger_RedactsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewFromZap(zap.New(core))

	logger.Info("auth", zap.String("control_password", "hunter2"))
	logger.Infow("request", "authorization", "Basic dXNlcjpodW50ZXIy", "note", "password=hunter2")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if got := entries[0].ContextMap()["control_password"]; got != RedactedPlaceholder {
		t.Errorf("control_password = %v, want redacted", got)
	}
	ctx := entries[1].ContextMap()
	if ctx["authorization"] != RedactedPlaceholder {
		t.Errorf("authorization = %v, want redacted", ctx["authorization"])
	}
	if strings.Contains(ctx["note"].(string), "hunter2") {
		t.Errorf("note leaked password: %v", ctx["note"])
	}
}

func TestLogger_NamedAndWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewFromZap(zap.New(core)).Named("bridge").With(zap.String("source", "synthetic"))

	logger.Errorw("buffer processing failed", "kind", "lock")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].LoggerName != "bridge" {
		t.Errorf("LoggerName = %q, want bridge", entries[0].LoggerName)
	}
	ctx := entries[0].ContextMap()
	if ctx["source"] != "synthetic" || ctx["kind"] != "lock" {
		t.Errorf("context = %v", ctx)
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Infow("nothing")
	logger.Errorw("nothing")
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() error: %v", err)
	}
}
