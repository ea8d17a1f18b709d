package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEdgecamEnv makes sure variables from the developer's shell do not
// leak into a test.
func clearEdgecamEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "EDGECAM_") || key == "DEV_MODE" {
			t.Setenv(key, "")
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEdgecamEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.FrameWidth != 640 || cfg.FrameHeight != 480 {
		t.Errorf("frame = %dx%d, want 640x480", cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.JPEGQuality != 80 {
		t.Errorf("JPEGQuality = %d, want 80", cfg.JPEGQuality)
	}
	if cfg.LockTimeout() != 2*time.Second {
		t.Errorf("LockTimeout() = %v, want 2s", cfg.LockTimeout())
	}
	if !cfg.Processing {
		t.Error("Processing should default to true")
	}
	if cfg.Source != SourceSynthetic {
		t.Errorf("Source = %q, want synthetic", cfg.Source)
	}
	if cfg.HasControlPassword() {
		t.Error("HasControlPassword() = true with no password")
	}
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	clearEdgecamEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "edgecam.yaml")
	yamlData := []byte("port: 9000\nfps: 15\neffect: invert\nframe_width: 320\nshutdown_timeout: 5s\n")
	if err := os.WriteFile(path, yamlData, 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	t.Setenv("EDGECAM_CONFIG", path)
	t.Setenv("EDGECAM_FPS", "24")
	t.Setenv("EDGECAM_SOURCE", dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000 from YAML", cfg.Port)
	}
	if cfg.FPS != 24 {
		t.Errorf("FPS = %d, want 24 from env", cfg.FPS)
	}
	if cfg.Effect != "invert" {
		t.Errorf("Effect = %q, want invert", cfg.Effect)
	}
	if cfg.FrameWidth != 320 || cfg.FrameHeight != 480 {
		t.Errorf("frame = %dx%d, want 320x480", cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.Source != dir {
		t.Errorf("Source = %q, want %q", cfg.Source, dir)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s from YAML", cfg.ShutdownTimeout)
	}
	if cfg.FrameInterval() != time.Second/24 {
		t.Errorf("FrameInterval() = %v", cfg.FrameInterval())
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	clearEdgecamEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [unclosed\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	t.Setenv("EDGECAM_CONFIG", path)

	_, err := LoadConfig()
	if code := GetErrorCode(err); code != ErrCodeConfigFile {
		t.Fatalf("LoadConfig() error code = %q, want %q (err: %v)", code, ErrCodeConfigFile, err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, wantCode: ErrCodeInvalidValue},
		{name: "huge frame", mutate: func(c *Config) { c.FrameWidth = 10000 }, wantCode: ErrCodeInvalidValue},
		{name: "zero height", mutate: func(c *Config) { c.FrameHeight = 0 }, wantCode: ErrCodeInvalidValue},
		{name: "zero fps", mutate: func(c *Config) { c.FPS = 0 }, wantCode: ErrCodeInvalidValue},
		{name: "quality 101", mutate: func(c *Config) { c.JPEGQuality = 101 }, wantCode: ErrCodeInvalidValue},
		{name: "zero lock timeout", mutate: func(c *Config) { c.LockTimeoutMS = 0 }, wantCode: ErrCodeInvalidValue},
		{name: "unknown backend", mutate: func(c *Config) { c.FilterBackend = "cuda" }, wantCode: ErrCodeInvalidValue},
		{name: "opencv backend", mutate: func(c *Config) { c.FilterBackend = "opencv" }},
		{name: "unknown effect", mutate: func(c *Config) { c.Effect = "sepia" }, wantCode: ErrCodeInvalidValue},
		{name: "tiny log size", mutate: func(c *Config) { c.LogMaxSize = "512KB" }, wantCode: ErrCodeInvalidValue},
		{name: "bad log size", mutate: func(c *Config) { c.LogMaxSize = "lots" }, wantCode: ErrCodeInvalidValue},
		{name: "short shutdown", mutate: func(c *Config) { c.ShutdownTimeout = 100 * time.Millisecond }, wantCode: ErrCodeInvalidValue},
		{name: "missing source dir", mutate: func(c *Config) { c.Source = "/does/not/exist" }, wantCode: ErrCodeSourceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if got := GetErrorCode(err); got != tt.wantCode {
				t.Errorf("Validate() code = %q, want %q (err: %v)", got, tt.wantCode, err)
			}
			if tt.wantCode == "" && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestConfigAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 9090
	if got := cfg.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestConfigLogMaxSizeMB(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"20MB", 20},
		{"1GB", 1024},
		{"1.5MB", 1},
		{"junk", 0},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.LogMaxSize = tt.in
		if got := cfg.LogMaxSizeMB(); got != tt.want {
			t.Errorf("LogMaxSizeMB(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
