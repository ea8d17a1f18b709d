package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Filter backends and display effects accepted in configuration.
var (
	validBackends = []string{"native", "opencv"}
	validEffects  = []string{"none", "grayscale", "invert"}
)

// SourceSynthetic selects the built-in moving test pattern as frame source.
const SourceSynthetic = "synthetic"

// Config holds all configuration values.
//
// Values are layered: defaults, then the optional YAML file named by
// EDGECAM_CONFIG, then EDGECAM_* environment variables.
type Config struct {
	// Server
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Frame source: "synthetic" or a directory of images
	Source      string `yaml:"source"`
	FrameWidth  int    `yaml:"frame_width"`
	FrameHeight int    `yaml:"frame_height"`
	FPS         int    `yaml:"fps"`

	// Processing
	FilterBackend string `yaml:"filter_backend"`
	LockTimeoutMS int    `yaml:"lock_timeout_ms"`
	Processing    bool   `yaml:"processing"`
	Effect        string `yaml:"effect"`
	JPEGQuality   int    `yaml:"jpeg_quality"`

	// ControlPassword protects the control endpoints when set
	ControlPassword string `yaml:"control_password"`

	// Logging
	LogFile    string `yaml:"log_file"`
	LogLevel   string `yaml:"log_level"`
	LogMaxSize string `yaml:"log_max_size"`
	DevMode    bool   `yaml:"dev_mode"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Host:          "0.0.0.0",
		Port:          8080,
		Source:        SourceSynthetic,
		FrameWidth:    640,
		FrameHeight:   480,
		FPS:           30,
		FilterBackend: "native",
		LockTimeoutMS: 2000,
		Processing:    true,
		Effect:        "none",
		JPEGQuality:   80,
		LogFile:       "edgecam.log",
		LogLevel:      "info",
		LogMaxSize:    "20MB",

		ShutdownTimeout: 15 * time.Second,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// and the environment, then validates it.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("EDGECAM_CONFIG"); path != "" {
		if err := cfg.LoadYAML(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadYAML overlays the keys present in the YAML file at path.
func (c *Config) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrConfigFile(path, err.Error())
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return ErrConfigFile(path, err.Error())
	}
	return nil
}

// ApplyEnv overrides fields from EDGECAM_* environment variables. Unset or
// unparsable variables leave the current value in place.
func (c *Config) ApplyEnv() {
	c.Host = GetEnvOrDefault("EDGECAM_HOST", c.Host)
	c.Port = ParseIntEnv("EDGECAM_PORT", c.Port)
	c.Source = GetEnvOrDefault("EDGECAM_SOURCE", c.Source)
	c.FrameWidth = ParseIntEnv("EDGECAM_FRAME_WIDTH", c.FrameWidth)
	c.FrameHeight = ParseIntEnv("EDGECAM_FRAME_HEIGHT", c.FrameHeight)
	c.FPS = ParseIntEnv("EDGECAM_FPS", c.FPS)
	c.FilterBackend = GetEnvOrDefault("EDGECAM_FILTER_BACKEND", c.FilterBackend)
	c.LockTimeoutMS = ParseIntEnv("EDGECAM_LOCK_TIMEOUT_MS", c.LockTimeoutMS)
	c.Processing = ParseBoolEnv("EDGECAM_PROCESSING", c.Processing)
	c.Effect = GetEnvOrDefault("EDGECAM_EFFECT", c.Effect)
	c.JPEGQuality = ParseIntEnv("EDGECAM_JPEG_QUALITY", c.JPEGQuality)
	c.ControlPassword = GetEnvOrDefault("EDGECAM_CONTROL_PASSWORD", c.ControlPassword)
	c.LogFile = GetEnvOrDefault("EDGECAM_LOG_FILE", c.LogFile)
	c.LogLevel = GetEnvOrDefault("EDGECAM_LOG_LEVEL", c.LogLevel)
	c.LogMaxSize = GetEnvOrDefault("EDGECAM_LOG_MAX_SIZE", c.LogMaxSize)
	c.DevMode = ParseBoolEnv("DEV_MODE", c.DevMode)
	c.ShutdownTimeout = ParseDurationEnv("EDGECAM_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

// Validate checks every field and returns the first problem as a
// *ConfigError.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidValue("EDGECAM_PORT", fmt.Sprint(c.Port), "a port between 1 and 65535")
	}
	if c.FrameWidth < 1 || c.FrameWidth > 8192 {
		return ErrInvalidValue("EDGECAM_FRAME_WIDTH", fmt.Sprint(c.FrameWidth), "a width between 1 and 8192")
	}
	if c.FrameHeight < 1 || c.FrameHeight > 8192 {
		return ErrInvalidValue("EDGECAM_FRAME_HEIGHT", fmt.Sprint(c.FrameHeight), "a height between 1 and 8192")
	}
	if c.FPS < 1 || c.FPS > 240 {
		return ErrInvalidValue("EDGECAM_FPS", fmt.Sprint(c.FPS), "a frame rate between 1 and 240")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return ErrInvalidValue("EDGECAM_JPEG_QUALITY", fmt.Sprint(c.JPEGQuality), "a quality between 1 and 100")
	}
	if c.LockTimeoutMS < 1 {
		return ErrInvalidValue("EDGECAM_LOCK_TIMEOUT_MS", fmt.Sprint(c.LockTimeoutMS), "a positive number of milliseconds")
	}
	if c.ShutdownTimeout < time.Second {
		return ErrInvalidValue("EDGECAM_SHUTDOWN_TIMEOUT", c.ShutdownTimeout.String(), "at least one second")
	}
	if !contains(validBackends, c.FilterBackend) {
		return ErrInvalidValue("EDGECAM_FILTER_BACKEND", c.FilterBackend, "one of "+strings.Join(validBackends, ", "))
	}
	if !contains(validEffects, c.Effect) {
		return ErrInvalidValue("EDGECAM_EFFECT", c.Effect, "one of "+strings.Join(validEffects, ", "))
	}
	if size, err := ParseBytes(c.LogMaxSize); err != nil || size < BytesPerMB {
		return ErrInvalidValue("EDGECAM_LOG_MAX_SIZE", c.LogMaxSize, "a size of at least 1MB, e.g. 20MB")
	}
	if c.Source != SourceSynthetic {
		st, err := os.Stat(c.Source)
		if err != nil || !st.IsDir() {
			return ErrSourceNotFound(c.Source)
		}
	}
	return nil
}

// LockTimeout returns the buffer lock timeout as a duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMS) * time.Millisecond
}

// FrameInterval returns the time between frames at the configured rate.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// LogMaxSizeMB returns the rotation size in whole megabytes, or 0 when the
// size is unparsable.
func (c *Config) LogMaxSizeMB() int {
	size, err := ParseBytes(c.LogMaxSize)
	if err != nil {
		return 0
	}
	return int(size / BytesPerMB)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HasControlPassword reports whether the control endpoints are protected.
func (c *Config) HasControlPassword() bool {
	return c.ControlPassword != ""
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
