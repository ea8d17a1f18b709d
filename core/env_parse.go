package core

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// lookupEnv returns the trimmed value of key and whether it holds anything.
func lookupEnv(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// GetEnvOrDefault returns the value of key, or defaultValue when it is unset
// or blank. The value is returned as written, surrounding spaces included,
// so passwords survive intact.
func GetEnvOrDefault(key, defaultValue string) string {
	if _, ok := lookupEnv(key); !ok {
		return defaultValue
	}
	return os.Getenv(key)
}

// ParseIntEnv parses key as a base-10 integer. Unset or unparsable values
// return defaultValue so that ApplyEnv keeps the YAML or default setting.
func ParseIntEnv(key string, defaultValue int) int {
	v, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

// ParseBoolEnv parses key as a boolean. "true", "1", "yes" and "on" are true,
// "false", "0", "no" and "off" are false, case-insensitively. Anything else
// returns defaultValue.
func ParseBoolEnv(key string, defaultValue bool) bool {
	v, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// ParseDurationEnv parses key either as whole seconds ("15") or as a Go
// duration ("1m30s", "500ms"), the latter matching the YAML form.
func ParseDurationEnv(key string, defaultValue time.Duration) time.Duration {
	v, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return defaultValue
}
