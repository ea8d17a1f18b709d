package logging

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RedactedPlaceholder replaces sensitive values.
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns match credentials embedded in free text, such as a
// logged Authorization header or a URL with userinfo.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(basic\s+[a-zA-Z0-9+/=]{8,})`),
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`),
	regexp.MustCompile(`(?i)(password\s*[:=]\s*[^\s,;]+)`),
	regexp.MustCompile(`(?i)(secret\s*[:=]\s*[^\s,;]+)`),
	regexp.MustCompile(`(\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53})`),
	regexp.MustCompile(`(?i)(://[^/\s:@]+:[^/\s@]+@)`),
}

// sensitiveFieldNames mark a field as sensitive when contained in its
// upper-cased key.
var sensitiveFieldNames = []string{
	"PASSWORD",
	"AUTHORIZATION",
	"SECRET",
	"TOKEN",
	"COOKIE",
}

// RedactSensitiveData replaces every credential-looking substring of value.
// This is a pure function with no side effects.
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}
	for _, p := range sensitivePatterns {
		value = p.ReplaceAllString(value, RedactedPlaceholder)
	}
	return value
}

// IsSensitiveField reports whether a field key names a credential, e.g.
// "EDGECAM_CONTROL_PASSWORD" or "authorization".
func IsSensitiveField(fieldName string) bool {
	upper := strings.ToUpper(fieldName)
	for _, name := range sensitiveFieldNames {
		if strings.Contains(upper, name) {
			return true
		}
	}
	return false
}

// RedactField returns the value to log for a named string field: the
// placeholder for credential keys, otherwise value with embedded credentials
// masked. Both logger paths route string values through it.
func RedactField(fieldName, fieldValue string) string {
	if IsSensitiveField(fieldName) {
		return RedactedPlaceholder
	}
	return RedactSensitiveData(fieldValue)
}

// ContainsSensitiveData reports whether value matches any credential pattern.
func ContainsSensitiveData(value string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

func redactFields(fields []zap.Field) []zap.Field {
	if len(fields) == 0 {
		return fields
	}
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = redactField(f)
	}
	return out
}

func redactField(f zap.Field) zap.Field {
	if f.Type == zapcore.StringType {
		if r := RedactField(f.Key, f.String); r != f.String {
			return zap.String(f.Key, r)
		}
		return f
	}
	if IsSensitiveField(f.Key) {
		return zap.String(f.Key, RedactedPlaceholder)
	}
	return f
}

func redactKeysAndValues(kv []interface{}) []interface{} {
	if len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		if s, ok := out[i+1].(string); ok {
			out[i+1] = RedactField(key, s)
		} else if IsSensitiveField(key) {
			out[i+1] = RedactedPlaceholder
		}
	}
	return out
}
