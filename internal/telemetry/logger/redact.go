package logger

import (
	"log/slog"
	"strings"
)

// Value prefixes that identify credentials regardless of the key name.
var sensitiveValuePrefixes = []string{
	"Bearer ",
	"bearer ",
	"eyJ", // base64url JSON object header of a JWT
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
	"bearer",
	"cookie",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive redacts string attributes that carry credentials.
// Value prefixes are masked partially; sensitive key names are fully
// redacted.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		strVal := a.Value.String()
		if prefix, ok := sensitivePrefix(strVal); ok {
			return slog.String(a.Key, maskValue(strVal, prefix))
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}

	case slog.KindGroup:
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			redacted[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	return a
}

func sensitivePrefix(value string) (string, bool) {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// maskValue keeps the prefix plus the first and last 3 characters.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks a value that looks like a credential and returns
// other values unchanged.
func RedactString(value string) string {
	if prefix, ok := sensitivePrefix(value); ok {
		return maskValue(value, prefix)
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
