// Package logger provides structured logging for minikv.
package logger

import (
	"log/slog"
	"strings"
)

// Attribute keys whose values are client data. They are logged as their
// size only.
var payloadKeys = map[string]struct{}{
	"value":   {},
	"message": {},
	"payload": {},
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redact rewrites an attribute before it is written.
func redact(a slog.Attr) slog.Attr {
	if _, ok := payloadKeys[a.Key]; ok {
		switch a.Value.Kind() {
		case slog.KindString:
			return slog.Int(a.Key+"_len", len(a.Value.String()))
		case slog.KindAny:
			if b, ok := a.Value.Any().([]byte); ok {
				return slog.Int(a.Key+"_len", len(b))
			}
		}
	}

	if a.Value.Kind() == slog.KindString && a.Value.String() != "" && IsSensitiveKey(a.Key) {
		return slog.String(a.Key, redactedValue)
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redact(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
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
