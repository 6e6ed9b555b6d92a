package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces the value of any sensitive attribute.
const RedactedValue = "[REDACTED]"

// sensitiveKeys never reach the log sink in clear text. Keys are matched
// case-insensitively after trimming, and a key also matches when it ends in
// "_<sensitive key>" (for example "jwt_secret").
var sensitiveKeys = []string{
	"authorization",
	"signature",
	"secret",
	"private_key",
	"token",
	"password",
}

// IsSensitive reports whether values logged under key are masked.
func IsSensitive(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return false
	}
	for _, candidate := range sensitiveKeys {
		if normalized == candidate || strings.HasSuffix(normalized, "_"+candidate) {
			return true
		}
	}
	return false
}

// redactAttr masks string-valued sensitive attributes. Empty values stay as they
// are so absent credentials remain visible while debugging.
func redactAttr(attr slog.Attr) slog.Attr {
	if !IsSensitive(attr.Key) {
		return attr
	}
	if attr.Value.Kind() == slog.KindString && strings.TrimSpace(attr.Value.String()) == "" {
		return attr
	}
	return slog.String(attr.Key, RedactedValue)
}
