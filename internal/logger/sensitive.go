package logger

import (
	"regexp"
	"strings"
)

const redactedValue = "[REDACTED]"

// sensitiveKeywords mark field keys whose string values are never written out.
var sensitiveKeywords = []string{
	"password", "secret", "token", "api_key", "apikey", "authorization", "verification_code", "cookie",
}

var (
	bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-._~+/]+=*)`)
	emailPattern  = regexp.MustCompile(`([A-Za-z0-9._%+\-])[A-Za-z0-9._%+\-]*(@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)
)

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}

// RedactSensitiveData hides bearer tokens in free text.
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}
	return bearerPattern.ReplaceAllString(input, "${1}"+redactedValue)
}

// MaskEmail keeps the first character and domain: "clinic@example.com" → "c***@example.com".
func MaskEmail(email string) string {
	return emailPattern.ReplaceAllString(email, "${1}***${2}")
}
