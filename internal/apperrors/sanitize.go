package apperrors

import (
	"regexp"
	"strings"

	"github.com/ernaz100/redmerce/internal/logger"
)

// Redacted replaces secret values in exposed messages.
const Redacted = "[REDACTED]"

// secretPattern captures a secret-looking key with its separator (group 1)
// and the value that follows.
var secretPattern = regexp.MustCompile(`(?i)((?:api[_-]?key|password|token|secret)\w*\s*[=:]\s*)\S+`)

// SanitizeMessage redacts the values of api_key=, password=, token= and
// secret= style pairs.
func SanitizeMessage(message string) string {
	return secretPattern.ReplaceAllString(message, "${1}"+Redacted)
}

// CheckAPIKey reports whether value holds a usable key and warns through log
// when it does not.
func CheckAPIKey(log logger.Logger, name, value string) bool {
	if strings.TrimSpace(value) == "" {
		log.Warn("API key not configured", map[string]interface{}{"key": name})
		return false
	}
	return true
}
