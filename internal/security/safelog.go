package security

import (
	"net/http"
	"regexp"
	"strings"
)

// sensitiveFields contains field names that should be masked in logs.
var sensitiveFields = map[string]bool{
	"password":   true,
	"sessionid":  true,
	"csrftoken":  true,
	"token":      true,
	"secret":     true,
	"credential": true,
	"cookie":     true,
	"set-cookie": true,
}

// sensitivePatterns match key=value or "key": "value" pairs whose value must not be logged.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)("?(?:password|sessionid|csrftoken|token|secret)"?\s*[=:]\s*)"?([^\s",;}]+)"?`),
}

// IsSensitiveField reports whether a field or cookie name holds a secret.
func IsSensitiveField(field string) bool {
	return sensitiveFields[strings.ToLower(field)]
}

// MaskSensitive masks secret values embedded in free text such as error
// messages or response bodies.
func MaskSensitive(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			sub := pattern.FindStringSubmatch(match)
			if len(sub) < 3 {
				return MaskCredential(match)
			}
			return sub[1] + MaskCredential(sub[2])
		})
	}
	return result
}

// CookieNames lists cookie names only, for logging which cookies were set
// without their values.
func CookieNames(cookies []*http.Cookie) []string {
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	return names
}
