package logger

import (
	"net/url"
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@e***.com")
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	domain := parts[1]

	// Mask username: keep first char, mask rest
	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	// Mask domain: keep TLD, mask the rest
	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		// Mask all but the TLD
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}

// sensitiveQueryParams are query keys whose presence redacts the whole query
var sensitiveQueryParams = []string{"password", "token", "secret", "api_key", "apikey", "email", "auth", "signature"}

// SanitizeQueryString reports whether rawQuery names a sensitive parameter,
// in which case the whole query string should be redacted
func SanitizeQueryString(rawQuery string) bool {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Unparseable queries are redacted rather than logged raw
		return rawQuery != ""
	}

	for key := range values {
		key = strings.ToLower(key)
		for _, sensitive := range sensitiveQueryParams {
			if strings.Contains(key, sensitive) {
				return true
			}
		}
	}
	return false
}
