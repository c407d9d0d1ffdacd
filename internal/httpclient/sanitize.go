package httpclient

import (
	"net/url"
	"regexp"
	"strings"
)

// maxErrorMessageLength caps diagnostics so a hostile endpoint cannot blow up
// log lines with an unbounded URL or body echo.
const maxErrorMessageLength = 512

const maskedValue = "***"

var urlInTextPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// SanitizeURLString masks sensitive query values, strips userinfo and drops
// the fragment of a URL so it can appear in error messages and logs.
func SanitizeURLString(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		// Not parseable: keep only the part before any query or fragment.
		if idx := strings.IndexAny(rawURL, "?#"); idx >= 0 {
			return rawURL[:idx] + "?" + maskedValue
		}
		return rawURL
	}

	parsed.User = nil
	parsed.Fragment = ""

	if parsed.RawQuery != "" {
		query := parsed.Query()
		for key := range query {
			if IsSensitiveQueryKey(key) {
				query.Set(key, maskedValue)
			}
		}
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

// SanitizeErrorMessage masks every URL embedded in message and caps its
// length. All fetch-path errors pass through here on construction, so no
// credential or unbounded remote content reaches a log line.
func SanitizeErrorMessage(message string) string {
	sanitized := urlInTextPattern.ReplaceAllStringFunc(message, SanitizeURLString)
	if len(sanitized) > maxErrorMessageLength {
		sanitized = sanitized[:maxErrorMessageLength] + "..."
	}
	return sanitized
}
