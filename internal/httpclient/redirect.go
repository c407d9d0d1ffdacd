package httpclient

import (
	"net/http"
	"net/url"
	"strings"
)

// MaxRedirects caps the redirect chain length for one fetch attempt.
const MaxRedirects = 10

// isRedirectStatus reports whether status carries a Location to follow.
func isRedirectStatus(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// redirectMethod applies the per-status method rules: 301/302/303 downgrade
// anything but GET/HEAD to GET and drop the body; 307/308 preserve both.
func redirectMethod(status int, method string) (string, bool) {
	switch status {
	case http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return method, true
	}
	if method == http.MethodGet || method == http.MethodHead {
		return method, false
	}
	return http.MethodGet, false
}

// crossesSecurityBoundary reports whether following prev -> next changes the
// destination host, the scheme, or downgrades transport security. Any of
// these requires credentials to be stripped, including headers the caller
// supplied explicitly.
func crossesSecurityBoundary(prev, next *url.URL) bool {
	if !strings.EqualFold(prev.Hostname(), next.Hostname()) {
		return true
	}
	if !strings.EqualFold(prev.Scheme, next.Scheme) {
		return true
	}
	if prev.Port() != next.Port() {
		return true
	}
	return false
}

// stripSensitiveHeaders removes every credential-bearing header in place and
// returns the removed names for logging.
func stripSensitiveHeaders(headers http.Header) []string {
	var removed []string
	for name := range headers {
		if IsSensitiveHeader(name) {
			removed = append(removed, name)
		}
	}
	for _, name := range removed {
		headers.Del(name)
	}
	return removed
}

// stripSensitiveQuery removes credential-bearing query parameters from u,
// leaving every other parameter intact.
func stripSensitiveQuery(u *url.URL) {
	if u.RawQuery == "" {
		return
	}
	query := u.Query()
	changed := false
	for key := range query {
		if IsSensitiveQueryKey(key) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}
