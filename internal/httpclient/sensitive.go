package httpclient

import "strings"

// Header name fragments that mark a header as credential-bearing. Matching is
// case-insensitive over substrings so vendor variants (X-Api-Key,
// X-Goog-Api-Key, Private-Token, ...) are caught without enumerating them.
var sensitiveHeaderFragments = []string{
	"auth",
	"token",
	"secret",
	"session",
	"cookie",
	"api-key",
	"apikey",
	"credential",
	"passw",
	"csrf",
	"xsrf",
	"tenant",
	"signature",
}

// Vendor header prefixes that carry signed or scoped credentials even when
// the name itself looks harmless.
var sensitiveHeaderPrefixes = []string{
	"x-amz-",
	"x-goog-",
	"x-ms-",
	"x-gitlab-",
	"x-github-",
	"x-vault-",
}

var sensitiveHeaderSuffixes = []string{
	"-key",
	"-secret",
	"-token",
}

// IsSensitiveHeader reports whether a header must be stripped when a redirect
// changes origin or transport security.
func IsSensitiveHeader(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, fragment := range sensitiveHeaderFragments {
		if strings.Contains(n, fragment) {
			return true
		}
	}
	for _, prefix := range sensitiveHeaderPrefixes {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	for _, suffix := range sensitiveHeaderSuffixes {
		if strings.HasSuffix(n, suffix) {
			return true
		}
	}
	return false
}

// Query parameter name fragments that mark a parameter as credential-bearing.
var sensitiveQueryFragments = []string{
	"key",
	"token",
	"secret",
	"auth",
	"session",
	"sig",
	"passw",
	"credential",
	"access",
	"private",
	"apikey",
	"code",
}

// IsSensitiveQueryKey reports whether a query parameter must be stripped on a
// cross-origin redirect and masked in diagnostics.
func IsSensitiveQueryKey(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, fragment := range sensitiveQueryFragments {
		if strings.Contains(n, fragment) {
			return true
		}
	}
	return false
}
