package urlcheck

import "strings"

// Suffixes of hostnames that must never be fetched: internal naming schemes,
// special-use TLDs, overlay networks and DNS-rebinding-as-a-service domains
// that resolve arbitrary labels to arbitrary (often private) addresses.
var blockedHostSuffixes = []string{
	".local",
	".internal",
	".localhost",
	".invalid",
	".test",
	".onion",
	".i2p",
	".lan",
	".arpa",
	".kubernetes",
	".cluster.local",
	".workgroup",
	".home",
	".corp",
	".nip.io",
	".sslip.io",
	".xip.io",
	".localtest.me",
	".lvh.me",
	".vcap.me",
	".traefik.me",
}

// Hostnames blocked exactly (a suffix entry also blocks its bare domain).
var blockedHostnames = map[string]struct{}{
	"localhost":    {},
	"nip.io":       {},
	"sslip.io":     {},
	"xip.io":       {},
	"localtest.me": {},
	"lvh.me":       {},
	"vcap.me":      {},
	"traefik.me":   {},
}

// isBlockedHostname matches hostnames case-insensitively after stripping one
// trailing dot (a fully-qualified "evil.local." must not bypass the list).
func isBlockedHostname(hostname string) bool {
	h := strings.ToLower(strings.TrimSuffix(hostname, "."))
	if _, ok := blockedHostnames[h]; ok {
		return true
	}
	for _, suffix := range blockedHostSuffixes {
		if strings.HasSuffix(h, suffix) || h == strings.TrimPrefix(suffix, ".") {
			return true
		}
	}
	return false
}
