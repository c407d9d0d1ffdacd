package urlcheck

import (
	"net/netip"
	"strconv"
	"strings"
)

// ParseIPLiteral decodes a host component that names an IP address directly.
// Besides the canonical dotted-decimal and bracketed-IPv6 forms it decodes
// the legacy inet_aton notations (octal and hex octets, dotted-hex, partial
// dotted forms and the single 32-bit integer) that many HTTP stacks still
// accept and that are a classic filter bypass for "127.0.0.1"-style checks.
func ParseIPLiteral(host string) (netip.Addr, bool) {
	if host == "" {
		return netip.Addr{}, false
	}

	// Bracketed IPv6, possibly with a zone.
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		inner := host[1 : len(host)-1]
		if zone := strings.IndexByte(inner, '%'); zone >= 0 {
			inner = inner[:zone]
		}
		addr, err := netip.ParseAddr(inner)
		return addr, err == nil
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, true
	}

	return parseIPv4Legacy(host)
}

// parseIPv4Legacy implements inet_aton semantics: one to four dot-separated
// parts, each decimal, octal (leading 0) or hex (0x prefix); the final part
// fills all remaining bytes.
func parseIPv4Legacy(host string) (netip.Addr, bool) {
	parts := strings.Split(strings.TrimSuffix(host, "."), ".")
	if len(parts) == 0 || len(parts) > 4 {
		return netip.Addr{}, false
	}

	values := make([]uint64, len(parts))
	for i, part := range parts {
		v, ok := parseIPv4Part(part)
		if !ok {
			return netip.Addr{}, false
		}
		values[i] = v
	}

	// Leading parts are single bytes; the last part covers the rest.
	var ip uint64
	for i, v := range values {
		if i == len(values)-1 {
			remaining := uint(4 - (len(values) - 1))
			if v >= 1<<(8*remaining) {
				return netip.Addr{}, false
			}
			ip = ip<<(8*remaining) | v
		} else {
			if v > 0xff {
				return netip.Addr{}, false
			}
			ip = ip<<8 | v
		}
	}

	return netip.AddrFrom4([4]byte{
		byte(ip >> 24), byte(ip >> 16), byte(ip >> 8), byte(ip),
	}), true
}

func parseIPv4Part(part string) (uint64, bool) {
	if part == "" {
		return 0, false
	}
	base := 10
	switch {
	case strings.HasPrefix(part, "0x") || strings.HasPrefix(part, "0X"):
		part = part[2:]
		base = 16
		if part == "" {
			return 0, false
		}
	case len(part) > 1 && part[0] == '0':
		part = part[1:]
		base = 8
	}
	v, err := strconv.ParseUint(part, base, 64)
	if err != nil || v > 0xffffffff {
		return 0, false
	}
	return v, true
}
