package urlcheck

import "net/netip"

var (
	v4Shared        = netip.MustParsePrefix("100.64.0.0/10")
	v4Reserved      = netip.MustParsePrefix("240.0.0.0/4")
	v4IETFProtocol  = netip.MustParsePrefix("192.0.0.0/24")
	v4TestNet1      = netip.MustParsePrefix("192.0.2.0/24")
	v4TestNet2      = netip.MustParsePrefix("198.51.100.0/24")
	v4TestNet3      = netip.MustParsePrefix("203.0.113.0/24")
	v4Benchmark     = netip.MustParsePrefix("198.18.0.0/15")
	v6UniqueLocal   = netip.MustParsePrefix("fc00::/7")
	v6SiteLocal     = netip.MustParsePrefix("fec0::/10")
	v6Documentation = netip.MustParsePrefix("2001:db8::/32")
	v6NAT64         = netip.MustParsePrefix("64:ff9b::/96")
	v6SixToFour     = netip.MustParsePrefix("2002::/16")
	v6Teredo        = netip.MustParsePrefix("2001::/32")
)

// IsSafeAddr reports whether connecting to addr is allowed. Anything that is
// not unambiguously a public, global unicast address is unsafe, including
// IPv6 transition encodings that embed an IPv4 address.
func IsSafeAddr(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}

	// Transition encodings are judged by the IPv4 address they carry, so a
	// private IPv4 target cannot hide inside an apparently-global IPv6 one.
	if embedded, ok := embeddedIPv4(addr); ok {
		return IsSafeAddr(embedded)
	}

	switch {
	case addr.IsLoopback(),
		addr.IsUnspecified(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast(),
		addr.IsPrivate():
		return false
	}

	if addr.Is4() {
		switch {
		case v4Shared.Contains(addr),
			v4Reserved.Contains(addr),
			v4IETFProtocol.Contains(addr),
			v4TestNet1.Contains(addr),
			v4TestNet2.Contains(addr),
			v4TestNet3.Contains(addr),
			v4Benchmark.Contains(addr):
			return false
		}
		if addr == netip.AddrFrom4([4]byte{255, 255, 255, 255}) {
			return false
		}
		return true
	}

	switch {
	case v6UniqueLocal.Contains(addr),
		v6SiteLocal.Contains(addr),
		v6Documentation.Contains(addr):
		return false
	}
	return true
}

// embeddedIPv4 extracts the IPv4 address carried by IPv4-mapped, NAT64,
// 6to4 and Teredo IPv6 addresses.
func embeddedIPv4(addr netip.Addr) (netip.Addr, bool) {
	if addr.Is4() {
		return netip.Addr{}, false
	}
	if addr.Is4In6() {
		return addr.Unmap(), true
	}

	b := addr.As16()
	switch {
	case v6NAT64.Contains(addr):
		return netip.AddrFrom4([4]byte{b[12], b[13], b[14], b[15]}), true
	case v6SixToFour.Contains(addr):
		return netip.AddrFrom4([4]byte{b[2], b[3], b[4], b[5]}), true
	case v6Teredo.Contains(addr):
		// Teredo stores the client IPv4 address inverted in the last 4 bytes.
		return netip.AddrFrom4([4]byte{^b[12], ^b[13], ^b[14], ^b[15]}), true
	}
	return netip.Addr{}, false
}
