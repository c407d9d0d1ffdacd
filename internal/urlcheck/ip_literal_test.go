package urlcheck

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIPLiteral_LegacyForms(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1":      "127.0.0.1",
		"127.1":          "127.0.0.1",
		"127.0.1":        "127.0.0.1",
		"0177.0.0.1":     "127.0.0.1",
		"0x7f.0.0.1":     "127.0.0.1",
		"0x7f000001":     "127.0.0.1",
		"2130706433":     "127.0.0.1",
		"0xC0.0xA8.1.1":  "192.168.1.1",
		"030052000401":   "192.168.1.1", // full octal integer
		"192.168.257":    "192.168.1.1", // last part spans two bytes
		"[::1]":          "::1",
		"[fe80::1%eth0]": "fe80::1",
	}
	for input, want := range cases {
		addr, ok := ParseIPLiteral(input)
		require.True(t, ok, "expected %s to parse", input)
		assert.Equal(t, netip.MustParseAddr(want), addr, input)
	}
}

func TestParseIPLiteral_RejectsHostnames(t *testing.T) {
	notLiterals := []string{
		"example.org",
		"012.com",
		"1.2.3.4.5",
		"256.1.1.1",
		"0x.1.1.1",
		"",
		"1.2.3.4:80",
	}
	for _, input := range notLiterals {
		_, ok := ParseIPLiteral(input)
		assert.False(t, ok, input)
	}
}

func TestIsSafeAddr_TransitionRanges(t *testing.T) {
	unsafe := []string{
		"::ffff:127.0.0.1",   // mapped loopback
		"::ffff:192.168.0.1", // mapped private
		"64:ff9b::7f00:1",    // NAT64 loopback
		"2002:a00:1::1",      // 6to4 carrying 10.0.0.1
		"2001:0:abcd:ef::f5ff:fffe", // Teredo carrying 10.0.0.1 (inverted)
	}
	for _, raw := range unsafe {
		assert.False(t, IsSafeAddr(netip.MustParseAddr(raw)), raw)
	}

	safe := []string{
		"::ffff:1.1.1.1", // mapped public
		"2002:101:101::1", // 6to4 carrying 1.1.1.1
		"2606:4700::1111",
	}
	for _, raw := range safe {
		assert.True(t, IsSafeAddr(netip.MustParseAddr(raw)), raw)
	}
}

func TestIsSafeAddr_SpecialRanges(t *testing.T) {
	unsafe := []string{
		"100.64.0.1", "100.127.255.254", // shared address space
		"192.0.2.1", "198.51.100.7", "203.0.113.9", // documentation
		"198.18.4.2",    // benchmarking
		"255.255.255.255",
		"fc00::1", "fdab::1", // unique local
		"fec0::1",           // site local
		"2001:db8::1",       // documentation
	}
	for _, raw := range unsafe {
		assert.False(t, IsSafeAddr(netip.MustParseAddr(raw)), raw)
	}
}
