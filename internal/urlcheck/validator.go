package urlcheck

import (
	"context"
	"net"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/idna"
)

// Characters that never belong in a fetchable URL. Control characters are
// rejected separately.
const forbiddenURLChars = "<>\\`^{|} "

// ValidatorConfig holds configuration for URL validation.
type ValidatorConfig struct {
	AllowedPorts []int
	MaxURLLength int
	CheckDNS     bool
	DNSTimeout   time.Duration

	// TrustProxy disables the IP-safety checks (literal and resolved) because
	// outbound traffic is deliberately routed through a controlled proxy.
	// Scheme, character, port and hostname-suffix checks still apply.
	TrustProxy bool
}

// DefaultValidatorConfig returns default validation configuration
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		AllowedPorts: []int{80, 443},
		MaxURLLength: 2048,
		CheckDNS:     true,
		DNSTimeout:   5 * time.Second,
	}
}

// Validator classifies candidate URLs as safe or unsafe before any network
// access happens on their behalf.
type Validator struct {
	config        ValidatorConfig
	allowedPorts  map[int]struct{}
	resolver      *net.Resolver
	proxyOverride bool
	logger        zerolog.Logger
}

// NewValidator creates a new URL validator
func NewValidator(cfg ValidatorConfig, logger zerolog.Logger) *Validator {
	if cfg.MaxURLLength <= 0 {
		cfg.MaxURLLength = 2048
	}
	if cfg.DNSTimeout <= 0 {
		cfg.DNSTimeout = 5 * time.Second
	}
	allowed := make(map[int]struct{})
	ports := cfg.AllowedPorts
	if len(ports) == 0 {
		ports = []int{80, 443}
	}
	for _, p := range ports {
		allowed[p] = struct{}{}
	}

	return &Validator{
		config:        cfg,
		allowedPorts:  allowed,
		resolver:      net.DefaultResolver,
		proxyOverride: cfg.TrustProxy || proxyEnvConfigured(),
		logger:        logger.With().Str("component", "URLValidator").Logger(),
	}
}

// proxyEnvConfigured reports whether a proxy environment override is active.
func proxyEnvConfigured() bool {
	for _, key := range []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy", "ALL_PROXY", "all_proxy"} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

// Validate checks rawURL against every safety rule and returns the parsed,
// normalized URL string when it is safe to fetch. Any failure returns an
// UnsafeURLError whose reason never echoes credentials.
func (v *Validator) Validate(ctx context.Context, rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", NewUnsafeURLError("empty URL")
	}
	if len(trimmed) > v.config.MaxURLLength {
		return "", NewUnsafeURLError("URL exceeds maximum length")
	}
	for _, r := range trimmed {
		if r < 0x20 || r == 0x7f {
			return "", NewUnsafeURLError("URL contains control characters")
		}
		if strings.ContainsRune(forbiddenURLChars, r) {
			return "", NewUnsafeURLError("URL contains forbidden characters")
		}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", NewUnsafeURLError("URL does not parse")
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", NewUnsafeURLError("scheme is not http or https")
	}
	if parsed.User != nil {
		return "", NewUnsafeURLError("URL embeds userinfo")
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return "", NewUnsafeURLError("URL has no hostname")
	}

	if err := v.checkPort(parsed.Port()); err != nil {
		return "", err
	}

	asciiHost, err := normalizeHostname(hostname)
	if err != nil {
		return "", NewUnsafeURLError("hostname does not normalize")
	}

	if isBlockedHostname(asciiHost) {
		return "", NewUnsafeURLError("hostname matches blocked suffix")
	}

	if addr, ok := ParseIPLiteral(asciiHost); ok {
		if !v.proxyOverride && !IsSafeAddr(addr) {
			return "", NewUnsafeURLError("address is not publicly routable")
		}
		return parsed.String(), nil
	}

	if v.config.CheckDNS && !v.proxyOverride {
		if err := v.checkDNS(ctx, asciiHost); err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}

func (v *Validator) checkPort(portStr string) error {
	if portStr == "" {
		return nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return NewUnsafeURLError("port does not parse")
	}
	if _, ok := v.allowedPorts[port]; !ok {
		return NewUnsafeURLError("port is not allowed")
	}
	return nil
}

// checkDNS resolves the hostname under a deadline and rejects the URL when
// resolution fails, times out, or returns any unsafe address. A timeout is
// treated as unsafe: an uncooperative resolver is indistinguishable from a
// rebinding setup stalling the validation step.
func (v *Validator) checkDNS(ctx context.Context, hostname string) error {
	lookupCtx, cancel := context.WithTimeout(ctx, v.config.DNSTimeout)
	defer cancel()

	addrs, err := v.resolver.LookupNetIP(lookupCtx, "ip", hostname)
	if err != nil {
		v.logger.Debug().Err(err).Str("hostname", hostname).Msg("DNS check failed")
		return NewUnsafeURLError("hostname did not resolve within the DNS budget")
	}
	if len(addrs) == 0 {
		return NewUnsafeURLError("hostname resolved to no addresses")
	}
	for _, addr := range addrs {
		if !IsSafeAddr(addr) {
			return NewUnsafeURLError("hostname resolves to a non-public address")
		}
	}
	return nil
}

// ResolveSafe resolves hostname once and returns the first address that is
// independently safe. It is used by the connection pinner so the address
// checked here is the address actually dialed.
func (v *Validator) ResolveSafe(ctx context.Context, hostname string) (netip.Addr, error) {
	if addr, ok := ParseIPLiteral(hostname); ok {
		if !v.proxyOverride && !IsSafeAddr(addr) {
			return netip.Addr{}, NewUnsafeURLError("address is not publicly routable")
		}
		return addr, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, v.config.DNSTimeout)
	defer cancel()

	addrs, err := v.resolver.LookupNetIP(lookupCtx, "ip", hostname)
	if err != nil {
		return netip.Addr{}, NewUnsafeURLError("hostname did not resolve within the DNS budget")
	}
	for _, addr := range addrs {
		if v.proxyOverride || IsSafeAddr(addr) {
			return addr.Unmap(), nil
		}
	}
	return netip.Addr{}, NewUnsafeURLError("hostname resolves to no safe address")
}

// SkipsIPChecks reports whether the proxy override is active.
func (v *Validator) SkipsIPChecks() bool {
	return v.proxyOverride
}

// normalizeHostname lowercases, strips one trailing dot and converts IDN
// labels to their ASCII form so suffix matching cannot be dodged with
// Unicode confusables.
func normalizeHostname(hostname string) (string, error) {
	h := strings.ToLower(strings.TrimSuffix(hostname, "."))
	if h == "" {
		return "", NewUnsafeURLError("empty hostname")
	}
	// IP literals (including bracketed IPv6) are not IDN candidates.
	if _, ok := ParseIPLiteral(h); ok {
		return h, nil
	}
	ascii, err := idna.Lookup.ToASCII(h)
	if err != nil {
		return "", err
	}
	return ascii, nil
}
