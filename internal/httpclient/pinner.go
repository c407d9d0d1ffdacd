package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/netip"

	"github.com/Origamihase/wien-oepnv/internal/urlcheck"
)

// ResolvedEndpoint pins one in-flight request onto a single validated
// address. The connection target is rewritten to the literal IP while the
// original hostname stays in the Host header, which closes the gap where the
// transport re-resolves the name after validation onto a different address.
type ResolvedEndpoint struct {
	Hostname string
	PinnedIP netip.Addr
	Port     string
}

// DialTarget returns the literal address the connection must go to.
func (re *ResolvedEndpoint) DialTarget() string {
	return net.JoinHostPort(re.PinnedIP.String(), re.Port)
}

// newPinnedTransport clones the base transport with a dialer that only
// connects to the pinned address. Any other dial target is refused: a
// pinned transport is exclusively owned by one request attempt.
func newPinnedTransport(base *http.Transport, endpoint *ResolvedEndpoint) *http.Transport {
	transport := base.Clone()
	dialer := &net.Dialer{
		Timeout:   base.TLSHandshakeTimeout,
		KeepAlive: -1,
	}
	transport.DisableKeepAlives = true
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, WrapError(err, "invalid dial address")
		}
		if !hostMatches(host, endpoint.Hostname) || port != endpoint.Port {
			return nil, NewError("refusing dial to unpinned target")
		}
		return dialer.DialContext(ctx, network, endpoint.DialTarget())
	}
	return transport
}

func hostMatches(dialHost, pinnedHost string) bool {
	if dialHost == pinnedHost {
		return true
	}
	// The transport may hand us the already-rewritten literal.
	dialAddr, dialOK := urlcheck.ParseIPLiteral(dialHost)
	pinnedAddr, pinnedOK := urlcheck.ParseIPLiteral(pinnedHost)
	return dialOK && pinnedOK && dialAddr.Unmap() == pinnedAddr.Unmap()
}

// VerifyPeer checks, after a response has been received, that the socket's
// actual peer is still the address validation approved. With a pin the peer
// must match it exactly; without one (HTTPS, where the hostname is kept for
// SNI) the peer must at least be a safe public address.
func VerifyPeer(remoteAddr string, pinned *ResolvedEndpoint, skipIPCheck bool) error {
	if skipIPCheck || remoteAddr == "" {
		return nil
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		return NewError("peer address does not parse")
	}
	peer = peer.Unmap()

	if pinned != nil {
		if peer != pinned.PinnedIP.Unmap() {
			return NewError("connection peer does not match pinned address")
		}
		return nil
	}
	if !urlcheck.IsSafeAddr(peer) {
		return NewError("connection peer is not a safe address")
	}
	return nil
}
