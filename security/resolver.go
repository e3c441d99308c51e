package security

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// defaultHeaderPriority is the ordered list of headers inspected when the
// caller does not provide an explicit HeaderPriority.
var defaultHeaderPriority = []string{"X-Real-Ip", "X-Forwarded-For"}

// resolveClientAddr determines the effective client address for an HTTP
// request.
//
// It first parses the connection's remote address. If that address is within
// trustedProxies, the function walks headerPriority in order and returns the
// first valid IP found in the request headers. Otherwise (or when no valid
// header IP is found) it returns the remote address itself.
func resolveClientAddr(r *http.Request, trustedProxies []netip.Prefix, headerPriority []string) (netip.Addr, bool) {
	remote, ok := addrFromHostPort(r.RemoteAddr)
	if !ok {
		return netip.Addr{}, false
	}

	if isTrustedProxy(remote, trustedProxies) {
		if addr, found := addrFromHeaders(r.Header, headerPriority); found {
			return addr, true
		}
	}

	return remote, true
}

// addrFromHostPort parses an address string into a netip.Addr, stripping any
// port.
func addrFromHostPort(addrStr string) (netip.Addr, bool) {
	// Try parsing as host:port first.
	if host, _, err := net.SplitHostPort(addrStr); err == nil {
		addrStr = host
	}

	ip, err := netip.ParseAddr(addrStr)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip, true
}

// isTrustedProxy reports whether addr falls within any of the given prefixes.
func isTrustedProxy(addr netip.Addr, prefixes []netip.Prefix) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// addrFromHeaders walks the header keys in priority order and returns the
// first valid IP address found.  For multi-value headers such as
// X-Forwarded-For the left-most (client) entry is used.
func addrFromHeaders(h http.Header, priority []string) (netip.Addr, bool) {
	for _, key := range priority {
		vals := h.Values(key)
		for _, v := range vals {
			// X-Forwarded-For may contain comma-separated IPs.
			for part := range strings.SplitSeq(v, ",") {
				trimmed := strings.TrimSpace(part)
				if trimmed == "" {
					continue
				}
				if ip, err := netip.ParseAddr(trimmed); err == nil {
					return ip, true
				}
			}
		}
	}
	return netip.Addr{}, false
}
