package kit

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// ParseProxies turns addresses and CIDRs into prefixes. A bare address
// becomes a single-host prefix.
func ParseProxies(proxies []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			pfx, err := netip.ParsePrefix(p)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", p, err)
			}
			out = append(out, pfx.Masked())
			continue
		}
		addr, err := netip.ParseAddr(p)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", p, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// TrustedRealIP rewrites RemoteAddr from X-Forwarded-For and friends, but
// only for requests whose peer is one of the trusted proxies. Everyone else
// keeps the socket address, so forwarding headers cannot be spoofed.
func TrustedRealIP(proxies []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(proxies) == 0 {
			return next
		}
		realIP := middleware.RealIP(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if trustedPeer(r.RemoteAddr, proxies) {
				realIP.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func trustedPeer(remoteAddr string, proxies []netip.Prefix) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, p := range proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
