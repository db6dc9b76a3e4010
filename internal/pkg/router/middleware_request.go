package router

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

const (
	// HeaderCorrelationID is the canonical header used to track requests end-to-end.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is an accepted alternative header name used by some proxies.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// ipPolicy decides which request data may name the caller. The zero value
// trusts only the socket address.
type ipPolicy struct {
	headers []string
	proxies []netip.Prefix
}

// newIPPolicy reads app.server.client_ip_headers and app.server.trusted_proxies.
// Headers are opt-in: an empty list or "none" keeps the socket address. When
// trusted_proxies is set, headers are honored only on connections from those
// proxies.
func newIPPolicy(cfg config.Config) ipPolicy {
	if cfg == nil {
		return ipPolicy{}
	}

	var p ipPolicy
	headers := cfg.GetArray("app.server.client_ip_headers")
	if !(len(headers) == 1 && strings.EqualFold(headers[0], "none")) {
		p.headers = headers
	}

	for _, raw := range cfg.GetArray("app.server.trusted_proxies") {
		prefix, err := parsePrefix(raw)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy", "value", raw, "error", err)
			continue
		}
		p.proxies = append(p.proxies, prefix)
	}

	return p
}

func parsePrefix(raw string) (netip.Prefix, error) {
	if strings.Contains(raw, "/") {
		prefix, err := netip.ParsePrefix(raw)
		return prefix.Masked(), err
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()), nil
}

func (p ipPolicy) trusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range p.proxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// middlewareIP rewrites RemoteAddr to the caller address so handlers and
// throttles see the client rather than the proxy.
func middlewareIP(p ipPolicy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := p.clientIP(r); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p ipPolicy) clientIP(r *http.Request) string {
	peer, _ := socketAddr(r.RemoteAddr)
	if len(p.headers) == 0 || (len(p.proxies) > 0 && (!peer.IsValid() || !p.trusted(peer))) {
		return addrString(peer)
	}

	for _, h := range p.headers {
		chain := strings.Join(r.Header.Values(h), ",")
		if chain == "" {
			continue
		}
		if addr := p.lastUntrustedHop(chain); addr.IsValid() {
			return addr.String()
		}
	}

	return addrString(peer)
}

// lastUntrustedHop walks a forwarding chain from the right, skipping known
// proxies. Entries further left were written by the caller and are not used.
func (p ipPolicy) lastUntrustedHop(chain string) netip.Addr {
	hops := strings.Split(chain, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			return netip.Addr{}
		}
		addr = addr.Unmap()
		if !p.trusted(addr) {
			return addr
		}
	}
	return netip.Addr{}
}

func socketAddr(remote string) (netip.Addr, error) {
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr().Unmap(), nil
	}
	addr, err := netip.ParseAddr(remote)
	return addr.Unmap(), err
}

func addrString(addr netip.Addr) string {
	if !addr.IsValid() {
		return ""
	}
	return addr.String()
}

func normalizeCID(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	v = strings.TrimSpace(v)
	if len(v) > maxCorrelationIDLen {
		v = v[:maxCorrelationIDLen]
	}
	return v
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := normalizeCID(r.Header.Get(HeaderCorrelationID))
			if cid == "" {
				cid = normalizeCID(r.Header.Get(HeaderRequestID))
			}
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
