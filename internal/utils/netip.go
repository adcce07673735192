package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// hostOnly strips a port from "ip:port" or "[v6]:port".
func hostOnly(s string) string {
	s = strings.TrimSpace(s)
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return strings.Trim(s, "[]")
}

// ClientIP resolves the client address of r. Forwarding headers are only
// consulted when trustProxy is set: X-Forwarded-For (left-most) first,
// then X-Real-IP. It returns an invalid Addr when nothing parses.
func ClientIP(r *http.Request, trustProxy bool) netip.Addr {
	if trustProxy {
		xff, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		for _, v := range []string{xff, r.Header.Get("X-Real-IP")} {
			if addr, err := netip.ParseAddr(hostOnly(v)); err == nil {
				return addr.Unmap()
			}
		}
	}
	addr, err := netip.ParseAddr(hostOnly(r.RemoteAddr))
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

// ClientKey is ClientIP as a string, or the raw remote address when it
// does not parse.
func ClientKey(r *http.Request, trustProxy bool) string {
	if addr := ClientIP(r, trustProxy); addr.IsValid() {
		return addr.String()
	}
	return r.RemoteAddr
}

// PrefixSet matches addresses against single IPs and CIDR ranges.
type PrefixSet struct {
	prefixes []netip.Prefix
}

// NewPrefixSet parses entries like "10.0.0.0/8" or "127.0.0.1" and
// returns the set along with the entries it could not parse.
func NewPrefixSet(entries []string) (*PrefixSet, []string) {
	s := &PrefixSet{}
	var invalid []string
	for _, raw := range entries {
		e := strings.TrimSpace(raw)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			s.prefixes = append(s.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			s.prefixes = append(s.prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		invalid = append(invalid, e)
	}
	return s, invalid
}

func (s *PrefixSet) Len() int { return len(s.prefixes) }

// Contains reports whether addr falls in any range of the set.
func (s *PrefixSet) Contains(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
