package domain

import (
	"net/url"
	"strings"
)

// UnknownHostname is returned when a URL cannot be parsed.
const UnknownHostname = "Unknown"

// ParseURL parses rawURL the way a browser URL constructor would accept it:
// a scheme is mandatory and web schemes must carry a host.
func ParseURL(rawURL string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" {
		return nil, false
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp", "ws", "wss":
		if u.Hostname() == "" {
			return nil, false
		}
	}

	return u, true
}

// DeriveHostname returns the host of rawURL without port, lower-cased,
// or UnknownHostname when the URL does not parse.
func DeriveHostname(rawURL string) string {
	u, ok := ParseURL(rawURL)
	if !ok {
		return UnknownHostname
	}
	return strings.ToLower(u.Hostname())
}
