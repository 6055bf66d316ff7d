// Package clientip resolves the originating client address of an
// *http.Request behind reverse proxies. The rate limiter keys
// anonymous generation traffic on this address, so resolution prefers
// the headers set by the edge over the TCP peer.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// proxyHeaders in resolution order. CDN-set single-value headers win
// over the spoofable multi-value ones.
var proxyHeaders = []string{
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Real-IP",
}

// GetIP returns the client's IP address for the request. It checks the
// trusted proxy headers first, then X-Forwarded-For (first valid entry),
// then falls back to RemoteAddr. Returns an empty string when nothing
// parses as an IP, letting the caller decide how to treat the request.
func GetIP(r *http.Request) string {
	for _, header := range proxyHeaders {
		if ip := parseIP(r.Header.Get(header)); ip != "" {
			return ip
		}
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for entry := range strings.SplitSeq(forwarded, ",") {
			if ip := parseIP(entry); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr may already be a bare IP.
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an address, empty when invalid.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
