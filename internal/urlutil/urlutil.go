// Package urlutil provides URL parsing, origin comparison, and host
// classification helpers for the capture pipeline.
package urlutil

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Sentinel errors for URL validation.
var (
	ErrNotAbsolute  = errors.New("url is not absolute")
	ErrBadScheme    = errors.New("url scheme must be http or https")
	ErrEmptyHost    = errors.New("url host is empty")
	ErrDisallowed   = errors.New("host address is disallowed")
	ErrUnresolvable = errors.New("host could not be resolved")
)

// ParseAbsolute parses raw as an absolute HTTP or HTTPS URL.
func ParseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAbsolute, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q", ErrNotAbsolute, raw)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadScheme, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyHost, raw)
	}
	return u, nil
}

// SameOrigin reports whether a and b share scheme, host, and port.
func SameOrigin(a, b *url.URL) bool {
	return a.Scheme == b.Scheme && a.Hostname() == b.Hostname() && portOf(a) == portOf(b)
}

// portOf returns the effective port, applying scheme defaults.
func portOf(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch u.Scheme {
	case "https":
		return "443"
	default:
		return "80"
	}
}

// IsDisallowedIP reports whether ip must not be fetched: loopback, private,
// link-local, or unspecified addresses are all refused.
func IsDisallowedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

// LookupFunc resolves a hostname to its addresses. Tests inject fakes;
// production uses net.DefaultResolver via DefaultLookup.
type LookupFunc func(host string) ([]net.IP, error)

// DefaultLookup resolves via the system resolver.
func DefaultLookup(host string) ([]net.IP, error) {
	return net.LookupIP(host)
}

// CheckHost verifies that host does not resolve to a disallowed address.
// Literal IPs are checked directly; hostnames are resolved first, and every
// returned address must be allowed.
func CheckHost(host string, lookup LookupFunc) error {
	if ip := net.ParseIP(host); ip != nil {
		if IsDisallowedIP(ip) {
			return fmt.Errorf("%w: %s", ErrDisallowed, host)
		}
		return nil
	}

	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("%w: %s", ErrDisallowed, host)
	}

	if lookup == nil {
		lookup = DefaultLookup
	}
	ips, err := lookup(host)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnresolvable, host, err)
	}
	for _, ip := range ips {
		if IsDisallowedIP(ip) {
			return fmt.Errorf("%w: %s resolves to %s", ErrDisallowed, host, ip)
		}
	}
	return nil
}
