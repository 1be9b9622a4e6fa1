package web2pdf

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/alnah/go-web2pdf/internal/urlutil"
)

// validateRequestURL enforces the security boundary before any browser or
// network resource is acquired: the URL must be absolute HTTP/HTTPS and must
// not resolve to a loopback, private, or link-local address.
//
// A hostname that fails to resolve surfaces as ErrDNSResolution so callers
// report the same category regardless of whether resolution failed here or
// during navigation.
func validateRequestURL(raw string, lookup urlutil.LookupFunc) (*url.URL, error) {
	u, err := urlutil.ParseAbsolute(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if err := urlutil.CheckHost(u.Hostname(), lookup); err != nil {
		switch {
		case errors.Is(err, urlutil.ErrDisallowed):
			return nil, fmt.Errorf("%w: %v", ErrDisallowedAddress, err)
		case errors.Is(err, urlutil.ErrUnresolvable):
			return nil, fmt.Errorf("%w: %v", ErrDNSResolution, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
	}

	return u, nil
}
