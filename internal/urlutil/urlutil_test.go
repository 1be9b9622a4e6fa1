package urlutil

import (
	"errors"
	"net"
	"net/url"
	"testing"
)

func TestParseAbsolute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"https", "https://example.com/page?q=1", nil},
		{"http", "http://example.com", nil},
		{"whitespace trimmed", "  https://example.com  ", nil},
		{"relative", "/just/a/path", ErrNotAbsolute},
		{"no scheme", "example.com", ErrNotAbsolute},
		{"ftp", "ftp://example.com/f", ErrBadScheme},
		{"file", "file:///etc/hosts", ErrBadScheme},
		{"javascript", "javascript:alert(1)", ErrBadScheme},
		{"empty host", "https:///path", ErrEmptyHost},
		{"empty string", "", ErrNotAbsolute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := ParseAbsolute(tt.raw)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ParseAbsolute(%q) error = %v", tt.raw, err)
				}
				if u.Hostname() != "example.com" {
					t.Errorf("Hostname() = %q, want example.com", u.Hostname())
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseAbsolute(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestSameOrigin(t *testing.T) {
	t.Parallel()

	parse := func(raw string) *url.URL {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("parsing %q: %v", raw, err)
		}
		return u
	}

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "https://example.com/a", "https://example.com/b", true},
		{"default port matches explicit", "https://example.com/", "https://example.com:443/", true},
		{"http default port", "http://example.com/", "http://example.com:80/", true},
		{"scheme differs", "http://example.com/", "https://example.com/", false},
		{"host differs", "https://example.com/", "https://www.example.com/", false},
		{"port differs", "https://example.com/", "https://example.com:8443/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SameOrigin(parse(tt.a), parse(tt.b)); got != tt.want {
				t.Errorf("SameOrigin(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsDisallowedIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"127.8.8.8", true},
		{"::1", true},
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"0.0.0.0", true},
		{"::", true},
		{"fe80::1", true},
		{"8.8.8.8", false},
		{"203.0.113.9", false},
		{"2606:4700::1111", false},
	}

	for _, tt := range tests {
		ip := net.ParseIP(tt.ip)
		if ip == nil {
			t.Fatalf("bad test IP %q", tt.ip)
		}
		if got := IsDisallowedIP(ip); got != tt.want {
			t.Errorf("IsDisallowedIP(%s) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}

func TestCheckHost(t *testing.T) {
	t.Parallel()

	allowLookup := func(host string) ([]net.IP, error) {
		return []net.IP{net.ParseIP("203.0.113.9")}, nil
	}

	tests := []struct {
		name    string
		host    string
		lookup  LookupFunc
		wantErr error
	}{
		{"public literal", "8.8.8.8", nil, nil},
		{"loopback literal", "127.0.0.1", nil, ErrDisallowed},
		{"localhost", "localhost", nil, ErrDisallowed},
		{"localhost mixed case", "LocalHost", nil, ErrDisallowed},
		{"resolvable public host", "example.com", allowLookup, nil},
		{
			name: "host resolving to private",
			host: "internal.example.com",
			lookup: func(host string) ([]net.IP, error) {
				return []net.IP{net.ParseIP("10.1.2.3")}, nil
			},
			wantErr: ErrDisallowed,
		},
		{
			name: "host with one bad address",
			host: "dual.example.com",
			lookup: func(host string) ([]net.IP, error) {
				return []net.IP{net.ParseIP("203.0.113.9"), net.ParseIP("127.0.0.1")}, nil
			},
			wantErr: ErrDisallowed,
		},
		{
			name: "unresolvable host",
			host: "nope.invalid",
			lookup: func(host string) ([]net.IP, error) {
				return nil, errors.New("no such host")
			},
			wantErr: ErrUnresolvable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := CheckHost(tt.host, tt.lookup)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("CheckHost(%q) error = %v", tt.host, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckHost(%q) error = %v, want %v", tt.host, err, tt.wantErr)
			}
		})
	}
}
