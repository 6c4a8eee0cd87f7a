package source

import (
	"context"
	"fmt"
	"net"
	"net/url"
)

// validateURL rejects non-http(s) URLs and, when denyPrivate is set, hosts
// that resolve to loopback, private or link-local addresses.
func validateURL(ctx context.Context, rawURL string, denyPrivate bool) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	if !denyPrivate {
		return u, nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup %s: %v", ErrInvalidURL, host, err)
	}
	for _, a := range addrs {
		if isPrivateIP(a.IP) {
			return nil, fmt.Errorf("%w: %s resolves to %s", ErrPrivateIP, host, a.IP)
		}
	}
	return u, nil
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
