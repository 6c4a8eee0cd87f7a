package auth

import "strings"

// PublicEndpoints are served without a caller token: the health probes
// and the Prometheus scrape endpoint.
var PublicEndpoints = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}

// IsPublicEndpoint reports whether path is a public endpoint.
// Matching is exact, ignoring a trailing slash or a query string, so
// /health does not open /health/detail or /healthcheck.
func IsPublicEndpoint(path string) bool {
	for _, endpoint := range PublicEndpoints {
		if path == endpoint || path == endpoint+"/" {
			return true
		}
		if strings.HasPrefix(path, endpoint+"?") {
			return true
		}
	}
	return false
}
