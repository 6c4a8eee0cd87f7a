package entity

import (
	"fmt"
	"net/url"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// ValidateSourceURL checks that a URL submitted for acquisition is well-formed,
// uses http or https, and has a host. Network-level checks (private address
// blocking) happen in the fetchers, which resolve the host anyway.
func ValidateSourceURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "url is required"}
	}
	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: "url is invalid"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "url must use http or https scheme"}
	}
	if parsed.Hostname() == "" {
		return &ValidationError{Field: "url", Message: "url must have a valid host"}
	}
	return nil
}
