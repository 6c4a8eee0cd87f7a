package source

import "errors"

var (
	// ErrInvalidURL indicates a URL that cannot be fetched (bad scheme, empty host, unresolvable).
	ErrInvalidURL = errors.New("invalid source url")

	// ErrPrivateIP indicates a URL whose host resolves to a private, loopback or link-local address.
	ErrPrivateIP = errors.New("source url resolves to a private address")

	// ErrTimeout indicates the download did not finish within the configured timeout.
	ErrTimeout = errors.New("source download timed out")

	// ErrBodyTooLarge indicates the response exceeded the configured size limit.
	ErrBodyTooLarge = errors.New("source response too large")

	// ErrTooManyRedirects indicates the redirect chain exceeded the configured limit.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrNoContent indicates the page was fetched but no usable text was found.
	ErrNoContent = errors.New("no readable content found")
)
