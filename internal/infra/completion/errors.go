package completion

import "errors"

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("completion returned empty response")
