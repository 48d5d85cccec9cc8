package transport

import "errors"

var (
	// ErrUnsupportedScheme indicates no transport is registered for the scheme.
	ErrUnsupportedScheme = errors.New("unsupported link scheme")
	// ErrInvalidLink indicates the link URL misses required parts.
	ErrInvalidLink = errors.New("invalid link")
)
