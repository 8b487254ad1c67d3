package handler

import "errors"

// Standard errors returned by handlers.
var (
	// ErrNotSupported signals a feature the connected server version does
	// not implement. Dispatch reports it to the user instead of logging.
	ErrNotSupported = errors.New("feature not supported by server")
)
