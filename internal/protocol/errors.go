package protocol

import "errors"

// Standard errors returned by the protocol package.
var (
	// ErrMalformedFrame indicates an inbound frame that is not valid JSON
	// or does not match the envelope shape.
	ErrMalformedFrame = errors.New("malformed inbound frame")
)
