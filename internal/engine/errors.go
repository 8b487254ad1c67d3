package engine

import "errors"

// Standard errors returned by the engine.
var (
	// ErrDisabled is returned once the connection budget is exhausted and
	// the engine has shut itself down for the session.
	ErrDisabled = errors.New("engine disabled after connection failure")

	// ErrNotConnected is returned when an operation needs a live
	// connection and none is established.
	ErrNotConnected = errors.New("not connected to server")
)
