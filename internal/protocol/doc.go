// Package protocol defines the wire model for talking to an ENSIME
// analysis server: outbound request envelopes, inbound frames, response
// payload types, and typed request builders.
//
// The wire format is newline-terminated JSON text over a persistent duplex
// connection. Every outbound message is an envelope of the form
//
//	{"callId": <int>, "req": {"typehint": <string>, ...}}
//
// and every inbound message is
//
//	{"callId": <int, optional>, "payload": {"typehint": <string>, ...}}
//
// The typehint discriminant identifies the payload shape on both sides.
// Inbound frames are decoded lazily: DecodeFrame extracts only the call ID
// and the discriminant, leaving the payload as raw JSON for the handler
// that ultimately consumes it.
package protocol
