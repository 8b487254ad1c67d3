// Package handler routes decoded server payloads to typed response
// handlers keyed by their typehint discriminant.
//
// The registry is deliberately forgiving: an unrecognized discriminant is
// logged and dropped, and no handler error may escape the dispatch
// boundary. The one error given special treatment is ErrNotSupported,
// which is surfaced to the user as a feature gap of the connected server
// version.
package handler

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dshills/enslink/internal/editor"
	"github.com/dshills/enslink/internal/protocol"
)

// Func consumes one decoded payload. callID is zero for event frames that
// carry no correlation ID.
type Func func(callID int64, payload []byte) error

// Registry maps typehint discriminants to handler functions.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Func

	editor  editor.Editor
	version string
	log     *slog.Logger
}

// NewRegistry creates an empty registry. serverVersion is included in the
// feature-gap notice shown for ErrNotSupported.
func NewRegistry(ed editor.Editor, serverVersion string, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		handlers: make(map[string]Func),
		editor:   ed,
		version:  serverVersion,
		log:      log,
	}
}

// Register installs fn for a discriminant, replacing any previous handler.
func (r *Registry) Register(typehint string, fn Func) {
	r.mu.Lock()
	r.handlers[typehint] = fn
	r.mu.Unlock()
}

// Dispatch routes a frame's payload to its handler. Unknown discriminants
// are logged and dropped; handler failures are contained here and never
// propagate to the drain loop.
func (r *Registry) Dispatch(frame protocol.Frame) {
	r.mu.RLock()
	fn, ok := r.handlers[frame.Typehint]
	r.mu.RUnlock()

	if !ok {
		r.log.Warn("response not handled", "typehint", frame.Typehint)
		return
	}

	if err := fn(frame.CallID, frame.Payload); err != nil {
		if errors.Is(err, ErrNotSupported) {
			r.editor.RawMessage(editor.NotSupportedNotice(frame.Typehint, r.version))
			return
		}
		r.log.Error("handler failed", "typehint", frame.Typehint, "callId", frame.CallID, "error", err)
	}
}
