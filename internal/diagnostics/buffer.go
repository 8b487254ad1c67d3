// Package diagnostics buffers incrementally-reported typecheck notes.
//
// The server streams notes in multiple NewScalaNotesEvent frames while a
// typecheck runs, then signals completion with FullTypeCheckCompleteEvent.
// Buffer implements the corresponding state machine: an explicit Begin
// opens a buffering window, Append accumulates while the window is open,
// and Complete flushes everything to the sink as a single batch. Notes
// arriving outside a window are dropped.
package diagnostics

import (
	"log/slog"
	"sync"

	"github.com/dshills/enslink/internal/protocol"
)

// Sink receives the flushed batch of notes. The engine's editor surface
// satisfies this.
type Sink interface {
	DisplayNotes(notes []protocol.Note)
}

// Buffer is the note-buffering state machine. The zero value is not
// usable; construct with New.
type Buffer struct {
	mu        sync.Mutex
	buffering bool
	notes     []protocol.Note
	sink      Sink
	log       *slog.Logger
}

// New creates a Buffer flushing to sink.
func New(sink Sink, log *slog.Logger) *Buffer {
	if log == nil {
		log = slog.Default()
	}
	return &Buffer{sink: sink, log: log}
}

// Begin opens a buffering window. Calling Begin while already buffering
// restarts the window and discards anything accumulated so far.
func (b *Buffer) Begin() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffering = true
	b.notes = nil
	b.log.Debug("diagnostics buffering started")
}

// Append accumulates notes while a window is open. Notes arriving while
// idle are dropped.
func (b *Buffer) Append(notes []protocol.Note) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.buffering {
		b.log.Debug("dropping notes outside buffering window", "count", len(notes))
		return
	}
	b.notes = append(b.notes, notes...)
}

// Complete closes the window and flushes the accumulated notes to the
// sink as one batch, in arrival order. A Complete while idle is a no-op,
// so the sink never sees a flush that was not preceded by Begin.
func (b *Buffer) Complete() {
	b.mu.Lock()
	if !b.buffering {
		b.mu.Unlock()
		return
	}
	flushed := b.notes
	b.buffering = false
	b.notes = nil
	b.mu.Unlock()

	b.log.Debug("diagnostics flushed", "count", len(flushed))
	b.sink.DisplayNotes(flushed)
}

// Buffering reports whether a window is currently open.
func (b *Buffer) Buffering() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffering
}

// Pending returns the number of notes accumulated in the open window.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.notes)
}
