package diagnostics

import (
	"testing"

	"github.com/dshills/enslink/internal/protocol"
)

// recordingSink captures every flush it receives.
type recordingSink struct {
	flushes [][]protocol.Note
}

func (s *recordingSink) DisplayNotes(notes []protocol.Note) {
	s.flushes = append(s.flushes, notes)
}

func note(msg string) protocol.Note {
	return protocol.Note{File: "/a/Foo.scala", Msg: msg, Severity: protocol.SeverityError}
}

func TestBuffer_DropsNotesWhileIdle(t *testing.T) {
	sink := &recordingSink{}
	b := New(sink, nil)

	b.Append([]protocol.Note{note("early")})
	b.Complete()

	if len(sink.flushes) != 0 {
		t.Fatalf("got %d flushes, want 0", len(sink.flushes))
	}
	if b.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", b.Pending())
	}
}

func TestBuffer_FlushesAccumulatedNotesInOrder(t *testing.T) {
	sink := &recordingSink{}
	b := New(sink, nil)

	b.Begin()
	b.Append([]protocol.Note{note("first"), note("second")})
	b.Append([]protocol.Note{note("third")})
	b.Complete()

	if len(sink.flushes) != 1 {
		t.Fatalf("got %d flushes, want exactly 1", len(sink.flushes))
	}
	got := sink.flushes[0]
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("flushed %d notes, want %d", len(got), len(want))
	}
	for i, msg := range want {
		if got[i].Msg != msg {
			t.Errorf("note[%d].Msg = %q, want %q", i, got[i].Msg, msg)
		}
	}
	if b.Buffering() {
		t.Error("Buffering() = true after Complete")
	}
}

func TestBuffer_SecondBeginDiscardsWindow(t *testing.T) {
	sink := &recordingSink{}
	b := New(sink, nil)

	b.Begin()
	b.Append([]protocol.Note{note("stale")})
	b.Begin()
	b.Append([]protocol.Note{note("fresh")})
	b.Complete()

	if len(sink.flushes) != 1 {
		t.Fatalf("got %d flushes, want 1", len(sink.flushes))
	}
	if len(sink.flushes[0]) != 1 || sink.flushes[0][0].Msg != "fresh" {
		t.Errorf("flush = %+v, want only the fresh note", sink.flushes[0])
	}
}

func TestBuffer_CompleteFlushesOnlyOnce(t *testing.T) {
	sink := &recordingSink{}
	b := New(sink, nil)

	b.Begin()
	b.Append([]protocol.Note{note("only")})
	b.Complete()
	b.Complete()

	if len(sink.flushes) != 1 {
		t.Fatalf("got %d flushes, want exactly 1", len(sink.flushes))
	}
}

func TestBuffer_EmptyWindowStillFlushes(t *testing.T) {
	sink := &recordingSink{}
	b := New(sink, nil)

	b.Begin()
	b.Complete()

	// A clean typecheck reports an empty batch so the editor can clear
	// stale notes.
	if len(sink.flushes) != 1 {
		t.Fatalf("got %d flushes, want 1", len(sink.flushes))
	}
	if len(sink.flushes[0]) != 0 {
		t.Errorf("flush carried %d notes, want 0", len(sink.flushes[0]))
	}
}
