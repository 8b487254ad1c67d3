// Package editor defines the surface the dispatch engine renders through.
//
// The engine never manipulates buffers or windows itself; every observable
// effect of a server response goes through the Editor interface. A console
// implementation for headless use ships with the package; an actual editor
// front end provides its own.
package editor

import "github.com/dshills/enslink/internal/protocol"

// Position is a 1-based line/column cursor position.
type Position struct {
	Line int
	Col  int
}

// QuickfixItem is one entry for the editor's quickfix/location list.
type QuickfixItem struct {
	Filename string
	Line     int
	Text     string
	Kind     string
}

// Editor is the rendering surface consumed by the engine and its response
// handlers. Implementations are driven from the caller's goroutine only;
// they do not need to be safe for concurrent use.
type Editor interface {
	// RawMessage displays a message in the editor's status area.
	RawMessage(text string)

	// DisplayNotes renders a batch of diagnostic notes.
	DisplayNotes(notes []protocol.Note)

	// CleanErrors clears previously displayed notes and highlights.
	CleanErrors()

	// EditFile opens path in the current window.
	EditFile(path string)

	// SplitWindow opens path in a new split. A size of 0 means default.
	SplitWindow(path string, vertical bool, size int)

	// Scratch renders lines into a throwaway buffer with the given name.
	Scratch(name string, lines []string, vertical bool, size int)

	// ReplaceBuffer replaces the contents of the current buffer.
	ReplaceBuffer(lines []string)

	// Menu presents choices and returns the selected index. The second
	// return is false when the user dismissed the menu.
	Menu(prompt string, choices []string) (int, bool)

	// WriteQuickfix fills the quickfix list and opens it.
	WriteQuickfix(items []QuickfixItem)

	// CurrentFilePath returns the path of the focused file.
	CurrentFilePath() string

	// CursorPosition returns the current cursor position.
	CursorPosition() Position

	// SetCursor moves the cursor to a 1-based line and column.
	SetCursor(line, col int)

	// GotoOffset moves the cursor to a 1-based byte offset in the buffer.
	GotoOffset(offset int)

	// Deactivate disables editor integration. Called exactly once when the
	// engine enters its terminal disabled state.
	Deactivate(reason string)
}
