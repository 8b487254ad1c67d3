package editor

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/enslink/internal/protocol"
)

// Console is an Editor that renders to a terminal. It is used by the CLI
// for headless operation: windowing operations degrade to printed traces,
// menus are answered from In when it is set and dismissed otherwise.
type Console struct {
	out io.Writer
	in  *bufio.Reader

	file   string
	cursor Position

	errs  int
	warns int

	errColor  *color.Color
	warnColor *color.Color
	infoColor *color.Color
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithConsoleInput enables interactive menu answers read from r.
func WithConsoleInput(r io.Reader) ConsoleOption {
	return func(c *Console) {
		c.in = bufio.NewReader(r)
	}
}

// WithConsoleFile sets the path reported by CurrentFilePath.
func WithConsoleFile(path string) ConsoleOption {
	return func(c *Console) {
		c.file = path
	}
}

// NewConsole creates a console editor writing to out.
func NewConsole(out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		out:       out,
		cursor:    Position{Line: 1, Col: 1},
		errColor:  color.New(color.FgRed),
		warnColor: color.New(color.FgYellow),
		infoColor: color.New(color.FgCyan),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RawMessage displays a message.
func (c *Console) RawMessage(text string) {
	fmt.Fprintln(c.out, text)
}

// DisplayNotes prints one line per note, colorized by severity.
func (c *Console) DisplayNotes(notes []protocol.Note) {
	for _, note := range notes {
		line := fmt.Sprintf("%s:%d:%d: %s", note.File, note.Line, note.Col, note.Msg)
		switch note.Severity {
		case protocol.SeverityError:
			c.errs++
			c.errColor.Fprintln(c.out, line)
		case protocol.SeverityWarn:
			c.warns++
			c.warnColor.Fprintln(c.out, line)
		default:
			c.infoColor.Fprintln(c.out, line)
		}
	}
}

// CleanErrors resets the note counters.
func (c *Console) CleanErrors() {
	c.errs = 0
	c.warns = 0
}

// ErrorCount returns the number of error notes displayed since the last
// CleanErrors.
func (c *Console) ErrorCount() int { return c.errs }

// WarningCount returns the number of warning notes displayed since the
// last CleanErrors.
func (c *Console) WarningCount() int { return c.warns }

// EditFile records the new focused file.
func (c *Console) EditFile(path string) {
	c.file = path
	fmt.Fprintf(c.out, "-> %s\n", path)
}

// SplitWindow degrades to EditFile on a terminal.
func (c *Console) SplitWindow(path string, vertical bool, size int) {
	c.EditFile(path)
}

// Scratch prints the scratch buffer contents under a header.
func (c *Console) Scratch(name string, lines []string, vertical bool, size int) {
	fmt.Fprintf(c.out, "--- %s ---\n", name)
	for _, line := range lines {
		fmt.Fprintln(c.out, line)
	}
}

// ReplaceBuffer prints the replacement contents.
func (c *Console) ReplaceBuffer(lines []string) {
	for _, line := range lines {
		fmt.Fprintln(c.out, line)
	}
}

// Menu prompts on the terminal when input is interactive; otherwise the
// menu is dismissed.
func (c *Console) Menu(prompt string, choices []string) (int, bool) {
	if c.in == nil {
		return 0, false
	}
	fmt.Fprintln(c.out, prompt)
	for i, choice := range choices {
		fmt.Fprintf(c.out, "%d. %s\n", i+1, choice)
	}
	answer, err := c.in.ReadString('\n')
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || n < 1 || n > len(choices) {
		return 0, false
	}
	return n - 1, true
}

// WriteQuickfix prints the quickfix entries.
func (c *Console) WriteQuickfix(items []QuickfixItem) {
	for _, item := range items {
		fmt.Fprintf(c.out, "%s:%d: %s (%s)\n", item.Filename, item.Line, item.Text, item.Kind)
	}
}

// CurrentFilePath returns the focused file path.
func (c *Console) CurrentFilePath() string { return c.file }

// CursorPosition returns the tracked cursor position.
func (c *Console) CursorPosition() Position { return c.cursor }

// SetCursor moves the tracked cursor.
func (c *Console) SetCursor(line, col int) {
	c.cursor = Position{Line: line, Col: col}
	fmt.Fprintf(c.out, "-> %s:%d\n", c.file, line)
}

// GotoOffset reports the jump target by offset.
func (c *Console) GotoOffset(offset int) {
	fmt.Fprintf(c.out, "-> %s @%d\n", c.file, offset)
}

// Deactivate announces that integration has been disabled.
func (c *Console) Deactivate(reason string) {
	c.errColor.Fprintln(c.out, reason)
}
