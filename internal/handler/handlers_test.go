package handler

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/enslink/internal/editor"
	"github.com/dshills/enslink/internal/protocol"
)

// fakeEditor records every rendering call.
type fakeEditor struct {
	messages    []string
	noteBatches [][]protocol.Note
	edited      []string
	splits      []string
	scratches   map[string][]string
	replaced    [][]string
	quickfix    []editor.QuickfixItem
	cleaned     int
	cursor      editor.Position
	offset      int
	deactivated string

	menuChoice int
	menuOK     bool
	menuSeen   []string

	current string
}

func newFakeEditor() *fakeEditor {
	return &fakeEditor{scratches: make(map[string][]string), current: "/a/Foo.scala"}
}

func (e *fakeEditor) RawMessage(text string) { e.messages = append(e.messages, text) }
func (e *fakeEditor) CleanErrors() { e.cleaned++ }
func (e *fakeEditor) EditFile(path string) { e.edited = append(e.edited, path) }
func (e *fakeEditor) CurrentFilePath() string { return e.current }
func (e *fakeEditor) CursorPosition() editor.Position { return e.cursor }
func (e *fakeEditor) GotoOffset(offset int) { e.offset = offset }
func (e *fakeEditor) Deactivate(reason string) { e.deactivated = reason }

func (e *fakeEditor) DisplayNotes(notes []protocol.Note) {
	e.noteBatches = append(e.noteBatches, notes)
}

func (e *fakeEditor) ReplaceBuffer(lines []string) {
	e.replaced = append(e.replaced, lines)
}

func (e *fakeEditor) WriteQuickfix(items []editor.QuickfixItem) {
	e.quickfix = items
}

func (e *fakeEditor) SetCursor(line, col int) {
	e.cursor = editor.Position{Line: line, Col: col}
}

func (e *fakeEditor) SplitWindow(path string, vertical bool, size int) {
	e.splits = append(e.splits, path)
}

func (e *fakeEditor) Scratch(name string, lines []string, vertical bool, size int) {
	e.scratches[name] = lines
}

func (e *fakeEditor) Menu(prompt string, choices []string) (int, bool) {
	e.menuSeen = choices
	return e.menuChoice, e.menuOK
}

// fakeCalls is an in-memory CallStore.
type fakeCalls struct {
	opts      map[int64]protocol.CallOptions
	forgotten []int64
}

func newFakeCalls() *fakeCalls {
	return &fakeCalls{opts: make(map[int64]protocol.CallOptions)}
}

func (c *fakeCalls) Options(callID int64) (protocol.CallOptions, bool) {
	opts, ok := c.opts[callID]
	return opts, ok
}

func (c *fakeCalls) Forget(callID int64) {
	delete(c.opts, callID)
	c.forgotten = append(c.forgotten, callID)
}

// fakeRequester records sent request bodies.
type fakeRequester struct {
	sent []any
}

func (r *fakeRequester) SendRequest(body any) int64 {
	r.sent = append(r.sent, body)
	return int64(len(r.sent) - 1)
}

// fakeNotes records buffer interactions.
type fakeNotes struct {
	appended  [][]protocol.Note
	completed int
}

func (n *fakeNotes) Append(notes []protocol.Note) { n.appended = append(n.appended, notes) }
func (n *fakeNotes) Complete()                    { n.completed++ }

// fakePatcher records refactor tracking and application.
type fakePatcher struct {
	tracked []string
	applied []int64
	kinds   []string
	diffs   []string
}

func (p *fakePatcher) Track(file string) int64 {
	p.tracked = append(p.tracked, file)
	return int64(len(p.tracked))
}

func (p *fakePatcher) Apply(procID int64, kind, diffPath string) error {
	p.applied = append(p.applied, procID)
	p.kinds = append(p.kinds, kind)
	p.diffs = append(p.diffs, diffPath)
	return nil
}

// fakePorts serves a fixed port.
type fakePorts struct {
	port int
	err  error
}

func (p *fakePorts) HTTPPort() (int, error) { return p.port, p.err }

type fixture struct {
	handlers  *Handlers
	registry  *Registry
	editor    *fakeEditor
	calls     *fakeCalls
	requester *fakeRequester
	notes     *fakeNotes
	patcher   *fakePatcher
	browsed   []string
	browseErr error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		editor:    newFakeEditor(),
		calls:     newFakeCalls(),
		requester: &fakeRequester{},
		notes:     &fakeNotes{},
		patcher:   &fakePatcher{},
	}
	f.handlers = New(Deps{
		Editor:    f.editor,
		Calls:     f.calls,
		Requester: f.requester,
		Notes:     f.notes,
		Patcher:   f.patcher,
		Ports:     &fakePorts{port: 9000},
		Browser: func(url string) error {
			f.browsed = append(f.browsed, url)
			return f.browseErr
		},
	})
	t.Cleanup(f.handlers.Close)
	f.registry = NewRegistry(f.editor, "3.0.0", nil)
	f.handlers.RegisterAll(f.registry)
	return f
}

func dispatch(t *testing.T, f *fixture, raw string) {
	t.Helper()
	frame, err := protocol.DecodeFrame(raw)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	f.registry.Dispatch(frame)
}

func TestReadyEvents(t *testing.T) {
	f := newFixture(t)
	dispatch(t, f, `{"payload":{"typehint":"AnalyzerReadyEvent"}}`)
	dispatch(t, f, `{"payload":{"typehint":"IndexerReadyEvent"}}`)

	want := []string{editor.NoticeAnalyzerReady, editor.NoticeIndexerReady}
	if len(f.editor.messages) != 2 || f.editor.messages[0] != want[0] || f.editor.messages[1] != want[1] {
		t.Errorf("messages = %v, want %v", f.editor.messages, want)
	}
}

func TestNotesFeedTheBuffer(t *testing.T) {
	f := newFixture(t)
	dispatch(t, f, `{"payload":{"typehint":"NewScalaNotesEvent","notes":[
		{"file":"/a/Foo.scala","line":3,"msg":"broken","severity":{"typehint":"NoteError"}}]}}`)
	dispatch(t, f, `{"payload":{"typehint":"FullTypeCheckCompleteEvent"}}`)

	if len(f.notes.appended) != 1 || len(f.notes.appended[0]) != 1 {
		t.Fatalf("appended = %v", f.notes.appended)
	}
	if f.notes.appended[0][0].Msg != "broken" {
		t.Errorf("note msg = %q", f.notes.appended[0][0].Msg)
	}
	if f.notes.completed != 1 {
		t.Errorf("completed = %d, want 1", f.notes.completed)
	}
}

func TestSymbolInfo_OpensDefinitionWithOptions(t *testing.T) {
	f := newFixture(t)
	f.calls.opts[5] = protocol.CallOptions{OpenDefinition: true, Split: true, Vertical: true}

	dispatch(t, f, `{"callId":5,"payload":{"typehint":"SymbolInfo","name":"Foo",
		"declPos":{"typehint":"LineSourcePosition","file":"/a/Bar.scala","line":12}}}`)

	if f.editor.cleaned != 1 {
		t.Errorf("cleaned = %d, want 1", f.editor.cleaned)
	}
	if len(f.editor.splits) != 1 || f.editor.splits[0] != "/a/Bar.scala" {
		t.Errorf("splits = %v", f.editor.splits)
	}
	if f.editor.cursor.Line != 12 {
		t.Errorf("cursor = %+v, want line 12", f.editor.cursor)
	}
	if _, ok := f.calls.Options(5); ok {
		t.Error("call options still present after handling")
	}
}

func TestSymbolInfo_OffsetPosition(t *testing.T) {
	f := newFixture(t)
	f.calls.opts[2] = protocol.CallOptions{OpenDefinition: true}

	dispatch(t, f, `{"callId":2,"payload":{"typehint":"SymbolInfo","name":"Foo",
		"declPos":{"typehint":"OffsetSourcePosition","file":"/a/Bar.scala","offset":120}}}`)

	if len(f.editor.edited) != 1 || f.editor.edited[0] != "/a/Bar.scala" {
		t.Errorf("edited = %v", f.editor.edited)
	}
	if f.editor.offset != 121 {
		t.Errorf("offset = %d, want 121 (1-based)", f.editor.offset)
	}
}

func TestSymbolInfo_MissingDeclarationReportsNotFound(t *testing.T) {
	f := newFixture(t)
	dispatch(t, f, `{"callId":1,"payload":{"typehint":"SymbolInfo","name":"ghost"}}`)

	if len(f.editor.messages) != 1 || f.editor.messages[0] != editor.NoticeUnknownSymbol {
		t.Errorf("messages = %v, want unknown-symbol notice", f.editor.messages)
	}
	if len(f.editor.edited) != 0 {
		t.Errorf("edited = %v, want none", f.editor.edited)
	}
}

func TestShowType_RespectsFullTypesToggle(t *testing.T) {
	f := newFixture(t)
	raw := `{"callId":1,"payload":{"typehint":"BasicTypeInfo","name":"Option","fullName":"scala.Option"}}`

	dispatch(t, f, raw)
	if f.editor.messages[len(f.editor.messages)-1] != "Option" {
		t.Errorf("message = %q, want short name", f.editor.messages[len(f.editor.messages)-1])
	}

	if on := f.handlers.ToggleFullTypes(); !on {
		t.Fatal("ToggleFullTypes() = false, want true")
	}
	if got := f.editor.messages[len(f.editor.messages)-1]; got != editor.NoticeFullTypesEnabled {
		t.Errorf("toggle notice = %q, want %q", got, editor.NoticeFullTypesEnabled)
	}
	dispatch(t, f, raw)
	if f.editor.messages[len(f.editor.messages)-1] != "scala.Option" {
		t.Errorf("message = %q, want full name", f.editor.messages[len(f.editor.messages)-1])
	}

	if on := f.handlers.ToggleFullTypes(); on {
		t.Fatal("ToggleFullTypes() = true, want false on second toggle")
	}
	if got := f.editor.messages[len(f.editor.messages)-1]; got != editor.NoticeFullTypesDisabled {
		t.Errorf("toggle notice = %q, want %q", got, editor.NoticeFullTypesDisabled)
	}
}

func TestTypeInspect_FormatsInterfaces(t *testing.T) {
	f := newFixture(t)
	dispatch(t, f, `{"callId":1,"payload":{"typehint":"TypeInspectInfo",
		"type":{"name":"List","fullName":"scala.List"},
		"interfaces":[{"type":{"name":"Seq"}},{"type":{"name":"Iterable"}}]}}`)

	want := "( Seq, Iterable ) => List"
	if got := f.editor.messages[0]; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestStringResponse_RelativeDocURL(t *testing.T) {
	f := newFixture(t)
	dispatch(t, f, `{"callId":3,"payload":{"typehint":"StringResponse","text":"scala/Option.html"}}`)

	want := "http://127.0.0.1:9000/scala/Option.html"
	if len(f.editor.messages) != 1 || f.editor.messages[0] != want {
		t.Errorf("messages = %v, want echoed %q", f.editor.messages, want)
	}
}

func TestStringResponse_BrowseOption(t *testing.T) {
	f := newFixture(t)
	f.calls.opts[3] = protocol.CallOptions{Browse: true}
	dispatch(t, f, `{"callId":3,"payload":{"typehint":"StringResponse","text":"http://doc/x"}}`)

	if len(f.browsed) != 1 || f.browsed[0] != "http://doc/x" {
		t.Errorf("browsed = %v", f.browsed)
	}
	if _, ok := f.calls.Options(3); ok {
		t.Error("browse options not consumed")
	}
}

func TestStringResponse_BrowserFailureFallsBackToMessage(t *testing.T) {
	f := newFixture(t)
	f.browseErr = errors.New("no display")
	f.calls.opts[3] = protocol.CallOptions{Browse: true}
	dispatch(t, f, `{"callId":3,"payload":{"typehint":"StringResponse","text":"http://doc/x"}}`)

	if len(f.editor.messages) != 1 || f.editor.messages[0] != editor.ManualDocNotice("http://doc/x") {
		t.Errorf("messages = %v, want manual-doc fallback", f.editor.messages)
	}
}

func TestStringResponse_FormatReplacesBuffer(t *testing.T) {
	f := newFixture(t)
	f.handlers.RememberFormatCall(8)
	dispatch(t, f, `{"callId":8,"payload":{"typehint":"StringResponse","text":"line1\nline2"}}`)

	if len(f.editor.replaced) != 1 {
		t.Fatalf("replaced = %v, want one buffer replacement", f.editor.replaced)
	}
	got := f.editor.replaced[0]
	if len(got) != 2 || got[0] != "line1" || got[1] != "line2" {
		t.Errorf("replacement = %v", got)
	}
	if len(f.browsed) != 0 || len(f.editor.messages) != 0 {
		t.Error("format response leaked into doc-URI handling")
	}
}

func TestCompletions_ParkedUntilTaken(t *testing.T) {
	f := newFixture(t)
	dispatch(t, f, `{"callId":4,"payload":{"typehint":"CompletionInfoList","completions":[
		{"name":"map","typeInfo":{"name":"(A => B) => List[B]","fullName":"scala.List.map"}},
		{"name":"broken"},
		{"name":"max","toInsert":"max()","typeInfo":{"name":"A"}}]}}`)

	suggestions, ok := f.handlers.TakeSuggestions()
	if !ok {
		t.Fatal("TakeSuggestions() = not ok")
	}
	if len(suggestions) != 2 {
		t.Fatalf("got %d suggestions, want 2 (candidate without type info dropped)", len(suggestions))
	}
	if suggestions[0].Word != "map" || suggestions[1].Word != "max()" {
		t.Errorf("suggestions = %+v", suggestions)
	}

	if _, ok := f.handlers.TakeSuggestions(); ok {
		t.Error("TakeSuggestions() returned the same batch twice")
	}
}

func TestSymbolSearch_FillsQuickfix(t *testing.T) {
	f := newFixture(t)
	dispatch(t, f, `{"callId":6,"payload":{"typehint":"SymbolSearchResults","syms":[
		{"name":"Foo","pos":{"file":"/a/Foo.scala","line":3}},
		{"name":"NoPos"}]}}`)

	if len(f.editor.quickfix) != 1 {
		t.Fatalf("quickfix = %v, want one positioned entry", f.editor.quickfix)
	}
	item := f.editor.quickfix[0]
	if item.Filename != "/a/Foo.scala" || item.Line != 3 || item.Text != "Foo" {
		t.Errorf("item = %+v", item)
	}
}

func TestImportSuggestions_MenuDrivesAddImport(t *testing.T) {
	f := newFixture(t)
	f.editor.menuOK = true
	f.editor.menuChoice = 1

	dispatch(t, f, `{"callId":7,"payload":{"typehint":"ImportSuggestions","symLists":[[
		{"name":"scala.util.Try"},{"name":"zzz.Try"},{"name":"scala.util.Try"}]]}}`)

	// Deduplicated and sorted.
	if len(f.editor.menuSeen) != 2 || f.editor.menuSeen[0] != "scala.util.Try" || f.editor.menuSeen[1] != "zzz.Try" {
		t.Fatalf("menu choices = %v", f.editor.menuSeen)
	}
	if len(f.patcher.tracked) != 1 || f.patcher.tracked[0] != "/a/Foo.scala" {
		t.Errorf("tracked = %v, want current file", f.patcher.tracked)
	}
	if len(f.requester.sent) != 1 {
		t.Fatalf("sent = %v, want one follow-up request", f.requester.sent)
	}
	req, ok := f.requester.sent[0].(protocol.RefactorReq)
	if !ok {
		t.Fatalf("sent body type = %T", f.requester.sent[0])
	}
	desc, ok := req.Params.(protocol.AddImportRefactorDesc)
	if !ok || desc.QualifiedName != "zzz.Try" {
		t.Errorf("desc = %+v, want chosen import", req.Params)
	}
}

func TestImportSuggestions_EmptyAndDismissed(t *testing.T) {
	f := newFixture(t)
	dispatch(t, f, `{"callId":7,"payload":{"typehint":"ImportSuggestions","symLists":[[]]}}`)
	if len(f.editor.messages) != 1 || f.editor.messages[0] != editor.NoticeNoImportCandidates {
		t.Errorf("messages = %v", f.editor.messages)
	}

	// Menu dismissed: no follow-up request.
	dispatch(t, f, `{"callId":8,"payload":{"typehint":"ImportSuggestions","symLists":[[{"name":"a.B"}]]}}`)
	if len(f.requester.sent) != 0 {
		t.Errorf("sent = %v, want none after dismissal", f.requester.sent)
	}
}

func TestPackageInfo_RendersIndentedTree(t *testing.T) {
	f := newFixture(t)
	dispatch(t, f, `{"callId":9,"payload":{"typehint":"PackageInfo","fullName":"scala.util",
		"members":[{"typehint":"BasicTypeInfo","name":"Try","declAs":{"typehint":"Class"},
			"members":[{"typehint":"BasicTypeInfo","name":"Success","declAs":{"typehint":"Class"}}]}]}}`)

	lines, ok := f.editor.scratches["package_info"]
	if !ok {
		t.Fatal("no package_info scratch rendered")
	}
	want := []string{"scala.util", "  Class: Try", "    Class: Success"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestDebugHandlers(t *testing.T) {
	f := newFixture(t)

	dispatch(t, f, `{"payload":{"typehint":"DebugOutputEvent","body":"hello from vm"}}`)
	if f.editor.messages[0] != "hello from vm" {
		t.Errorf("output message = %q", f.editor.messages[0])
	}

	dispatch(t, f, `{"payload":{"typehint":"DebugBreakEvent","threadId":42,"file":"/a/Foo.scala","line":7}}`)
	if f.handlers.DebugThreadID() != "42" {
		t.Errorf("DebugThreadID() = %q, want 42", f.handlers.DebugThreadID())
	}

	dispatch(t, f, `{"payload":{"typehint":"DebugBacktrace","threadId":42,"frames":[{"index":0}]}}`)
	lines, ok := f.editor.scratches["backtrace.json"]
	if !ok {
		t.Fatal("backtrace scratch not rendered")
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "\"index\": 0") {
		t.Errorf("backtrace not re-indented:\n%s", joined)
	}

	dispatch(t, f, `{"payload":{"typehint":"DebugVmError"}}`)
	if f.editor.messages[len(f.editor.messages)-1] != editor.NoticeDebugVMError {
		t.Error("vm error notice not shown")
	}
}

func TestRefactorDiff_RoutedToPatcher(t *testing.T) {
	f := newFixture(t)
	dispatch(t, f, `{"callId":11,"payload":{"typehint":"RefactorDiffEffect",
		"procedureId":2,"diff":"/tmp/x.diff","refactorType":{"typehint":"Rename"}}}`)

	if len(f.patcher.applied) != 1 || f.patcher.applied[0] != 2 {
		t.Fatalf("applied = %v", f.patcher.applied)
	}
	if f.patcher.kinds[0] != "Rename" || f.patcher.diffs[0] != "/tmp/x.diff" {
		t.Errorf("kind=%q diff=%q", f.patcher.kinds[0], f.patcher.diffs[0])
	}
}
