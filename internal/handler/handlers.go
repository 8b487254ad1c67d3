package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/dshills/enslink/internal/editor"
	"github.com/dshills/enslink/internal/protocol"
)

// suggestionsKey is the single cache slot completion results are parked
// in until the editor polls them.
const suggestionsKey = "pending"

// packageTreeDepth bounds the indentation of the package inspection tree.
const packageTreeDepth = 4

// CallStore looks up and releases per-call presentation options recorded
// when a request was sent. Options are consumed at most once.
type CallStore interface {
	Options(callID int64) (protocol.CallOptions, bool)
	Forget(callID int64)
}

// Requester sends follow-up requests produced by handlers, such as the
// add-import refactoring chosen from an import suggestion menu.
type Requester interface {
	SendRequest(body any) int64
}

// NoteBuffer is the diagnostics state machine fed by typecheck events.
type NoteBuffer interface {
	Append(notes []protocol.Note)
	Complete()
}

// Patcher tracks refactor jobs and applies server-produced diffs.
type Patcher interface {
	Track(file string) int64
	Apply(procID int64, kind, diffPath string) error
}

// PortSource resolves the server's HTTP port for doc URLs.
type PortSource interface {
	HTTPPort() (int, error)
}

// Browser opens a URL. The default shells out to the platform opener.
type Browser func(url string) error

func defaultBrowser(url string) error {
	return exec.Command("xdg-open", url).Start()
}

// Suggestion is one completion candidate formatted for an editor popup.
type Suggestion struct {
	Word string
	Menu string
	Info string
}

// Deps wires the collaborators handlers render through.
type Deps struct {
	Editor    editor.Editor
	Calls     CallStore
	Requester Requester
	Notes     NoteBuffer
	Patcher   Patcher
	Ports     PortSource
	Browser   Browser
	Log       *slog.Logger

	// CompletionTTL bounds how long parked completion suggestions stay
	// retrievable. Defaults to 10 seconds.
	CompletionTTL time.Duration
}

// Handlers implements the full set of typed response handlers.
type Handlers struct {
	deps Deps

	fullTypes   atomic.Bool
	debugThread atomic.Value // string
	formatCall  atomic.Int64 // call ID of an in-flight format request, -1 when none

	suggestions *ttlcache.Cache[string, []Suggestion]
}

// New creates the handler set.
func New(deps Deps) *Handlers {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Browser == nil {
		deps.Browser = defaultBrowser
	}
	if deps.CompletionTTL <= 0 {
		deps.CompletionTTL = 10 * time.Second
	}

	cache := ttlcache.New[string, []Suggestion](
		ttlcache.WithTTL[string, []Suggestion](deps.CompletionTTL),
		ttlcache.WithDisableTouchOnHit[string, []Suggestion](),
	)
	go cache.Start()

	h := &Handlers{deps: deps, suggestions: cache}
	h.debugThread.Store("")
	h.formatCall.Store(-1)
	return h
}

// RegisterAll installs every handler on the registry.
func (h *Handlers) RegisterAll(r *Registry) {
	r.Register(protocol.HintSymbolInfo, h.symbolInfo)
	r.Register(protocol.HintIndexerReady, h.indexerReady)
	r.Register(protocol.HintAnalyzerReady, h.analyzerReady)
	r.Register(protocol.HintNewScalaNotes, h.notesArrived)
	r.Register(protocol.HintFullTypeCheckComplete, h.typecheckComplete)
	r.Register(protocol.HintBasicTypeInfo, h.showType)
	r.Register(protocol.HintArrowTypeInfo, h.showType)
	r.Register(protocol.HintStringResponse, h.stringResponse)
	r.Register(protocol.HintCompletionInfoList, h.completions)
	r.Register(protocol.HintTypeInspectInfo, h.typeInspect)
	r.Register(protocol.HintSymbolSearchResults, h.symbolSearch)
	r.Register(protocol.HintDebugOutput, h.debugOutput)
	r.Register(protocol.HintDebugBreak, h.debugBreak)
	r.Register(protocol.HintDebugBacktrace, h.debugBacktrace)
	r.Register(protocol.HintDebugVMError, h.debugVMError)
	r.Register(protocol.HintRefactorDiffEffect, h.refactorDiff)
	r.Register(protocol.HintImportSuggestions, h.importSuggestions)
	r.Register(protocol.HintPackageInfo, h.packageInfo)
}

// Close releases the completion cache.
func (h *Handlers) Close() {
	h.suggestions.Stop()
}

// --- State shared with request builders ---

// ToggleFullTypes flips fully-qualified type display, tells the user the
// new setting, and returns it.
func (h *Handlers) ToggleFullTypes() bool {
	for {
		old := h.fullTypes.Load()
		if h.fullTypes.CompareAndSwap(old, !old) {
			if !old {
				h.deps.Editor.RawMessage(editor.NoticeFullTypesEnabled)
			} else {
				h.deps.Editor.RawMessage(editor.NoticeFullTypesDisabled)
			}
			return !old
		}
	}
}

// DebugThreadID returns the thread the debugger last stopped on.
func (h *Handlers) DebugThreadID() string {
	return h.debugThread.Load().(string)
}

// RememberFormatCall marks callID as an in-flight format-source request
// so its StringResponse replaces the buffer instead of being treated as a
// doc URI.
func (h *Handlers) RememberFormatCall(callID int64) {
	h.formatCall.Store(callID)
}

// TakeSuggestions pops parked completion suggestions, if any arrived
// within the TTL window.
func (h *Handlers) TakeSuggestions() ([]Suggestion, bool) {
	item := h.suggestions.Get(suggestionsKey)
	if item == nil {
		return nil, false
	}
	h.suggestions.Delete(suggestionsKey)
	return item.Value(), true
}

// --- Handlers ---

func (h *Handlers) indexerReady(int64, []byte) error {
	h.deps.Editor.RawMessage(editor.NoticeIndexerReady)
	return nil
}

func (h *Handlers) analyzerReady(int64, []byte) error {
	h.deps.Editor.RawMessage(editor.NoticeAnalyzerReady)
	return nil
}

func (h *Handlers) notesArrived(_ int64, payload []byte) error {
	var event protocol.NotesEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode notes event: %w", err)
	}
	h.deps.Notes.Append(event.Notes)
	return nil
}

func (h *Handlers) typecheckComplete(int64, []byte) error {
	h.deps.Notes.Complete()
	return nil
}

func (h *Handlers) symbolInfo(callID int64, payload []byte) error {
	var info protocol.SymbolInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return fmt.Errorf("decode symbol info: %w", err)
	}
	if info.DeclPos == nil {
		// Symbols without a declaration position are reported, not fatal.
		h.deps.Editor.RawMessage(editor.NoticeUnknownSymbol)
		h.deps.Calls.Forget(callID)
		return nil
	}

	opts, _ := h.deps.Calls.Options(callID)
	file := info.DeclPos.File

	if opts.Display && file != "" {
		h.deps.Editor.RawMessage(file)
	}
	if opts.OpenDefinition && file != "" {
		h.deps.Editor.CleanErrors()
		if opts.Split {
			h.deps.Editor.SplitWindow(file, opts.Vertical, 0)
		} else {
			h.deps.Editor.EditFile(file)
		}
		switch info.DeclPos.Typehint {
		case protocol.LineSourcePosition:
			h.deps.Editor.SetCursor(info.DeclPos.Line, 0)
		default: // OffsetSourcePosition
			h.deps.Editor.GotoOffset(info.DeclPos.Offset + 1)
		}
	}
	h.deps.Calls.Forget(callID)
	return nil
}

func (h *Handlers) showType(_ int64, payload []byte) error {
	var info protocol.TypeInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return fmt.Errorf("decode type info: %w", err)
	}
	name := info.Name
	if h.fullTypes.Load() {
		name = info.FullName
	}
	h.deps.Editor.RawMessage(name)
	return nil
}

func (h *Handlers) typeInspect(_ int64, payload []byte) error {
	var inspection protocol.TypeInspection
	if err := json.Unmarshal(payload, &inspection); err != nil {
		return fmt.Errorf("decode type inspection: %w", err)
	}
	full := h.fullTypes.Load()
	name := func(t protocol.TypeInfo) string {
		if full {
			return t.FullName
		}
		return t.Name
	}

	interfaces := make([]string, 0, len(inspection.Interfaces))
	for _, iface := range inspection.Interfaces {
		interfaces = append(interfaces, name(iface.Type))
	}
	h.deps.Editor.RawMessage(
		"( " + strings.Join(interfaces, ", ") + " ) => " + name(inspection.Type))
	return nil
}

func (h *Handlers) stringResponse(callID int64, payload []byte) error {
	var result protocol.StringResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return fmt.Errorf("decode string response: %w", err)
	}

	// A StringResponse answers doc-URI and format-source requests alike;
	// the remembered format call ID disambiguates.
	if h.formatCall.Load() == callID {
		h.formatCall.Store(-1)
		h.deps.Editor.ReplaceBuffer(strings.Split(result.Text, "\n"))
		return nil
	}

	url := result.Text
	if !strings.HasPrefix(url, "http") {
		port, err := h.deps.Ports.HTTPPort()
		if err != nil {
			return fmt.Errorf("resolve doc URL: %w", err)
		}
		url = fmt.Sprintf("http://127.0.0.1:%d/%s", port, result.Text)
	}

	opts, _ := h.deps.Calls.Options(callID)
	h.deps.Calls.Forget(callID)
	if opts.Browse {
		if err := h.deps.Browser(url); err != nil {
			h.deps.Log.Warn("browser failed", "url", url, "error", err)
			h.deps.Editor.RawMessage(editor.ManualDocNotice(url))
		}
		return nil
	}
	h.deps.Editor.RawMessage(url)
	return nil
}

func (h *Handlers) completions(_ int64, payload []byte) error {
	var list protocol.CompletionList
	if err := json.Unmarshal(payload, &list); err != nil {
		return fmt.Errorf("decode completions: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(list.Completions))
	for _, c := range list.Completions {
		// Candidates without type info are a known server bug; drop them.
		if c.TypeInfo == nil {
			continue
		}
		word := c.ToInsert
		if word == "" {
			word = c.Name
		}
		suggestions = append(suggestions, Suggestion{
			Word: word,
			Menu: c.TypeInfo.Name,
			Info: c.TypeInfo.FullName,
		})
	}
	h.suggestions.Set(suggestionsKey, suggestions, ttlcache.DefaultTTL)
	return nil
}

func (h *Handlers) symbolSearch(_ int64, payload []byte) error {
	var search protocol.SymbolSearch
	if err := json.Unmarshal(payload, &search); err != nil {
		return fmt.Errorf("decode symbol search: %w", err)
	}

	items := make([]editor.QuickfixItem, 0, len(search.Syms))
	for _, sym := range search.Syms {
		if sym.Pos == nil {
			continue
		}
		items = append(items, editor.QuickfixItem{
			Filename: sym.Pos.File,
			Line:     sym.Pos.Line,
			Text:     sym.Name,
			Kind:     "info",
		})
	}
	h.deps.Editor.WriteQuickfix(items)
	return nil
}

func (h *Handlers) importSuggestions(_ int64, payload []byte) error {
	var candidates protocol.ImportCandidates
	if err := json.Unmarshal(payload, &candidates); err != nil {
		return fmt.Errorf("decode import suggestions: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, list := range candidates.SymLists {
		for _, sym := range list {
			name := strings.ReplaceAll(sym.Name, "$", ".")
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		h.deps.Editor.RawMessage(editor.NoticeNoImportCandidates)
		return nil
	}

	choice, ok := h.deps.Editor.Menu("Select class to import:", names)
	if !ok {
		return nil
	}
	if h.deps.Patcher == nil {
		return fmt.Errorf("no patch applier available for import of %s", names[choice])
	}

	file := h.deps.Editor.CurrentFilePath()
	procID := h.deps.Patcher.Track(file)
	h.deps.Requester.SendRequest(
		protocol.NewRefactorReq(procID, protocol.NewAddImportRefactorDesc(file, names[choice])))
	return nil
}

func (h *Handlers) packageInfo(_ int64, payload []byte) error {
	var pkg protocol.PackageInspection
	if err := json.Unmarshal(payload, &pkg); err != nil {
		return fmt.Errorf("decode package info: %w", err)
	}

	lines := []string{pkg.FullName}
	for _, member := range pkg.Members {
		lines = appendEntity(lines, member, 1)
	}
	h.deps.Editor.Scratch("package_info", lines, true, 45)
	return nil
}

func appendEntity(lines []string, e protocol.EntityInfo, depth int) []string {
	kind := ""
	if e.Typehint == protocol.HintBasicTypeInfo {
		kind = e.DeclAs.Typehint
	}
	lines = append(lines, fmt.Sprintf("%s%s: %s", strings.Repeat("  ", depth), kind, e.Name))
	if depth < packageTreeDepth {
		for _, m := range e.Members {
			lines = appendEntity(lines, m, depth+1)
		}
	}
	return lines
}

func (h *Handlers) debugOutput(_ int64, payload []byte) error {
	var out protocol.DebugOutput
	if err := json.Unmarshal(payload, &out); err != nil {
		return fmt.Errorf("decode debug output: %w", err)
	}
	h.deps.Editor.RawMessage(out.Body)
	return nil
}

func (h *Handlers) debugBreak(_ int64, payload []byte) error {
	var brk protocol.DebugBreak
	if err := json.Unmarshal(payload, &brk); err != nil {
		return fmt.Errorf("decode debug break: %w", err)
	}
	h.debugThread.Store(brk.ThreadID.String())
	h.deps.Editor.RawMessage(editor.BreakNotice(brk.File, brk.Line))
	return nil
}

func (h *Handlers) debugBacktrace(_ int64, payload []byte) error {
	var bt protocol.DebugBacktraceInfo
	if err := json.Unmarshal(payload, &bt); err != nil {
		return fmt.Errorf("decode debug backtrace: %w", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, bt.Frames, "", "  "); err != nil {
		return fmt.Errorf("format backtrace: %w", err)
	}
	h.deps.Editor.Scratch("backtrace.json", strings.Split(pretty.String(), "\n"), false, 0)
	return nil
}

func (h *Handlers) debugVMError(int64, []byte) error {
	h.deps.Editor.RawMessage(editor.NoticeDebugVMError)
	return nil
}

func (h *Handlers) refactorDiff(_ int64, payload []byte) error {
	var diff protocol.RefactorDiff
	if err := json.Unmarshal(payload, &diff); err != nil {
		return fmt.Errorf("decode refactor diff: %w", err)
	}
	if h.deps.Patcher == nil {
		return fmt.Errorf("no patch applier available for %s diff", diff.RefactorType.Typehint)
	}
	return h.deps.Patcher.Apply(diff.ProcedureID, diff.RefactorType.Typehint, diff.Diff)
}
