package protocol

import (
	"bytes"
	"encoding/json"
)

// NoteSeverity classifies one diagnostic note.
type NoteSeverity string

// Severities reported by the server.
const (
	SeverityError NoteSeverity = "NoteError"
	SeverityWarn  NoteSeverity = "NoteWarn"
	SeverityInfo  NoteSeverity = "NoteInfo"
)

// UnmarshalJSON accepts both the bare string form ("NoteError") and the
// tagged object form ({"typehint": "NoteError"}) used by different server
// versions.
func (s *NoteSeverity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var tagged struct {
			Typehint string `json:"typehint"`
		}
		if err := json.Unmarshal(data, &tagged); err != nil {
			return err
		}
		*s = NoteSeverity(tagged.Typehint)
		return nil
	}
	var plain string
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	*s = NoteSeverity(plain)
	return nil
}

// Note is one diagnostic unit reported for a source file. Notes have no
// identity beyond their content.
type Note struct {
	File     string       `json:"file"`
	Msg      string       `json:"msg"`
	Line     int          `json:"line"`
	Col      int          `json:"col"`
	Beg      int          `json:"beg"`
	End      int          `json:"end"`
	Severity NoteSeverity `json:"severity"`
}

// NotesEvent is the payload of NewScalaNotesEvent: a batch of notes
// arriving while a typecheck is in flight.
type NotesEvent struct {
	IsFull bool   `json:"isFull"`
	Notes  []Note `json:"notes"`
}

// SourcePosition locates a declaration either by line or by byte offset,
// discriminated by its typehint (LineSourcePosition / OffsetSourcePosition).
type SourcePosition struct {
	Typehint string `json:"typehint"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Offset   int    `json:"offset"`
}

// Source position discriminants.
const (
	LineSourcePosition   = "LineSourcePosition"
	OffsetSourcePosition = "OffsetSourcePosition"
)

// TypeInfo describes a type by simple and fully-qualified name.
type TypeInfo struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
}

// SymbolInfo is the reply to a symbol-at-point or symbol-by-name request.
// DeclPos may be absent when the server cannot locate a declaration.
type SymbolInfo struct {
	Name      string          `json:"name"`
	LocalName string          `json:"localName"`
	DeclPos   *SourcePosition `json:"declPos"`
	Type      *TypeInfo       `json:"type"`
}

// CompletionInfo is a single completion candidate. Candidates missing
// TypeInfo are dropped to work around a server-side bug.
type CompletionInfo struct {
	Name      string    `json:"name"`
	TypeInfo  *TypeInfo `json:"typeInfo"`
	ToInsert  string    `json:"toInsert"`
	Relevance int       `json:"relevance"`
}

// CompletionList is the payload of CompletionInfoList.
type CompletionList struct {
	Prefix      string           `json:"prefix"`
	Completions []CompletionInfo `json:"completions"`
}

// InterfaceInfo is one interface entry of a type inspection.
type InterfaceInfo struct {
	Type TypeInfo `json:"type"`
}

// TypeInspection is the payload of TypeInspectInfo.
type TypeInspection struct {
	Type       TypeInfo        `json:"type"`
	Interfaces []InterfaceInfo `json:"interfaces"`
}

// SymbolSearchResult is one hit of a public symbol search. Pos may be
// absent for symbols without a known source position.
type SymbolSearchResult struct {
	Name string          `json:"name"`
	Pos  *SourcePosition `json:"pos"`
}

// SymbolSearch is the payload of SymbolSearchResults.
type SymbolSearch struct {
	Syms []SymbolSearchResult `json:"syms"`
}

// ImportCandidates is the payload of ImportSuggestions: one list of
// candidate symbols per queried name.
type ImportCandidates struct {
	SymLists [][]SymbolSearchResult `json:"symLists"`
}

// EntityInfo is one member of an inspected package, possibly nested.
type EntityInfo struct {
	Typehint string `json:"typehint"`
	Name     string `json:"name"`
	DeclAs   struct {
		Typehint string `json:"typehint"`
	} `json:"declAs"`
	Members []EntityInfo `json:"members"`
}

// PackageInspection is the payload of PackageInfo.
type PackageInspection struct {
	FullName string       `json:"fullName"`
	Members  []EntityInfo `json:"members"`
}

// StringResult is the payload of StringResponse. It answers doc-URI,
// debug-to-string and format-source requests alike; the correlated call
// decides the interpretation.
type StringResult struct {
	Text string `json:"text"`
}

// DebugOutput is the payload of DebugOutputEvent.
type DebugOutput struct {
	Body string `json:"body"`
}

// DebugBreak is the payload of DebugBreakEvent.
type DebugBreak struct {
	ThreadID json.Number `json:"threadId"`
	File     string      `json:"file"`
	Line     int         `json:"line"`
}

// DebugBacktraceInfo is the payload of DebugBacktrace. Frames are kept raw
// and rendered verbatim for the user.
type DebugBacktraceInfo struct {
	Frames   json.RawMessage `json:"frames"`
	ThreadID json.Number     `json:"threadId"`
}

// RefactorDiff is the payload of RefactorDiffEffect: the server produced a
// patch for a previously requested refactoring.
type RefactorDiff struct {
	ProcedureID  int64  `json:"procedureId"`
	Diff         string `json:"diff"`
	RefactorType struct {
		Typehint string `json:"typehint"`
	} `json:"refactorType"`
}
