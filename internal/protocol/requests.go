package protocol

// FileInfo carries a file path together with its in-editor contents, for
// requests that operate on unsaved buffers.
type FileInfo struct {
	File     string `json:"file"`
	Contents string `json:"contents"`
}

// OffsetRange is a half-open byte range within a file.
type OffsetRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ConnectionInfoReq is sent immediately after connecting to verify the
// server answers and to learn its protocol version.
type ConnectionInfoReq struct {
	Typehint string `json:"typehint"`
}

// NewConnectionInfoReq builds a ConnectionInfoReq.
func NewConnectionInfoReq() ConnectionInfoReq {
	return ConnectionInfoReq{Typehint: "ConnectionInfoReq"}
}

// TypecheckFilesReq asks the server to typecheck a set of files. Results
// arrive incrementally as NewScalaNotesEvent frames terminated by a
// FullTypeCheckCompleteEvent.
type TypecheckFilesReq struct {
	Typehint string   `json:"typehint"`
	Files    []string `json:"files"`
}

// NewTypecheckFilesReq builds a TypecheckFilesReq.
func NewTypecheckFilesReq(files []string) TypecheckFilesReq {
	return TypecheckFilesReq{Typehint: "TypecheckFilesReq", Files: files}
}

// CompletionsReq asks for completion candidates at a byte offset.
type CompletionsReq struct {
	Typehint   string   `json:"typehint"`
	FileInfo   FileInfo `json:"fileInfo"`
	Point      int      `json:"point"`
	MaxResults int      `json:"maxResults"`
	CaseSens   bool     `json:"caseSens"`
	Reload     bool     `json:"reload"`
}

// NewCompletionsReq builds a CompletionsReq with the conventional limits.
func NewCompletionsReq(info FileInfo, point, maxResults int) CompletionsReq {
	return CompletionsReq{
		Typehint:   "CompletionsReq",
		FileInfo:   info,
		Point:      point,
		MaxResults: maxResults,
		CaseSens:   true,
	}
}

// SymbolAtPointReq resolves the symbol at a byte offset.
type SymbolAtPointReq struct {
	Typehint string `json:"typehint"`
	File     string `json:"file"`
	Point    int    `json:"point"`
}

// NewSymbolAtPointReq builds a SymbolAtPointReq.
func NewSymbolAtPointReq(file string, point int) SymbolAtPointReq {
	return SymbolAtPointReq{Typehint: "SymbolAtPointReq", File: file, Point: point}
}

// SymbolByNameReq resolves a symbol by fully-qualified name, optionally
// narrowing to a member.
type SymbolByNameReq struct {
	Typehint     string `json:"typehint"`
	TypeFullName string `json:"typeFullName"`
	MemberName   string `json:"memberName,omitempty"`
}

// NewSymbolByNameReq builds a SymbolByNameReq.
func NewSymbolByNameReq(fqn, member string) SymbolByNameReq {
	return SymbolByNameReq{Typehint: "SymbolByNameReq", TypeFullName: fqn, MemberName: member}
}

// InspectTypeAtPointReq asks for a full inspection of the type at a point.
type InspectTypeAtPointReq struct {
	Typehint string      `json:"typehint"`
	File     string      `json:"file"`
	Point    int         `json:"point"`
	Range    OffsetRange `json:"range"`
}

// NewInspectTypeAtPointReq builds an InspectTypeAtPointReq.
func NewInspectTypeAtPointReq(file string, point int) InspectTypeAtPointReq {
	return InspectTypeAtPointReq{
		Typehint: "InspectTypeAtPointReq",
		File:     file,
		Point:    point,
		Range:    OffsetRange{From: point, To: point},
	}
}

// AtPointReq is the generic "<What>AtPointReq" family: TypeAtPointReq,
// DocUriAtPointReq and friends, parameterized by a range or point field.
type AtPointReq struct {
	Typehint string       `json:"typehint"`
	File     string       `json:"file"`
	Range    *OffsetRange `json:"range,omitempty"`
	Point    *OffsetRange `json:"point,omitempty"`
}

// NewTypeAtPointReq builds a TypeAtPointReq covering size bytes at point.
func NewTypeAtPointReq(file string, point, size int) AtPointReq {
	return AtPointReq{
		Typehint: "TypeAtPointReq",
		File:     file,
		Range:    &OffsetRange{From: point, To: point + size},
	}
}

// NewDocUriAtPointReq builds a DocUriAtPointReq for the symbol at point.
func NewDocUriAtPointReq(file string, point, size int) AtPointReq {
	return AtPointReq{
		Typehint: "DocUriAtPointReq",
		File:     file,
		Point:    &OffsetRange{From: point, To: point + size},
	}
}

// ImportSuggestionsReq asks for import candidates for names near a point.
type ImportSuggestionsReq struct {
	Typehint   string   `json:"typehint"`
	File       string   `json:"file"`
	Point      int      `json:"point"`
	Names      []string `json:"names"`
	MaxResults int      `json:"maxResults"`
}

// NewImportSuggestionsReq builds an ImportSuggestionsReq.
func NewImportSuggestionsReq(file string, point int, names []string) ImportSuggestionsReq {
	return ImportSuggestionsReq{
		Typehint:   "ImportSuggestionsReq",
		File:       file,
		Point:      point,
		Names:      names,
		MaxResults: 10,
	}
}

// PublicSymbolSearchReq searches the index for symbols matching keywords.
type PublicSymbolSearchReq struct {
	Typehint   string   `json:"typehint"`
	Keywords   []string `json:"keywords"`
	MaxResults int      `json:"maxResults"`
}

// NewPublicSymbolSearchReq builds a PublicSymbolSearchReq.
func NewPublicSymbolSearchReq(keywords []string) PublicSymbolSearchReq {
	return PublicSymbolSearchReq{
		Typehint:   "PublicSymbolSearchReq",
		Keywords:   keywords,
		MaxResults: 25,
	}
}

// InspectPackageByPathReq asks for the member tree of a package.
type InspectPackageByPathReq struct {
	Typehint string `json:"typehint"`
	Path     string `json:"path"`
}

// NewInspectPackageByPathReq builds an InspectPackageByPathReq.
func NewInspectPackageByPathReq(path string) InspectPackageByPathReq {
	return InspectPackageByPathReq{Typehint: "InspectPackageByPathReq", Path: path}
}

// FormatOneSourceReq asks the server to reformat a single source file.
type FormatOneSourceReq struct {
	Typehint string   `json:"typehint"`
	File     FileInfo `json:"file"`
}

// NewFormatOneSourceReq builds a FormatOneSourceReq.
func NewFormatOneSourceReq(info FileInfo) FormatOneSourceReq {
	return FormatOneSourceReq{Typehint: "FormatOneSourceReq", File: info}
}

// --- Refactoring ---

// RefactorDesc is implemented by the per-kind refactoring descriptors.
type RefactorDesc interface {
	refactorDesc()
}

// RenameRefactorDesc renames the symbol spanning [Start, End) in File.
type RenameRefactorDesc struct {
	Typehint string `json:"typehint"`
	NewName  string `json:"newName"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	File     string `json:"file"`
}

func (RenameRefactorDesc) refactorDesc() {}

// NewRenameRefactorDesc builds a RenameRefactorDesc.
func NewRenameRefactorDesc(file, newName string, start, end int) RenameRefactorDesc {
	return RenameRefactorDesc{
		Typehint: "RenameRefactorDesc",
		NewName:  newName,
		Start:    start,
		End:      end,
		File:     file,
	}
}

// InlineLocalRefactorDesc inlines the local value spanning [Start, End).
type InlineLocalRefactorDesc struct {
	Typehint string `json:"typehint"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	File     string `json:"file"`
}

func (InlineLocalRefactorDesc) refactorDesc() {}

// NewInlineLocalRefactorDesc builds an InlineLocalRefactorDesc.
func NewInlineLocalRefactorDesc(file string, start, end int) InlineLocalRefactorDesc {
	return InlineLocalRefactorDesc{
		Typehint: "InlineLocalRefactorDesc",
		Start:    start,
		End:      end,
		File:     file,
	}
}

// AddImportRefactorDesc adds an import of QualifiedName to File.
type AddImportRefactorDesc struct {
	Typehint      string `json:"typehint"`
	File          string `json:"file"`
	QualifiedName string `json:"qualifiedName"`
}

func (AddImportRefactorDesc) refactorDesc() {}

// NewAddImportRefactorDesc builds an AddImportRefactorDesc.
func NewAddImportRefactorDesc(file, qualifiedName string) AddImportRefactorDesc {
	return AddImportRefactorDesc{
		Typehint:      "AddImportRefactorDesc",
		File:          file,
		QualifiedName: qualifiedName,
	}
}

// OrganiseImportsRefactorDesc reorders and prunes the imports of File.
type OrganiseImportsRefactorDesc struct {
	Typehint string `json:"typehint"`
	File     string `json:"file"`
}

func (OrganiseImportsRefactorDesc) refactorDesc() {}

// NewOrganiseImportsRefactorDesc builds an OrganiseImportsRefactorDesc.
func NewOrganiseImportsRefactorDesc(file string) OrganiseImportsRefactorDesc {
	return OrganiseImportsRefactorDesc{Typehint: "OrganiseImportsRefactorDesc", File: file}
}

// RefactorReq submits a refactoring descriptor under a procedure ID. The
// procedure ID is a separate numbering from call IDs so the server's later
// RefactorDiffEffect can be matched back to the file it targets.
type RefactorReq struct {
	Typehint    string       `json:"typehint"`
	ProcID      int64        `json:"procId"`
	Params      RefactorDesc `json:"params"`
	Interactive bool         `json:"interactive"`
}

// NewRefactorReq builds a non-interactive RefactorReq.
func NewRefactorReq(procID int64, desc RefactorDesc) RefactorReq {
	return RefactorReq{
		Typehint: "RefactorReq",
		ProcID:   procID,
		Params:   desc,
	}
}

// --- Debugger ---

// DebugSetBreakReq sets a line breakpoint.
type DebugSetBreakReq struct {
	Typehint   string `json:"typehint"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	MaxResults int    `json:"maxResults"`
}

// NewDebugSetBreakReq builds a DebugSetBreakReq.
func NewDebugSetBreakReq(file string, line int) DebugSetBreakReq {
	return DebugSetBreakReq{Typehint: "DebugSetBreakReq", File: file, Line: line, MaxResults: 10}
}

// DebugClearAllBreaksReq clears every breakpoint.
type DebugClearAllBreaksReq struct {
	Typehint string `json:"typehint"`
}

// NewDebugClearAllBreaksReq builds a DebugClearAllBreaksReq.
func NewDebugClearAllBreaksReq() DebugClearAllBreaksReq {
	return DebugClearAllBreaksReq{Typehint: "DebugClearAllBreaksReq"}
}

// DebugAttachReq attaches the debugger to a remote VM.
type DebugAttachReq struct {
	Typehint string `json:"typehint"`
	Hostname string `json:"hostname"`
	Port     string `json:"port"`
}

// NewDebugAttachReq builds a DebugAttachReq. Empty arguments default to
// localhost:5005.
func NewDebugAttachReq(hostname, port string) DebugAttachReq {
	if hostname == "" {
		hostname = "localhost"
	}
	if port == "" {
		port = "5005"
	}
	return DebugAttachReq{Typehint: "DebugAttachReq", Hostname: hostname, Port: port}
}

// DebugThreadReq is the family of thread-scoped debug commands:
// DebugContinueReq, DebugStepReq, DebugStepOutReq, DebugNextReq.
type DebugThreadReq struct {
	Typehint string `json:"typehint"`
	ThreadID string `json:"threadId"`
}

// NewDebugContinueReq builds a DebugContinueReq.
func NewDebugContinueReq(threadID string) DebugThreadReq {
	return DebugThreadReq{Typehint: "DebugContinueReq", ThreadID: threadID}
}

// NewDebugStepReq builds a DebugStepReq.
func NewDebugStepReq(threadID string) DebugThreadReq {
	return DebugThreadReq{Typehint: "DebugStepReq", ThreadID: threadID}
}

// NewDebugStepOutReq builds a DebugStepOutReq.
func NewDebugStepOutReq(threadID string) DebugThreadReq {
	return DebugThreadReq{Typehint: "DebugStepOutReq", ThreadID: threadID}
}

// NewDebugNextReq builds a DebugNextReq.
func NewDebugNextReq(threadID string) DebugThreadReq {
	return DebugThreadReq{Typehint: "DebugNextReq", ThreadID: threadID}
}

// DebugBacktraceReq asks for a slice of the stopped thread's stack.
type DebugBacktraceReq struct {
	Typehint string `json:"typehint"`
	ThreadID string `json:"threadId"`
	Index    int    `json:"index"`
	Count    int    `json:"count"`
}

// NewDebugBacktraceReq builds a DebugBacktraceReq for the top 100 frames.
func NewDebugBacktraceReq(threadID string) DebugBacktraceReq {
	return DebugBacktraceReq{Typehint: "DebugBacktraceReq", ThreadID: threadID, Count: 100}
}
