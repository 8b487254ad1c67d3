package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Response discriminants produced by the server. The set is extensible;
// unrecognized discriminants are logged and dropped by the dispatcher.
const (
	HintSymbolInfo            = "SymbolInfo"
	HintIndexerReady          = "IndexerReadyEvent"
	HintAnalyzerReady         = "AnalyzerReadyEvent"
	HintNewScalaNotes         = "NewScalaNotesEvent"
	HintFullTypeCheckComplete = "FullTypeCheckCompleteEvent"
	HintBasicTypeInfo         = "BasicTypeInfo"
	HintArrowTypeInfo         = "ArrowTypeInfo"
	HintStringResponse        = "StringResponse"
	HintCompletionInfoList    = "CompletionInfoList"
	HintTypeInspectInfo       = "TypeInspectInfo"
	HintSymbolSearchResults   = "SymbolSearchResults"
	HintDebugOutput           = "DebugOutputEvent"
	HintDebugBreak            = "DebugBreakEvent"
	HintDebugBacktrace        = "DebugBacktrace"
	HintDebugVMError          = "DebugVmError"
	HintRefactorDiffEffect    = "RefactorDiffEffect"
	HintImportSuggestions     = "ImportSuggestions"
	HintPackageInfo           = "PackageInfo"
)

// Frame is one decoded inbound message. Payload holds the raw JSON of the
// payload object so handlers can unmarshal into their own typed structs.
// Event frames carry no call ID; HasCallID distinguishes "no call ID" from
// call ID zero, which is a valid ID.
type Frame struct {
	CallID    int64
	HasCallID bool
	Typehint  string
	Payload   []byte
}

// HasPayload reports whether the frame carried a non-null payload object.
func (f Frame) HasPayload() bool { return len(f.Payload) > 0 }

// DecodeFrame lazily decodes a raw inbound frame. A missing or null payload
// is valid: the returned frame simply has no payload and is discarded by
// the drain loop. Malformed JSON is an error.
func DecodeFrame(text string) (Frame, error) {
	if !gjson.Valid(text) {
		return Frame{}, fmt.Errorf("%w: %.80q", ErrMalformedFrame, text)
	}
	root := gjson.Parse(text)

	var f Frame
	if id := root.Get("callId"); id.Exists() && id.Type != gjson.Null {
		f.CallID = id.Int()
		f.HasCallID = true
	}
	payload := root.Get("payload")
	if !payload.Exists() || payload.Type == gjson.Null {
		return f, nil
	}
	if !payload.IsObject() {
		return Frame{}, fmt.Errorf("%w: payload is not an object", ErrMalformedFrame)
	}
	f.Typehint = payload.Get("typehint").String()
	f.Payload = []byte(payload.Raw)
	return f, nil
}

// EncodeEnvelope wraps a request body in the outbound envelope with the
// given call ID. The body is any JSON-marshalable value carrying its own
// typehint field; the builders in this package produce suitable values.
func EncodeEnvelope(callID int64, body any) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request body: %w", err)
	}
	out, err := sjson.Set(`{}`, "callId", callID)
	if err != nil {
		return "", fmt.Errorf("set callId: %w", err)
	}
	out, err = sjson.SetRaw(out, "req", string(raw))
	if err != nil {
		return "", fmt.Errorf("set req: %w", err)
	}
	return out, nil
}

// CallOptions carries per-call presentation choices, remembered by the
// engine when a request is sent and consulted exactly once by the handler
// that processes the eventual reply. The zero value is valid and means
// "no special presentation".
type CallOptions struct {
	// Split opens the result in a split window instead of the current one.
	Split bool
	// Vertical makes the split vertical. Only meaningful with Split.
	Vertical bool
	// OpenDefinition jumps to the symbol's declaration position.
	OpenDefinition bool
	// Display echoes the declaration file in the status area.
	Display bool
	// Browse treats a string response as a URL to open in a browser.
	Browse bool
}
