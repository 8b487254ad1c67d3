package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestDecodeFrame_ReplyWithCallID(t *testing.T) {
	frame, err := DecodeFrame(`{"callId":7,"payload":{"typehint":"StringResponse","text":"hi"}}`)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if !frame.HasCallID || frame.CallID != 7 {
		t.Errorf("CallID = %d (has=%v), want 7", frame.CallID, frame.HasCallID)
	}
	if frame.Typehint != HintStringResponse {
		t.Errorf("Typehint = %q, want %q", frame.Typehint, HintStringResponse)
	}
	if !frame.HasPayload() {
		t.Error("HasPayload() = false, want true")
	}

	var result StringResult
	if err := json.Unmarshal(frame.Payload, &result); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if result.Text != "hi" {
		t.Errorf("Text = %q, want %q", result.Text, "hi")
	}
}

func TestDecodeFrame_EventWithoutCallID(t *testing.T) {
	frame, err := DecodeFrame(`{"payload":{"typehint":"AnalyzerReadyEvent"}}`)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if frame.HasCallID {
		t.Error("HasCallID = true for an event frame")
	}
	if frame.Typehint != HintAnalyzerReady {
		t.Errorf("Typehint = %q, want %q", frame.Typehint, HintAnalyzerReady)
	}
}

func TestDecodeFrame_CallIDZeroIsValid(t *testing.T) {
	frame, err := DecodeFrame(`{"callId":0,"payload":{"typehint":"SymbolInfo"}}`)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if !frame.HasCallID || frame.CallID != 0 {
		t.Errorf("CallID = %d (has=%v), want 0 with HasCallID", frame.CallID, frame.HasCallID)
	}
}

func TestDecodeFrame_NullPayload(t *testing.T) {
	for _, raw := range []string{
		`{"callId":3,"payload":null}`,
		`{"callId":3}`,
	} {
		frame, err := DecodeFrame(raw)
		if err != nil {
			t.Fatalf("DecodeFrame(%s) error = %v", raw, err)
		}
		if frame.HasPayload() {
			t.Errorf("DecodeFrame(%s): HasPayload() = true, want false", raw)
		}
	}
}

func TestDecodeFrame_Malformed(t *testing.T) {
	for _, raw := range []string{"not json", `{"payload": 42}`} {
		if _, err := DecodeFrame(raw); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("DecodeFrame(%q) error = %v, want ErrMalformedFrame", raw, err)
		}
	}
}

func TestEncodeEnvelope(t *testing.T) {
	out, err := EncodeEnvelope(12, NewTypecheckFilesReq([]string{"/a/Foo.scala"}))
	if err != nil {
		t.Fatalf("EncodeEnvelope() error = %v", err)
	}
	if got := gjson.Get(out, "callId").Int(); got != 12 {
		t.Errorf("callId = %d, want 12", got)
	}
	if got := gjson.Get(out, "req.typehint").String(); got != "TypecheckFilesReq" {
		t.Errorf("req.typehint = %q, want TypecheckFilesReq", got)
	}
	if got := gjson.Get(out, "req.files.0").String(); got != "/a/Foo.scala" {
		t.Errorf("req.files[0] = %q", got)
	}
	if strings.ContainsRune(out, '\n') {
		t.Error("envelope contains a newline; framing is the connection's job")
	}
}

func TestNoteSeverity_UnmarshalBothForms(t *testing.T) {
	var note Note
	raw := `{"file":"/a/Foo.scala","line":3,"beg":10,"end":14,"msg":"oops","severity":{"typehint":"NoteError"}}`
	if err := json.Unmarshal([]byte(raw), &note); err != nil {
		t.Fatalf("unmarshal tagged severity: %v", err)
	}
	if note.Severity != SeverityError {
		t.Errorf("Severity = %q, want %q", note.Severity, SeverityError)
	}

	raw = `{"file":"/a/Foo.scala","severity":"NoteWarn"}`
	if err := json.Unmarshal([]byte(raw), &note); err != nil {
		t.Fatalf("unmarshal plain severity: %v", err)
	}
	if note.Severity != SeverityWarn {
		t.Errorf("Severity = %q, want %q", note.Severity, SeverityWarn)
	}
}

func TestNewRefactorReq_ShapesEnvelope(t *testing.T) {
	req := NewRefactorReq(4, NewRenameRefactorDesc("/a/Foo.scala", "bar", 10, 13))
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := gjson.GetBytes(raw, "procId").Int(); got != 4 {
		t.Errorf("procId = %d, want 4", got)
	}
	if got := gjson.GetBytes(raw, "params.typehint").String(); got != "RenameRefactorDesc" {
		t.Errorf("params.typehint = %q", got)
	}
	if got := gjson.GetBytes(raw, "interactive").Bool(); got {
		t.Error("interactive = true, want false")
	}
}

func TestNewDebugAttachReq_Defaults(t *testing.T) {
	req := NewDebugAttachReq("", "")
	if req.Hostname != "localhost" || req.Port != "5005" {
		t.Errorf("defaults = %s:%s, want localhost:5005", req.Hostname, req.Port)
	}
}
