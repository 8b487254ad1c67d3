// Package engine owns the connection to the analysis server: it dials,
// correlates requests with call IDs, feeds arriving frames into a queue
// from a background goroutine, and drains that queue on the editor's
// schedule.
//
// Connection failures follow a strict budget. The initial connection is
// free; after that the engine retries at most once. When the budget runs
// out the engine disables itself for the rest of the session and tells
// the editor so, rather than looping on a dead server.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/enslink/internal/diagnostics"
	"github.com/dshills/enslink/internal/editor"
	"github.com/dshills/enslink/internal/handler"
	"github.com/dshills/enslink/internal/launcher"
	"github.com/dshills/enslink/internal/protocol"
)

// ConnState is the lifecycle phase of the server connection.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	// StateDisabled is terminal. The engine never leaves it.
	StateDisabled
)

// String implements fmt.Stringer.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("ConnState(%d)", int32(s))
	}
}

// Observer receives every payload-bearing drained frame before the frame
// reaches its handler, regardless of typehint.
type Observer func(frame protocol.Frame)

// Deps are the collaborators the engine renders and routes through.
type Deps struct {
	Editor   editor.Editor
	Launcher launcher.Launcher
	Registry *handler.Registry
	Diag     *diagnostics.Buffer
	Log      *slog.Logger
}

// Engine drives one editor session against one analysis server.
type Engine struct {
	deps Deps

	dialer      Dialer
	addr        func() (string, error)
	drainPoll   time.Duration
	retryBudget int

	running atomic.Bool
	state   atomic.Int32

	connMu sync.Mutex
	conn   Conn

	reconnMu sync.Mutex

	queue    *Queue
	nextCall atomic.Int64

	optsMu sync.Mutex
	opts   map[int64]protocol.CallOptions

	obsMu     sync.RWMutex
	observers map[string]Observer
}

// Option customizes engine construction.
type Option func(*Engine)

// WithDialer replaces the TCP dialer.
func WithDialer(d Dialer) Option {
	return func(e *Engine) { e.dialer = d }
}

// WithAddress overrides address resolution. The default asks the
// launcher for the server's port.
func WithAddress(addr string) Option {
	return func(e *Engine) {
		e.addr = func() (string, error) { return addr, nil }
	}
}

// WithRetryBudget sets how many reconnect attempts are allowed after the
// initial connection before the engine disables itself. Default 1.
func WithRetryBudget(n int) Option {
	return func(e *Engine) { e.retryBudget = n }
}

// WithDrainPoll sets how often Drain re-checks an empty queue while
// waiting for a frame. Default 10ms.
func WithDrainPoll(d time.Duration) Option {
	return func(e *Engine) { e.drainPoll = d }
}

// New creates an engine. It does not connect; call Setup once the
// launcher reports the server ready.
func New(deps Deps, options ...Option) *Engine {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	e := &Engine{
		deps:        deps,
		dialer:      DialTCP,
		drainPoll:   10 * time.Millisecond,
		retryBudget: 1,
		queue:       NewQueue(),
		opts:        make(map[int64]protocol.CallOptions),
		observers:   make(map[string]Observer),
	}
	e.addr = func() (string, error) {
		port, err := deps.Launcher.HTTPPort()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("127.0.0.1:%d", port), nil
	}
	for _, opt := range options {
		opt(e)
	}
	e.running.Store(true)
	return e
}

// State returns the current connection state.
func (e *Engine) State() ConnState {
	return ConnState(e.state.Load())
}

// Running reports whether the engine is still serving the session.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// OnReceive subscribes an observer to every drained frame. name is only
// the registration key: registering under an existing name replaces the
// previous observer.
func (e *Engine) OnReceive(name string, fn Observer) {
	e.obsMu.Lock()
	e.observers[name] = fn
	e.obsMu.Unlock()
}

// Setup establishes the connection if the server is ready. It returns
// whether the engine is connected afterwards. quiet suppresses the
// user-facing notice when the server is still starting.
func (e *Engine) Setup(ctx context.Context, quiet bool) bool {
	if !e.running.Load() || e.State() == StateDisabled {
		return false
	}
	if e.State() == StateConnected {
		return true
	}
	if !e.deps.Launcher.IsReady() {
		if !quiet {
			e.deps.Editor.RawMessage(editor.NoticeStarted)
		}
		return false
	}
	if err := e.connect(ctx); err != nil {
		e.deps.Log.Error("connect failed", "error", err)
		return false
	}
	return true
}

// connect dials the server and starts the feed goroutine. On success it
// immediately asks for connection info so the handshake is observable.
func (e *Engine) connect(ctx context.Context) error {
	addr, err := e.addr()
	if err != nil {
		return fmt.Errorf("resolve server address: %w", err)
	}

	e.state.Store(int32(StateConnecting))
	conn, err := e.dialer(ctx, addr)
	if err != nil {
		e.state.Store(int32(StateDisconnected))
		return err
	}

	e.connMu.Lock()
	e.conn = conn
	e.connMu.Unlock()
	e.state.Store(int32(StateConnected))
	e.deps.Log.Info("connected", "addr", addr)

	go e.feed(conn)

	// Handshake goes straight to the fresh connection. Routing it through
	// send would re-enter reconnect on failure.
	callID := e.nextCall.Add(1) - 1
	line, err := protocol.EncodeEnvelope(callID, protocol.NewConnectionInfoReq())
	if err == nil {
		err = conn.Send(line)
	}
	if err != nil {
		e.deps.Log.Warn("connection info handshake", "callId", callID, "error", err)
	}
	return nil
}

// reconnect consumes one unit of retry budget. Exhausting the budget
// disables the engine for the session. Both the send path and the
// receive pump can land here, so the budget is taken under a lock.
func (e *Engine) reconnect(ctx context.Context) error {
	e.reconnMu.Lock()
	defer e.reconnMu.Unlock()
	if e.retryBudget <= 0 {
		e.disable()
		return ErrDisabled
	}
	e.retryBudget--

	e.closeConn()
	if err := e.connect(ctx); err != nil {
		if e.retryBudget <= 0 {
			e.disable()
			return ErrDisabled
		}
		return err
	}
	return nil
}

// feed pumps frames from one connection into the queue. A receive error
// while the engine is still serving the session means the server went
// away under us, so the pump hands off to reconnect before exiting. When
// the error came from our own Close, or the connection was already
// replaced, the pump exits quietly.
func (e *Engine) feed(conn Conn) {
	for {
		line, err := conn.Recv()
		if err != nil {
			if !e.running.Load() {
				return
			}
			e.connMu.Lock()
			current := e.conn == conn
			e.connMu.Unlock()
			if !current {
				return
			}
			e.deps.Log.Warn("connection lost, reconnecting", "error", err)
			if rerr := e.reconnect(context.Background()); rerr != nil {
				e.deps.Log.Warn("reconnect after connection loss", "error", rerr)
			}
			return
		}
		e.queue.Push(line)
	}
}

// SendRequest assigns the next call ID, wraps body in the request
// envelope, and sends it. The returned call ID is negative when the
// engine is disabled.
func (e *Engine) SendRequest(body any) int64 {
	return e.SendRequestWith(body, protocol.CallOptions{})
}

// SendRequestWith is SendRequest with presentation options recorded for
// the response handler under the request's call ID.
func (e *Engine) SendRequestWith(body any, opts protocol.CallOptions) int64 {
	if !e.running.Load() || e.State() == StateDisabled {
		return -1
	}

	callID := e.nextCall.Add(1) - 1
	line, err := protocol.EncodeEnvelope(callID, body)
	if err != nil {
		e.deps.Log.Error("encode request", "callId", callID, "error", err)
		return -1
	}

	if opts != (protocol.CallOptions{}) {
		e.optsMu.Lock()
		e.opts[callID] = opts
		e.optsMu.Unlock()
	}

	if err := e.send(line); err != nil {
		e.Forget(callID)
		e.deps.Log.Error("send request", "callId", callID, "error", err)
		return -1
	}
	return callID
}

// send writes one frame, reconnecting once if the write fails.
func (e *Engine) send(line string) error {
	e.connMu.Lock()
	conn := e.conn
	e.connMu.Unlock()

	if conn == nil {
		if err := e.reconnect(context.Background()); err != nil {
			return err
		}
	} else if err := conn.Send(line); err == nil {
		return nil
	} else {
		e.deps.Log.Warn("send failed, reconnecting", "error", err)
		if rerr := e.reconnect(context.Background()); rerr != nil {
			return rerr
		}
	}

	e.connMu.Lock()
	conn = e.conn
	e.connMu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if err := conn.Send(line); err != nil {
		e.disable()
		return ErrDisabled
	}
	return nil
}

// Options implements handler.CallStore.
func (e *Engine) Options(callID int64) (protocol.CallOptions, bool) {
	e.optsMu.Lock()
	defer e.optsMu.Unlock()
	opts, ok := e.opts[callID]
	return opts, ok
}

// Forget implements handler.CallStore.
func (e *Engine) Forget(callID int64) {
	e.optsMu.Lock()
	delete(e.opts, callID)
	e.optsMu.Unlock()
}

// Drain dispatches queued frames until the queue stays empty. With wait
// set it polls up to timeout for the first frame; every dispatched frame
// resets the deadline, so a responsive server can stream past it. The
// return value is the number of frames dispatched.
func (e *Engine) Drain(timeout time.Duration, wait bool) int {
	count := 0
	deadline := time.Now().Add(timeout)
	for {
		line, ok := e.queue.Pop()
		if ok {
			if e.deliver(line) {
				count++
				deadline = time.Now().Add(timeout)
			}
			continue
		}
		if !wait || count > 0 {
			return count
		}
		if !time.Now().Before(deadline) {
			return count
		}
		time.Sleep(e.drainPoll)
	}
}

// deliver decodes one frame and routes it. Frames without a payload are
// acknowledgements; their call options are released and nothing is
// dispatched.
func (e *Engine) deliver(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || line == "nil" {
		return false
	}

	frame, err := protocol.DecodeFrame(line)
	if err != nil {
		e.deps.Log.Warn("dropping malformed frame", "error", err)
		return false
	}
	if !frame.HasPayload() {
		if frame.HasCallID {
			e.Forget(frame.CallID)
		}
		return false
	}

	e.obsMu.RLock()
	observers := make([]Observer, 0, len(e.observers))
	for _, fn := range e.observers {
		observers = append(observers, fn)
	}
	e.obsMu.RUnlock()
	for _, fn := range observers {
		fn(frame)
	}

	e.deps.Registry.Dispatch(frame)
	return true
}

// TypecheckFiles clears current diagnostics, opens a fresh collection
// window, and asks the server to typecheck the given files. It returns
// the request's call ID.
func (e *Engine) TypecheckFiles(files ...string) int64 {
	e.deps.Diag.Begin()
	e.deps.Editor.CleanErrors()
	e.deps.Editor.RawMessage(editor.NoticeTypechecking)
	return e.SendRequest(protocol.NewTypecheckFilesReq(files))
}

// Teardown ends the session: the feed goroutine is stopped via the
// connection close and, when stopServer is set, the launcher shuts the
// server process down too.
func (e *Engine) Teardown(stopServer bool) {
	if !e.running.Swap(false) {
		return
	}
	e.closeConn()
	if e.State() != StateDisabled {
		e.state.Store(int32(StateDisconnected))
	}
	if stopServer {
		if err := e.deps.Launcher.Stop(); err != nil {
			e.deps.Log.Warn("stop server", "error", err)
		}
	}
}

// disable is the terminal failure path: no further sends, server
// stopped, editor told to shut the integration off.
func (e *Engine) disable() {
	if ConnState(e.state.Swap(int32(StateDisabled))) == StateDisabled {
		return
	}
	e.running.Store(false)
	e.closeConn()
	if err := e.deps.Launcher.Stop(); err != nil {
		e.deps.Log.Warn("stop server", "error", err)
	}
	e.deps.Editor.Deactivate(editor.NoticeDisabled)
	e.deps.Log.Error("engine disabled after connection failure")
}

func (e *Engine) closeConn() {
	e.connMu.Lock()
	conn := e.conn
	e.conn = nil
	e.connMu.Unlock()
	if conn != nil {
		if err := conn.Close(); err != nil {
			e.deps.Log.Warn("close connection", "error", err)
		}
	}
}
