package shellcore

import (
	"sync"

	"go.shellcore.dev/engine/internal/process"
)

// HostMessageKind enumerates what a host can send down a ShellStream
// (spec.md §3, "From host").
type HostMessageKind int

const (
	HostInput HostMessageKind = iota
	HostInterrupt
	HostKill
	HostSignal
)

// HostMessage is one message sent from the host to the engine.
type HostMessage struct {
	Kind   HostMessageKind
	Input  string
	Signal process.UnixSignal
}

func InputMessage(s string) HostMessage                { return HostMessage{Kind: HostInput, Input: s} }
func InterruptMessage() HostMessage                    { return HostMessage{Kind: HostInterrupt} }
func KillMessage() HostMessage                         { return HostMessage{Kind: HostKill} }
func SignalMessage(sig process.UnixSignal) HostMessage { return HostMessage{Kind: HostSignal, Signal: sig} }

// EngineMessageKind enumerates what the engine can send up a ShellStream
// (spec.md §3, "To host").
type EngineMessageKind int

const (
	EngineOutput EngineMessageKind = iota
	EngineError
	EngineDirs
	EngineAlias
)

// EngineMessage is one message sent from the engine to the host. Stdout and
// Stderr follow the same "present iff new data arrived" convention as
// process.Process.Read and task.Rx.
type EngineMessage struct {
	Kind   EngineMessageKind
	Stdout *string
	Stderr *string
	Err    *ShellError
	Dirs   []string
}

// ShellStream is a typed bidirectional channel between host and engine
// (spec.md §3/§4.3). Either side sends without blocking; receiving drains
// whatever batch is currently queued, non-blocking. Within one direction,
// enqueue order is preserved; there is no ordering guarantee across
// directions. Disconnection is observable on both sides: Send* return false
// once Close has been called, and Fetch* return ok == false once every
// message buffered before the close has been drained (spec.md §4.3,
// "receiving returns Err").
type ShellStream struct {
	toEngine chan HostMessage
	toHost   chan EngineMessage

	closed    chan struct{}
	closeOnce sync.Once
}

// NewShellStream allocates a ShellStream with the given per-direction
// buffer depth.
func NewShellStream(bufSize int) *ShellStream {
	return &ShellStream{
		toEngine: make(chan HostMessage, bufSize),
		toHost:   make(chan EngineMessage, bufSize),
		closed:   make(chan struct{}),
	}
}

// SendToEngine is the host-side send. It returns false if the stream is
// closed or the buffer is full (the caller may retry).
func (s *ShellStream) SendToEngine(msg HostMessage) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.toEngine <- msg:
		return true
	default:
		return false
	}
}

// FetchFromHost is the engine-side receive: it drains every HostMessage
// currently queued, without blocking. ok is false once the stream has been
// Closed and nothing further will ever arrive -- the caller's cue to treat
// the disconnect as fatal (spec.md §7's "unrecoverable host-side channel
// disconnect"); any messages already buffered at close time are still
// returned alongside ok == false.
func (s *ShellStream) FetchFromHost() (msgs []HostMessage, ok bool) {
	for {
		select {
		case msg := <-s.toEngine:
			msgs = append(msgs, msg)
			continue
		default:
		}
		break
	}
	select {
	case <-s.closed:
		return msgs, false
	default:
		return msgs, true
	}
}

// SendToHost is the engine-side send.
func (s *ShellStream) SendToHost(msg EngineMessage) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.toHost <- msg:
		return true
	default:
		return false
	}
}

// FetchFromEngine is the host-side receive: it drains every EngineMessage
// currently queued, without blocking. ok follows the same closed-stream
// convention as FetchFromHost.
func (s *ShellStream) FetchFromEngine() (msgs []EngineMessage, ok bool) {
	for {
		select {
		case msg := <-s.toHost:
			msgs = append(msgs, msg)
			continue
		default:
		}
		break
	}
	select {
	case <-s.closed:
		return msgs, false
	default:
		return msgs, true
	}
}

// Close marks the stream disconnected; subsequent Send* calls return false.
// Safe to call more than once.
func (s *ShellStream) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}
