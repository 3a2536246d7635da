package task

import "go.shellcore.dev/engine/internal/process"

// TxKind enumerates the control messages a caller can send to a running
// TaskManager (spec.md §4.2, "TaskMessageTx").
type TxKind int

const (
	TxInput TxKind = iota
	TxKill
	TxSignal
	TxTerminate
)

// Tx is one message sent to a running TaskManager's worker.
type Tx struct {
	Kind   TxKind
	Input  string
	Signal process.UnixSignal
}

func InputTx(s string) Tx                { return Tx{Kind: TxInput, Input: s} }
func KillTx() Tx                         { return Tx{Kind: TxKill} }
func SignalTx(sig process.UnixSignal) Tx { return Tx{Kind: TxSignal, Signal: sig} }
func TerminateTx() Tx                    { return Tx{Kind: TxTerminate} }

// RxKind enumerates the messages a TaskManager's worker sends back.
type RxKind int

const (
	RxOutput RxKind = iota
	RxError
)

// Rx is one message received from a running TaskManager's worker. For
// RxOutput, Stdout/Stderr follow the same "present iff new bytes arrived"
// rule as process.Process.Read. For RxError, Err is always set and never
// ends the run by itself (spec.md §4.2).
type Rx struct {
	Kind   RxKind
	Stdout *string
	Stderr *string
	Err    *Error
}
