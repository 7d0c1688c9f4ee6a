package vm

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy in spec.md section 7, for the fatal
// errors that have no more specific type: callers classify them with
// errors.Is regardless of which cycle/thread produced them. Program,
// memory and register faults are not wrapped in a sentinel; they keep
// their own types (program.OutOfBoundsError, memory.OutOfBoundsError,
// register.DataRaceError) and are classified with errors.As.
var (
	ErrInvalidOpcode     = errors.New("vm: invalid opcode")
	ErrDivisionByZero    = errors.New("vm: division by zero")
	ErrStalledNoProgress = errors.New("vm: no active thread and no pending callback")
	ErrInputRead         = errors.New("vm: could not read input")
	ErrInputParse        = errors.New("vm: could not parse input")
	ErrMaxCyclesExceeded = errors.New("vm: max cycle count exceeded")
)

// MachineError reports a fatal error at machine scope, tagged with the
// cycle it occurred on (spec.md section 4.7: "machine-level errors
// include the cycle number").
type MachineError struct {
	Cycle uint64
	Err   error
}

// Error implements the error interface.
func (e *MachineError) Error() string {
	return fmt.Sprintf("cycle %d: %v", e.Cycle, e.Err)
}

// Unwrap exposes the wrapped sentinel to errors.Is/errors.As.
func (e *MachineError) Unwrap() error {
	return e.Err
}

// ThreadError reports a fatal error attributed to one thread, tagged with
// the cycle, thread id and cursor address (spec.md section 4.7:
// "thread-level errors include the thread id and the current cursor
// address").
type ThreadError struct {
	Cycle    uint64
	ThreadID uint8
	Cursor   uint64
	Err      error
}

// Error implements the error interface.
func (e *ThreadError) Error() string {
	return fmt.Sprintf("cycle %d: thread %d at %#x: %v", e.Cycle, e.ThreadID, e.Cursor, e.Err)
}

// Unwrap exposes the wrapped sentinel to errors.Is/errors.As.
func (e *ThreadError) Unwrap() error {
	return e.Err
}

func (m *Machine) errMachine(err error) error {
	return &MachineError{Cycle: m.counter, Err: err}
}

func (m *Machine) errThread(threadID uint8, cursor uint64, err error) error {
	return &ThreadError{Cycle: m.counter, ThreadID: threadID, Cursor: cursor, Err: err}
}
