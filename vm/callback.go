package vm

import "github.com/epism-vm/epism/architecture"

// callbackKind tags a deferred effect. Per spec.md section 9's design
// note, callbacks are plain data -- never a captured closure over live
// machine state -- so a pending cycle's effects can be inspected or
// serialized without evaluating them. The -trace diagnostic does not
// print pending callbacks.
type callbackKind uint8

const (
	cbCommitLoad callbackKind = iota
	cbCommitStore
	cbCommitALU
	cbLockSet
	cbUnlock
	cbStartThread
	cbStopThread
)

// width identifies the byte width of a Load/Store/ALU result.
type width uint8

const (
	width8 width = iota
	width16
	width32
	width64
)

// callback is one pending mutation of machine state, scheduled to run at
// dueCycle's drain phase (spec.md section 3, Callback row).
type callback struct {
	dueCycle uint64
	kind     callbackKind
	issuedBy uint8 // thread that enqueued this callback, for error context

	// cbCommitLoad / cbCommitStore
	addr  uint64
	value uint64 // store: the value to write. load: unused.
	w     width

	// cbCommitLoad / cbCommitStore / cbCommitALU / cbLockSet / cbUnlock
	lockID uint8

	// cbCommitLoad / cbCommitALU
	dst uint8

	// cbCommitALU
	op   architecture.Opcode
	a, b uint64

	// cbStartThread / cbStopThread
	targetThread uint8
	startAddr    uint64
}

func aluCompute(op architecture.Opcode, a, b uint64) (uint64, error) {
	switch op {
	case architecture.And:
		return a & b, nil
	case architecture.Or:
		return a | b, nil
	case architecture.Xor:
		return a ^ b, nil
	case architecture.ShiftL:
		return a << (b & 0x3F), nil
	case architecture.ShiftR:
		return a >> (b & 0x3F), nil
	case architecture.Add:
		return a + b, nil
	case architecture.Sub:
		return a - b, nil
	case architecture.Mul:
		return a * b, nil
	case architecture.Div:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case architecture.Rem:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a % b, nil
	case architecture.Eq:
		// Eq/Gt invert the usual "nonzero is true" convention: 0 means
		// true, 1 means false (spec.md section 4.6, SPEC_FULL.md 7.3).
		if a == b {
			return 0, nil
		}
		return 1, nil
	case architecture.Gt:
		if a > b {
			return 0, nil
		}
		return 1, nil
	default:
		panic("vm: aluCompute called with non-ALU opcode")
	}
}
