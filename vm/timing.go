package vm

// Timing holds the simulated per-opcode latencies of spec.md section 4.6
// (TIME_LOAD, TIME_STORE, TIME_ADD, ...). Fixed per build by default via
// DefaultTiming, but passed explicitly to New so an embedder can supply a
// different profile -- the configuration-surface extension spec.md
// section 9 calls a "reasonable extension".
type Timing struct {
	Load, Store                          uint64
	And, Or, Xor, ShiftL, ShiftR          uint64
	Add, Sub, Mul, Div, Rem               uint64
	Eq, Gt                                uint64
}

// DefaultTiming is a plausible, deterministic set of latencies: bitwise,
// add/subtract and comparison ops take one cycle, multiply three, memory
// loads and stores four, and divide/remainder six.
var DefaultTiming = Timing{
	Load: 4, Store: 4,
	And: 1, Or: 1, Xor: 1, ShiftL: 1, ShiftR: 1,
	Add: 1, Sub: 1,
	Mul: 3, Div: 6, Rem: 6,
	Eq: 1, Gt: 1,
}
