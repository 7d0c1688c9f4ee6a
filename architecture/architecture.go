// Package architecture defines the epism instruction set: opcode values,
// operand shapes, and the fixed capacities shared by every other package in
// this module.
package architecture

// Fixed capacities of the machine. Registers, locks and threads are
// addressed by single-byte operands, so none of those can exceed 256
// without widening the encoding; memory is addressed by register values.
const (
	RegistersCount = 256
	LocksCount     = 256
	ThreadsCount   = 256
	MemorySize     = 65536
)

// Opcode identifies a decoded instruction.
type Opcode uint8

// The canonical opcode table (spec.md section 6.1). Move is included per
// the Open Question resolution in SPEC_FULL.md section 7.1; Eq and Gt are
// compiled in as an optional comparison profile (section 7.3).
const (
	Nop     Opcode = 0x00
	Move    Opcode = 0x01
	Const8  Opcode = 0x02
	Const16 Opcode = 0x03
	Const32 Opcode = 0x04
	Const64 Opcode = 0x05
	Load8   Opcode = 0x06
	Load16  Opcode = 0x07
	Load32  Opcode = 0x08
	Load64  Opcode = 0x09
	Store8  Opcode = 0x0A
	Store16 Opcode = 0x0B
	Store32 Opcode = 0x0C
	Store64 Opcode = 0x0D
	And     Opcode = 0x0E
	Or      Opcode = 0x0F
	Xor     Opcode = 0x10
	ShiftL  Opcode = 0x11
	ShiftR  Opcode = 0x12
	Add     Opcode = 0x13
	Sub     Opcode = 0x14
	Mul     Opcode = 0x15
	Div     Opcode = 0x16
	Rem     Opcode = 0x17
	Jump    Opcode = 0x18
	JumpIf  Opcode = 0x19
	Wait    Opcode = 0x1A
	Lock    Opcode = 0x1B
	Unlock  Opcode = 0x1C
	Start   Opcode = 0x1D
	Stop    Opcode = 0x1E
	End     Opcode = 0x1F
	Scan    Opcode = 0x20
	Print   Opcode = 0x21
	Exit    Opcode = 0x22

	// Eq and Gt are an optional comparison profile: like JumpIf, the
	// condition they write follows the "nonzero means true-ish" reading
	// expected elsewhere in the ISA would suggest, but per spec.md section
	// 4.6 they instead write 0 for "true" and 1 for "false" -- document
	// this at every call site, it is the one inversion in the ISA.
	Eq Opcode = 0xF0
	Gt Opcode = 0xF1
)

// mnemonics maps opcodes to their assembly-language spelling (spec.md
// section 6.2) and back, shared by asm and disasm.
var mnemonics = map[Opcode]string{
	Nop:     "nop",
	Move:    "move",
	Const8:  "const8",
	Const16: "const16",
	Const32: "const32",
	Const64: "const64",
	Load8:   "load8",
	Load16:  "load16",
	Load32:  "load32",
	Load64:  "load64",
	Store8:  "store8",
	Store16: "store16",
	Store32: "store32",
	Store64: "store64",
	And:     "and",
	Or:      "or",
	Xor:     "xor",
	ShiftL:  "shl",
	ShiftR:  "shr",
	Add:     "add",
	Sub:     "sub",
	Mul:     "mul",
	Div:     "div",
	Rem:     "rem",
	Jump:    "jump",
	JumpIf:  "jumpif",
	Wait:    "wait",
	Lock:    "lock",
	Unlock:  "unlock",
	Start:   "start",
	Stop:    "stop",
	End:     "end",
	Scan:    "scan",
	Print:   "print",
	Exit:    "exit",
	Eq:      "eq",
	Gt:      "gt",
}

var mnemonicToOpcode = func() map[string]Opcode {
	m := make(map[string]Opcode, len(mnemonics))
	for op, name := range mnemonics {
		m[name] = op
	}
	return m
}()

// Mnemonic returns the assembly spelling of an opcode, or "" if raw isn't a
// known opcode.
func (o Opcode) Mnemonic() string {
	return mnemonics[o]
}

// FromMnemonic looks up the opcode spelled by word, e.g. "add" -> Add.
func FromMnemonic(word string) (Opcode, bool) {
	op, ok := mnemonicToOpcode[word]
	return op, ok
}

// Valid reports whether raw is a defined opcode.
func (o Opcode) Valid() bool {
	_, ok := mnemonics[o]
	return ok
}

// OperandKind identifies the shape of one operand in an instruction.
type OperandKind uint8

const (
	// OperandRegister is a one-byte register index.
	OperandRegister OperandKind = iota
	// OperandLock is a one-byte lock index.
	OperandLock
	// OperandThread is a one-byte thread index.
	OperandThread
	// OperandConst8 is a one-byte big-endian immediate.
	OperandConst8
	// OperandConst16 is a two-byte big-endian immediate.
	OperandConst16
	// OperandConst32 is a four-byte big-endian immediate.
	OperandConst32
	// OperandConst64 is an eight-byte big-endian immediate.
	OperandConst64
)

// Size returns the encoded width, in bytes, of one operand of this kind.
func (k OperandKind) Size() uint64 {
	switch k {
	case OperandConst16:
		return 2
	case OperandConst32:
		return 4
	case OperandConst64:
		return 8
	default:
		return 1
	}
}

// Operands returns the fixed operand sequence for opcode, in encoding
// order. This table is the single source of truth consulted by the
// assembler, the disassembler and the interpreter's decoder.
func Operands(op Opcode) []OperandKind {
	r := OperandRegister
	l := OperandLock
	t := OperandThread
	switch op {
	case Nop, End, Exit:
		return nil
	case Move:
		return []OperandKind{r, r}
	case Const8:
		return []OperandKind{r, OperandConst8}
	case Const16:
		return []OperandKind{r, OperandConst16}
	case Const32:
		return []OperandKind{r, OperandConst32}
	case Const64:
		return []OperandKind{r, OperandConst64}
	case Load8, Load16, Load32, Load64:
		return []OperandKind{r, r, l}
	case Store8, Store16, Store32, Store64:
		return []OperandKind{r, r, l}
	case And, Or, Xor, ShiftL, ShiftR, Add, Sub, Mul, Div, Rem, Eq, Gt:
		return []OperandKind{r, r, r, l}
	case Jump:
		return []OperandKind{r}
	case JumpIf:
		return []OperandKind{r, r}
	case Wait, Lock, Unlock:
		return []OperandKind{l}
	case Start:
		return []OperandKind{t, r}
	case Stop:
		return []OperandKind{t}
	case Scan, Print:
		return []OperandKind{r}
	default:
		return nil
	}
}

// InstructionSize returns the total byte length (opcode + operands) of an
// instruction with this opcode.
func InstructionSize(op Opcode) uint64 {
	size := uint64(1)
	for _, operand := range Operands(op) {
		size += operand.Size()
	}
	return size
}
