// Package disasm decodes one instruction at a time back to its textual
// mnemonic and operands, the inverse of asm. Grounded on the teacher's
// disassemble.Step(pc, ram) (string, int) shape, adapted to epism's
// program.Program and the architecture package's single operand table
// (spec.md section 8 property 5: round-trip, when a disassembler is
// provided).
package disasm

import (
	"fmt"
	"strings"

	"github.com/epism-vm/epism/architecture"
	"github.com/epism-vm/epism/program"
)

// Step decodes the instruction at cursor and returns its textual form
// (mnemonic plus r/l/t-prefixed or decimal operands, spec.md section 6.2
// convention) and the cursor of the next instruction.
func Step(p *program.Program, cursor uint64) (string, uint64, error) {
	raw, err := p.Byte(cursor)
	if err != nil {
		return "", 0, err
	}
	op := architecture.Opcode(raw)
	if !op.Valid() {
		return "", 0, fmt.Errorf("disasm: invalid opcode %#x at %#x", raw, cursor)
	}

	next := cursor + 1
	var fields []string
	for _, kind := range architecture.Operands(op) {
		text, width, err := decodeOperand(p, next, kind)
		if err != nil {
			return "", 0, err
		}
		fields = append(fields, text)
		next += width
	}

	if len(fields) == 0 {
		return op.Mnemonic(), next, nil
	}
	return op.Mnemonic() + " " + strings.Join(fields, ", "), next, nil
}

func decodeOperand(p *program.Program, at uint64, kind architecture.OperandKind) (string, uint64, error) {
	switch kind {
	case architecture.OperandRegister:
		v, err := p.Byte(at)
		return fmt.Sprintf("r%d", v), 1, err
	case architecture.OperandLock:
		v, err := p.Byte(at)
		return fmt.Sprintf("l%d", v), 1, err
	case architecture.OperandThread:
		v, err := p.Byte(at)
		return fmt.Sprintf("t%d", v), 1, err
	case architecture.OperandConst8:
		v, err := p.Byte(at)
		return fmt.Sprintf("%d", v), 1, err
	case architecture.OperandConst16:
		v, err := p.U16(at)
		return fmt.Sprintf("%d", v), 2, err
	case architecture.OperandConst32:
		v, err := p.U32(at)
		return fmt.Sprintf("%d", v), 4, err
	default:
		v, err := p.U64(at)
		return fmt.Sprintf("%d", v), 8, err
	}
}

// All disassembles an entire program from cursor 0, one instruction per
// line, until the program is exhausted.
func All(p *program.Program) ([]string, error) {
	var lines []string
	var cursor uint64
	for cursor < p.Len() {
		line, next, err := Step(p, cursor)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
		cursor = next
	}
	return lines, nil
}
