package asm

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/epism-vm/epism/architecture"
)

// UndefinedLabelError reports a constant operand that names a label with
// no matching definition.
type UndefinedLabelError struct {
	Name string
}

// Error implements the error interface.
func (e *UndefinedLabelError) Error() string {
	return fmt.Sprintf("undefined label %q", e.Name)
}

// LabelOverflowError reports a label address that does not fit the width
// of the constant operand referencing it.
type LabelOverflowError struct {
	Name  string
	Value uint64
	Bits  int
}

// Error implements the error interface.
func (e *LabelOverflowError) Error() string {
	return fmt.Sprintf("label %q address %d does not fit in %d bits", e.Name, e.Value, e.Bits)
}

// indexPrefix returns the token prefix spec.md section 6.2 assigns to a
// register/lock/thread operand.
func indexPrefix(kind architecture.OperandKind) (byte, bool) {
	switch kind {
	case architecture.OperandRegister:
		return 'r', true
	case architecture.OperandLock:
		return 'l', true
	case architecture.OperandThread:
		return 't', true
	default:
		return 0, false
	}
}

// encodeOperand appends the bytes of one operand to out, resolving
// constant operands against labels when the token does not parse as a
// plain decimal literal.
func encodeOperand(kind architecture.OperandKind, word string, pos int, labels map[string]uint64, out []byte) ([]byte, error) {
	if prefix, ok := indexPrefix(kind); ok {
		if len(word) < 2 || word[0] != prefix {
			return nil, &SyntaxError{Position: pos, Message: fmt.Sprintf("expected %c-prefixed operand, got %q", prefix, word)}
		}
		n, err := strconv.ParseUint(word[1:], 10, 8)
		if err != nil {
			return nil, &SyntaxError{Position: pos, Message: fmt.Sprintf("invalid %c-operand %q: %v", prefix, word, err)}
		}
		return append(out, byte(n)), nil
	}

	bits := int(kind.Size()) * 8
	value, err := strconv.ParseUint(word, 10, bits)
	if err != nil {
		resolved, ok := labels[word]
		if !ok {
			return nil, &UndefinedLabelError{Name: word}
		}
		if bits < 64 && resolved >= (uint64(1)<<uint(bits)) {
			return nil, &LabelOverflowError{Name: word, Value: resolved, Bits: bits}
		}
		value = resolved
	}

	switch kind {
	case architecture.OperandConst8:
		return append(out, byte(value)), nil
	case architecture.OperandConst16:
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(value))
		return append(out, buf[:]...), nil
	case architecture.OperandConst32:
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(value))
		return append(out, buf[:]...), nil
	default:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], value)
		return append(out, buf[:]...), nil
	}
}
