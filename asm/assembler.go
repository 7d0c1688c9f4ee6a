package asm

import (
	"fmt"

	"github.com/epism-vm/epism/architecture"
)

// DuplicateLabelError reports a label defined more than once.
type DuplicateLabelError struct {
	Name string
}

// Error implements the error interface.
func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("label %q already defined", e.Name)
}

// MissingOperandError reports an instruction with fewer operand tokens
// than its opcode requires.
type MissingOperandError struct {
	Mnemonic string
}

// Error implements the error interface.
func (e *MissingOperandError) Error() string {
	return fmt.Sprintf("%s: missing operand", e.Mnemonic)
}

// MissingCommaError reports two operands not separated by a comma.
type MissingCommaError struct {
	Mnemonic string
}

// Error implements the error interface.
func (e *MissingCommaError) Error() string {
	return fmt.Sprintf("%s: missing comma between operands", e.Mnemonic)
}

// MissingColonError reports a label definition without a trailing colon.
type MissingColonError struct {
	Name string
}

// Error implements the error interface.
func (e *MissingColonError) Error() string {
	return fmt.Sprintf("%q: label definition missing colon", e.Name)
}

// Labels performs the assembler's first pass (spec.md section 6.2): it
// walks every token computing each instruction's encoded length without
// emitting any bytes, recording the byte address of every label
// definition it meets along the way.
func Labels(source string) (map[string]uint64, error) {
	p := newParser(source)
	labels := make(map[string]uint64)
	var address uint64

	for {
		word, ok := p.word()
		if !ok {
			break
		}

		op, isOpcode := architecture.FromMnemonic(word)
		if !isOpcode {
			if _, exists := labels[word]; exists {
				return nil, &DuplicateLabelError{Name: word}
			}
			if !p.colon() {
				return nil, &MissingColonError{Name: word}
			}
			labels[word] = address
			continue
		}

		address += architecture.InstructionSize(op)
		operands := architecture.Operands(op)
		for i := range operands {
			if i > 0 && !p.comma() {
				return nil, &MissingCommaError{Mnemonic: word}
			}
			if _, ok := p.word(); !ok {
				return nil, &MissingOperandError{Mnemonic: word}
			}
		}
	}

	return labels, nil
}

// Assemble runs both passes of spec.md section 6.2's assembler over
// source and returns the encoded program binary.
func Assemble(source string) ([]byte, error) {
	labels, err := Labels(source)
	if err != nil {
		return nil, err
	}

	p := newParser(source)
	var program []byte

	for {
		word, ok := p.word()
		if !ok {
			break
		}

		op, isOpcode := architecture.FromMnemonic(word)
		if !isOpcode {
			p.colon()
			continue
		}

		program = append(program, byte(op))
		operands := architecture.Operands(op)
		for i, kind := range operands {
			if i > 0 && !p.comma() {
				return nil, &MissingCommaError{Mnemonic: word}
			}
			operandWord, ok := p.word()
			if !ok {
				return nil, &MissingOperandError{Mnemonic: word}
			}
			program, err = encodeOperand(kind, operandWord, p.position(), labels, program)
			if err != nil {
				return nil, err
			}
		}
	}

	return program, nil
}
