// Package program defines the immutable, big-endian-addressed byte buffer
// that backs a loaded epism binary. It owns no behaviour beyond bounds
// checked reads: decoding belongs to thread and vm.
package program

import (
	"encoding/binary"
	"fmt"
)

// OutOfBoundsError reports a read that would reach past the end of the
// program buffer.
type OutOfBoundsError struct {
	Cursor uint64
	Width  uint64
	Length uint64
}

// Error implements the error interface.
func (e OutOfBoundsError) Error() string {
	return fmt.Sprintf("program: cursor %#x width %d is out of bounds (length %d)", e.Cursor, e.Width, e.Length)
}

// Program is a read-only byte buffer with big-endian multi-byte readers.
// It is immutable for the machine's lifetime.
type Program struct {
	bytes []byte
}

// New wraps raw as a Program. The caller must not mutate raw afterwards.
func New(raw []byte) *Program {
	return &Program{bytes: raw}
}

// Len returns the number of bytes in the program.
func (p *Program) Len() uint64 {
	return uint64(len(p.bytes))
}

func (p *Program) span(cursor, width uint64) ([]byte, error) {
	if cursor+width > p.Len() || cursor+width < cursor {
		return nil, OutOfBoundsError{Cursor: cursor, Width: width, Length: p.Len()}
	}
	return p.bytes[cursor : cursor+width], nil
}

// Byte returns the single byte at cursor.
func (p *Program) Byte(cursor uint64) (uint8, error) {
	b, err := p.span(cursor, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 returns the big-endian uint16 at cursor.
func (p *Program) U16(cursor uint64) (uint16, error) {
	b, err := p.span(cursor, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// U32 returns the big-endian uint32 at cursor.
func (p *Program) U32(cursor uint64) (uint32, error) {
	b, err := p.span(cursor, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// U64 returns the big-endian uint64 at cursor.
func (p *Program) U64(cursor uint64) (uint64, error) {
	b, err := p.span(cursor, 8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}
