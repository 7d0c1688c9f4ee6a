// Package memory implements the virtual machine's flat byte-addressable
// RAM. Unlike the teacher's banked, chip-specific memory.Bank, epism has a
// single flat region: one fixed-size array, zero-filled at power on, with
// no banking or parent chain.
package memory

import (
	"encoding/binary"
	"fmt"

	"github.com/epism-vm/epism/architecture"
)

// OutOfBoundsError reports an access whose address+width does not lie
// wholly within [0, architecture.MemorySize).
type OutOfBoundsError struct {
	Address uint64
	Width   uint64
}

// Error implements the error interface.
func (e OutOfBoundsError) Error() string {
	return fmt.Sprintf("memory: address %#x width %d is out of bounds (size %d)", e.Address, e.Width, architecture.MemorySize)
}

// byteOrder is the VM's internal memory byte order. Spec.md only requires
// load/store symmetry -- the simulated memory is opaque to the outside
// world -- so this is an implementation choice, not a contract. Go's
// standard library did not yet have a documented "native endian" alias
// when this was written, so little-endian is picked explicitly and used
// consistently by every Load/Store pair below.
var byteOrder = binary.LittleEndian

// Memory is a fixed-size, zero-filled byte array.
type Memory struct {
	bytes [architecture.MemorySize]byte
}

// New returns a zero-filled Memory.
func New() *Memory {
	return &Memory{}
}

func (m *Memory) span(addr, width uint64) ([]byte, error) {
	if addr+width > architecture.MemorySize || addr+width < addr {
		return nil, OutOfBoundsError{Address: addr, Width: width}
	}
	return m.bytes[addr : addr+width], nil
}

// Load8 reads one byte at addr, zero-extended to uint64.
func (m *Memory) Load8(addr uint64) (uint64, error) {
	b, err := m.span(addr, 1)
	if err != nil {
		return 0, err
	}
	return uint64(b[0]), nil
}

// Load16 reads two bytes at addr, zero-extended to uint64.
func (m *Memory) Load16(addr uint64) (uint64, error) {
	b, err := m.span(addr, 2)
	if err != nil {
		return 0, err
	}
	return uint64(byteOrder.Uint16(b)), nil
}

// Load32 reads four bytes at addr, zero-extended to uint64.
func (m *Memory) Load32(addr uint64) (uint64, error) {
	b, err := m.span(addr, 4)
	if err != nil {
		return 0, err
	}
	return uint64(byteOrder.Uint32(b)), nil
}

// Load64 reads eight bytes at addr.
func (m *Memory) Load64(addr uint64) (uint64, error) {
	b, err := m.span(addr, 8)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint64(b), nil
}

// Store8 writes the low 8 bits of value at addr.
func (m *Memory) Store8(addr uint64, value uint64) error {
	b, err := m.span(addr, 1)
	if err != nil {
		return err
	}
	b[0] = byte(value)
	return nil
}

// Store16 writes the low 16 bits of value at addr.
func (m *Memory) Store16(addr uint64, value uint64) error {
	b, err := m.span(addr, 2)
	if err != nil {
		return err
	}
	byteOrder.PutUint16(b, uint16(value))
	return nil
}

// Store32 writes the low 32 bits of value at addr.
func (m *Memory) Store32(addr uint64, value uint64) error {
	b, err := m.span(addr, 4)
	if err != nil {
		return err
	}
	byteOrder.PutUint32(b, uint32(value))
	return nil
}

// Store64 writes value at addr.
func (m *Memory) Store64(addr uint64, value uint64) error {
	b, err := m.span(addr, 8)
	if err != nil {
		return err
	}
	byteOrder.PutUint64(b, value)
	return nil
}
