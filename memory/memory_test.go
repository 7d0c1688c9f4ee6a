package memory

import (
	"errors"
	"testing"

	"github.com/epism-vm/epism/architecture"
)

func TestLoadStoreRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		addr  uint64
		value uint64
		load  func(*Memory, uint64) (uint64, error)
		store func(*Memory, uint64, uint64) error
		mask  uint64
	}{
		{"8bit", 0x10, 0xAB, (*Memory).Load8, (*Memory).Store8, 0xFF},
		{"16bit", 0x20, 0xBEEF, (*Memory).Load16, (*Memory).Store16, 0xFFFF},
		{"32bit", 0x30, 0xDEADBEEF, (*Memory).Load32, (*Memory).Store32, 0xFFFFFFFF},
		{"64bit", 0x40, 0x0123456789ABCDEF, (*Memory).Load64, (*Memory).Store64, ^uint64(0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := New()
			if err := tc.store(m, tc.addr, tc.value); err != nil {
				t.Fatalf("store: %v", err)
			}
			got, err := tc.load(m, tc.addr)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if want := tc.value & tc.mask; got != want {
				t.Errorf("load after store: got %#x want %#x", got, want)
			}
		})
	}
}

func TestOutOfBounds(t *testing.T) {
	m := New()
	if _, err := m.Load64(architecture.MemorySize - 4); err == nil {
		t.Fatal("expected out of bounds error, got nil")
	} else {
		var oob OutOfBoundsError
		if !errors.As(err, &oob) {
			t.Errorf("expected OutOfBoundsError, got %T: %v", err, err)
		}
	}
	if err := m.Store32(architecture.MemorySize-2, 1); err == nil {
		t.Fatal("expected out of bounds error on store, got nil")
	}
}

func TestZeroFilledAtInit(t *testing.T) {
	m := New()
	got, err := m.Load64(0)
	if err != nil {
		t.Fatalf("Load64: %v", err)
	}
	if got != 0 {
		t.Errorf("fresh memory not zero-filled: got %#x", got)
	}
}
