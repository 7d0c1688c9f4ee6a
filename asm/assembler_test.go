package asm

import (
	"bytes"
	"errors"
	"os"
	"testing"
)

// testDir holds golden fixtures shared with the disasm tests, mirroring the
// teacher's cpu_test.go testDir convention.
const testDir = "../testdata"

func TestAssembleGoldenFixture(t *testing.T) {
	source, err := os.ReadFile(testDir + "/addition.epism")
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	want, err := os.ReadFile(testDir + "/addition.epismo")
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}

	got, err := Assemble(string(source))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Assemble(addition.epism) = %v, want %v", got, want)
	}
}

func TestAssembleSimpleProgram(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []byte
	}{
		{
			name:   "nop then exit",
			source: "nop exit",
			want:   []byte{0x00, 0x22},
		},
		{
			name:   "const8 into r0",
			source: "const8 r0, 42",
			want:   []byte{0x02, 0x00, 42},
		},
		{
			name:   "print r0 exit",
			source: "print r0 exit",
			want:   []byte{0x21, 0x00, 0x22},
		},
		{
			name:   "move copies a register",
			source: "move r1, r0",
			want:   []byte{0x01, 0x01, 0x00},
		},
		{
			name: "jump through a register loaded from a label",
			source: `
				const32 r0, target
				jump r0
				target: exit
			`,
			want: []byte{
				0x04, 0x00, 0x00, 0x00, 0x00, 0x08,
				0x18, 0x00,
				0x22,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Assemble(tc.source)
			if err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("Assemble() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "duplicate label", source: "a: a: exit"},
		{name: "missing colon after label", source: "a exit"},
		{name: "missing comma between operands", source: "add r0 r1 r2 l0"},
		{name: "undefined label in const operand", source: "const8 r0, nowhere"},
		{name: "missing operand at end of source", source: "const8 r0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Assemble(tc.source); err == nil {
				t.Errorf("Assemble(%q) error = nil, want non-nil", tc.source)
			}
		})
	}
}

func TestLabelsRecordsByteOffsets(t *testing.T) {
	source := `
		begin: const8 r0, 1
		loop: add r0, r0, r0, l0
		jump r0
	`
	labels, err := Labels(source)
	if err != nil {
		t.Fatalf("Labels() error = %v", err)
	}
	want := map[string]uint64{
		"begin": 0,
		"loop":  3,
	}
	for name, wantAddr := range want {
		gotAddr, ok := labels[name]
		if !ok {
			t.Errorf("Labels()[%q] missing", name)
			continue
		}
		if gotAddr != wantAddr {
			t.Errorf("Labels()[%q] = %d, want %d", name, gotAddr, wantAddr)
		}
	}
}

func TestLabelOverflowInConst8(t *testing.T) {
	var source string
	for i := 0; i < 300; i++ {
		source += "nop "
	}
	source += "overflow: exit\nconst8 r0, overflow"

	_, err := Assemble(source)
	var overflow *LabelOverflowError
	if !errors.As(err, &overflow) {
		t.Errorf("Assemble() error = %v, want *LabelOverflowError", err)
	}
}
