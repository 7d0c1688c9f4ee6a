package disasm

import (
	"os"
	"testing"

	"github.com/epism-vm/epism/asm"
	"github.com/epism-vm/epism/program"
)

const testDir = "../testdata"

func TestAllDisassemblesGoldenFixture(t *testing.T) {
	raw, err := os.ReadFile(testDir + "/addition.epismo")
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	lines, err := All(program.New(raw))
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	want := []string{
		"const8 r0, 5",
		"const8 r1, 6",
		"add r0, r1, r2, l0",
		"wait l0",
		"print r2",
		"exit",
	}
	if len(lines) != len(want) {
		t.Fatalf("All() = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestStepDecodesEachOperandKind(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{name: "nop", raw: []byte{0x00}, want: "nop"},
		{name: "move", raw: []byte{0x01, 0x02, 0x03}, want: "move r2, r3"},
		{name: "const8", raw: []byte{0x02, 0x00, 0x7B}, want: "const8 r0, 123"},
		{name: "load32", raw: []byte{0x08, 0x01, 0x02, 0x05}, want: "load32 r1, r2, l5"},
		{name: "start", raw: []byte{0x1D, 0x04, 0x00}, want: "start t4, r0"},
		{name: "exit", raw: []byte{0x22}, want: "exit"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := program.New(tc.raw)
			got, next, err := Step(p, 0)
			if err != nil {
				t.Fatalf("Step() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("Step() = %q, want %q", got, tc.want)
			}
			if next != uint64(len(tc.raw)) {
				t.Errorf("Step() next = %d, want %d", next, len(tc.raw))
			}
		})
	}
}

func TestStepRejectsInvalidOpcode(t *testing.T) {
	p := program.New([]byte{0xAB})
	if _, _, err := Step(p, 0); err == nil {
		t.Errorf("Step() error = nil, want non-nil for invalid opcode")
	}
}

func TestAssembleDisassembleRoundTrip(t *testing.T) {
	source := "const8 r0, 7\nprint r0\nexit"
	raw, err := asm.Assemble(source)
	if err != nil {
		t.Fatalf("asm.Assemble() error = %v", err)
	}

	lines, err := All(program.New(raw))
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	want := []string{"const8 r0, 7", "print r0", "exit"}
	if len(lines) != len(want) {
		t.Fatalf("All() = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}
