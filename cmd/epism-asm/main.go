// epism-asm assembles epism source into the binary program format
// consumed by epism-vm, or with -disassemble, decodes a binary program
// back to source text (spec.md section 6.2 property 5, round-trip).
// CLI shape and extension checking follow the teacher's hand_asm.go.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/epism-vm/epism/asm"
	"github.com/epism-vm/epism/disasm"
	"github.com/epism-vm/epism/program"
)

var disassemble = flag.Bool("disassemble", false, "treat the input as a compiled .epismo program and print its disassembly instead of assembling")

func main() {
	flag.Parse()
	if len(flag.Args()) != 2 {
		log.Fatalf("usage: %s <in.epism> <out.epismo>", os.Args[0])
	}
	in, out := flag.Args()[0], flag.Args()[1]

	if *disassemble {
		runDisassemble(in, out)
		return
	}
	runAssemble(in, out)
}

func runAssemble(in, out string) {
	if ext := filepath.Ext(in); ext != ".epism" {
		log.Fatalf("input %q must have a .epism extension, got %q", in, ext)
	}
	if ext := filepath.Ext(out); ext != ".epismo" {
		log.Fatalf("output %q must have a .epismo extension, got %q", out, ext)
	}

	source, err := os.ReadFile(in)
	if err != nil {
		log.Fatalf("reading %q: %v", in, err)
	}

	binary, err := asm.Assemble(string(source))
	if err != nil {
		log.Fatalf("assembling %q: %v", in, err)
	}

	if err := os.WriteFile(out, binary, 0o644); err != nil {
		log.Fatalf("writing %q: %v", out, err)
	}
}

func runDisassemble(in, out string) {
	if ext := filepath.Ext(in); ext != ".epismo" {
		log.Fatalf("input %q must have a .epismo extension, got %q", in, ext)
	}
	if ext := filepath.Ext(out); ext != ".epism" {
		log.Fatalf("output %q must have a .epism extension, got %q", out, ext)
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		log.Fatalf("reading %q: %v", in, err)
	}

	lines, err := disasm.All(program.New(raw))
	if err != nil {
		log.Fatalf("disassembling %q: %v", in, err)
	}

	if err := os.WriteFile(out, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		log.Fatalf("writing %q: %v", out, err)
	}
}
