// epism-vm runs a compiled .epismo program to completion (spec.md
// section 6.3). CLI shape and error-reporting idiom follow the teacher's
// hand_asm.go; the stdin reader runs as a supervised goroutine alongside
// the main cycle loop via golang.org/x/sync/errgroup, so a blocked
// terminal read never stalls cycle bookkeeping between Scan opcodes --
// the engine itself stays on a single host goroutine (spec.md section 5).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/epism-vm/epism/program"
	"github.com/epism-vm/epism/vm"
)

var (
	trace     = flag.Bool("trace", false, "log one line per dispatched instruction to stderr")
	maxCycles = flag.Uint64("max-cycles", 0, "abort after this many cycles (0 means unbounded)")
)

func main() {
	flag.Parse()
	if len(flag.Args()) != 1 {
		log.Fatalf("usage: %s <in.epismo>", os.Args[0])
	}
	in := flag.Args()[0]
	if ext := filepath.Ext(in); ext != ".epismo" {
		log.Fatalf("input %q must have a .epismo extension, got %q", in, ext)
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		log.Fatalf("reading %q: %v", in, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	console := newLineConsole(os.Stdout)
	machine := vm.New(program.New(raw), vm.DefaultTiming, console)
	if *maxCycles > 0 {
		machine.SetMaxCycles(*maxCycles)
	}
	if *trace {
		machine.SetTracer(func(line string) {
			fmt.Fprintln(os.Stderr, line)
		})
	}

	// The pump goroutine feeds console.lines until stdin closes, the read
	// fails, or gctx is cancelled. It is supervised, not joined: a read
	// error cancels gctx so the cycle loop's between-cycle check notices,
	// but the cycle loop itself is the authority on when the process exits
	// -- waiting on the pump too would hang the process on a still-open
	// terminal after a program that never issues Scan again.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return console.pump(gctx, os.Stdin)
	})

	exited, err := machine.Run(gctx)
	stop()

	if err != nil {
		log.Fatalf("%v", err)
	}
	if !exited {
		log.Fatalf("program halted without reaching Exit")
	}
}

// lineConsole is vm.Machine's production ioterm.Console: a background
// goroutine feeds stdin lines into a channel so a Scan opcode pulls
// whatever is already buffered instead of blocking the reader itself on
// terminal I/O.
type lineConsole struct {
	lines chan string
	out   io.Writer
}

func newLineConsole(out io.Writer) *lineConsole {
	return &lineConsole{lines: make(chan string, 64), out: out}
}

func (c *lineConsole) pump(ctx context.Context, in io.Reader) error {
	defer close(c.lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case c.lines <- strings.TrimSpace(scanner.Text()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

// ReadLine implements ioterm.Console.
func (c *lineConsole) ReadLine() (string, error) {
	line, ok := <-c.lines
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

// PrintLine implements ioterm.Console.
func (c *lineConsole) PrintLine(line string) error {
	_, err := fmt.Fprintln(c.out, line)
	return err
}
