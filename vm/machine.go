// Package vm implements the interpreter's cycle-accurate execution
// engine: the fetch/decode/dispatch loop, the deferred-effect callback
// scheduler, and the orchestration of program, memory, register, lock and
// thread into one Machine, per spec.md sections 4.6 and 5.
package vm

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/epism-vm/epism/architecture"
	"github.com/epism-vm/epism/internal/ioterm"
	"github.com/epism-vm/epism/lock"
	"github.com/epism-vm/epism/memory"
	"github.com/epism-vm/epism/program"
	"github.com/epism-vm/epism/register"
	"github.com/epism-vm/epism/thread"
)

// Tracer receives one line per dispatched instruction when tracing is
// enabled. Left nil, tracing is free of cost (SPEC_FULL.md section 8).
type Tracer func(line string)

// Machine is the orchestrator described in spec.md section 4.6: it owns
// every sub-component and the pending-callback queue, and runs one cycle
// at a time.
type Machine struct {
	prog      *program.Program
	registers *register.File
	locks     *lock.Bank
	threads   *thread.Bank
	memory    *memory.Memory
	console   ioterm.Console
	timing    Timing
	tracer    Tracer

	callbacks []callback
	counter   uint64
	maxCycles uint64 // 0 means unbounded
}

// New returns a Machine ready to run prog, with thread 0 Active and every
// lock initially acquired.
func New(prog *program.Program, timing Timing, console ioterm.Console) *Machine {
	return &Machine{
		prog:      prog,
		registers: register.New(),
		locks:     lock.New(),
		threads:   thread.New(),
		memory:    memory.New(),
		console:   console,
		timing:    timing,
	}
}

// SetTracer installs a Tracer invoked once per dispatched instruction.
// Passing nil disables tracing.
func (m *Machine) SetTracer(t Tracer) {
	m.tracer = t
}

// Counter returns the number of completed cycles (spec.md section 8,
// property 3).
func (m *Machine) Counter() uint64 {
	return m.counter
}

// SetMaxCycles bounds Run to at most n cycles, after which it returns
// ErrMaxCyclesExceeded. n == 0 (the default) means unbounded -- this is
// an extension for scripted/test runs (SPEC_FULL.md section 6), never a
// substitute for StalledNoProgress detection.
func (m *Machine) SetMaxCycles(n uint64) {
	m.maxCycles = n
}

// Snapshot is a value-type copy of machine state for tests and Dump
// output (SPEC_FULL.md section 8).
type Snapshot struct {
	Cycle     uint64
	Registers [architecture.RegistersCount]uint64
}

// Snapshot captures the machine's current register file and cycle count.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{Cycle: m.counter, Registers: m.registers.Snapshot()}
}

// Dump renders the current machine state with go-spew, used by test
// failure messages (mirrors the teacher's
// spew.Sdump(c) convention in cpu/cpu_test.go).
func (m *Machine) Dump() string {
	return spew.Sdump(m.Snapshot())
}

// Run executes cycles until the program calls Exit (exited=true, err=nil),
// a fatal error occurs (err non-nil), or ctx is cancelled between cycles
// (err = ctx.Err()). ctx provides only cooperative, between-cycle
// cancellation for bounding runaway programs in tests/CLI -- it never
// preempts a VM thread mid-cycle (spec.md section 5: no preemptive
// threading).
func (m *Machine) Run(ctx context.Context) (exited bool, err error) {
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		if m.maxCycles > 0 && m.counter >= m.maxCycles {
			return false, m.errMachine(ErrMaxCyclesExceeded)
		}

		actives := m.threads.ActiveIDs()
		if len(actives) == 0 && len(m.callbacks) == 0 {
			return false, m.errMachine(ErrStalledNoProgress)
		}

		for _, id := range actives {
			exit, err := m.step(id)
			if err != nil {
				return false, err
			}
			if exit {
				return true, nil
			}
		}

		if err := m.drainCallbacks(); err != nil {
			return false, err
		}

		m.registers.ResetHazards()
		m.counter++
	}
}

func (m *Machine) drainCallbacks() error {
	remaining := m.callbacks[:0:0]
	for _, cb := range m.callbacks {
		if cb.dueCycle != m.counter {
			remaining = append(remaining, cb)
			continue
		}
		if err := m.runCallback(cb); err != nil {
			return err
		}
	}
	m.callbacks = remaining
	return nil
}

// enqueue schedules cb to run at the current cycle's drain phase.
func (m *Machine) enqueue(cb callback) {
	cb.dueCycle = m.counter
	m.callbacks = append(m.callbacks, cb)
}

// enqueueDelay schedules cb to run at delay cycles in the future.
func (m *Machine) enqueueDelay(cb callback, delay uint64) {
	cb.dueCycle = m.counter + delay
	m.callbacks = append(m.callbacks, cb)
}

// unlock releases id and wakes every thread waiting on it (spec.md
// section 4.4's "waiter wakeup", owned here rather than on lock.Bank
// because waking a thread requires mutating the thread bank).
func (m *Machine) unlock(id uint8) {
	m.locks.Get(id).Release()
	for _, tid := range m.threads.WaitingOn(id) {
		m.threads.Get(tid).Start()
	}
}

func (m *Machine) trace(format string, args ...any) {
	if m.tracer != nil {
		m.tracer(fmt.Sprintf(format, args...))
	}
}
