// Package register implements the hazard-tracked register file described
// in spec.md section 4.3: 256 64-bit cells, each carrying a per-cycle
// hazard tag so that intra-cycle data races trap instead of producing
// nondeterministic results.
package register

import (
	"fmt"

	"github.com/epism-vm/epism/architecture"
)

// hazard is the per-cycle marker on a register.
type hazard uint8

const (
	hazardNone hazard = iota
	hazardRead
	hazardWritten
)

// DataRaceError reports an intra-cycle register hazard violation.
type DataRaceError struct {
	Register uint8
	// Op is "write-after-write", "write-after-read" or "read-after-write".
	Op string
}

// Error implements the error interface.
func (e DataRaceError) Error() string {
	return fmt.Sprintf("register: data race on r%d (%s)", e.Register, e.Op)
}

// File is the fixed-size bank of 256 hazard-tracked registers.
type File struct {
	values  [architecture.RegistersCount]uint64
	hazards [architecture.RegistersCount]hazard
}

// New returns a File with every register zeroed and untagged.
func New() *File {
	return &File{}
}

// Read returns the value of register r. It is fatal (DataRaceError) to
// read a register that has already been written this cycle.
func (f *File) Read(r uint8) (uint64, error) {
	if f.hazards[r] == hazardWritten {
		return 0, DataRaceError{Register: r, Op: "read-after-write"}
	}
	f.hazards[r] = hazardRead
	return f.values[r], nil
}

// Write sets register r to v. It is fatal (DataRaceError) to write a
// register that has already been read or written this cycle.
func (f *File) Write(r uint8, v uint64) error {
	if f.hazards[r] != hazardNone {
		op := "write-after-read"
		if f.hazards[r] == hazardWritten {
			op = "write-after-write"
		}
		return DataRaceError{Register: r, Op: op}
	}
	f.hazards[r] = hazardWritten
	f.values[r] = v
	return nil
}

// ResetHazards clears every register's hazard tag. Values are untouched.
// Called once at the end of every cycle.
func (f *File) ResetHazards() {
	for i := range f.hazards {
		f.hazards[i] = hazardNone
	}
}

// Snapshot returns a copy of every register's current value, for tests and
// the vm.Machine debug dump (SPEC_FULL.md section 8).
func (f *File) Snapshot() [architecture.RegistersCount]uint64 {
	return f.values
}
