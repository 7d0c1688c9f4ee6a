// Package lock implements the machine's software locks: spec.md section
// 4.4's fixed-size array of binary semaphores, initially acquired. Each
// Lock is backed by a golang.org/x/sync/semaphore.Weighted of size 1 --
// "locked" is exactly "this lock's one unit of weight is currently held".
// Waiter wakeup (scanning threads blocked on a lock and starting them) is
// not owned here: it needs visibility into the thread bank and lives on
// vm.Machine, mirroring where the Rust original places Machine::unlock.
package lock

import (
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/epism-vm/epism/architecture"
)

// InvalidIDError reports an out-of-range lock index. With LocksCount at
// 256 and IDs being single bytes this can only happen if LocksCount is
// ever narrowed below 256.
type InvalidIDError struct {
	ID uint8
}

// Error implements the error interface.
func (e InvalidIDError) Error() string {
	return fmt.Sprintf("lock: invalid lock id %d", e.ID)
}

// Lock is a single binary software semaphore.
type Lock struct {
	sem    *semaphore.Weighted
	locked bool
}

func newLock() *Lock {
	l := &Lock{sem: semaphore.NewWeighted(1)}
	// A fresh semaphore always grants the first acquire; locks start
	// acquired per spec.md section 4.4 and section 9's rationale (it lets
	// producer/consumer programs Wait immediately with no setup opcode).
	if !l.sem.TryAcquire(1) {
		panic("lock: fresh semaphore refused initial acquire")
	}
	l.locked = true
	return l
}

// IsLocked reports whether the lock is currently held.
func (l *Lock) IsLocked() bool {
	return l.locked
}

// Acquire sets the lock to locked, acquiring its semaphore weight if it
// was not already held. Idempotent: locking an already-locked lock is a
// no-op, matching the Lock opcode's "set locked = true" semantics.
func (l *Lock) Acquire() {
	if !l.locked {
		// Always succeeds: nothing else contends for this weight since
		// every transition is serialized through the machine's cycle loop.
		l.sem.TryAcquire(1)
		l.locked = true
	}
}

// Release sets the lock to unlocked, releasing its semaphore weight if it
// was held. Idempotent.
func (l *Lock) Release() {
	if l.locked {
		l.sem.Release(1)
		l.locked = false
	}
}

// Bank is the fixed-size array of locks addressed by single-byte IDs.
type Bank struct {
	locks [architecture.LocksCount]*Lock
}

// New returns a Bank with every lock initially acquired.
func New() *Bank {
	b := &Bank{}
	for i := range b.locks {
		b.locks[i] = newLock()
	}
	return b
}

// Get returns the lock at id.
func (b *Bank) Get(id uint8) *Lock {
	return b.locks[id]
}
