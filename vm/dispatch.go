package vm

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/epism-vm/epism/architecture"
	"github.com/epism-vm/epism/internal/ioterm"
	"github.com/epism-vm/epism/thread"
)

// step fetches, decodes and executes one instruction for thread id. It
// returns exited=true if the instruction was Exit.
func (m *Machine) step(id uint8) (exited bool, err error) {
	t := m.threads.Get(id)
	instrCursor := t.Cursor

	raw, ferr := t.FetchU8(m.prog)
	if ferr != nil {
		return false, m.errThread(id, instrCursor, ferr)
	}
	op := architecture.Opcode(raw)
	if !op.Valid() {
		return false, m.errThread(id, instrCursor, fmt.Errorf("%w: %#x", ErrInvalidOpcode, raw))
	}

	m.trace("cycle %d thread %d %#x: %s", m.counter, id, instrCursor, op.Mnemonic())

	switch op {
	case architecture.Nop:
		// no effect

	case architecture.Move:
		err = m.execMove(id, t)
	case architecture.Const8:
		err = m.execConst(id, t, architecture.OperandConst8)
	case architecture.Const16:
		err = m.execConst(id, t, architecture.OperandConst16)
	case architecture.Const32:
		err = m.execConst(id, t, architecture.OperandConst32)
	case architecture.Const64:
		err = m.execConst(id, t, architecture.OperandConst64)

	case architecture.Load8:
		err = m.execLoad(id, t, width8)
	case architecture.Load16:
		err = m.execLoad(id, t, width16)
	case architecture.Load32:
		err = m.execLoad(id, t, width32)
	case architecture.Load64:
		err = m.execLoad(id, t, width64)

	case architecture.Store8:
		err = m.execStore(id, t, width8)
	case architecture.Store16:
		err = m.execStore(id, t, width16)
	case architecture.Store32:
		err = m.execStore(id, t, width32)
	case architecture.Store64:
		err = m.execStore(id, t, width64)

	case architecture.And, architecture.Or, architecture.Xor, architecture.ShiftL, architecture.ShiftR,
		architecture.Add, architecture.Sub, architecture.Mul, architecture.Div, architecture.Rem,
		architecture.Eq, architecture.Gt:
		err = m.execALU(id, t, op)

	case architecture.Jump:
		err = m.execJump(id, t)
	case architecture.JumpIf:
		err = m.execJumpIf(id, t)

	case architecture.Wait:
		err = m.execWait(id, t)
	case architecture.Lock:
		err = m.execLock(id, t)
	case architecture.Unlock:
		err = m.execUnlock(id, t)

	case architecture.Start:
		err = m.execStart(id, t)
	case architecture.Stop:
		err = m.execStop(id, t)
	case architecture.End:
		t.Stop()

	case architecture.Scan:
		err = m.execScan(id, t)
	case architecture.Print:
		err = m.execPrint(id, t)

	case architecture.Exit:
		return true, nil

	default:
		return false, m.errThread(id, instrCursor, fmt.Errorf("%w: %#x", ErrInvalidOpcode, raw))
	}

	return false, err
}

// --- fetch helpers, wrapping program bounds errors with thread context ---

func (m *Machine) fetchRegister(id uint8, t *thread.Thread) (uint8, error) {
	v, err := t.FetchU8(m.prog)
	if err != nil {
		return 0, m.errThread(id, t.Cursor, err)
	}
	return v, nil
}

func (m *Machine) fetchLock(id uint8, t *thread.Thread) (uint8, error) {
	return m.fetchRegister(id, t) // same encoding: one raw byte
}

func (m *Machine) fetchThread(id uint8, t *thread.Thread) (uint8, error) {
	return m.fetchRegister(id, t)
}

func (m *Machine) fetchConst(id uint8, t *thread.Thread, kind architecture.OperandKind) (uint64, error) {
	switch kind {
	case architecture.OperandConst8:
		v, err := t.FetchU8(m.prog)
		if err != nil {
			return 0, m.errThread(id, t.Cursor, err)
		}
		return uint64(v), nil
	case architecture.OperandConst16:
		v, err := t.FetchU16(m.prog)
		if err != nil {
			return 0, m.errThread(id, t.Cursor, err)
		}
		return uint64(v), nil
	case architecture.OperandConst32:
		v, err := t.FetchU32(m.prog)
		if err != nil {
			return 0, m.errThread(id, t.Cursor, err)
		}
		return uint64(v), nil
	default:
		v, err := t.FetchU64(m.prog)
		if err != nil {
			return 0, m.errThread(id, t.Cursor, err)
		}
		return v, nil
	}
}

func (m *Machine) readRegister(id uint8, t *thread.Thread, r uint8) (uint64, error) {
	v, err := m.registers.Read(r)
	if err != nil {
		return 0, m.errThread(id, t.Cursor, err)
	}
	return v, nil
}

func (m *Machine) writeRegister(id uint8, t *thread.Thread, r uint8, v uint64) error {
	if err := m.registers.Write(r, v); err != nil {
		return m.errThread(id, t.Cursor, err)
	}
	return nil
}

// --- instruction implementations ---

func (m *Machine) execMove(id uint8, t *thread.Thread) error {
	dst, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	src, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	v, err := m.readRegister(id, t, src)
	if err != nil {
		return err
	}
	return m.writeRegister(id, t, dst, v)
}

func (m *Machine) execConst(id uint8, t *thread.Thread, kind architecture.OperandKind) error {
	r, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	v, err := m.fetchConst(id, t, kind)
	if err != nil {
		return err
	}
	return m.writeRegister(id, t, r, v)
}

func (m *Machine) execLoad(id uint8, t *thread.Thread, w width) error {
	addrReg, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	dstReg, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	lockID, err := m.fetchLock(id, t)
	if err != nil {
		return err
	}

	addr, err := m.readRegister(id, t, addrReg)
	if err != nil {
		return err
	}
	m.locks.Get(lockID).Acquire()

	m.enqueueDelay(callback{
		kind:     cbCommitLoad,
		issuedBy: id,
		addr:     addr,
		w:        w,
		lockID:   lockID,
		dst:      dstReg,
	}, m.timing.Load)
	return nil
}

func (m *Machine) execStore(id uint8, t *thread.Thread, w width) error {
	srcReg, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	dstReg, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	lockID, err := m.fetchLock(id, t)
	if err != nil {
		return err
	}

	value, err := m.readRegister(id, t, srcReg)
	if err != nil {
		return err
	}
	addr, err := m.readRegister(id, t, dstReg)
	if err != nil {
		return err
	}
	m.locks.Get(lockID).Acquire()

	m.enqueueDelay(callback{
		kind:     cbCommitStore,
		issuedBy: id,
		addr:     addr,
		value:    value,
		w:        w,
		lockID:   lockID,
	}, m.timing.Store)
	return nil
}

func (m *Machine) aluDelay(op architecture.Opcode) uint64 {
	switch op {
	case architecture.And:
		return m.timing.And
	case architecture.Or:
		return m.timing.Or
	case architecture.Xor:
		return m.timing.Xor
	case architecture.ShiftL:
		return m.timing.ShiftL
	case architecture.ShiftR:
		return m.timing.ShiftR
	case architecture.Add:
		return m.timing.Add
	case architecture.Sub:
		return m.timing.Sub
	case architecture.Mul:
		return m.timing.Mul
	case architecture.Div:
		return m.timing.Div
	case architecture.Rem:
		return m.timing.Rem
	case architecture.Eq:
		return m.timing.Eq
	case architecture.Gt:
		return m.timing.Gt
	default:
		panic("vm: aluDelay called with non-ALU opcode")
	}
}

func (m *Machine) execALU(id uint8, t *thread.Thread, op architecture.Opcode) error {
	aReg, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	bReg, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	resultReg, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	lockID, err := m.fetchLock(id, t)
	if err != nil {
		return err
	}

	a, err := m.readRegister(id, t, aReg)
	if err != nil {
		return err
	}
	b, err := m.readRegister(id, t, bReg)
	if err != nil {
		return err
	}
	m.locks.Get(lockID).Acquire()

	m.enqueueDelay(callback{
		kind:     cbCommitALU,
		issuedBy: id,
		op:       op,
		a:        a,
		b:        b,
		dst:      resultReg,
		lockID:   lockID,
	}, m.aluDelay(op))
	return nil
}

func (m *Machine) execJump(id uint8, t *thread.Thread) error {
	addrReg, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	addr, err := m.readRegister(id, t, addrReg)
	if err != nil {
		return err
	}
	t.Jump(addr)
	return nil
}

func (m *Machine) execJumpIf(id uint8, t *thread.Thread) error {
	addrReg, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	condReg, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	addr, err := m.readRegister(id, t, addrReg)
	if err != nil {
		return err
	}
	cond, err := m.readRegister(id, t, condReg)
	if err != nil {
		return err
	}
	if cond != 0 {
		t.Jump(addr)
	}
	return nil
}

func (m *Machine) execWait(id uint8, t *thread.Thread) error {
	lockID, err := m.fetchLock(id, t)
	if err != nil {
		return err
	}
	if m.locks.Get(lockID).IsLocked() {
		t.Wait(lockID)
	}
	return nil
}

func (m *Machine) execLock(id uint8, t *thread.Thread) error {
	lockID, err := m.fetchLock(id, t)
	if err != nil {
		return err
	}
	m.enqueue(callback{kind: cbLockSet, issuedBy: id, lockID: lockID})
	return nil
}

func (m *Machine) execUnlock(id uint8, t *thread.Thread) error {
	lockID, err := m.fetchLock(id, t)
	if err != nil {
		return err
	}
	m.enqueue(callback{kind: cbUnlock, issuedBy: id, lockID: lockID})
	return nil
}

func (m *Machine) execStart(id uint8, t *thread.Thread) error {
	target, err := m.fetchThread(id, t)
	if err != nil {
		return err
	}
	addrReg, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	addr, err := m.readRegister(id, t, addrReg)
	if err != nil {
		return err
	}
	m.enqueue(callback{kind: cbStartThread, issuedBy: id, targetThread: target, startAddr: addr})
	return nil
}

func (m *Machine) execStop(id uint8, t *thread.Thread) error {
	target, err := m.fetchThread(id, t)
	if err != nil {
		return err
	}
	m.enqueue(callback{kind: cbStopThread, issuedBy: id, targetThread: target})
	return nil
}

func (m *Machine) execScan(id uint8, t *thread.Thread) error {
	r, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	v, err := ioterm.ScanUint64(m.console)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			return m.errThread(id, t.Cursor, fmt.Errorf("%w: %v", ErrInputParse, err))
		}
		return m.errThread(id, t.Cursor, fmt.Errorf("%w: %v", ErrInputRead, err))
	}
	return m.writeRegister(id, t, r, v)
}

func (m *Machine) execPrint(id uint8, t *thread.Thread) error {
	r, err := m.fetchRegister(id, t)
	if err != nil {
		return err
	}
	v, err := m.readRegister(id, t, r)
	if err != nil {
		return err
	}
	if err := ioterm.PrintUint64(m.console, v); err != nil {
		return m.errThread(id, t.Cursor, err)
	}
	return nil
}

// runCallback executes one deferred effect during the current cycle's
// drain phase.
func (m *Machine) runCallback(cb callback) error {
	switch cb.kind {
	case cbCommitLoad:
		v, err := m.loadWidth(cb.addr, cb.w)
		if err != nil {
			return m.errThread(cb.issuedBy, m.threads.Get(cb.issuedBy).Cursor, err)
		}
		if err := m.registers.Write(cb.dst, v); err != nil {
			return m.errThread(cb.issuedBy, m.threads.Get(cb.issuedBy).Cursor, err)
		}
		m.unlock(cb.lockID)

	case cbCommitStore:
		if err := m.storeWidth(cb.addr, cb.w, cb.value); err != nil {
			return m.errThread(cb.issuedBy, m.threads.Get(cb.issuedBy).Cursor, err)
		}
		m.unlock(cb.lockID)

	case cbCommitALU:
		v, err := aluCompute(cb.op, cb.a, cb.b)
		if err != nil {
			return m.errThread(cb.issuedBy, m.threads.Get(cb.issuedBy).Cursor, err)
		}
		if err := m.registers.Write(cb.dst, v); err != nil {
			return m.errThread(cb.issuedBy, m.threads.Get(cb.issuedBy).Cursor, err)
		}
		m.unlock(cb.lockID)

	case cbLockSet:
		m.locks.Get(cb.lockID).Acquire()

	case cbUnlock:
		m.unlock(cb.lockID)

	case cbStartThread:
		other := m.threads.Get(cb.targetThread)
		other.Jump(cb.startAddr)
		other.Start()

	case cbStopThread:
		m.threads.Get(cb.targetThread).Stop()
	}
	return nil
}

func (m *Machine) loadWidth(addr uint64, w width) (uint64, error) {
	switch w {
	case width8:
		return m.memory.Load8(addr)
	case width16:
		return m.memory.Load16(addr)
	case width32:
		return m.memory.Load32(addr)
	default:
		return m.memory.Load64(addr)
	}
}

func (m *Machine) storeWidth(addr uint64, w width, value uint64) error {
	switch w {
	case width8:
		return m.memory.Store8(addr, value)
	case width16:
		return m.memory.Store16(addr, value)
	case width32:
		return m.memory.Store32(addr, value)
	default:
		return m.memory.Store64(addr, value)
	}
}
