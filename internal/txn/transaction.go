package txn

import (
	"fmt"
	"sync"
)

// Transaction is an ordered collection of operations plus its
// identifier (assigned at commit-entry), state, and — once committed —
// the path of its on-disk journal file.
type Transaction struct {
	engine *Engine

	mu    sync.Mutex
	ops   []Op
	state State
	id    uint32
	path  string
}

func newTransaction(e *Engine) *Transaction {
	return &Transaction{engine: e, state: Building}
}

// ID returns the transaction's identifier. It is only meaningful once
// the transaction has reached Staged or later.
func (t *Transaction) ID() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// State returns the transaction's current position in the state
// machine.
func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// AddWrite records a write operation: payload bytes to be placed at
// offset when the transaction commits. Adding is O(1) — no I/O happens
// until Commit. The transaction takes its own copy of buf, so the
// caller is free to reuse or discard it immediately after this call
// returns.
func (t *Transaction) AddWrite(offset int64, buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Building {
		return fmt.Errorf("txn: add_w called in state %s, want building", t.state)
	}
	owned := make([]byte, len(buf))
	copy(owned, buf)
	t.ops = append(t.ops, Op{Kind: OpWrite, Offset: offset, Buf: owned})
	return nil
}

// AddRead records a read operation: dst is filled with the bytes at
// offset, as they stand prior to any of this transaction's own writes,
// when the transaction commits. dst is held by reference and written
// into directly at commit time.
func (t *Transaction) AddRead(offset int64, dst []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Building {
		return fmt.Errorf("txn: add_r called in state %s, want building", t.state)
	}
	t.ops = append(t.ops, Op{Kind: OpRead, Offset: offset, Buf: dst})
	return nil
}

// Commit hands this transaction to the owning engine to acquire locks,
// durably write its journal record, and apply its writes.
func (t *Transaction) Commit() error {
	t.mu.Lock()
	if t.state != Building {
		t.mu.Unlock()
		return fmt.Errorf("txn: commit called in state %s, want building", t.state)
	}
	t.state = Staged
	t.mu.Unlock()

	return t.engine.commit(t)
}

func (t *Transaction) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func (t *Transaction) writeOps() []Op {
	out := make([]Op, 0, len(t.ops))
	for _, op := range t.ops {
		if op.Kind == OpWrite {
			out = append(out, op)
		}
	}
	return out
}

func (t *Transaction) allOps() []Op {
	return t.ops
}
