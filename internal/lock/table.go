package lock

import "sync"

// Table is the process-local half of the range-locking manager: an
// unordered collection of currently held half-open byte intervals, with
// waiters blocked on a condition variable. Every lock is exclusive —
// there is no separate read-lock path, only a single lock/unlock pair.
type Table struct {
	mu   sync.Mutex
	cond *sync.Cond
	held []Interval
}

// NewTable creates an empty lock table.
func NewTable() *Table {
	t := &Table{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Lock blocks until no held interval overlaps iv, then holds it.
func (t *Table) Lock(iv Interval) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.overlapsLocked(iv) {
		t.cond.Wait()
	}
	t.held = append(t.held, iv)
}

// Unlock releases exactly the interval previously locked. It panics if
// iv was never held — that indicates a caller bug, not a runtime
// condition the library should swallow.
func (t *Table) Unlock(iv Interval) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, h := range t.held {
		if h == iv {
			t.held[i] = t.held[len(t.held)-1]
			t.held = t.held[:len(t.held)-1]
			t.cond.Broadcast()
			return
		}
	}
	panic("lock: unlock of interval not held")
}

// LockAll acquires every interval in ivs, sorted ascending by start
// offset, blocking as needed for each in turn. This is the ordering
// §4.3 requires so that two transactions racing on overlapping sets
// converge on the same acquisition order and never deadlock.
func (t *Table) LockAll(ivs []Interval) []Interval {
	ordered := SortIntervals(ivs)
	for _, iv := range ordered {
		t.Lock(iv)
	}
	return ordered
}

// UnlockAll releases intervals acquired via LockAll, in reverse order.
func (t *Table) UnlockAll(ordered []Interval) {
	for i := len(ordered) - 1; i >= 0; i-- {
		t.Unlock(ordered[i])
	}
}

func (t *Table) overlapsLocked(iv Interval) bool {
	for _, h := range t.held {
		if h.Overlaps(iv) {
			return true
		}
	}
	return false
}
