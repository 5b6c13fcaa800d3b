package lock

import "github.com/jio/libjournal/internal/platform"

// Manager coordinates the two-tier lock described in §4.3: a
// process-local Table gates intra-process callers, and once an
// interval is granted locally, the same range is additionally locked
// on a shared lockfile descriptor via the kernel's byte-range lock
// primitive, extending the serialization to every process that opens
// the same journaled file. The lockfile descriptor is owned by the
// handle, not by Manager.
type Manager struct {
	table    *Table
	lockfile *platform.File
}

// NewManager builds a Manager layered over lockfile, the handle's
// dedicated lockfile descriptor.
func NewManager(lockfile *platform.File) *Manager {
	return &Manager{table: NewTable(), lockfile: lockfile}
}

// Held is the receipt returned by Acquire; pass it to Release to
// unwind both lock tiers in the correct order.
type Held struct {
	intervals []Interval
}

// Acquire locks every interval in ivs, sorted ascending, first against
// the process-local table and then against the kernel lockfile lock,
// so the same acquisition order holds both within and across processes.
func (m *Manager) Acquire(ivs []Interval) (Held, error) {
	ordered := m.table.LockAll(ivs)

	for i, iv := range ordered {
		if err := m.lockfile.LockRange(iv.Start, iv.Length); err != nil {
			// Roll back everything acquired so far, in both tiers,
			// before surfacing the failure.
			for j := i - 1; j >= 0; j-- {
				_ = m.lockfile.UnlockRange(ordered[j].Start, ordered[j].Length)
			}
			m.table.UnlockAll(ordered)
			return Held{}, err
		}
	}

	return Held{intervals: ordered}, nil
}

// Release unwinds a Held in the inverse order it was acquired: kernel
// locks first, then the process-local table.
func (m *Manager) Release(h Held) error {
	var firstErr error
	for i := len(h.intervals) - 1; i >= 0; i-- {
		if err := m.lockfile.UnlockRange(h.intervals[i].Start, h.intervals[i].Length); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.table.UnlockAll(h.intervals)
	return firstErr
}
