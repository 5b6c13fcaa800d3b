package journal

import "sync"

// Allocator hands out monotonically increasing, durably unique
// transaction identifiers for one journal directory. Before returning
// an identifier it persists the next value past it, so that even a
// crash between allocation and the identifier's journal file being
// written can never cause that identifier to be handed out again after
// restart — the durability §8 property 4 requires.
type Allocator struct {
	mu     sync.Mutex
	next   uint32
	nextID *NextID
}

// NewAllocator bootstraps an Allocator from dir's persisted counter
// and existing journal files.
func NewAllocator(dir *Directory) (*Allocator, error) {
	nextID := dir.NextID()
	start, err := nextID.Bootstrap()
	if err != nil {
		return nil, err
	}
	return &Allocator{next: start, nextID: nextID}, nil
}

// Allocate returns the next identifier, durably advancing the
// persisted counter past it first.
func (a *Allocator) Allocate() (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.next
	if err := a.nextID.Persist(id + 1); err != nil {
		return 0, err
	}
	a.next = id + 1
	return id, nil
}
