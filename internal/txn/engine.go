package txn

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jio/libjournal/internal/journal"
	"github.com/jio/libjournal/internal/lock"
	"github.com/jio/libjournal/internal/logging"
	"github.com/jio/libjournal/internal/metrics"
	"github.com/jio/libjournal/internal/platform"
)

// Engine orchestrates lock acquisition, journal writes, fsyncs,
// data-file writes, and journal removal for every transaction
// committed against one handle, driving each through the
// BUILDING→STAGED→COMMITTING→APPLIED→RELEASED state machine. There is
// no undo/rollback path: this engine is redo-only, so a committed
// transaction always replays forward.
type Engine struct {
	Data    *platform.File
	Dir     *journal.Directory
	Locks   *lock.Manager
	Alloc   *journal.Allocator
	Log     logging.Logger
	Metrics *metrics.Recorder

	// Linger, when set, defers the data-file fsync and journal removal
	// to the caller-supplied EnqueueLinger hook instead of performing
	// them inline in commit.
	Linger        bool
	EnqueueLinger func(path string, size int64)

	mu       sync.Mutex
	registry map[uint32]*Transaction
}

// NewEngine constructs an Engine bound to an already-open data file,
// journal directory, lock manager, and identifier allocator.
func NewEngine(data *platform.File, dir *journal.Directory, locks *lock.Manager, alloc *journal.Allocator) *Engine {
	return &Engine{
		Data:     data,
		Dir:      dir,
		Locks:    locks,
		Alloc:    alloc,
		Log:      logging.NoOp(),
		Metrics:  metrics.NoOp(),
		registry: make(map[uint32]*Transaction),
	}
}

// NewTransaction returns a fresh transaction in the BUILDING state.
func (e *Engine) NewTransaction() *Transaction {
	return newTransaction(e)
}

// LiveCount returns the number of transactions currently registered —
// used by Close to refuse shutdown while transactions are outstanding.
// A transaction is registered once its identifier is allocated and is
// unregistered when it is released, when it is handed to EnqueueLinger,
// or when it aborts before durability.
func (e *Engine) LiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.registry)
}

func (e *Engine) register(tx *Transaction) {
	e.mu.Lock()
	e.registry[tx.id] = tx
	e.mu.Unlock()
}

func (e *Engine) unregister(tx *Transaction) {
	e.mu.Lock()
	delete(e.registry, tx.id)
	e.mu.Unlock()
}

// commit acquires locks over every operation's range, resolves reads,
// durably writes the journal record, applies writes to the data file,
// and releases or defers the journal cleanup depending on Linger.
func (e *Engine) commit(t *Transaction) error {
	start := time.Now()
	ops := t.allOps()

	intervals := make([]lock.Interval, 0, len(ops))
	for _, op := range ops {
		intervals = append(intervals, lock.Interval{Start: op.Offset, Length: int64(len(op.Buf))})
	}
	intervals = lock.MergeOverlapping(intervals)

	held, err := e.Locks.Acquire(intervals)
	if err != nil {
		t.setState(Aborted)
		return fmt.Errorf("txn: acquire locks: %w", err)
	}
	defer e.Locks.Release(held)

	// Step 1: resolve reads under the locks just acquired, observing
	// state prior to any of this transaction's own writes.
	for _, op := range ops {
		if op.Kind != OpRead {
			continue
		}
		if _, err := e.Data.ReadAt(op.Buf, op.Offset); err != nil && err != io.EOF {
			t.setState(Aborted)
			return fmt.Errorf("txn: read at offset %d: %w", op.Offset, err)
		}
	}

	// Step 2: allocate a durable, monotonic identifier.
	id, err := e.Alloc.Allocate()
	if err != nil {
		t.setState(Aborted)
		return fmt.Errorf("txn: allocate id: %w", err)
	}
	t.mu.Lock()
	t.id = id
	t.path = e.Dir.RecordPath(id)
	t.mu.Unlock()
	e.register(t)

	writes := t.writeOps()
	descriptors := make([]journal.OpDescriptor, len(writes))
	payloads := make([][]byte, len(writes))
	var payloadBytes int64
	for i, op := range writes {
		descriptors[i] = journal.OpDescriptor{Offset: op.Offset, Length: uint32(len(op.Buf))}
		payloads[i] = op.Buf
		payloadBytes += int64(len(op.Buf))
	}

	// Step 3: create the journal file, serialize the record, fsync it,
	// then fsync the journal directory. After this returns, the
	// transaction is durably committed.
	t.setState(Committing)
	file, err := e.Dir.Allocate(id)
	if err != nil {
		t.setState(Aborted)
		e.unregister(t)
		return fmt.Errorf("txn: allocate journal file: %w", err)
	}

	header := journal.Header{Magic: journal.Magic, Version: journal.Version, TxID: id}
	writeErr := e.Dir.WriteRecord(file, header, descriptors, payloads)
	closeErr := file.Close()
	if writeErr != nil || closeErr != nil {
		// Not yet durable: this is still a pre-durability failure, so
		// clean up the partial journal file and leave no trace.
		_ = platform.Remove(t.path)
		t.setState(Aborted)
		e.unregister(t)
		if writeErr != nil {
			return fmt.Errorf("txn: write journal record: %w", writeErr)
		}
		return fmt.Errorf("txn: close journal file: %w", closeErr)
	}

	e.Log.Debug("transaction durably committed", "txid", id, "ops", len(writes))
	e.Metrics.CommitDurable(payloadBytes)
	e.Metrics.ObserveCommitLatency(time.Since(start))

	// Step 4: apply writes to the data file. From this point on, any
	// failure is reported but never discards the journal record —
	// recovery owns replaying it.
	for _, op := range writes {
		if _, err := e.Data.WriteAt(op.Buf, op.Offset); err != nil {
			t.setState(Applied)
			e.Log.Error("data-file write failed after durable commit; recovery will replay", "txid", id, "err", err)
			return fmt.Errorf("txn: apply write at offset %d (journal record %s retained for recovery): %w", op.Offset, t.path, err)
		}
	}
	t.setState(Applied)

	if e.Linger {
		e.EnqueueLinger(t.path, payloadBytes)
		e.unregister(t)
		return nil
	}

	// Step 5: fsync the data file, then unlink the journal record and
	// fsync the journal directory.
	if err := e.Data.Fsync(); err != nil {
		e.Log.Error("data-file fsync failed after apply; journal record retained for recovery", "txid", id, "err", err)
		return fmt.Errorf("txn: fsync data file (journal record %s retained for recovery): %w", t.path, err)
	}
	if err := e.Dir.Remove(t.path); err != nil {
		e.Log.Error("journal record removal failed; a redundant replay will occur on next fsck", "txid", id, "err", err)
		return fmt.Errorf("txn: remove journal record %s: %w", t.path, err)
	}

	// Step 6: release locks (deferred above) and drop the registry
	// entry.
	t.setState(Released)
	e.unregister(t)
	e.Metrics.CommitReleased()
	return nil
}

// FsyncData implements autosync.Flusher.
func (e *Engine) FsyncData() error { return e.Data.Fsync() }

// UnlinkJournal implements autosync.Flusher: unlink only, no directory
// fsync — the worker batches that into one call per wake.
func (e *Engine) UnlinkJournal(path string) error { return platform.Remove(path) }

// FsyncJournalDir implements autosync.Flusher.
func (e *Engine) FsyncJournalDir() error { return platform.FsyncDir(e.Dir.Path()) }
