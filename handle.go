// Package libjournal implements crash-consistent, atomic multi-block
// writes to POSIX files via a sibling journal directory: a transaction
// engine with range locking, a redo-only recovery pass, and an
// optional autosync/linger background flusher.
package libjournal

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/jio/libjournal/internal/autosync"
	"github.com/jio/libjournal/internal/journal"
	"github.com/jio/libjournal/internal/lock"
	"github.com/jio/libjournal/internal/logging"
	"github.com/jio/libjournal/internal/metrics"
	"github.com/jio/libjournal/internal/platform"
	"github.com/jio/libjournal/internal/recovery"
	"github.com/jio/libjournal/internal/txn"
	"github.com/prometheus/client_golang/prometheus"
)

// Handle binds an open data file to its journal directory, the lock
// manager and identifier allocator serving it, and — when opened in
// linger mode — the background autosync worker. Create one with Open,
// destroy it with Close.
type Handle struct {
	path     string
	data     *platform.File
	dir      *journal.Directory
	lockfile *platform.File
	engine   *txn.Engine
	autosync *autosync.Worker
	log      logging.Logger
	metrics  *metrics.Recorder
}

// Open opens (creating if necessary, per flags) the data file at path
// and its sibling journal directory, replaying no records itself —
// call Fsck first if recovery is desired. flags follows os.OpenFile
// (os.O_RDWR is implied; callers do not need to pass it).
func Open(path string, flags int, opts OpenOptions) (*Handle, error) {
	const op = "open"

	data, err := platform.Open(path, flags|os.O_RDWR, os.FileMode(opts.fileMode()))
	if err != nil {
		return nil, wrapErr(op, err)
	}

	dir, err := journal.Open(journal.DirectoryFor(path), true)
	if err != nil {
		data.Close()
		return nil, wrapErr(op, err)
	}

	if err := dir.EnsureLockfile(); err != nil {
		data.Close()
		return nil, wrapErr(op, err)
	}
	lockfile, err := platform.Open(dir.LockfilePath(), os.O_RDWR, 0o644)
	if err != nil {
		data.Close()
		return nil, wrapErr(op, err)
	}

	alloc, err := journal.NewAllocator(dir)
	if err != nil {
		lockfile.Close()
		data.Close()
		return nil, wrapErr(op, err)
	}

	log := logging.New(opts.Logging)

	var recorder *metrics.Recorder
	if opts.MetricsNamespace != "" {
		reg := opts.MetricsRegisterer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		recorder = metrics.New(opts.MetricsNamespace, reg)
	} else {
		recorder = metrics.NoOp()
	}

	lockMgr := lock.NewManager(lockfile)
	engine := txn.NewEngine(data, dir, lockMgr, alloc)
	engine.Log = log.WithComponent("txn")
	engine.Metrics = recorder

	h := &Handle{
		path:     path,
		data:     data,
		dir:      dir,
		lockfile: lockfile,
		engine:   engine,
		log:      log,
		metrics:  recorder,
	}

	if opts.Autosync != nil {
		ao := *opts.Autosync
		if ao.Period <= 0 {
			ao.Period = defaultAutosync().Period
		}
		h.autosync = autosync.New(engine, ao.Period, ao.ThresholdBytes)
		h.autosync.Metrics = recorder
		engine.Linger = true
		engine.EnqueueLinger = h.autosync.Enqueue
		h.autosync.Start()
	}

	return h, nil
}

// Close releases the handle's resources. It fails with KindBusy if
// transactions are still live, or if autosync is running — stop
// autosync with AutosyncStop first.
func (h *Handle) Close() error {
	const op = "close"

	if h.autosync != nil {
		return wrapErr(op, &Error{Op: op, Kind: KindBusy, Err: errBusyAutosync})
	}
	if n := h.engine.LiveCount(); n > 0 {
		return wrapErr(op, &Error{Op: op, Kind: KindBusy, Err: errBusyLiveTxns})
	}

	var firstErr error
	if err := h.lockfile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := h.data.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return wrapErr(op, firstErr)
}

// Pread performs a positional read of len(buf) bytes at offset,
// acquiring a lock over the touched range for the duration of the
// call: lock, read, release.
func (h *Handle) Pread(buf []byte, offset int64) (int, error) {
	const op = "pread"

	held, err := h.engine.Locks.Acquire([]lock.Interval{{Start: offset, Length: int64(len(buf))}})
	if err != nil {
		return 0, wrapErr(op, err)
	}
	defer h.engine.Locks.Release(held)

	n, err := h.data.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, wrapErr(op, err)
	}
	return n, nil
}

// Pwrite performs a positional write of buf at offset, acquiring a
// lock over the touched range for the duration of the call, then
// fsyncing the data file so the write is durable before returning —
// this bypasses the journal entirely; it is plain locked I/O, not a
// transactional commit.
func (h *Handle) Pwrite(buf []byte, offset int64) (int, error) {
	const op = "pwrite"

	held, err := h.engine.Locks.Acquire([]lock.Interval{{Start: offset, Length: int64(len(buf))}})
	if err != nil {
		return 0, wrapErr(op, err)
	}
	defer h.engine.Locks.Release(held)

	n, err := h.data.WriteAt(buf, offset)
	if err != nil {
		return n, wrapErr(op, err)
	}
	if err := h.data.Fsync(); err != nil {
		return n, wrapErr(op, err)
	}
	return n, nil
}

// Truncate resizes the data file to length bytes. Callers are
// responsible for ensuring no concurrent transaction touches bytes
// beyond the new length.
func (h *Handle) Truncate(length int64) error {
	return wrapErr("truncate", h.data.Truncate(length))
}

// Len returns the current size of the data file.
func (h *Handle) Len() (int64, error) {
	n, err := h.data.Size()
	return n, wrapErr("len", err)
}

// NewTransaction starts a new transaction in the BUILDING state.
func (h *Handle) NewTransaction() *Transaction {
	return &Transaction{inner: h.engine.NewTransaction()}
}

// AutosyncStart enables linger mode on an already-open handle that was
// not opened with autosync, starting a background worker that flushes
// every period or once thresholdBytes of pending payload accumulates.
func (h *Handle) AutosyncStart(period time.Duration, thresholdBytes int64) error {
	const op = "autosync_start"

	if h.autosync != nil {
		return wrapErr(op, &Error{Op: op, Kind: KindBusy, Err: errAutosyncRunning})
	}
	if period <= 0 {
		period = defaultAutosync().Period
	}
	h.autosync = autosync.New(h.engine, period, thresholdBytes)
	h.autosync.Metrics = h.metrics
	h.engine.Linger = true
	h.engine.EnqueueLinger = h.autosync.Enqueue
	h.autosync.Start()
	return nil
}

// AutosyncStop drains the pending autosync queue synchronously (final
// fsync plus unlinks) and disables linger mode. It returns the
// worker's last recorded asynchronous error, if any.
func (h *Handle) AutosyncStop() error {
	const op = "autosync_stop"

	if h.autosync == nil {
		return nil
	}
	err := h.autosync.Stop()
	h.autosync = nil
	h.engine.Linger = false
	h.engine.EnqueueLinger = nil
	return wrapErr(op, err)
}

// LastAsyncError returns the most recent error the autosync worker
// recorded, or nil if autosync is disabled or has recorded no error.
func (h *Handle) LastAsyncError() error {
	if h.autosync == nil {
		return nil
	}
	return wrapErr("autosync", h.autosync.LastError())
}

// Stat reports the handle's live transaction count and, when autosync
// is enabled, the number of journal records and payload bytes still
// pending a background flush.
type Stat struct {
	LiveTransactions     int
	PendingAutosync      int
	PendingAutosyncBytes int64
}

func (h *Handle) Stat() Stat {
	s := Stat{LiveTransactions: h.engine.LiveCount()}
	if h.autosync != nil {
		s.PendingAutosync, s.PendingAutosyncBytes = h.autosync.Pending()
	}
	return s
}

// Fsck runs a recovery pass over path's journal directory against its
// data file, replaying every well-formed record it finds. If path has
// no journal directory at all, Fsck returns a Report with NoJournal
// set and a nil error — there is nothing to recover, which is distinct
// from a failure. The data file and journal directory must not be open
// via Open concurrently with this call.
func Fsck(path string, opts FsckOptions) (recovery.Report, error) {
	const op = "fsck"

	data, err := platform.Open(path, os.O_RDWR, 0o644)
	if err != nil {
		return recovery.Report{}, wrapErr(op, err)
	}
	defer data.Close()

	dir, err := journal.Open(journal.DirectoryFor(path), false)
	if err != nil {
		if os.IsNotExist(err) {
			return recovery.Report{NoJournal: true}, nil
		}
		return recovery.Report{}, wrapErr(op, err)
	}

	log := logging.New(opts.Logging).WithComponent("recovery")
	recorder := metrics.NoOp()
	if opts.MetricsNamespace != "" {
		reg := opts.MetricsRegisterer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		recorder = metrics.New(opts.MetricsNamespace, reg)
	}

	report, err := recovery.Run(data, dir, recovery.Options{
		Cleanup: opts.Cleanup,
		Log:     log,
		Metrics: recorder,
	})
	return report, wrapErr(op, err)
}

// FsckOptions configures Fsck.
type FsckOptions struct {
	// Cleanup, when true, removes corrupt and truncated journal
	// records in addition to applied ones.
	Cleanup bool

	Logging           logging.Config
	MetricsNamespace  string
	MetricsRegisterer prometheus.Registerer
}
