// Package autosync implements the linger-mode background flusher:
// transactions committed under linger enqueue their journal path
// instead of fsyncing the data file and removing the record
// immediately, and a single dedicated worker goroutine periodically
// (or once accumulated bytes cross a threshold) fsyncs the data file
// once and then unlinks every journal file accumulated since the last
// wake, fsyncing the journal directory once at the end.
package autosync

import (
	"sync"
	"time"

	"github.com/jio/libjournal/internal/metrics"
)

// Flusher is the narrow interface the worker needs from the
// transaction engine: a way to fsync the data file once, unlink a
// single journal record without fsyncing the directory, and fsync the
// journal directory once per batch.
type Flusher interface {
	FsyncData() error
	UnlinkJournal(path string) error
	FsyncJournalDir() error
}

// Worker is the single dedicated background goroutine per handle that
// drains linger-mode commits.
type Worker struct {
	flusher        Flusher
	period         time.Duration
	thresholdBytes int64
	Metrics        *metrics.Recorder

	mu           sync.Mutex
	queue        []string
	pendingBytes int64
	lastErr      error

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
}

// New creates a Worker. It does not start running until Start is
// called.
func New(flusher Flusher, period time.Duration, thresholdBytes int64) *Worker {
	return &Worker{
		flusher:        flusher,
		period:         period,
		thresholdBytes: thresholdBytes,
		Metrics:        metrics.NoOp(),
		wake:           make(chan struct{}, 1),
		stop:           make(chan struct{}),
		stopped:        make(chan struct{}),
	}
}

// Start launches the worker's background goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Enqueue records a linger-committed transaction's journal path and
// its payload size, waking the worker immediately if accumulated
// pending bytes now cross the configured threshold.
func (w *Worker) Enqueue(path string, size int64) {
	w.mu.Lock()
	w.queue = append(w.queue, path)
	w.pendingBytes += size
	crossed := w.thresholdBytes > 0 && w.pendingBytes >= w.thresholdBytes
	w.mu.Unlock()

	if crossed {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}

// Pending reports the number of journal records and bytes currently
// queued for the next flush.
func (w *Worker) Pending() (count int, bytes int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue), w.pendingBytes
}

// LastError returns the most recent error encountered while flushing,
// or nil. Callers should check it before close and after any commit
// made under linger mode.
func (w *Worker) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// ClearError resets the asynchronous-error slot, e.g. once the caller
// has observed and handled it.
func (w *Worker) ClearError() {
	w.mu.Lock()
	w.lastErr = nil
	w.mu.Unlock()
}

func (w *Worker) run() {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flush()
		case <-w.wake:
			w.flush()
		case <-w.stop:
			w.flush()
			close(w.stopped)
			return
		}
	}
}

// flush performs one wake cycle: a single data-file fsync, which must
// complete before any of the accumulated journal files are unlinked,
// followed by one journal-directory fsync covering the whole batch.
func (w *Worker) flush() {
	w.mu.Lock()
	if len(w.queue) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.queue
	batchBytes := w.pendingBytes
	w.queue = nil
	w.pendingBytes = 0
	w.mu.Unlock()

	if err := w.flusher.FsyncData(); err != nil {
		w.setErr(err)
		// The data file is not durably synced: put the batch back so
		// the next wake retries rather than unlinking records whose
		// writes might not actually be on disk yet.
		w.mu.Lock()
		w.queue = append(batch, w.queue...)
		w.pendingBytes += batchBytes
		w.mu.Unlock()
		return
	}

	for _, path := range batch {
		if err := w.flusher.UnlinkJournal(path); err != nil {
			w.setErr(err)
		}
	}

	if err := w.flusher.FsyncJournalDir(); err != nil {
		w.setErr(err)
	}

	w.Metrics.AutosyncFlush()
}

func (w *Worker) setErr(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

// Stop drains the queue synchronously — a final fsync plus unlinks —
// before returning.
func (w *Worker) Stop() error {
	close(w.stop)
	<-w.stopped
	return w.LastError()
}
