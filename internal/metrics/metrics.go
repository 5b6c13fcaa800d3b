// Package metrics exposes libjournal's optional Prometheus
// instrumentation, following the same counter/histogram vocabulary the
// pack's services register at startup. A handle that never opts in
// gets a Recorder with every field left nil; every method is nil-safe,
// so callers never need to branch on whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records libjournal's commit, fsck, and autosync counters.
type Recorder struct {
	commitsDurable  prometheus.Counter
	commitsReleased prometheus.Counter
	bytesWritten    prometheus.Counter
	commitLatency   prometheus.Histogram
	fsckApplied     prometheus.Counter
	fsckBroken      prometheus.Counter
	autosyncFlushes prometheus.Counter
}

// New builds a Recorder and registers its collectors with reg under
// namespace. Use prometheus.DefaultRegisterer for process-global
// metrics, or a fresh prometheus.NewRegistry() for test isolation.
func New(namespace string, reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		commitsDurable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_durable_total",
			Help:      "Transactions that reached the durability point (journal fsynced).",
		}),
		commitsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_released_total",
			Help:      "Transactions fully released (data fsynced, journal record removed).",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_bytes_written_total",
			Help:      "Payload bytes written to journal records.",
		}),
		commitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_latency_seconds",
			Help:      "Time from Commit call to the durability point.",
			Buckets:   prometheus.DefBuckets,
		}),
		fsckApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fsck_records_applied_total",
			Help:      "Journal records successfully replayed by fsck.",
		}),
		fsckBroken: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fsck_records_broken_total",
			Help:      "Journal records found corrupt or truncated by fsck.",
		}),
		autosyncFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autosync_flushes_total",
			Help:      "Background linger-mode flush cycles performed.",
		}),
	}
	reg.MustRegister(
		r.commitsDurable,
		r.commitsReleased,
		r.bytesWritten,
		r.commitLatency,
		r.fsckApplied,
		r.fsckBroken,
		r.autosyncFlushes,
	)
	return r
}

// NoOp returns a Recorder whose every collector is nil; all methods
// become no-ops.
func NoOp() *Recorder { return &Recorder{} }

func (r *Recorder) CommitDurable(bytes int64) {
	if r == nil {
		return
	}
	if r.commitsDurable != nil {
		r.commitsDurable.Inc()
	}
	if r.bytesWritten != nil {
		r.bytesWritten.Add(float64(bytes))
	}
}

func (r *Recorder) CommitReleased() {
	if r == nil || r.commitsReleased == nil {
		return
	}
	r.commitsReleased.Inc()
}

func (r *Recorder) ObserveCommitLatency(d time.Duration) {
	if r == nil || r.commitLatency == nil {
		return
	}
	r.commitLatency.Observe(d.Seconds())
}

func (r *Recorder) FsckApplied(n int) {
	if r == nil || r.fsckApplied == nil {
		return
	}
	r.fsckApplied.Add(float64(n))
}

func (r *Recorder) FsckBroken(n int) {
	if r == nil || r.fsckBroken == nil {
		return
	}
	r.fsckBroken.Add(float64(n))
}

func (r *Recorder) AutosyncFlush() {
	if r == nil || r.autosyncFlushes == nil {
		return
	}
	r.autosyncFlushes.Inc()
}
