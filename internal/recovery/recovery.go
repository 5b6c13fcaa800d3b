// Package recovery implements the fsck pass: a forward scan of a
// journal directory in identifier order, redo-only idempotent replay
// of every well-formed record found, and a report classifying what
// happened to each.
package recovery

import (
	"fmt"
	"os"

	"github.com/jio/libjournal/internal/journal"
	"github.com/jio/libjournal/internal/logging"
	"github.com/jio/libjournal/internal/metrics"
	"github.com/jio/libjournal/internal/platform"
)

// RecordStatus classifies the outcome of one journal record during
// recovery.
type RecordStatus int

const (
	// StatusApplied means the record decoded cleanly and every one of
	// its writes was replayed to the data file.
	StatusApplied RecordStatus = iota
	// StatusCorrupt means the record's bytes are present but fail
	// structural or checksum validation.
	StatusCorrupt
	// StatusTruncated means the record is shorter than a complete
	// write would have produced — a crash during the write itself.
	StatusTruncated
)

func (s RecordStatus) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusCorrupt:
		return "corrupt"
	case StatusTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// RecordReport describes what recovery found and did for one journal
// record file.
type RecordReport struct {
	ID     uint32
	Path   string
	Status RecordStatus
}

// Report is the complete outcome of one Run.
type Report struct {
	// NoJournal is true when the target had no journal directory at
	// all — nothing to recover, distinct from a journal directory that
	// exists but is empty or fully clean.
	NoJournal bool

	Records []RecordReport
	Applied int
	Broken  int
	Cleaned int
}

// Options configures a recovery Run.
type Options struct {
	// Cleanup removes corrupt and truncated record files in addition
	// to applied ones, leaving the journal directory empty on
	// success. Without it, broken records are left in place for
	// inspection and Run only removes records it successfully
	// applied.
	Cleanup bool

	Log     logging.Logger
	Metrics *metrics.Recorder
}

// Run performs one fsck pass: it scans dir in identifier order,
// reads and classifies each record, redoes every applied record's
// writes against data, and removes applied records (and, if
// Options.Cleanup is set, broken ones too). Replay is unconditional —
// recovery never checks whether a write already landed, since
// positional writes of identical bytes are idempotent by construction.
func Run(data *platform.File, dir *journal.Directory, opts Options) (Report, error) {
	log := opts.Log
	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.NoOp()
	}

	entries, err := dir.Scan()
	if err != nil {
		return Report{}, fmt.Errorf("recovery: scan journal directory: %w", err)
	}

	report := Report{Records: make([]RecordReport, 0, len(entries))}

	for _, entry := range entries {
		record, status, err := dir.ReadRecord(entry.Path)
		if err != nil {
			return report, fmt.Errorf("recovery: read record %s: %w", entry.Path, err)
		}

		switch status {
		case journal.StatusOK:
			if err := replay(data, record); err != nil {
				return report, fmt.Errorf("recovery: replay record %s: %w", entry.Path, err)
			}
			if err := data.Fsync(); err != nil {
				return report, fmt.Errorf("recovery: fsync data file after replaying %s: %w", entry.Path, err)
			}
			if err := dir.Remove(entry.Path); err != nil {
				return report, fmt.Errorf("recovery: remove applied record %s: %w", entry.Path, err)
			}
			report.Records = append(report.Records, RecordReport{ID: entry.ID, Path: entry.Path, Status: StatusApplied})
			report.Applied++
			report.Cleaned++
			log.Debug("replayed journal record", "txid", entry.ID, "ops", len(record.Descriptors))

		case journal.StatusCorrupt, journal.StatusTruncated:
			rs := StatusCorrupt
			if status == journal.StatusTruncated {
				rs = StatusTruncated
			}
			report.Records = append(report.Records, RecordReport{ID: entry.ID, Path: entry.Path, Status: rs})
			report.Broken++
			log.Warn("journal record is not recoverable", "txid", entry.ID, "status", rs.String())
			if opts.Cleanup {
				if err := dir.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
					return report, fmt.Errorf("recovery: remove broken record %s: %w", entry.Path, err)
				}
				report.Cleaned++
			}
		}
	}

	recorder.FsckApplied(report.Applied)
	recorder.FsckBroken(report.Broken)

	return report, nil
}

func replay(data *platform.File, record journal.Record) error {
	for i, d := range record.Descriptors {
		if _, err := data.WriteAt(record.Payloads[i], d.Offset); err != nil {
			return err
		}
	}
	return nil
}
