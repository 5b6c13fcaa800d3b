package libjournal

import (
	"time"

	"github.com/jio/libjournal/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// OpenOptions configures Open. It is a plain struct rather than
// functional options, since this library's public surface is small and
// fixed enough that the indirection wouldn't buy any flexibility.
type OpenOptions struct {
	// FileMode is the mode a new data file is created with. Zero
	// defaults to 0644. The journal directory is always created with
	// 0755, whatever FileMode says.
	FileMode uint32

	// Logging configures the structured logger every internal
	// component logs through. A zero value discards all log output.
	Logging logging.Config

	// MetricsNamespace, if non-empty, registers a Prometheus Recorder
	// under this namespace with MetricsRegisterer (or
	// prometheus.DefaultRegisterer if that is nil). Left empty, the
	// handle records no metrics.
	MetricsNamespace  string
	MetricsRegisterer prometheus.Registerer

	// Autosync, if non-nil, starts the handle in linger mode: commits
	// return once their journal record is durable and their writes are
	// applied to the data file, without fsyncing it, and a background
	// worker batches the data fsync and journal cleanup per
	// AutosyncOptions.
	Autosync *AutosyncOptions
}

// AutosyncOptions configures linger-mode background flushing. A flush
// runs when Period has elapsed since the last flush, or
// when ThresholdBytes of pending payload have accumulated, whichever
// comes first. A zero ThresholdBytes disables the byte-threshold
// trigger; a zero or negative Period is replaced by the 200ms default.
type AutosyncOptions struct {
	Period         time.Duration
	ThresholdBytes int64
}

func (o OpenOptions) fileMode() uint32 {
	if o.FileMode == 0 {
		return 0o644
	}
	return o.FileMode
}

func defaultAutosync() AutosyncOptions {
	return AutosyncOptions{Period: 200 * time.Millisecond}
}
