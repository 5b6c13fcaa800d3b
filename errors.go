package libjournal

import (
	"errors"
	"fmt"

	"github.com/jio/libjournal/internal/platform"
)

var (
	errBusyLiveTxns    = errors.New("transactions are still live")
	errBusyAutosync    = errors.New("autosync is still running; call AutosyncStop first")
	errAutosyncRunning = errors.New("autosync is already running")
)

// Kind classifies a libjournal error into one of a fixed set of failure
// modes, so callers can branch on errors.As without parsing message
// text.
type Kind int

const (
	KindOther Kind = iota
	KindInvalidArgument
	KindNotFound
	KindExists
	KindPermission
	KindNoSpace
	KindIO
	KindCorruptJournal
	KindBusy
	KindInterrupted
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotFound:
		return "not found"
	case KindExists:
		return "exists"
	case KindPermission:
		return "permission"
	case KindNoSpace:
		return "no space"
	case KindIO:
		return "io"
	case KindCorruptJournal:
		return "corrupt journal"
	case KindBusy:
		return "busy"
	case KindInterrupted:
		return "interrupted"
	default:
		return "other"
	}
}

// Error is the error type every fallible libjournal operation returns:
// an underlying error plus a Kind a caller can test for with errors.As.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("libjournal: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("libjournal: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// wrapErr classifies err via internal/platform's syscall classifier
// and attaches it to op as a *Error. A nil err returns nil.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}
	return &Error{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	switch platform.Classify(err) {
	case platform.KindTransientIO:
		return KindIO
	case platform.KindNoSpace:
		return KindNoSpace
	case platform.KindPermission:
		return KindPermission
	case platform.KindNotFound:
		return KindNotFound
	case platform.KindInvalidArgument:
		return KindInvalidArgument
	case platform.KindInterrupted:
		return KindInterrupted
	case platform.KindExists:
		return KindExists
	default:
		return KindOther
	}
}
