package journal

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/jio/libjournal/internal/platform"
)

// NextID is the persisted monotonic transaction-identifier counter: a
// small file inside the journal directory holding the next identifier
// to assign, kept durable across restarts via write-to-temp-then-rename.
type NextID struct {
	dir *Directory
}

func newNextID(dir *Directory) *NextID {
	return &NextID{dir: dir}
}

func (n *NextID) path() string {
	return filepath.Join(n.dir.Path(), nextIDFileName)
}

// Load reads the persisted counter, returning 0 if the file does not
// exist yet (a brand-new journal directory).
func (n *NextID) Load() (uint32, error) {
	f, err := platform.Open(n.path(), os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, 4)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// Persist durably writes next as the counter's new value, via a
// temp-file-plus-rename so a crash mid-write never leaves a partially
// written counter in place.
func (n *NextID) Persist(next uint32) error {
	tmp := n.path() + ".tmp"
	f, err := platform.Open(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, next)
	if _, err := f.WriteAt(buf, 0); err != nil {
		f.Close()
		return err
	}
	if err := f.Fsync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := platform.Rename(tmp, n.path()); err != nil {
		return err
	}
	return platform.FsyncDir(n.dir.Path())
}

// Bootstrap computes the counter's correct starting value on open: the
// larger of the persisted counter (which already holds the next
// identifier to assign) and one greater than the largest identifier of
// any journal file still present in the directory.
func (n *NextID) Bootstrap() (uint32, error) {
	persisted, err := n.Load()
	if err != nil {
		return 0, err
	}

	entries, err := n.dir.Scan()
	if err != nil {
		return 0, err
	}

	next := persisted
	for _, e := range entries {
		if e.ID+1 > next {
			next = e.ID + 1
		}
	}
	return next, nil
}
