package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jio/libjournal/internal/platform"
)

// Suffix is the fixed suffix appended to a data file's path to form
// its journal directory path.
const Suffix = ".jio"

// DirectoryFor returns the journal directory path for a given data
// file path.
func DirectoryFor(dataPath string) string {
	return dataPath + Suffix
}

// Directory owns one journal directory: allocation of new record
// files, reading and classifying existing ones, removal, and the
// persisted next-identifier counter — one small file per transaction,
// scanned in name order.
type Directory struct {
	path string
}

// Open ensures the journal directory at path exists (creating it if
// create is true) and returns a Directory bound to it.
func Open(path string, create bool) (*Directory, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("journal: %s exists and is not a directory", path)
		}
	case os.IsNotExist(err) && create:
		if mkErr := os.MkdirAll(path, 0o755); mkErr != nil {
			return nil, mkErr
		}
	case os.IsNotExist(err):
		return nil, err
	default:
		return nil, err
	}
	return &Directory{path: path}, nil
}

// Path returns the journal directory's filesystem path.
func (d *Directory) Path() string { return d.path }

// NextID returns the persisted identifier counter bound to this
// directory.
func (d *Directory) NextID() *NextID { return newNextID(d) }

// RecordPath returns the path a given transaction identifier's journal
// file would live at.
func (d *Directory) RecordPath(id uint32) string {
	return filepath.Join(d.path, IDToName(id))
}

// LockfilePath returns the path of the auxiliary lockfile used for
// cross-process range locking — its contents are never read, only its
// inode is locked.
func (d *Directory) LockfilePath() string {
	return filepath.Join(d.path, lockFileName)
}

// EnsureLockfile creates the lockfile if it does not already exist.
func (d *Directory) EnsureLockfile() error {
	f, err := platform.Open(d.LockfilePath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// Allocate creates a new journal file for id in a fresh, exclusive
// state, failing if one already exists.
func (d *Directory) Allocate(id uint32) (*platform.File, error) {
	return platform.Open(d.RecordPath(id), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
}

// WriteRecord serializes header/descriptors/payloads to file, fsyncs
// the file, then fsyncs the journal directory so the new directory
// entry is durable. After this call returns, the record is the
// transaction's durability point.
func (d *Directory) WriteRecord(file *platform.File, header Header, descriptors []OpDescriptor, payloads [][]byte) error {
	buf, err := Encode(header, descriptors, payloads)
	if err != nil {
		return err
	}
	if _, err := file.WriteAt(buf, 0); err != nil {
		return err
	}
	if err := file.Fsync(); err != nil {
		return err
	}
	return platform.FsyncDir(d.path)
}

// ReadRecord opens, reads, and classifies the journal file at path.
func (d *Directory) ReadRecord(path string) (Record, Status, error) {
	f, err := platform.Open(path, os.O_RDONLY, 0)
	if err != nil {
		return Record{}, StatusTruncated, err
	}
	defer f.Close()

	size, err := f.Size()
	if err != nil {
		return Record{}, StatusTruncated, err
	}

	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return Record{}, StatusTruncated, err
	}

	record, status := Decode(buf)
	return record, status, nil
}

// Remove unlinks the journal file at path and fsyncs the directory, so
// that the removal itself is durable.
func (d *Directory) Remove(path string) error {
	if err := platform.Remove(path); err != nil {
		return err
	}
	return platform.FsyncDir(d.path)
}

// Entry is one journal directory listing entry in commit order.
type Entry struct {
	ID   uint32
	Path string
}

// Scan enumerates journal record files (skipping next-id and lock) and
// returns them in identifier order.
func (d *Directory) Scan() ([]Entry, error) {
	dirents, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		id, ok := NameToID(de.Name())
		if !ok {
			continue
		}
		entries = append(entries, Entry{ID: id, Path: filepath.Join(d.path, de.Name())})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}
