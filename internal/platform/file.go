// Package platform wraps the POSIX primitives libjournal's upper layers
// build on: positional I/O that retries short transfers, file and
// directory fsync, atomic same-directory rename, and byte-range
// advisory locking. Nothing above this package touches os.File,
// syscall, or golang.org/x/sys/unix directly.
package platform

import (
	"errors"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// File wraps an *os.File opened for positional reads and writes. It is
// safe for concurrent use by multiple goroutines: callers serialize
// through the lock manager, not through File itself.
type File struct {
	f *os.File
}

// Open opens path with the given flags and mode, retrying on EINTR.
func Open(path string, flags int, mode os.FileMode) (*File, error) {
	for {
		f, err := os.OpenFile(path, flags, mode)
		if err == nil {
			return &File{f: f}, nil
		}
		if isEINTR(err) {
			continue
		}
		return nil, err
	}
}

// Fd returns the underlying descriptor's OS handle, for byte-range
// locking and other syscall-level operations the lock manager needs.
func (file *File) Fd() uintptr { return file.f.Fd() }

// OSFile exposes the underlying *os.File for callers that need
// capabilities platform.File does not wrap directly (e.g. Stat).
func (file *File) OSFile() *os.File { return file.f }

// Name returns the path the file was opened with.
func (file *File) Name() string { return file.f.Name() }

func (file *File) Close() error {
	for {
		err := file.f.Close()
		if !isEINTR(err) {
			return err
		}
	}
}

// ReadAt performs a positional read, retrying internally on EINTR. A
// short read (fewer bytes than len(buf)) ends the loop and returns the
// partial count along with the error that stopped it — io.EOF for a
// clean end of file, otherwise the underlying failure.
func (file *File) ReadAt(buf []byte, offset int64) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := file.f.ReadAt(buf[total:], offset+int64(total))
		total += n
		if err != nil {
			if isEINTR(err) {
				continue
			}
			return total, err
		}
		if n == 0 {
			return total, io.EOF
		}
	}
	return total, nil
}

// WriteAt performs a positional write, retrying until every byte of buf
// has been transferred, end-to-end EINTR included. A short write is
// always retried; it never surfaces to the caller as a partial count.
func (file *File) WriteAt(buf []byte, offset int64) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := file.f.WriteAt(buf[total:], offset+int64(total))
		total += n
		if err != nil {
			if isEINTR(err) {
				continue
			}
			return total, err
		}
	}
	return total, nil
}

// Truncate resizes the file to length bytes.
func (file *File) Truncate(length int64) error {
	for {
		err := file.f.Truncate(length)
		if !isEINTR(err) {
			return err
		}
	}
}

// Size returns the current length of the file in bytes.
func (file *File) Size() (int64, error) {
	info, err := file.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Fsync flushes the file's data and metadata to stable storage.
func (file *File) Fsync() error {
	for {
		err := file.f.Sync()
		if !isEINTR(err) {
			return err
		}
	}
}

// FsyncDir fsyncs the directory at path so that directory-entry
// mutations performed within it (create, unlink, rename) are durable.
func FsyncDir(path string) error {
	d, err := Open(path, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Fsync()
}

// Rename atomically renames oldpath to newpath. Both paths must be
// within the same directory for the operation to be atomic on the
// underlying filesystem.
func Rename(oldpath, newpath string) error {
	for {
		err := os.Rename(oldpath, newpath)
		if !isEINTR(err) {
			return err
		}
	}
}

// Remove unlinks path.
func Remove(path string) error {
	for {
		err := os.Remove(path)
		if !isEINTR(err) {
			return err
		}
	}
}

// LockRange acquires a blocking, exclusive, whole-range advisory lock
// on [start, start+length) of the file. It restarts automatically on
// EINTR, matching the POSIX requirement that blocking syscalls restart
// across signal delivery.
func (file *File) LockRange(start, length int64) error {
	lock := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: io.SeekStart,
		Start:  start,
		Len:    length,
	}
	for {
		err := unix.FcntlFlock(file.Fd(), unix.F_SETLKW, &lock)
		if err == nil {
			return nil
		}
		if isEINTR(err) {
			continue
		}
		return err
	}
}

// UnlockRange releases a previously acquired lock over the same
// [start, start+length) interval.
func (file *File) UnlockRange(start, length int64) error {
	lock := unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: io.SeekStart,
		Start:  start,
		Len:    length,
	}
	for {
		err := unix.FcntlFlock(file.Fd(), unix.F_SETLKW, &lock)
		if err == nil {
			return nil
		}
		if isEINTR(err) {
			continue
		}
		return err
	}
}

func isEINTR(err error) bool {
	return err != nil && errors.Is(err, syscall.EINTR)
}
