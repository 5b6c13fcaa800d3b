package platform

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAtThenReadAtRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(filepath.Join(dir, "data"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	payload := []byte("0123456789")
	n, err := f.WriteAt(payload, 5)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	buf := make([]byte, len(payload))
	n, err = f.ReadAt(buf, 5)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, buf)
}

func TestReadAtShortReadReturnsEOFAndPartialCount(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(filepath.Join(dir, "data"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteAt([]byte("abc"), 0)
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := f.ReadAt(buf, 0)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 3, n)
}

func TestFsyncDirAndRename(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old")
	newPath := filepath.Join(dir, "new")

	f, err := Open(oldPath, os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, Rename(oldPath, newPath))
	require.NoError(t, FsyncDir(dir))

	_, err = os.Stat(newPath)
	require.NoError(t, err)
	_, err = os.Stat(oldPath)
	require.True(t, os.IsNotExist(err))
}

func TestSizeAndTruncate(t *testing.T) {
	dir := t.TempDir()
	f, err := Open(filepath.Join(dir, "data"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteAt([]byte("0123456789"), 0)
	require.NoError(t, err)

	size, err := f.Size()
	require.NoError(t, err)
	require.Equal(t, int64(10), size)

	require.NoError(t, f.Truncate(4))
	size, err = f.Size()
	require.NoError(t, err)
	require.Equal(t, int64(4), size)
}

func TestLockRangeThenUnlockRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lockfile")

	f, err := Open(path, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.LockRange(0, 10))
	require.NoError(t, f.UnlockRange(0, 10))
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone")
	f, err := Open(path, os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, Remove(path))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
