package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextIDLoadOnFreshDirectoryIsZero(t *testing.T) {
	dir, err := Open(filepath.Join(t.TempDir(), "data.jio"), true)
	require.NoError(t, err)

	v, err := dir.NextID().Load()
	require.NoError(t, err)
	require.Equal(t, uint32(0), v)
}

func TestNextIDPersistThenLoad(t *testing.T) {
	dir, err := Open(filepath.Join(t.TempDir(), "data.jio"), true)
	require.NoError(t, err)

	require.NoError(t, dir.NextID().Persist(99))

	v, err := dir.NextID().Load()
	require.NoError(t, err)
	require.Equal(t, uint32(99), v)
}

func TestBootstrapTakesMaxOfPersistedAndScannedEntries(t *testing.T) {
	dir, err := Open(filepath.Join(t.TempDir(), "data.jio"), true)
	require.NoError(t, err)

	require.NoError(t, dir.NextID().Persist(2))

	f, err := dir.Allocate(10)
	require.NoError(t, err)
	require.NoError(t, dir.WriteRecord(f, Header{Magic: Magic, Version: Version, TxID: 10}, nil, nil))
	require.NoError(t, f.Close())

	next, err := dir.NextID().Bootstrap()
	require.NoError(t, err)
	require.Equal(t, uint32(11), next)
}
