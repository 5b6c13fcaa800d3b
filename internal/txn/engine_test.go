package txn

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jio/libjournal/internal/journal"
	"github.com/jio/libjournal/internal/lock"
	"github.com/jio/libjournal/internal/metrics"
	"github.com/jio/libjournal/internal/platform"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *platform.File, *journal.Directory) {
	t.Helper()
	base := t.TempDir()
	dataPath := filepath.Join(base, "data")

	data, err := platform.Open(dataPath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { data.Close() })

	dir, err := journal.Open(journal.DirectoryFor(dataPath), true)
	require.NoError(t, err)
	require.NoError(t, dir.EnsureLockfile())

	lockfile, err := platform.Open(dir.LockfilePath(), os.O_RDWR, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() { lockfile.Close() })

	alloc, err := journal.NewAllocator(dir)
	require.NoError(t, err)

	engine := NewEngine(data, dir, lock.NewManager(lockfile), alloc)
	return engine, data, dir
}

func TestSingleWriteCommitIsDurableAndApplied(t *testing.T) {
	engine, data, dir := newTestEngine(t)

	tx := engine.NewTransaction()
	require.NoError(t, tx.AddWrite(0, []byte("hello")))
	require.NoError(t, tx.Commit())
	require.Equal(t, Released, tx.State())

	buf := make([]byte, 5)
	_, err := data.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), buf)

	entries, err := dir.Scan()
	require.NoError(t, err)
	require.Empty(t, entries, "journal record should be removed after a non-linger commit")
}

func TestCommitObservesCommitLatencyMetric(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	reg := prometheus.NewRegistry()
	engine.Metrics = metrics.New("test", reg)

	tx := engine.NewTransaction()
	require.NoError(t, tx.AddWrite(0, []byte("timed")))
	require.NoError(t, tx.Commit())

	families, err := reg.Gather()
	require.NoError(t, err)

	var sampleCount uint64
	for _, fam := range families {
		if fam.GetName() == "test_commit_latency_seconds" {
			sampleCount = fam.Metric[0].GetHistogram().GetSampleCount()
		}
	}
	require.Equal(t, uint64(1), sampleCount)
}

func TestReadObservesPreTransactionBytes(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	seed := engine.NewTransaction()
	require.NoError(t, seed.AddWrite(0, []byte("AAAA")))
	require.NoError(t, seed.Commit())

	tx := engine.NewTransaction()
	dst := make([]byte, 4)
	require.NoError(t, tx.AddRead(0, dst))
	require.NoError(t, tx.AddWrite(0, []byte("BBBB")))
	require.NoError(t, tx.Commit())

	require.Equal(t, []byte("AAAA"), dst, "read placed before the write in add order must see pre-transaction bytes")
}

func TestOverlappingOwnReadWriteDoesNotDeadlock(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	tx := engine.NewTransaction()
	dst := make([]byte, 4)
	require.NoError(t, tx.AddRead(10, dst))
	require.NoError(t, tx.AddWrite(10, []byte("ZZZZ")))

	done := make(chan error, 1)
	go func() { done <- tx.Commit() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("commit deadlocked on its own overlapping read/write")
	}
}

func TestDisjointConcurrentCommitsBothSucceed(t *testing.T) {
	engine, data, _ := newTestEngine(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	offsets := []int64{0, 1000}
	payloads := [][]byte{[]byte("left"), []byte("right")}

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := engine.NewTransaction()
			if err := tx.AddWrite(offsets[i], payloads[i]); err != nil {
				errs[i] = err
				return
			}
			errs[i] = tx.Commit()
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	for i, off := range offsets {
		buf := make([]byte, len(payloads[i]))
		_, err := data.ReadAt(buf, off)
		require.NoError(t, err)
		require.Equal(t, payloads[i], buf)
	}
}

func TestOverlappingCommitsSerializeWithoutCorruption(t *testing.T) {
	engine, data, _ := newTestEngine(t)

	const n = 20
	payloads := make([][]byte, n)
	for i := range payloads {
		payloads[i] = []byte{byte('A' + i), byte('A' + i), byte('A' + i), byte('A' + i)}
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := engine.NewTransaction()
			require.NoError(t, tx.AddWrite(0, payloads[i]))
			require.NoError(t, tx.Commit())
		}(i)
	}
	wg.Wait()

	buf := make([]byte, 4)
	_, err := data.ReadAt(buf, 0)
	require.NoError(t, err)
	require.True(t, buf[0] == buf[1] && buf[1] == buf[2] && buf[2] == buf[3],
		"final bytes must belong to exactly one writer's payload, never a torn mix")
}

func TestLingerModeDefersDataFsyncAndJournalRemoval(t *testing.T) {
	engine, _, dir := newTestEngine(t)

	var enqueued []string
	engine.Linger = true
	engine.EnqueueLinger = func(path string, size int64) {
		enqueued = append(enqueued, path)
	}

	tx := engine.NewTransaction()
	require.NoError(t, tx.AddWrite(0, []byte("linger")))
	require.NoError(t, tx.Commit())

	require.Len(t, enqueued, 1)
	entries, err := dir.Scan()
	require.NoError(t, err)
	require.Len(t, entries, 1, "journal record must still exist until the autosync worker unlinks it")
}

func TestCommitOnlyValidFromBuilding(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	tx := engine.NewTransaction()
	require.NoError(t, tx.Commit())
	require.Error(t, tx.Commit())
}

func TestAddOpsRejectedAfterBuilding(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	tx := engine.NewTransaction()
	require.NoError(t, tx.Commit())

	require.Error(t, tx.AddWrite(0, []byte("x")))
	require.Error(t, tx.AddRead(0, make([]byte, 1)))
}
