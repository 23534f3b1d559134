package bolt

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/oKV/lib/db"
	dbtesting "github.com/ValentinKolb/oKV/lib/db/testing"
	"github.com/ValentinKolb/oKV/lib/db/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// factory opens a fresh database file inside a temp directory for every call
func factory(tb testing.TB) dbtesting.DBFactory {
	dir := tb.TempDir()
	var counter atomic.Int64

	return func() db.KVDB {
		path := filepath.Join(dir, fmt.Sprintf("db-%d.bolt", counter.Add(1)))
		database, err := NewBoltDB(&DBOptions{Path: path, NoSync: true})
		if err != nil {
			// the factory runs inside sub tests, Fatalf on tb would exit the wrong goroutine
			panic(fmt.Sprintf("failed to open bolt db: %v", err))
		}
		return database
	}
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "BoltDB", factory(t))
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "BoltDB", factory(b))
}

func TestKeysAreSorted(t *testing.T) {
	database := factory(t)()
	defer database.Close()

	for _, key := range []string{"n!c", "n!a", "n!b", "m!z", "o!a"} {
		require.NoError(t, database.Set(key, []byte("v")))
	}

	keys, err := database.Keys("n!")
	require.NoError(t, err)
	assert.Equal(t, []string{"n!a", "n!b", "n!c"}, keys)
}

func TestEmptyKeyRejected(t *testing.T) {
	database := factory(t)()
	defer database.Close()

	assert.ErrorIs(t, database.Set("", []byte("v")), ErrKeyRequired)
	assert.ErrorIs(t, database.SetMany([]db.KeyValue{{Key: "a"}, {Key: ""}}), ErrKeyRequired)

	// the rejected batch wrote nothing
	has, err := database.Has("a")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.bolt")

	database, err := NewBoltDB(&DBOptions{Path: path})
	require.NoError(t, err)
	require.NoError(t, database.SetMany([]db.KeyValue{
		{Key: "a", Value: []byte("1")},
		{Key: "b", Value: []byte{}},
	}))
	require.NoError(t, database.Close())

	database, err = NewBoltDB(&DBOptions{Path: path})
	require.NoError(t, err)
	defer database.Close()

	value, ok, err := database.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), value)

	value, ok, err = database.Get("b")
	require.NoError(t, err)
	assert.True(t, ok, "empty value must survive a reopen")
	assert.Empty(t, value)
}

func TestSnapshotCompatibleWithOtherEngines(t *testing.T) {
	source := factory(t)()
	defer source.Close()

	require.NoError(t, source.Set("x", []byte("1")))
	require.NoError(t, source.Set("y", []byte("2")))

	var buf bytes.Buffer
	require.NoError(t, source.Save(&buf))

	// the snapshot is readable by the generic reader
	var seen []string
	require.NoError(t, readKeys(&buf, &seen))
	assert.Equal(t, []string{"x", "y"}, seen)
}

func TestInfo(t *testing.T) {
	database := factory(t)()
	defer database.Close()

	require.NoError(t, database.Set("a", []byte("1")))

	info := database.GetInfo()
	assert.Equal(t, db.ImplBolt, info.DbType)
	assert.Equal(t, 1, info.KeyCount)
	assert.True(t, database.SupportsFeature(db.FeaturePrefixScan|db.FeatureAtomicBatch))
}

func TestInfoAfterClose(t *testing.T) {
	database := factory(t)()
	require.NoError(t, database.Set("a", []byte("1")))
	require.NoError(t, database.Close())

	info := database.GetInfo()
	assert.Equal(t, db.ImplBolt, info.DbType)
	assert.Zero(t, info.KeyCount)
	assert.Zero(t, info.SizeBytes)
}

func readKeys(r io.Reader, out *[]string) error {
	return util.ReadSnapshot(r, func(key string, _ []byte) error {
		*out = append(*out, key)
		return nil
	})
}
