package ordered

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/oKV/lib/db"
	"github.com/ValentinKolb/oKV/lib/db/engines/maple"
	"github.com/ValentinKolb/oKV/lib/ordered/codec"
	"github.com/ValentinKolb/oKV/lib/store"
	"github.com/ValentinKolb/oKV/lib/store/lstore"
)

// newBackingStore returns an in-memory flat store with batch and prefix support
func newBackingStore(tb testing.TB) store.IStore {
	tb.Helper()
	st, err := lstore.NewLocalStore(func() (db.KVDB, error) {
		return maple.NewMapleDB(nil), nil
	})
	require.NoError(tb, err)
	return st
}

// plainStore hides the optional interfaces of the wrapped store
type plainStore struct {
	store.IStore
}

var errInjected = errors.New("injected failure")

// failingStore fails every call while fail is set. It only offers IStore, so the
// ordered layer goes through the per-key fallbacks.
type failingStore struct {
	store.IStore
	fail atomic.Bool
}

func (f *failingStore) Set(key string, value []byte) error {
	if f.fail.Load() {
		return errInjected
	}
	return f.IStore.Set(key, value)
}

func (f *failingStore) Delete(key string) error {
	if f.fail.Load() {
		return errInjected
	}
	return f.IStore.Delete(key)
}

func (f *failingStore) Get(key string) ([]byte, bool, error) {
	if f.fail.Load() {
		return nil, false, errInjected
	}
	return f.IStore.Get(key)
}

func (f *failingStore) Keys() ([]string, error) {
	if f.fail.Load() {
		return nil, errInjected
	}
	return f.IStore.Keys()
}

// countdownStore lets setsLeft calls of Set succeed and fails every Set after that.
// It only offers IStore, so batches are written key by key.
type countdownStore struct {
	store.IStore
	setsLeft atomic.Int64
}

func (c *countdownStore) Set(key string, value []byte) error {
	if c.setsLeft.Add(-1) < 0 {
		return errInjected
	}
	return c.IStore.Set(key, value)
}

// openDB creates and opens a DB that is closed at the end of the test
func openDB(tb testing.TB, name string, st store.IStore, opts *Options) *DB {
	tb.Helper()
	d, err := New(name, st, opts)
	require.NoError(tb, err)
	require.NoError(tb, d.Open())
	tb.Cleanup(func() {
		_ = d.Close()
	})
	return d
}

// putText stores text values under the given keys
func putText(tb testing.TB, d *DB, keys ...string) {
	tb.Helper()
	for _, key := range keys {
		require.NoError(tb, d.Put([]byte(key), codec.Text("v-"+key)))
	}
}

// collect drains it and returns the keys it yielded
func collect(tb testing.TB, it *Iterator) []string {
	tb.Helper()
	defer it.Close()

	keys := []string{}
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(tb, it.Err())
	return keys
}

func toStrings(keys [][]byte) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = string(key)
	}
	return out
}
