package ordered

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/oKV/lib/ordered/codec"
	"github.com/ValentinKolb/oKV/lib/store"
)

func TestPutGetRoundTrip(t *testing.T) {
	d := openDB(t, "roundtrip", newBackingStore(t), nil)

	structured, err := codec.JSON(map[string]any{"n": 1, "tags": []string{"a"}})
	require.NoError(t, err)

	tests := []struct {
		name  string
		value codec.Value
	}{
		{"binary with zero bytes", codec.Bytes([]byte{0, 1, 0, 0xff, 0xfe})},
		{"invalid utf8", codec.Bytes([]byte{0xc3, 0x28, 0xa0, 0xa1})},
		{"empty bytes", codec.Bytes(nil)},
		{"text", codec.Text("hello world")},
		{"empty text", codec.Text("")},
		{"unicode text", codec.Text("grüße 🌍")},
		{"structured", structured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := []byte("key-" + tt.name)
			require.NoError(t, d.Put(key, tt.value))

			got, err := d.Get(key)
			require.NoError(t, err)
			assert.Equal(t, tt.value.Kind(), got.Kind())
			assert.Equal(t, tt.value.Bytes(), got.Bytes())
		})
	}
}

func TestBinaryKeys(t *testing.T) {
	d := openDB(t, "binkeys", newBackingStore(t), nil)

	key := []byte{0, 0xff, '!', 0x80}
	require.NoError(t, d.Put(key, codec.Text("x")))

	got, err := d.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "x", got.String())

	keys, err := d.Keys()
	require.NoError(t, err)
	assert.Equal(t, [][]byte{key}, keys)
}

func TestPutIsIdempotent(t *testing.T) {
	d := openDB(t, "idem", newBackingStore(t), nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Put([]byte("k"), codec.Text("v")))
	}

	n, err := d.Length()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDelThenGetIsNotFound(t *testing.T) {
	d := openDB(t, "del", newBackingStore(t), nil)

	require.NoError(t, d.Put([]byte("k"), codec.Text("v")))
	require.NoError(t, d.Del([]byte("k")))

	_, err := d.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))

	ok, err := d.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting again is fine
	require.NoError(t, d.Del([]byte("k")))
}

func TestKeysAreOrdered(t *testing.T) {
	d := openDB(t, "order", newBackingStore(t), nil)
	putText(t, d, "b", "a", "c")

	keys, err := d.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, toStrings(keys))
}

func TestValidation(t *testing.T) {
	d := openDB(t, "validation", newBackingStore(t), nil)

	assert.ErrorIs(t, d.Put(nil, codec.Text("v")), ErrInvalidArgument)
	assert.ErrorIs(t, d.Put([]byte{}, codec.Text("v")), ErrInvalidArgument)
	assert.ErrorIs(t, d.Put([]byte("k"), codec.Value{}), ErrInvalidArgument)
	assert.ErrorIs(t, d.Del(nil), ErrInvalidArgument)

	_, err := d.Get(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = d.Has([]byte{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.ErrorIs(t, d.Batch([]Operation{{Type: 0, Key: []byte("k")}}), ErrInvalidArgument)
}

func TestInvalidBatchWritesNothing(t *testing.T) {
	d := openDB(t, "invalid-batch", newBackingStore(t), nil)
	putText(t, d, "keep")

	err := d.Batch([]Operation{
		Put([]byte("a"), codec.Text("1")),
		Del([]byte("keep")),
		Put([]byte("b"), codec.Value{}),
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	keys, err := d.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, toStrings(keys))
}

func TestBatch(t *testing.T) {
	t.Run("DeleteWins", func(t *testing.T) {
		d := openDB(t, "batch-del", newBackingStore(t), nil)

		require.NoError(t, d.Batch([]Operation{
			Put([]byte("x"), codec.Text("1")),
			Del([]byte("x")),
		}))

		_, err := d.Get([]byte("x"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteWinsInAnyOrder", func(t *testing.T) {
		d := openDB(t, "batch-del-first", newBackingStore(t), nil)
		putText(t, d, "x")

		require.NoError(t, d.Batch([]Operation{
			Del([]byte("x")),
			Put([]byte("x"), codec.Text("1")),
		}))

		_, err := d.Get([]byte("x"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("LastPutWins", func(t *testing.T) {
		d := openDB(t, "batch-last", newBackingStore(t), nil)

		require.NoError(t, d.Batch([]Operation{
			Put([]byte("k"), codec.Text("1")),
			Put([]byte("k"), codec.Text("2")),
			Put([]byte("k"), codec.Text("3")),
		}))

		v, err := d.Get([]byte("k"))
		require.NoError(t, err)
		assert.Equal(t, "3", v.String())
	})

	t.Run("Mixed", func(t *testing.T) {
		d := openDB(t, "batch-mixed", newBackingStore(t), nil)
		putText(t, d, "a", "b", "c")

		require.NoError(t, d.Batch([]Operation{
			Del([]byte("a")),
			Put([]byte("d"), codec.Text("4")),
			Del([]byte("c")),
			Put([]byte("b"), codec.Text("2")),
		}))

		keys, err := d.Keys()
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "d"}, toStrings(keys))

		v, err := d.Get([]byte("b"))
		require.NoError(t, err)
		assert.Equal(t, "2", v.String())
	})

	t.Run("Empty", func(t *testing.T) {
		d := openDB(t, "batch-empty", newBackingStore(t), nil)
		require.NoError(t, d.Batch(nil))
	})
}

func TestMultiPutMultiGetMultiRemove(t *testing.T) {
	d := openDB(t, "multi", newBackingStore(t), nil)

	require.NoError(t, d.MultiPut([]Entry{
		{Key: []byte("a"), Value: codec.Text("1")},
		{Key: []byte("b"), Value: codec.Bytes([]byte{2})},
	}))

	values, errs, err := d.MultiGet([][]byte{[]byte("a"), []byte("missing"), []byte("b")})
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.NoError(t, errs[0])
	assert.Equal(t, "1", values[0].String())
	assert.ErrorIs(t, errs[1], ErrNotFound)
	assert.NoError(t, errs[2])
	assert.Equal(t, []byte{2}, values[2].Bytes())

	require.NoError(t, d.MultiRemove([][]byte{[]byte("a"), []byte("b")}))
	n, err := d.Length()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReopenLoadsKeys(t *testing.T) {
	st := newBackingStore(t)

	d, err := New("persist", st, nil)
	require.NoError(t, err)
	require.NoError(t, d.Open())
	putText(t, d, "z", "x", "y")
	require.NoError(t, d.Close())

	d2 := openDB(t, "persist", st, nil)
	keys, err := d2.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, toStrings(keys))

	v, err := d2.Get([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "v-x", v.String())
}

func TestLifecycle(t *testing.T) {
	d, err := New("lifecycle", newBackingStore(t), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, d.Put([]byte("k"), codec.Text("v")), ErrNotOpen)
	_, err = d.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = d.Keys()
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, d.Close(), ErrNotOpen)

	it := d.Iterator(IteratorOptions{})
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ErrNotOpen)

	require.NoError(t, d.Open())
	require.NoError(t, d.Open())
	require.NoError(t, d.Put([]byte("k"), codec.Text("v")))
	require.NoError(t, d.Close())

	_, err = d.Length()
	assert.ErrorIs(t, err, ErrNotOpen)

	_, err = New("nil", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNamespacesAreIsolated(t *testing.T) {
	st := newBackingStore(t)
	a := openDB(t, "abc", st, nil)
	b := openDB(t, "abcd", st, nil)

	putText(t, a, "1")
	putText(t, b, "2")

	keys, err := a.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, toStrings(keys))

	keys, err = b.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, toStrings(keys))
}

func TestDestroy(t *testing.T) {
	st := newBackingStore(t)

	for _, name := range []string{"abc", "abcd", "bang!", "bang!!"} {
		d, err := New(name, st, nil)
		require.NoError(t, err)
		require.NoError(t, d.Open())
		putText(t, d, "k1", "k2")
		require.NoError(t, d.Close())
	}

	require.NoError(t, Destroy("abc", st))
	require.NoError(t, Destroy("bang!!", st))

	raw, err := st.Keys()
	require.NoError(t, err)
	sort.Strings(raw)
	assert.Equal(t, []string{"abcd!k1", "abcd!k2", "bang!!!k1", "bang!!!k2"}, raw)

	d := openDB(t, "abc", st, nil)
	n, err := d.Length()
	require.NoError(t, err)
	assert.Zero(t, n)

	// destroying an empty namespace is fine
	require.NoError(t, Destroy("nothing", st))
}

func TestWithoutOptionalStoreInterfaces(t *testing.T) {
	inner := newBackingStore(t)
	st := plainStore{IStore: inner}
	require.NotImplements(t, (*store.IBatchStore)(nil), st)
	require.NotImplements(t, (*store.IPrefixStore)(nil), st)

	require.NoError(t, inner.Set("other!x", []byte("foreign")))

	d := openDB(t, "plain", st, nil)
	putText(t, d, "b", "a")
	require.NoError(t, d.Batch([]Operation{Del([]byte("b")), Put([]byte("c"), codec.Text("3"))}))

	assert.Equal(t, []string{"a", "c"}, collect(t, d.Iterator(IteratorOptions{})))

	require.NoError(t, Destroy("plain", st))
	raw, err := inner.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"other!x"}, raw)
}

func TestStorageUnavailable(t *testing.T) {
	st := &failingStore{IStore: newBackingStore(t)}
	d := openDB(t, "failing", st, nil)
	putText(t, d, "a", "c")

	st.fail.Store(true)

	err := d.Put([]byte("b"), codec.Text("v"))
	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, errInjected)

	var oerr *Error
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, CodeStorageUnavailable, oerr.Code)

	_, err = d.Get([]byte("a"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	// the index is updated before the store is written
	ok, err := d.Has([]byte("b"))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, d.Del([]byte("c")), ErrStorageUnavailable)
	ok, err = d.Has([]byte("c"))
	require.NoError(t, err)
	assert.False(t, ok)

	it := d.Iterator(IteratorOptions{})
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ErrStorageUnavailable)

	assert.ErrorIs(t, Destroy("failing", st), ErrStorageUnavailable)

	d2, err := New("failing", st, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, d2.Open(), ErrStorageUnavailable)

	st.fail.Store(false)
	v, err := d.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, "v-a", v.String())

	// b never reached the store
	_, err = d.Get([]byte("b"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"a"}, collect(t, d.Iterator(IteratorOptions{})))

	// a later put repairs the key
	require.NoError(t, d.Put([]byte("b"), codec.Text("again")))
	v, err = d.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, "again", v.String())
}

func TestPartialMultiPutStaysIndexed(t *testing.T) {
	inner := newBackingStore(t)
	st := &countdownStore{IStore: inner}
	d := openDB(t, "p", st, nil)

	// the first Set succeeds, the second one fails
	st.setsLeft.Store(1)
	err := d.MultiPut([]Entry{
		{Key: []byte("a"), Value: codec.Text("1")},
		{Key: []byte("b"), Value: codec.Text("2")},
	})
	require.ErrorIs(t, err, ErrStorageUnavailable)

	raw, err := inner.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"p!a"}, raw)

	// every key the store holds is visible through the index
	keys, err := d.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, toStrings(keys))

	v, err := d.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())

	_, err = d.Get([]byte("b"))
	assert.ErrorIs(t, err, ErrNotFound)

	it := d.Iterator(IteratorOptions{})
	require.True(t, it.Next())
	assert.Equal(t, "a", string(it.Key()))
	assert.False(t, it.Next())
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())

	// reopening rebuilds the index from the store
	require.NoError(t, d.Close())
	require.NoError(t, d.Open())
	keys, err = d.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, toStrings(keys))
}

func TestIndexedKeyMissingInStore(t *testing.T) {
	st := newBackingStore(t)
	d := openDB(t, "diverged", st, nil)
	putText(t, d, "a", "b")

	// remove the value behind the layer's back
	require.NoError(t, st.Delete(codec.ApplyPrefix(codec.MakePrefix("diverged"), "a")))

	_, err := d.Get([]byte("a"))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"b"}, collect(t, d.Iterator(IteratorOptions{})))
}

func TestConcurrentWriters(t *testing.T) {
	d := openDB(t, "concurrent", newBackingStore(t), nil)

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := []byte(fmt.Sprintf("w%d-%03d", w, i))
				assert.NoError(t, d.Put(key, codec.Text("v")))
				if i%5 == 0 {
					assert.NoError(t, d.Del(key))
				}
			}
		}(w)
	}
	wg.Wait()

	n, err := d.Length()
	require.NoError(t, err)
	assert.Equal(t, workers*(perWorker-perWorker/5), n)

	keys, err := d.Keys()
	require.NoError(t, err)
	assert.True(t, sort.StringsAreSorted(toStrings(keys)))
}

func TestSplitBatch(t *testing.T) {
	dels, putKeys, putValues := splitBatch([]Operation{
		Put([]byte("a"), codec.Text("1")),
		Put([]byte("b"), codec.Text("1")),
		Del([]byte("b")),
		Put([]byte("a"), codec.Text("2")),
		Del([]byte("c")),
		Del([]byte("c")),
	})

	assert.Equal(t, []string{"b", "c"}, dels)
	assert.Equal(t, []string{"a"}, putKeys)
	require.Len(t, putValues, 1)
	assert.Equal(t, "2", putValues[0].String())
}

func TestErrorCodes(t *testing.T) {
	err := storageError("write", errInjected)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "StorageUnavailable")
	assert.Contains(t, err.Error(), errInjected.Error())

	// errors of this package are not wrapped twice
	assert.Same(t, ErrNotOpen, storageError("x", ErrNotOpen))
	assert.Nil(t, storageError("x", nil))

	assert.Equal(t, "NotFound", CodeNotFound.String())
}
