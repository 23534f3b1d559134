package client

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/oKV/lib/db"
	"github.com/ValentinKolb/oKV/lib/db/engines/maple"
	"github.com/ValentinKolb/oKV/lib/ordered"
	"github.com/ValentinKolb/oKV/lib/ordered/codec"
	"github.com/ValentinKolb/oKV/lib/store"
	"github.com/ValentinKolb/oKV/lib/store/lstore"
	"github.com/ValentinKolb/oKV/rpc/common"
	"github.com/ValentinKolb/oKV/rpc/serializer"
	"github.com/ValentinKolb/oKV/rpc/server"
)

// loopbackTransport hands requests straight to a server adapter
type loopbackTransport struct {
	serializer serializer.IRPCSerializer
	adapter    server.IRPCServerAdapter
	stores     map[uint64]store.IStore
	down       bool
	closed     bool
}

func (l *loopbackTransport) Connect(common.ClientConfig) error {
	if l.down {
		return errors.New("connection refused")
	}
	return nil
}

func (l *loopbackTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	if l.down {
		return nil, errors.New("connection refused")
	}
	var msg common.Message
	if err := l.serializer.Deserialize(req, &msg); err != nil {
		return nil, err
	}
	st, ok := l.stores[shardId]
	if !ok {
		return l.serializer.Serialize(*common.NewErrorResponse("shard not found"))
	}
	return l.serializer.Serialize(*l.adapter.Handle(&msg, st))
}

func (l *loopbackTransport) Close() error {
	l.closed = true
	return nil
}

func newLoopback(t *testing.T, ser serializer.IRPCSerializer) *loopbackTransport {
	t.Helper()
	st, err := lstore.NewLocalStore(func() (db.KVDB, error) {
		return maple.NewMapleDB(nil), nil
	})
	require.NoError(t, err)
	return &loopbackTransport{
		serializer: ser,
		adapter:    server.NewIStoreServerAdapter(),
		stores:     map[uint64]store.IStore{1: st},
	}
}

func newTestStore(t *testing.T, ser serializer.IRPCSerializer) (*RPCStore, *loopbackTransport) {
	t.Helper()
	tr := newLoopback(t, ser)
	s, err := NewRPCStore(1, common.ClientConfig{Endpoints: []string{"loopback"}}, tr, ser)
	require.NoError(t, err)
	return s, tr
}

func TestRPCStore(t *testing.T) {
	for name, ser := range map[string]serializer.IRPCSerializer{
		"Binary": serializer.NewBinarySerializer(),
		"JSON":   serializer.NewJSONSerializer(),
	} {
		t.Run(name, func(t *testing.T) {
			s, tr := newTestStore(t, ser)

			require.NoError(t, s.Set("ns!a", []byte("1")))
			require.NoError(t, s.MultiSet([]db.KeyValue{
				{Key: "ns!b", Value: []byte("2")},
				{Key: "other!c", Value: []byte("3")},
			}))

			val, ok, err := s.Get("ns!a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []byte("1"), val)

			_, ok, err = s.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = s.Has("ns!b")
			require.NoError(t, err)
			assert.True(t, ok)

			keys, err := s.KeysWithPrefix("ns!")
			require.NoError(t, err)
			sort.Strings(keys)
			assert.Equal(t, []string{"ns!a", "ns!b"}, keys)

			keys, err = s.Keys()
			require.NoError(t, err)
			assert.Len(t, keys, 3)

			values, oks, err := s.MultiGet([]string{"ns!b", "missing"})
			require.NoError(t, err)
			assert.Equal(t, []bool{true, false}, oks)
			assert.Equal(t, []byte("2"), values[0])

			require.NoError(t, s.MultiDelete([]string{"ns!a", "ns!b"}))
			require.NoError(t, s.Delete("other!c"))

			info, err := s.GetDBInfo()
			require.NoError(t, err)
			assert.Equal(t, db.ImplMaple, info.DbType)
			assert.Zero(t, info.KeyCount)

			require.NoError(t, s.Close())
			assert.True(t, tr.closed)
		})
	}
}

func TestRPCStoreErrors(t *testing.T) {
	ser := serializer.NewBinarySerializer()

	t.Run("ConnectFails", func(t *testing.T) {
		tr := newLoopback(t, ser)
		tr.down = true
		_, err := NewRPCStore(1, common.ClientConfig{}, tr, ser)
		assert.ErrorIs(t, err, store.NewError(store.RetCUnavailable, ""))
	})

	t.Run("Unavailable", func(t *testing.T) {
		s, tr := newTestStore(t, ser)
		tr.down = true
		_, _, err := s.Get("a")
		assert.ErrorIs(t, err, store.NewError(store.RetCUnavailable, ""))
	})

	t.Run("UnknownShard", func(t *testing.T) {
		tr := newLoopback(t, ser)
		s, err := NewRPCStore(7, common.ClientConfig{}, tr, ser)
		require.NoError(t, err)
		err = s.Set("a", []byte("b"))
		assert.ErrorIs(t, err, store.NewError(store.RetCInternalError, ""))
		assert.Contains(t, err.Error(), "shard not found")
	})

	t.Run("EmptyBatches", func(t *testing.T) {
		s, tr := newTestStore(t, ser)
		tr.down = true
		assert.NoError(t, s.MultiSet(nil))
		assert.NoError(t, s.MultiDelete(nil))
		values, oks, err := s.MultiGet(nil)
		assert.NoError(t, err)
		assert.Nil(t, values)
		assert.Nil(t, oks)
	})
}

func TestOrderedOverRPC(t *testing.T) {
	s, _ := newTestStore(t, serializer.NewBinarySerializer())

	d, err := ordered.New("remote", s, nil)
	require.NoError(t, err)
	require.NoError(t, d.Open())

	require.NoError(t, d.Batch([]ordered.Operation{
		ordered.Put([]byte("c"), codec.Text("3")),
		ordered.Put([]byte("a"), codec.Bytes([]byte{0, 1})),
		ordered.Put([]byte("b"), codec.Text("2")),
		ordered.Del([]byte("c")),
	}))

	it := d.Iterator(ordered.IteratorOptions{Reverse: true})
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"b", "a"}, got)

	val, err := d.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, val.Equal(codec.Bytes([]byte{0, 1})))
	require.NoError(t, d.Close())

	// a reopened database finds the keys on the server
	d2, err := ordered.New("remote", s, nil)
	require.NoError(t, err)
	require.NoError(t, d2.Open())
	n, err := d2.Length()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, d2.Close())
}
