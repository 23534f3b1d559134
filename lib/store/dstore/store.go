package dstore

import (
	"context"
	"errors"
	"time"

	"github.com/ValentinKolb/oKV/lib/db"
	"github.com/ValentinKolb/oKV/lib/store"
	"github.com/ValentinKolb/oKV/lib/store/dstore/internal"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
)

// busyRetries is how often a request is repeated while the node host reports ErrSystemBusy
const busyRetries = 5

var log = logger.GetLogger("store")

// raftStore sends every operation of one raft shard through a node host.
// Writes are proposals, reads are linearizable except GetDBInfo.
type raftStore struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	session *client.Session
	timeout time.Duration
}

// NewDistributedStore returns a store replicated by the raft shard shardID of nh.
// The shard must already be started on nh. The result also implements
// store.IBatchStore and store.IPrefixStore.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) store.IStore {
	return &raftStore{
		nh:      nh,
		shardID: shardID,
		session: nh.GetNoOPSession(shardID),
		timeout: timeout,
	}
}

// whileBusy calls fn until it returns something other than ErrSystemBusy or
// the retries are used up
func (s *raftStore) whileBusy(op string, fn func() error) error {
	for attempt := 1; attempt <= busyRetries; attempt++ {
		err := fn()
		if !errors.Is(err, dragonboat.ErrSystemBusy) {
			return err
		}
		log.Infof("shard %d: %s: system busy (%d/%d)", s.shardID, op, attempt, busyRetries)
		time.Sleep(s.timeout / 10)
	}
	return store.Errorf(store.RetCUnavailable, "%s: shard %d stayed busy", op, s.shardID)
}

// propose replicates cmd and converts the state machine result into a store error
func (s *raftStore) propose(cmd internal.Command) error {
	payload := cmd.Serialize()

	var res uint64
	var msg []byte
	err := s.whileBusy(cmd.Type.String(), func() error {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		r, err := s.nh.SyncPropose(ctx, s.session, payload)
		res, msg = r.Value, r.Data
		return err
	})

	var se *store.Error
	switch {
	case errors.As(err, &se):
		return se
	case err != nil:
		return store.NewError(store.RetCUnavailable, err.Error())
	case res != uint64(store.RetCSuccess):
		return store.NewError(store.RetCode(res), string(msg))
	}
	return nil
}

// lookup runs q against the state machine and expects a result of type R.
// stale lookups skip the read index and may miss the latest writes.
func lookup[R any](s *raftStore, q internal.Query, stale bool) (R, error) {
	var zero R

	var res any
	err := s.whileBusy(q.Type.String(), func() error {
		var err error
		if stale {
			res, err = s.nh.StaleRead(s.shardID, q)
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		res, err = s.nh.SyncRead(ctx, s.shardID, q)
		return err
	})
	if err != nil {
		var se *store.Error
		if errors.As(err, &se) {
			return zero, se
		}
		return zero, store.NewError(store.RetCUnavailable, err.Error())
	}

	out, ok := res.(R)
	if !ok {
		return zero, store.Errorf(store.RetCInternalError, "%s: got %T, want %T", q.Type, res, zero)
	}
	return out, nil
}

func (s *raftStore) Set(key string, value []byte) error {
	return s.propose(internal.Command{
		Type:    internal.CommandTSet,
		Entries: []db.KeyValue{{Key: key, Value: value}},
	})
}

func (s *raftStore) Delete(key string) error {
	return s.propose(internal.Command{
		Type:    internal.CommandTDelete,
		Entries: []db.KeyValue{{Key: key}},
	})
}

func (s *raftStore) Get(key string) ([]byte, bool, error) {
	res, err := lookup[internal.QueryResult](s, internal.Query{Type: internal.QueryTGet, Key: key}, false)
	if err != nil {
		return nil, false, err
	}
	return res.Value, res.Ok, nil
}

func (s *raftStore) Has(key string) (bool, error) {
	return lookup[bool](s, internal.Query{Type: internal.QueryTHas, Key: key}, false)
}

func (s *raftStore) Keys() ([]string, error) {
	return s.KeysWithPrefix("")
}

// GetDBInfo reads the statistics of the local replica
func (s *raftStore) GetDBInfo() (db.DatabaseInfo, error) {
	return lookup[db.DatabaseInfo](s, internal.Query{Type: internal.QueryTGetDBInfo}, true)
}

// MultiSet replicates all entries as one log entry
func (s *raftStore) MultiSet(entries []db.KeyValue) error {
	if len(entries) == 0 {
		return nil
	}
	return s.propose(internal.Command{Type: internal.CommandTSetMany, Entries: entries})
}

func (s *raftStore) MultiGet(keys []string) ([][]byte, []bool, error) {
	if len(keys) == 0 {
		return [][]byte{}, []bool{}, nil
	}
	res, err := lookup[internal.MultiQueryResult](s, internal.Query{Type: internal.QueryTMultiGet, Keys: keys}, false)
	if err != nil {
		return nil, nil, err
	}
	return res.Values, res.Oks, nil
}

// MultiDelete replicates all deletions as one log entry
func (s *raftStore) MultiDelete(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	entries := make([]db.KeyValue, len(keys))
	for i, key := range keys {
		entries[i].Key = key
	}
	return s.propose(internal.Command{Type: internal.CommandTDeleteMany, Entries: entries})
}

func (s *raftStore) KeysWithPrefix(prefix string) ([]string, error) {
	return lookup[[]string](s, internal.Query{Type: internal.QueryTKeys, Key: prefix}, false)
}
