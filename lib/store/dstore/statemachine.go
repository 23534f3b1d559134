package dstore

import (
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/oKV/lib/db"
	"github.com/ValentinKolb/oKV/lib/store"
	"github.com/ValentinKolb/oKV/lib/store/dstore/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

// slowUpdate is the batch duration above which Update logs a notice
const slowUpdate = time.Millisecond

// shardMachine is the replicated state of one raft shard: a KVDB that applies
// committed commands and answers queries.
type shardMachine struct {
	replicaID uint64
	shardID   uint64
	kv        db.KVDB
}

// CreateStateMachineFactory returns the factory passed to NodeHost.StartConcurrentReplica.
// Every replica gets its own database from dbFactory. A failing dbFactory panics because
// dragonboat has no way to report it.
func CreateStateMachineFactory(dbFactory store.DBFactory) func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
	return func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
		kv, err := dbFactory()
		if err != nil {
			log.Panicf("shard %d replica %d: failed to create database: %v", shardID, replicaID, err)
		}
		return &shardMachine{replicaID: replicaID, shardID: shardID, kv: kv}
	}
}

// require fails with RetCUnsupportedOperation if the database lacks feature
func (m *shardMachine) require(feature db.Feature, op fmt.Stringer) error {
	if m.kv.SupportsFeature(feature) {
		return nil
	}
	return store.Errorf(store.RetCUnsupportedOperation, "%s operation is not supported", op)
}

// Lookup answers a read-only internal.Query
func (m *shardMachine) Lookup(itf interface{}) (interface{}, error) {
	q, ok := itf.(internal.Query)
	if !ok {
		return nil, store.Errorf(store.RetCInternalError, "invalid query type: %T", itf)
	}

	var (
		out any
		err error
	)
	switch q.Type {
	case internal.QueryTGet:
		if err = m.require(db.FeatureGet, q.Type); err != nil {
			return nil, err
		}
		var res internal.QueryResult
		res.Value, res.Ok, err = m.kv.Get(q.Key)
		out = res
	case internal.QueryTHas:
		if err = m.require(db.FeatureHas, q.Type); err != nil {
			return nil, err
		}
		out, err = m.kv.Has(q.Key)
	case internal.QueryTKeys:
		if err = m.require(db.FeatureKeys, q.Type); err != nil {
			return nil, err
		}
		out, err = m.kv.Keys(q.Key)
	case internal.QueryTMultiGet:
		if err = m.require(db.FeatureGet, q.Type); err != nil {
			return nil, err
		}
		out, err = m.multiGet(q.Keys)
	case internal.QueryTGetDBInfo:
		return m.kv.GetInfo(), nil
	default:
		return nil, store.Errorf(store.RetCInvalidOperation, "unknown query: %d", q.Type)
	}

	if err != nil {
		return nil, store.Errorf(store.RetCInternalError, "%s failed: %v", q.Type, err)
	}
	return out, nil
}

func (m *shardMachine) multiGet(keys []string) (internal.MultiQueryResult, error) {
	res := internal.MultiQueryResult{
		Oks:    make([]bool, len(keys)),
		Values: make([][]byte, len(keys)),
	}
	for i, key := range keys {
		val, ok, err := m.kv.Get(key)
		if err != nil {
			return internal.MultiQueryResult{}, err
		}
		res.Values[i], res.Oks[i] = val, ok
	}
	return res, nil
}

// result is the sm.Result carrying code and a formatted message back to the proposer
func result(code store.RetCode, format string, args ...any) sm.Result {
	return sm.Result{Value: uint64(code), Data: []byte(fmt.Sprintf(format, args...))}
}

// apply runs one decoded command against the database
func (m *shardMachine) apply(cmd internal.Command) sm.Result {
	feature, err := cmd.Type.ToDBFeature()
	if err != nil {
		return result(store.RetCInvalidOperation, "unknown command: %s", cmd.Type)
	}
	if err := m.require(feature, cmd.Type); err != nil {
		return result(store.RetCUnsupportedOperation, "%s operation is not supported", cmd.Type)
	}

	switch cmd.Type {
	case internal.CommandTSet:
		if len(cmd.Entries) != 1 {
			return result(store.RetCInvalidOperation, "%s expects one entry, got %d", cmd.Type, len(cmd.Entries))
		}
		err = m.kv.Set(cmd.Entries[0].Key, cmd.Entries[0].Value)
	case internal.CommandTDelete:
		if len(cmd.Entries) != 1 {
			return result(store.RetCInvalidOperation, "%s expects one entry, got %d", cmd.Type, len(cmd.Entries))
		}
		err = m.kv.Delete(cmd.Entries[0].Key)
	case internal.CommandTSetMany:
		err = m.kv.SetMany(cmd.Entries)
	case internal.CommandTDeleteMany:
		err = m.kv.DeleteMany(cmd.Keys())
	}
	if err != nil {
		return result(store.RetCInternalError, "%s failed: %v", cmd.Type, err)
	}
	return result(store.RetCSuccess, "%s: %d entries", cmd.Type, len(cmd.Entries))
}

// Update applies committed log entries in order. Broken entries get an error result,
// they never fail the whole batch.
func (m *shardMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {
	if len(entries) == 0 {
		return entries, nil
	}
	start := time.Now()

	for i, e := range entries {
		if len(e.Cmd) == 0 {
			entries[i].Result = result(store.RetCInvalidOperation, "empty command ignored")
			continue
		}
		var cmd internal.Command
		if err := cmd.Deserialize(e.Cmd); err != nil {
			entries[i].Result = result(store.RetCInternalError, "failed to deserialize command: %v", err)
			continue
		}
		entries[i].Result = m.apply(cmd)
	}

	if took := time.Since(start); took > slowUpdate {
		log.Infof("shard %d: applying %d entries took %s", m.shardID, len(entries), took)
	}
	return entries, nil
}

// PrepareSnapshot has nothing to capture, snapshots are taken fuzzy from the live database
func (m *shardMachine) PrepareSnapshot() (interface{}, error) {
	return nil, nil
}

// SaveSnapshot streams the database to w
func (m *shardMachine) SaveSnapshot(_ interface{}, w io.Writer, _ sm.ISnapshotFileCollection, _ <-chan struct{}) error {
	if !m.kv.SupportsFeature(db.FeatureSave) {
		return fmt.Errorf("shard %d: database cannot save snapshots", m.shardID)
	}
	return m.kv.Save(w)
}

// RecoverFromSnapshot replaces the database content with the snapshot read from r
func (m *shardMachine) RecoverFromSnapshot(r io.Reader, _ []sm.SnapshotFile, _ <-chan struct{}) error {
	if !m.kv.SupportsFeature(db.FeatureLoad) {
		return fmt.Errorf("shard %d: database cannot load snapshots", m.shardID)
	}
	return m.kv.Load(r)
}

func (m *shardMachine) Close() error {
	return m.kv.Close()
}
