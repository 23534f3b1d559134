package lstore

import (
	"strings"

	"github.com/ValentinKolb/oKV/lib/db"
	"github.com/ValentinKolb/oKV/lib/store"
)

type storeImpl struct {
	db db.KVDB
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// The returned store also implements store.IBatchStore and store.IPrefixStore.
func NewLocalStore(factory store.DBFactory) (store.IStore, error) {
	database, err := factory()
	if err != nil {
		return nil, store.Errorf(store.RetCInternalError, "failed to create database: %v", err)
	}
	return &storeImpl{db: database}, nil
}

// require returns an error if the database does not support feature
func (s *storeImpl) require(feature db.Feature, op string) error {
	if !s.db.SupportsFeature(feature) {
		return store.Errorf(store.RetCUnsupportedOperation, "%s operation is not supported", op)
	}
	return nil
}

// wrap converts database errors into store errors
func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return store.Errorf(store.RetCInternalError, "%s failed: %v", op, err)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if err := s.require(db.FeatureSet, "Set"); err != nil {
		return err
	}
	return wrap(s.db.Set(key, value), "Set")
}

func (s *storeImpl) Delete(key string) error {
	if err := s.require(db.FeatureDelete, "Delete"); err != nil {
		return err
	}
	return wrap(s.db.Delete(key), "Delete")
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if err := s.require(db.FeatureGet, "Get"); err != nil {
		return nil, false, err
	}
	val, ok, err := s.db.Get(key)
	return val, ok, wrap(err, "Get")
}

func (s *storeImpl) Has(key string) (bool, error) {
	if err := s.require(db.FeatureHas, "Has"); err != nil {
		return false, err
	}
	ok, err := s.db.Has(key)
	return ok, wrap(err, "Has")
}

func (s *storeImpl) Keys() ([]string, error) {
	if err := s.require(db.FeatureKeys, "Keys"); err != nil {
		return nil, err
	}
	keys, err := s.db.Keys("")
	return keys, wrap(err, "Keys")
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

// --------------------------------------------------------------------------
// Batch and Prefix Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) MultiSet(entries []db.KeyValue) error {
	if err := s.require(db.FeatureSet, "MultiSet"); err != nil {
		return err
	}
	return wrap(s.db.SetMany(entries), "MultiSet")
}

func (s *storeImpl) MultiGet(keys []string) ([][]byte, []bool, error) {
	if err := s.require(db.FeatureGet, "MultiGet"); err != nil {
		return nil, nil, err
	}

	values := make([][]byte, len(keys))
	loaded := make([]bool, len(keys))
	for i, key := range keys {
		val, ok, err := s.db.Get(key)
		if err != nil {
			return nil, nil, wrap(err, "MultiGet")
		}
		values[i], loaded[i] = val, ok
	}
	return values, loaded, nil
}

func (s *storeImpl) MultiDelete(keys []string) error {
	if err := s.require(db.FeatureDelete, "MultiDelete"); err != nil {
		return err
	}
	return wrap(s.db.DeleteMany(keys), "MultiDelete")
}

func (s *storeImpl) KeysWithPrefix(prefix string) ([]string, error) {
	if err := s.require(db.FeatureKeys, "KeysWithPrefix"); err != nil {
		return nil, err
	}
	keys, err := s.db.Keys(prefix)
	if err != nil {
		return nil, wrap(err, "KeysWithPrefix")
	}

	// engines filter on their own, but a prefix match is part of the contract
	out := keys[:0]
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out, nil
}

// Close closes the underlying database
func (s *storeImpl) Close() error {
	return s.db.Close()
}
