package client

import (
	"encoding/json"

	"github.com/ValentinKolb/oKV/lib/db"
	"github.com/ValentinKolb/oKV/lib/store"
	"github.com/ValentinKolb/oKV/rpc/common"
	"github.com/ValentinKolb/oKV/rpc/serializer"
	"github.com/ValentinKolb/oKV/rpc/transport"
)

// RPCStore is a store.IStore backed by one shard of a remote server.
// It also implements store.IBatchStore and store.IPrefixStore, the server
// answers with an error if the shard's store does not.
type RPCStore struct {
	rpcClientAdapter
}

var (
	_ store.IStore       = (*RPCStore)(nil)
	_ store.IBatchStore  = (*RPCStore)(nil)
	_ store.IPrefixStore = (*RPCStore)(nil)
)

// NewRPCStore connects the transport and returns a store for shardId
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*RPCStore, error) {
	if err := transport.Connect(config); err != nil {
		return nil, store.Errorf(store.RetCUnavailable, "failed to connect: %v", err)
	}

	return &RPCStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (s *RPCStore) Set(key string, value []byte) error {
	_, err := s.invoke(common.NewSetRequest(key, value))
	return err
}

func (s *RPCStore) Delete(key string) error {
	_, err := s.invoke(common.NewDeleteRequest(key))
	return err
}

func (s *RPCStore) Get(key string) ([]byte, bool, error) {
	resp, err := s.invoke(common.NewGetRequest(key))
	if err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Ok, nil
}

func (s *RPCStore) Has(key string) (bool, error) {
	resp, err := s.invoke(common.NewHasRequest(key))
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (s *RPCStore) Keys() ([]string, error) {
	resp, err := s.invoke(common.NewKeysRequest())
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (s *RPCStore) GetDBInfo() (db.DatabaseInfo, error) {
	resp, err := s.invoke(common.NewInfoRequest())
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	var info db.DatabaseInfo
	if err = json.Unmarshal(resp.Value, &info); err != nil {
		return db.DatabaseInfo{}, store.Errorf(store.RetCUnavailable, "invalid info response: %v", err)
	}
	return info, nil
}

// --------------------------------------------------------------------------
// Batch and Prefix Methods
// --------------------------------------------------------------------------

func (s *RPCStore) MultiSet(entries []db.KeyValue) error {
	if len(entries) == 0 {
		return nil
	}
	keys := make([]string, len(entries))
	values := make([][]byte, len(entries))
	for i, e := range entries {
		keys[i], values[i] = e.Key, e.Value
	}
	_, err := s.invoke(common.NewMultiSetRequest(keys, values))
	return err
}

func (s *RPCStore) MultiGet(keys []string) ([][]byte, []bool, error) {
	if len(keys) == 0 {
		return nil, nil, nil
	}
	resp, err := s.invoke(common.NewMultiGetRequest(keys))
	if err != nil {
		return nil, nil, err
	}
	if len(resp.Values) != len(keys) || len(resp.Oks) != len(keys) {
		return nil, nil, store.Errorf(store.RetCUnavailable,
			"MultiGet returned %d values and %d flags for %d keys", len(resp.Values), len(resp.Oks), len(keys))
	}
	return resp.Values, resp.Oks, nil
}

func (s *RPCStore) MultiDelete(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.invoke(common.NewMultiDeleteRequest(keys))
	return err
}

func (s *RPCStore) KeysWithPrefix(prefix string) ([]string, error) {
	resp, err := s.invoke(common.NewKeysWithPrefixRequest(prefix))
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// Close closes the transport
func (s *RPCStore) Close() error {
	return s.transport.Close()
}
