package server

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/oKV/lib/db"
	"github.com/ValentinKolb/oKV/lib/store"
	"github.com/ValentinKolb/oKV/rpc/common"
)

// NewIStoreServerAdapter returns the adapter that maps messages onto store.IStore and,
// when the store implements them, store.IBatchStore and store.IPrefixStore
func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	switch req.MsgType {
	case common.MsgTKVSet:
		return common.NewSetResponse(s.Set(req.Key, req.Value))
	case common.MsgTKVDelete:
		return common.NewDeleteResponse(s.Delete(req.Key))
	case common.MsgTKVGet:
		val, ok, err := s.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTKVHas:
		ok, err := s.Has(req.Key)
		return common.NewHasResponse(ok, err)
	case common.MsgTKVKeys:
		keys, err := s.Keys()
		return common.NewKeysResponse(keys, err)
	case common.MsgTKVInfo:
		return handleInfo(s)
	case common.MsgTKVKeysWithPrefix:
		ps, ok := s.(store.IPrefixStore)
		if !ok {
			return unsupported(req.MsgType)
		}
		keys, err := ps.KeysWithPrefix(req.Key)
		return common.NewKeysWithPrefixResponse(keys, err)
	case common.MsgTKVMultiSet, common.MsgTKVMultiGet, common.MsgTKVMultiDelete:
		bs, ok := s.(store.IBatchStore)
		if !ok {
			return unsupported(req.MsgType)
		}
		return handleBatch(req, bs)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}

func handleBatch(req *common.Message, bs store.IBatchStore) *common.Message {
	switch req.MsgType {
	case common.MsgTKVMultiSet:
		if len(req.Keys) != len(req.Values) {
			return common.NewMultiSetResponse(fmt.Errorf("got %d keys but %d values", len(req.Keys), len(req.Values)))
		}
		entries := make([]db.KeyValue, len(req.Keys))
		for i, key := range req.Keys {
			entries[i] = db.KeyValue{Key: key, Value: req.Values[i]}
		}
		return common.NewMultiSetResponse(bs.MultiSet(entries))
	case common.MsgTKVMultiGet:
		values, oks, err := bs.MultiGet(req.Keys)
		return common.NewMultiGetResponse(values, oks, err)
	default:
		return common.NewMultiDeleteResponse(bs.MultiDelete(req.Keys))
	}
}

func handleInfo(s store.IStore) *common.Message {
	info, err := s.GetDBInfo()
	if err != nil {
		return common.NewInfoResponse(nil, err)
	}
	raw, err := json.Marshal(info)
	return common.NewInfoResponse(raw, err)
}

func unsupported(t common.MessageType) *common.Message {
	return common.NewErrorResponse(fmt.Sprintf("RPC IStoreAdapter - %s is not supported by this store", t))
}
