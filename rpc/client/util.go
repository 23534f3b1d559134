package client

import (
	"github.com/lni/dragonboat/v4/logger"

	"github.com/ValentinKolb/oKV/lib/store"
	"github.com/ValentinKolb/oKV/rpc/common"
	"github.com/ValentinKolb/oKV/rpc/serializer"
	"github.com/ValentinKolb/oKV/rpc/transport"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter holds everything an RPC client needs to reach one shard
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invoke sends req to the shard and returns the response.
// Failures to reach the server or to decode its answer are RetCUnavailable store errors,
// errors reported by the server are RetCInternalError store errors.
func (a *rpcClientAdapter) invoke(req *common.Message) (*common.Message, error) {
	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return nil, store.Errorf(store.RetCInvalidOperation, "failed to serialize %s request: %v", req.MsgType, err)
	}

	respBytes, err := a.transport.Send(a.shardId, reqBytes)
	if err != nil {
		Logger.Debugf("%s request to shard %d failed: %v", req.MsgType, a.shardId, err)
		return nil, store.Errorf(store.RetCUnavailable, "shard %d: %v", a.shardId, err)
	}

	resp := &common.Message{}
	if err = a.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, store.Errorf(store.RetCUnavailable, "shard %d: invalid response: %v", a.shardId, err)
	}

	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, store.Errorf(store.RetCInternalError, "shard %d: %s", a.shardId, resp.Err)
	}

	if resp.MsgType != req.MsgType {
		return nil, store.Errorf(store.RetCUnavailable, "shard %d: unexpected message type %s, expected %s",
			a.shardId, resp.MsgType, req.MsgType)
	}

	return resp, nil
}
