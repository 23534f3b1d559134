// Package client implements store.IStore on top of an RPC transport, so an ordered store
// can run in a different process than the server holding its data.
//
// The package focuses on:
//   - Transparent access to one shard of a remote oKV server
//   - Integration with the transport (http, tcp, unix) and serialization layers
//   - Conversion of transport and server failures into *store.Error values
//
// Key Components:
//
//   - RPCStore: created by NewRPCStore. It forwards every call to one shard of a remote
//     server. Besides store.IStore it implements store.IBatchStore and
//     store.IPrefixStore, the server answers with an error if the store of the shard
//     does not.
//
//   - rpcClientAdapter: the shared plumbing of every call. It serializes a
//     common.Message, sends it through the transport, decodes the answer and checks
//     that the response type matches the request type.
//
// Round trips of the ordered layer:
//
//	An ordered store backed by an RPCStore needs one round trip per call it makes to
//	the flat store, never one per key of a range:
//
//	ordered call                 request                 round trips
//	---------------------------  ----------------------  -----------------------
//	Open                         KeysWithPrefix          1
//	Get, MultiGet                MultiGet                1
//	Iterator                     MultiGet per window     keys / PrefetchSize
//	Iterator (KeysOnly)          none                    0, the index is local
//	Put, MultiPut, Batch         MultiSet, MultiDelete   1 per kind of operation
//	Length, Keys, Has            none                    0, the index is local
//
//	Raising Options.PrefetchSize trades fewer round trips for larger responses.
//	Empty batches (MultiSet, MultiGet and MultiDelete without keys) return without
//	a round trip.
//
// Error Handling:
//
//	- RetCUnavailable: the server could not be reached, the response could not be
//	  decoded or it did not match the request (wrong type, wrong number of values).
//	  The ordered layer reports these as ErrStorageUnavailable.
//
//	- RetCInternalError: the server received the request and reported a failure, for
//	  example a batch request against a shard whose store has no batch support.
//
//	- RetCInvalidOperation: the request could not be serialized, nothing was sent.
//
//	Retries happen in the transport (ClientConfig.RetryCount) and only for failures to
//	reach the server. Errors reported by the server are never retried.
//
// Usage Example:
//
//	conf := common.ClientConfig{
//		Endpoints:              []string{"10.0.0.1:8080", "10.0.0.2:8080"},
//		TimeoutSecond:          5,
//		RetryCount:             3,
//		ConnectionsPerEndpoint: 2,
//	}
//
//	rs, err := client.NewRPCStore(100, conf, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil { ... }
//	defer rs.Close()
//
//	users, err := ordered.New("users", rs, &ordered.Options{PrefetchSize: 128})
//	if err = users.Open(); err != nil { ... }
//	defer users.Close()
//
//	it := users.Iterator(ordered.IteratorOptions{Gte: []byte("a"), Lt: []byte("n")})
//	for it.Next() {
//		fmt.Println(string(it.Key()))
//	}
//
// The db command of the CLI builds exactly this stack from its flags (--transport,
// --endpoints, --shard, --serializer, --prefetch).
//
// Performance Considerations:
//
//   - The binary serializer gives the smallest payloads and the fastest encoding. JSON
//     and gob are there for debugging and interoperability.
//
//   - The tcp and unix transports multiplex concurrent requests over a few long lived
//     connections. Several iterators running in parallel share them.
//     ConnectionsPerEndpoint > 1 helps when large prefetch windows saturate one socket.
//
//   - With several endpoints requests are spread round robin. All endpoints must serve
//     the same shard, e.g. the replicas of a dstore shard.
//
// Thread Safety:
//
//	RPCStore is safe for concurrent use when the transport is, which holds for all
//	transports in this module.
package client
