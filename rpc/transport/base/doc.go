// Package base implements the socket transports of the oKV rpc layer independent of
// the socket type. The tcp and unix packages only add a connector that dials, listens
// and sets socket options.
//
// An ordered store that keeps its data on a remote server issues a burst of small
// requests: one MultiGet per iterator window, one MultiSet per batch. The transport
// therefore multiplexes: every connection carries any number of requests at once and
// responses are matched by request id, not by order.
//
// Frame format (both directions):
//
//	8 bytes shard id     (uint64, big endian)
//	8 bytes request id   (uint64, big endian)
//	4 bytes payload size (uint32, big endian)
//	N bytes payload      (a serialized common.Message)
//
// Payloads above MaxFrameSize are rejected by both sides.
//
// Client:
//
//   - Connect opens ConnectionsPerEndpoint connections to every endpoint and succeeds
//     as long as one of them is up.
//   - Requests pick connections round robin. A failed attempt moves on to the next
//     connection after an exponential backoff with jitter, up to RetryCount attempts.
//   - A lost connection fails its pending requests and is redialed by the next request
//     that picks it.
//   - TimeoutSecond bounds the write and the wait for the response of every attempt.
//
// Server:
//
//   - Every accepted connection gets a reader goroutine. Requests run in up to
//     WorkersPerConnection goroutines, reading pauses while all of them are busy.
//   - Read buffers come from a sync.Pool and are returned once the response is
//     written, handlers must not keep the payload.
//   - Request latency and size are recorded per shard with the same metric names as
//     the http transport.
//
// Example:
//
//	srv := tcp.NewTCPServerTransport()
//	rpcServer := server.NewRPCServer(config, srv, serializer.NewBinarySerializer())
//	go rpcServer.Serve()
//
//	ct := tcp.NewTCPClientTransport()
//	st, err := client.NewRPCStore(100, clientConfig, ct, serializer.NewBinarySerializer())
//	users, err := ordered.New("users", st, nil)
package base
