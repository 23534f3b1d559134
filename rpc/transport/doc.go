// Package transport defines how serialized messages travel between client and server.
//
// A server transport hands each request to a ServerHandleFunc together with the shard
// id it was addressed to. A client transport sends bytes to a shard and returns the
// response bytes. Implementations know nothing about the message format.
//
// Implementations:
//
//   - http: one POST per request, easy to put behind a proxy, answers /healthz
//   - tcp: long lived multiplexed connections (see package base), the fastest option
//     between machines
//   - unix: the same framing over a unix domain socket for clients on the same host
//
// The tcp and unix transports share their client and server logic in package base and
// only differ in how connections are dialed, listened on and tuned.
package transport
