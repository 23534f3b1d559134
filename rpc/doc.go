// Package rpc lets an ordered store (github.com/ValentinKolb/oKV/lib/ordered) use a flat
// store that lives on another machine.
//
// Subpackages:
//
//   - common: the Message protocol, server and client configuration and the logger factory
//   - transport: client and server transport interfaces with http, tcp and unix implementations
//   - serializer: Message codecs (binary, json, gob)
//   - server: serves lstore/dstore shards, one store.IStore per shard id
//   - client: RPCStore, a store.IStore (with batch and prefix support) talking to one shard
package rpc
