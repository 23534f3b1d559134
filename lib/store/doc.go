// Package store defines the flat key–value primitive that the ordered layer
// (github.com/ValentinKolb/oKV/lib/ordered) is built on.
//
// Key Components:
//
//   - IStore: point operations (Set, Get, Has, Delete), a full key listing (Keys) and
//     GetDBInfo. Keys carry no order.
//
//   - IBatchStore (optional): MultiSet, MultiGet and MultiDelete. Callers detect it with
//     a type assertion and fall back to per-key IStore calls.
//
//   - IPrefixStore (optional): KeysWithPrefix filters on the store side, which saves
//     shipping every key of every namespace to the caller.
//
//   - Error: a typed error carrying a RetCode. errors.Is matches two store errors with
//     the same code.
//
//   - DBFactory: creates the db.KVDB used by a store implementation.
//
// Implementations:
//
//   - Local Store (lstore): wraps one db.KVDB in the same process.
//     Available in the "github.com/ValentinKolb/oKV/lib/store/lstore" package.
//
//   - Distributed Store (dstore): replicates the db.KVDB over a Dragonboat RAFT shard.
//     Available in the "github.com/ValentinKolb/oKV/lib/store/dstore" package.
//
// The rpc client (github.com/ValentinKolb/oKV/rpc/client) is a third implementation that
// forwards every call to a remote server.
package store
