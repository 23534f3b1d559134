// Package lstore implements a local, single-node key-value store based on the
// store.IStore interface. It is a thin wrapper around any db.KVDB implementation.
//
// Besides store.IStore the local store implements store.IBatchStore and
// store.IPrefixStore: batches are handed to the engine's SetMany/DeleteMany (atomic when
// the engine advertises db.FeatureAtomicBatch) and prefix listings to Keys(prefix).
//
// Feature Detection: Before executing operations, the store checks if the underlying
// db.KVDB implementation supports the requested feature through the SupportsFeature
// method. Unsupported operations return store.RetCUnsupportedOperation.
//
// Persistence depends on the engine: the maple engine keeps data in memory only, the
// bolt engine writes to a file.
//
// Usage Example:
//
//	// Create a store with a maple database backend
//	factory := func() (db.KVDB, error) { return maple.NewMapleDB(nil), nil }
//	s, err := lstore.NewLocalStore(factory)
//
//	// Retrieve a value
//	value, exists, err := s.Get("session:123")
//
// For distributed scenarios requiring consensus across multiple nodes, use the
// dstore package, a RAFT-based implementation of the same interfaces.
package lstore
