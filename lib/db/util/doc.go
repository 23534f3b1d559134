// Package util provides utility components for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - functions: seeded FNV-1a hashing and shard selection
//   - snapshot: the engine independent snapshot format used by Save and Load
//   - stats: a small summary of how evenly entries are spread over shards
package util
