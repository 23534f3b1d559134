// Package maple implements an in-memory key-value database (KVDB) sharded over
// lock-free concurrent maps. It is the default engine of oKV and the engine behind
// shards configured as ID=lstore or ID=dstore.
//
// The package focuses on:
//   - Concurrent access through sharding and xsync maps without a global lock
//   - Value isolation: values are copied on the way in and on the way out
//   - Snapshots in the format shared by all engines, so a shard can move between maple
//     and bolt
//   - Statistics about the key distribution for monitoring
//
// Key Components:
//
//   - mapleImpl: The database structure implementing db.KVDB. It owns a fixed number of
//     shards and a hash seed. A read-write mutex guards the shard array itself: every
//     operation holds the read side, only Load takes the write side to swap in a new
//     array. Callers never share memory with the engine.
//
//   - Shard (internal): A partition of the key space backed by an xsync.MapOf keyed by
//     the raw string key. Shards operate independently, operations on keys in different
//     shards never contend.
//
// Internal Mechanisms:
//
//   - Sharding Strategy: Keys are spread over the shards in two steps:
//     1. The string key is hashed to 64 bits with util.HashString and the database seed
//     2. The hash is right-shifted by 7 bits to use the higher quality bits and taken
//     modulo the shard count
//     The seed is generated per instance and again on every Load.
//
//   - Key Listing: Maple has no key order. Keys(prefix) visits every shard and filters
//     by prefix, the result is unsorted. Maple does not advertise FeaturePrefixScan, so
//     callers know a listing costs a full scan. Keys written during the scan may or may
//     not be included.
//
//   - Batches: SetMany and DeleteMany apply entries one after another. A concurrent
//     reader may see a partially applied batch, maple does not advertise
//     FeatureAtomicBatch. Wrapped in dstore the batch is still atomic per replica
//     because it is one raft log entry.
//
//   - Persistence Format: Save writes util's snapshot format:
//     1. Magic "OKVSNAP\x00" and a version byte
//     2. Per entry a record marker, the length prefixed key and the length prefixed value
//     3. An end marker and the record count, which lets the reader detect truncation
//     Save does not stop writers, the snapshot is fuzzy and not a consistent cut. Load
//     reads into a fresh shard array with a new seed and swaps it in only after the
//     whole snapshot was read, a corrupt snapshot leaves the database unchanged.
//
//   - Metrics and Monitoring: GetInfo reports the exact key count and payload size
//     (keys plus values) and, as metadata, the shard count and the distribution of keys
//     over the shards (util.Spread). A skewed distribution shows up as a quality
//     well below 1.
//
// Role in the ordered layer:
//
//	The ordered store keeps its sorted index in its own process and only asks the engine
//	for unordered operations: one prefix listing on Open, point reads for every prefetch
//	window and batched writes. Maple serves all of them from memory, which makes it the
//	fastest backing for the ordered layer. The cost is durability: with lstore the data
//	is gone when the process exits, with dstore the raft log and snapshots keep it.
//
//	Keys of an ordered store named "users" live under "users!" in the engine:
//
//	  engine key     ordered key
//	  -------------  -----------
//	  users!alice    alice
//	  users!bob      bob
//	  orders!1001    1001 (another store, never listed by "users")
//
// Usage Example:
//
//	database := maple.NewMapleDB(nil) // one shard per CPU
//	defer database.Close()
//
//	_ = database.Set("user:1", []byte("alice"))
//	value, ok, _ := database.Get("user:1")
//
//	// as the backing of an ordered store
//	st, _ := lstore.NewLocalStore(func() (db.KVDB, error) { return maple.NewMapleDB(nil), nil })
//	users, _ := ordered.New("users", st, nil)
//	if err := users.Open(); err != nil { ... }
//
//	// move the content into a bolt file
//	var buf bytes.Buffer
//	_ = database.Save(&buf)
//	boltDB, _ := bolt.NewBoltDB(&bolt.DBOptions{Path: "users.bolt"})
//	_ = boltDB.Load(&buf)
//
// This implementation offers several advantages:
//   - High throughput for concurrent operations on different keys
//   - No background goroutines and no external resources, Close is a no-op
//   - Snapshots that every other engine can read
//
// For data that has to survive a restart without raft, use the bolt engine.
package maple
