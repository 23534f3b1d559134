// Package dstore implements a replicated, fault-tolerant key-value store on top of the
// Dragonboat RAFT consensus library. It implements store.IStore, store.IBatchStore and
// store.IPrefixStore, so an ordered store (package ordered) can use a raft shard as its
// backing primitive and get linearizable range queries across a cluster.
//
// Architecture:
//
// The dstore implementation consists of three parts:
//
//   - Store Client (store.go): raftStore implements the store interfaces. Every write is
//     turned into an internal.Command and proposed with SyncPropose, every read into an
//     internal.Query answered with SyncRead. Results of the state machine are mapped back
//     to *store.Error values.
//
//   - State Machine (statemachine.go): shardMachine is a Dragonboat
//     IConcurrentStateMachine. It owns one db.KVDB created by the DBFactory passed to
//     CreateStateMachineFactory and applies commands to it. Before an operation runs it
//     checks that the engine advertises the matching db.Feature.
//
//   - Communication Protocol (internal): Command and Query with their binary encoding.
//     A command is one byte of type, four bytes of entry count and then per entry the
//     length prefixed key and, for set commands, the length prefixed value.
//
// How the ordered layer uses a raft shard:
//
//	An ordered store keeps its keys in a namespace of the flat store (name + "!" + key)
//	and an in-memory sorted index on top. The calls it makes map onto dstore like this:
//
//	ordered call                 dstore call            raft operation
//	---------------------------  ---------------------  -------------------------------
//	Open (load the index)        KeysWithPrefix(ns)     SyncRead, QueryTKeys
//	Get, iterator windows        MultiGet(keys)         SyncRead, QueryTMultiGet
//	Put, MultiPut, Batch puts    MultiSet(entries)      SyncPropose, CommandTSetMany
//	Del, MultiRemove, Batch del  MultiDelete(keys)      SyncPropose, CommandTDeleteMany
//	ordered.Destroy              KeysWithPrefix, then   SyncRead, then SyncPropose
//	                             MultiDelete
//
//	An iterator therefore costs one linearizable read per prefetch window, not one per key,
//	and a batch of writes is a single log entry.
//
// Consensus Model:
//
//	- Strong Consistency: writes are committed by a majority before they are applied,
//	  reads use the read index protocol and see every committed write.
//
//	- Fault Tolerance: with 2N+1 replicas up to N replicas may fail.
//
//	- Leader-Based Processing: proposals are forwarded to the leader and replicated to
//	  the followers from there.
//
// Writes:
//
//	Set and Delete carry one entry. MultiSet and MultiDelete carry the whole batch in a
//	single command, which becomes a single raft log entry. A batch is therefore applied
//	atomically and at the same log position on every replica, regardless of whether the
//	engine itself advertises db.FeatureAtomicBatch. Empty batches return without a
//	proposal.
//
//	The flow of a write:
//
//	1. The operation is encoded into a Command
//	2. The Command is proposed via SyncPropose with the configured timeout
//	3. The leader replicates the entry to a majority of the replicas
//	4. Every replica applies the entry in shardMachine.Update
//	5. The sm.Result (a store.RetCode and a message) travels back to the proposer
//
//	Broken log entries (empty or undecodable) get an error result, they never stop the
//	state machine from applying the rest of the batch.
//
// Reads:
//
//	Get, Has, Keys, KeysWithPrefix and MultiGet use SyncRead (linearizable). GetDBInfo
//	uses StaleRead, its numbers are informational only. Values returned by the engine
//	are copies, callers may keep them.
//
// Error Handling and Retries:
//
//	- System Busy: ErrSystemBusy from Dragonboat is retried up to five times with a
//	  pause of a tenth of the timeout. If the shard stays busy the call fails with
//	  store.RetCUnavailable.
//
//	- Timeouts and transport failures surface as store.RetCUnavailable. The ordered layer
//	  reports them as ErrStorageUnavailable. Writes update its index first, so the keys of a
//	  failed put stay indexed and read as not found until they are written again.
//
//	- Feature Compatibility: an engine that lacks a feature answers with
//	  store.RetCUnsupportedOperation, engine failures with store.RetCInternalError.
//	  These codes are kept as they are.
//
// Snapshotting and Recovery:
//
//	Snapshots are the engine's Save output in the shared snapshot format
//	(lib/db/util), so a replica running bolt can recover from a snapshot taken by a
//	replica running maple. Snapshots are fuzzy: the state machine does not stop applying
//	entries while Save runs. After a restart a replica loads its latest snapshot and then
//	receives the log entries committed after it, which brings it back to the state of the
//	other replicas.
//
// Usage:
//
//	1. Create a Dragonboat NodeHost
//	2. Choose an engine via a store.DBFactory
//	3. Start the replica with CreateStateMachineFactory
//	4. Wrap the shard with NewDistributedStore
//	5. Build ordered stores on top of it
//
//	Example:
//
//	  nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	  if err != nil { ... }
//
//	  dbFactory := func() (db.KVDB, error) { return maple.NewMapleDB(nil), nil }
//	  err = nh.StartConcurrentReplica(members, false, dstore.CreateStateMachineFactory(dbFactory), shardConfig)
//	  if err != nil { ... }
//
//	  s := dstore.NewDistributedStore(nh, shardID, 5*time.Second)
//
//	  users, _ := ordered.New("users", s, &ordered.Options{PrefetchSize: 64})
//	  if err := users.Open(); err != nil { ... }
//	  defer users.Close()
//
//	  _ = users.Put([]byte("alice"), codec.Text("admin"))
//	  it := users.Iterator(ordered.IteratorOptions{Gte: []byte("a"), Lt: []byte("b")})
//
//	The serve command does all of this for shards configured as ID=dstore or
//	ID=dstore(bolt).
//
// Performance Considerations:
//
//   - Every write waits for a majority. Batching writes (MultiPut, Batch) amortizes the
//     round trip to the leader.
//
//   - Larger prefetch windows mean fewer read index rounds per iterator, at the cost of
//     larger responses.
//
//   - Timeouts should match the network between the replicas. The rtt-millisecond flag of
//     the serve command derives the election and heartbeat intervals from it.
//
// Deployment Recommendations:
//
//   - Use an odd number of replicas (3 or 5) so a majority always exists.
//   - Spread replicas over failure domains.
//
// Limitations:
//
//   - No progress without a majority of replicas.
//   - The ordered index lives in the process that opened the store. Two processes writing
//     the same namespace do not see each other's new keys until they reopen.
//
// For single node deployments the lstore package implements the same interfaces without
// consensus overhead.
package dstore
