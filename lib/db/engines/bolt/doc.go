// Package bolt implements a persistent key-value database (KVDB) on top of a single
// bbolt bucket.
//
// Every write runs in its own bbolt write transaction. SetMany and DeleteMany share one
// transaction for the whole batch, so the engine advertises FeatureAtomicBatch. Keys are
// kept in byte order by bbolt, Keys(prefix) seeks to the prefix and stops at the first
// key outside of it (FeaturePrefixScan).
//
// Save streams the bucket in the util snapshot format, which makes snapshots portable
// between engines. Load drops and refills the bucket inside one write transaction.
//
// Empty keys are rejected with ErrKeyRequired, bbolt cannot store them. Values are
// copied out of the memory map before they are returned.
package bolt
