// Package db provides a standardized interface for flat key-value database implementations.
// It defines the KVDB interface used as the lowest storage layer of oKV: an unordered
// get/set/delete/list-keys primitive on top of which ordering is synthesized elsewhere.
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     It provides point operations (Set, Get, Has, Delete), batched operations
//     (SetMany, DeleteMany), key listing (Keys with an optional prefix), metadata
//     retrieval (GetInfo) and persistence (Save, Load).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     advertise through SupportsFeature. FeaturePrefixScan marks engines that answer
//     Keys(prefix) natively, FeatureAtomicBatch marks engines whose batch writes are
//     all-or-nothing.
//
//   - Implementation Identifiers: "maple" (sharded in-memory) and "bolt" (bbolt file).
//
//   - Database Information: DatabaseInfo reports size, key count, implementation
//     type and implementation-specific metadata.
//
// Related Packages:
//
// The engines/maple package (github.com/ValentinKolb/oKV/lib/db/engines/maple) keeps all
// entries in memory, sharded over xsync maps.
//
// The engines/bolt package (github.com/ValentinKolb/oKV/lib/db/engines/bolt) persists
// entries in a single bbolt bucket.
//
// The util package (github.com/ValentinKolb/oKV/lib/db/util) holds hashing helpers and the
// snapshot format shared by all engines for Save and Load.
//
// The testing package (github.com/ValentinKolb/oKV/lib/db/testing) provides
// standardized tests and benchmarks for implementations of db.KVDB.
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
