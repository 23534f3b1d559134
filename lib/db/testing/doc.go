// Package testing holds the shared conformance tests and benchmarks every db.KVDB
// engine runs from its own _test.go file.
//
// RunKVDBTests checks the engine contract the stores rely on: copies of values,
// presence of empty values, prefix listing, batches, snapshot round trips and
// concurrent use. RunKVDBBenchmarks measures the same operations with keys shaped
// like the ones an ordered store writes. Both skip whatever needs a feature the
// engine does not advertise.
//
//	func TestMyEngine(t *testing.T) {
//		dbtesting.RunKVDBTests(t, "MyEngine", func() db.KVDB { return NewMyEngine() })
//	}
package testing
