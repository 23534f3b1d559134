package testing

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ValentinKolb/oKV/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory())
		})

		t.Run("KeysWithPrefix", func(t *testing.T) {
			testKeysWithPrefix(t, factory())
		})

		t.Run("SetMany&DeleteMany", func(t *testing.T) {
			testBatches(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("LoadReplaces", func(t *testing.T) {
			testLoadReplaces(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ManyKeys", func(t *testing.T) {
			testManyKeys(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// mustSet fails the test if Set returns an error
func mustSet(t testing.TB, database db.KVDB, key string, value []byte) {
	if err := database.Set(key, value); err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
}

// mustGet fails the test if Get returns an error
func mustGet(t testing.TB, database db.KVDB, key string) ([]byte, bool) {
	value, ok, err := database.Get(key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	return value, ok
}

// sortedKeys lists the keys with prefix in sorted order
func sortedKeys(t testing.TB, database db.KVDB, prefix string) []string {
	keys, err := database.Keys(prefix)
	if err != nil {
		t.Fatalf("Keys(%q) failed: %v", prefix, err)
	}
	sort.Strings(keys)
	return keys
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustSet(t, database, testKey, testValue1)

	result, exists := mustGet(t, database, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	mustSet(t, database, testKey, testValue2)

	result, exists = mustGet(t, database, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	if _, exists = mustGet(t, database, "nonexistent-key"); exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	// the returned slice must not alias the stored value
	retrievedValue, _ := mustGet(t, database, testKey)
	retrievedValue[0] = 'X'

	originalValue, _ := mustGet(t, database, testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	// the stored value must not alias the caller's slice
	input := []byte("mutable")
	mustSet(t, database, "alias-key", input)
	input[0] = 'X'
	stored, _ := mustGet(t, database, "alias-key")
	if !bytes.Equal(stored, []byte("mutable")) {
		t.Errorf("Set should copy the value, got %s", stored)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	mustSet(t, database, "delete-key", []byte("value"))

	if err := database.Delete("delete-key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, exists := mustGet(t, database, "delete-key"); exists {
		t.Errorf("Key should not exist after Delete")
	}

	// deleting a missing key is not an error
	if err := database.Delete("never-existed"); err != nil {
		t.Errorf("Delete of missing key returned error: %v", err)
	}

	// a deleted key can be written again
	mustSet(t, database, "delete-key", []byte("again"))
	if value, exists := mustGet(t, database, "delete-key"); !exists || !bytes.Equal(value, []byte("again")) {
		t.Errorf("Expected key to be writable after Delete, got %s (exists=%v)", value, exists)
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureHas|db.FeatureDelete)

	has, err := database.Has("has-key")
	if err != nil || has {
		t.Errorf("Expected Has=false for missing key, got %v (err=%v)", has, err)
	}

	mustSet(t, database, "has-key", []byte{})
	has, err = database.Has("has-key")
	if err != nil || !has {
		t.Errorf("Expected Has=true for key with empty value, got %v (err=%v)", has, err)
	}

	_ = database.Delete("has-key")
	has, err = database.Has("has-key")
	if err != nil || has {
		t.Errorf("Expected Has=false after Delete, got %v (err=%v)", has, err)
	}
}

func testKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureKeys|db.FeatureDelete)

	if keys := sortedKeys(t, database, ""); len(keys) != 0 {
		t.Errorf("Expected no keys in empty database, got %v", keys)
	}

	for _, key := range []string{"c", "a", "b", "a"} {
		mustSet(t, database, key, []byte(key))
	}

	if keys := sortedKeys(t, database, ""); !equalStrings(keys, []string{"a", "b", "c"}) {
		t.Errorf("Expected [a b c], got %v", keys)
	}

	_ = database.Delete("b")
	if keys := sortedKeys(t, database, ""); !equalStrings(keys, []string{"a", "c"}) {
		t.Errorf("Expected [a c] after Delete, got %v", keys)
	}
}

func testKeysWithPrefix(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureKeys)

	for _, key := range []string{"abc!1", "abc!2", "abcd!1", "ab!1", "bang!!!x", "bang!!!!!y", "zzz"} {
		mustSet(t, database, key, []byte("v"))
	}

	tests := []struct {
		prefix   string
		expected []string
	}{
		{"abc!", []string{"abc!1", "abc!2"}},
		{"abcd!", []string{"abcd!1"}},
		{"ab", []string{"ab!1", "abc!1", "abc!2", "abcd!1"}},
		{"bang!!!", []string{"bang!!!!!y", "bang!!!x"}},
		{"bang!!!!!", []string{"bang!!!!!y"}},
		{"none", []string{}},
	}

	for _, tt := range tests {
		if keys := sortedKeys(t, database, tt.prefix); !equalStrings(keys, tt.expected) {
			t.Errorf("Keys(%q): expected %v, got %v", tt.prefix, tt.expected, keys)
		}
	}
}

func testBatches(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	entries := make([]db.KeyValue, 100)
	keys := make([]string, 100)
	for i := range entries {
		keys[i] = fmt.Sprintf("batch-%03d", i)
		entries[i] = db.KeyValue{Key: keys[i], Value: []byte(fmt.Sprintf("value-%d", i))}
	}

	if err := database.SetMany(entries); err != nil {
		t.Fatalf("SetMany failed: %v", err)
	}
	for _, e := range entries {
		if value, exists := mustGet(t, database, e.Key); !exists || !bytes.Equal(value, e.Value) {
			t.Errorf("Key %s: expected %s, got %s (exists=%v)", e.Key, e.Value, value, exists)
		}
	}

	// delete every second key, plus one that never existed
	var toDelete []string
	for i := 0; i < len(keys); i += 2 {
		toDelete = append(toDelete, keys[i])
	}
	toDelete = append(toDelete, "batch-missing")

	if err := database.DeleteMany(toDelete); err != nil {
		t.Fatalf("DeleteMany failed: %v", err)
	}
	for i, key := range keys {
		_, exists := mustGet(t, database, key)
		if i%2 == 0 && exists {
			t.Errorf("Key %s should be deleted", key)
		}
		if i%2 == 1 && !exists {
			t.Errorf("Key %s should still exist", key)
		}
	}

	// empty batches are no-ops
	if err := database.SetMany(nil); err != nil {
		t.Errorf("SetMany(nil) returned error: %v", err)
	}
	if err := database.DeleteMany(nil); err != nil {
		t.Errorf("DeleteMany(nil) returned error: %v", err)
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	database2 := factory()

	// close the databases after the test
	defer database.Close()
	defer database2.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureSave|db.FeatureLoad)

	numEntries := 1000
	originalKeys := make([]string, numEntries)
	originalValues := make([][]byte, numEntries)

	for i := 0; i < numEntries; i++ {
		key := fmt.Sprintf("save-load-test-key-%d", i)
		value := []byte(fmt.Sprintf("save-load-test-value-%d", i))
		originalKeys[i] = key
		originalValues[i] = value

		mustSet(t, database, key, value)
	}

	var buf bytes.Buffer
	if err := database.Save(&buf); err != nil {
		t.Fatalf("Unexpected error during Save: %v", err)
	}

	if err := database2.Load(&buf); err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}

	for i := 0; i < numEntries; i++ {
		key := originalKeys[i]

		actualValue, exists := mustGet(t, database2, key)
		if !exists {
			t.Errorf("Key %s not found after Load", key)
			continue
		}
		if !bytes.Equal(actualValue, originalValues[i]) {
			t.Errorf("Value mismatch for key %s: expected %s, got %s", key, originalValues[i], actualValue)
		}
	}

	// the source database is unchanged
	for i := 0; i < numEntries; i++ {
		if actualValue, exists := mustGet(t, database, originalKeys[i]); !exists || !bytes.Equal(actualValue, originalValues[i]) {
			t.Errorf("Value mismatch in original database for key %s", originalKeys[i])
		}
	}
}

func testLoadReplaces(t *testing.T, factory DBFactory) {
	source := factory()
	target := factory()
	defer source.Close()
	defer target.Close()

	requireFeature(t, source, db.FeatureSet|db.FeatureKeys|db.FeatureSave|db.FeatureLoad)

	mustSet(t, source, "kept", []byte("1"))
	mustSet(t, target, "stale", []byte("2"))

	var buf bytes.Buffer
	if err := source.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := target.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if keys := sortedKeys(t, target, ""); !equalStrings(keys, []string{"kept"}) {
		t.Errorf("Expected Load to replace the content, got keys %v", keys)
	}

	// a broken snapshot leaves the database untouched
	if err := target.Load(bytes.NewReader([]byte("garbage"))); err == nil {
		t.Errorf("Expected Load of garbage to fail")
	}
	if keys := sortedKeys(t, target, ""); !equalStrings(keys, []string{"kept"}) {
		t.Errorf("Expected failed Load to keep the content, got keys %v", keys)
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	emptyValueKey := "empty-value-key"
	mustSet(t, database, emptyValueKey, []byte{})

	result, exists := mustGet(t, database, emptyValueKey)
	if !exists {
		t.Errorf("Key for empty value not found after Set")
	} else if len(result) != 0 {
		t.Errorf("Empty value mismatch: %v", result)
	}

	nilValueKey := "nil-value-key"
	mustSet(t, database, nilValueKey, nil)

	result, exists = mustGet(t, database, nilValueKey)
	if !exists {
		t.Errorf("Key for nil value not found after Set")
	} else if len(result) != 0 {
		t.Errorf("Nil value resulted in non-empty value: %v", result)
	}

	binaryKey := "bin\x00\xff\x01key"
	binaryValue := []byte{0x00, 0x00, 0xff, 0xfe, 0x80}
	mustSet(t, database, binaryKey, binaryValue)

	result, exists = mustGet(t, database, binaryKey)
	if !exists || !bytes.Equal(result, binaryValue) {
		t.Errorf("Binary key/value mismatch: %v (exists=%v)", result, exists)
	}

	largeValueKey := "large-value-key"
	largeValue := make([]byte, 4*1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 256)
	}
	mustSet(t, database, largeValueKey, largeValue)

	result, exists = mustGet(t, database, largeValueKey)
	if !exists {
		t.Errorf("Key for large value not found after Set")
	} else if !bytes.Equal(result, largeValue) {
		t.Errorf("Large value mismatch: size %d, expected %d", len(result), len(largeValue))
	}
}

func testManyKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete|db.FeatureKeys)

	prefix := "many-"
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		mustSet(t, database, fmt.Sprintf("%s%d", prefix, i), []byte(fmt.Sprintf("value-%d", i)))
	}

	for i := 0; i < numKeys; i += 2 {
		_ = database.Delete(fmt.Sprintf("%s%d", prefix, i))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		value, exists := mustGet(t, database, key)

		if i%2 == 0 {
			if exists {
				t.Errorf("Key %s should be deleted", key)
			}
		} else if !exists || !bytes.Equal(value, []byte(fmt.Sprintf("value-%d", i))) {
			t.Errorf("Key %s should still exist with its value, got %s", key, value)
		}
	}

	if keys := sortedKeys(t, database, prefix); len(keys) != numKeys/2 {
		t.Errorf("Expected %d keys, got %d", numKeys/2, len(keys))
	}
}

func testRealisticUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete|db.FeatureKeys)

	type operation struct {
		op    string
		key   string
		value []byte
	}

	numOperations := 4_000
	operations := make([]operation, numOperations)

	for i := 0; i < numOperations; i++ {
		var op string
		switch i % 10 {
		case 0, 1, 2, 3, 4, 5, 6:
			op = "set"
		case 7, 8:
			op = "get"
		case 9:
			op = "delete"
		}

		var key string
		if i%5 == 0 {
			key = fmt.Sprintf("hot-key-%d", i%50)
		} else {
			key = fmt.Sprintf("key-%d", i)
		}

		var value []byte
		if op == "set" {
			value = make([]byte, 64)
			for j := range value {
				value[j] = byte((i + j) % 256)
			}
		}

		operations[i] = operation{op, key, value}
	}

	numWorkers := 8
	opsPerWorker := numOperations / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	errs := make(chan error, numOperations)

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()

			start := workerId * opsPerWorker
			for i := start; i < start+opsPerWorker; i++ {
				op := operations[i]

				var err error
				switch op.op {
				case "set":
					err = database.Set(op.key, op.value)
				case "get":
					_, _, err = database.Get(op.key)
				case "delete":
					err = database.Delete(op.key)
				}
				if err != nil {
					errs <- err
				}
			}
		}(w)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Error during parallel operations: %v", err)
	}

	// every listed key is readable and every readable key is listed
	listed := sortedKeys(t, database, "")
	listedSet := make(map[string]bool, len(listed))
	for _, key := range listed {
		listedSet[key] = true
		if _, exists := mustGet(t, database, key); !exists {
			t.Errorf("Consistency error: key %s is listed but not readable", key)
		}
	}
	for _, op := range operations {
		if _, exists := mustGet(t, database, op.key); exists && !listedSet[op.key] {
			t.Errorf("Consistency error: key %s is readable but not listed", op.key)
		}
	}
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)

	for i := 0; i < 10; i++ {
		mustSet(t, database, fmt.Sprintf("info-%d", i), []byte("0123456789"))
	}

	info := database.GetInfo()
	if info.KeyCount != 10 {
		t.Errorf("Expected KeyCount 10, got %d", info.KeyCount)
	}
	if info.SizeBytes <= 0 {
		t.Errorf("Expected positive SizeBytes, got %d", info.SizeBytes)
	}
	if info.DbType == "" {
		t.Errorf("Expected DbType to be set")
	}
	for _, f := range info.SupportedFeatures {
		if !database.SupportsFeature(f) {
			t.Errorf("GetInfo lists feature %s that SupportsFeature denies", f)
		}
	}
}
