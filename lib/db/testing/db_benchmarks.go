package testing

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/ValentinKolb/oKV/lib/db"
)

// benchKey is shaped like the keys an ordered store writes: namespace, delimiter, key
func benchKey(ns, i int) string {
	return fmt.Sprintf("bench%d!%08d", ns, i)
}

// fill writes n keys into each of namespaces namespaces
func fill(b *testing.B, database db.KVDB, namespaces, n int) {
	b.Helper()
	batch := make([]db.KeyValue, 0, n)
	for ns := 0; ns < namespaces; ns++ {
		batch = batch[:0]
		for i := 0; i < n; i++ {
			batch = append(batch, db.KeyValue{Key: benchKey(ns, i), Value: []byte(fmt.Sprintf("value-%d", i))})
		}
		if err := database.SetMany(batch); err != nil {
			b.Fatalf("fill failed: %v", err)
		}
	}
}

type kvdbBench struct {
	name  string
	needs db.Feature
	run   func(b *testing.B, database db.KVDB)
}

var kvdbBenches = []kvdbBench{
	{"Set", db.FeatureSet, func(b *testing.B, database db.KVDB) {
		b.RunParallel(func(pb *testing.PB) {
			for i := 0; pb.Next(); i++ {
				_ = database.Set(benchKey(rand.Int(), i), []byte("value"))
			}
		})
	}},
	{"Overwrite", db.FeatureSet, func(b *testing.B, database db.KVDB) {
		fill(b, database, 1, 1000)
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			for i := 0; pb.Next(); i++ {
				_ = database.Set(benchKey(0, i%1000), []byte("updated"))
			}
		})
	}},
	{"SetLargeValue", db.FeatureSet, func(b *testing.B, database db.KVDB) {
		value := make([]byte, 256<<10)
		b.SetBytes(int64(len(value)))
		for i := 0; i < b.N; i++ {
			_ = database.Set(benchKey(0, i%64), value)
		}
	}},
	{"SetMany100", db.FeatureSet, func(b *testing.B, database db.KVDB) {
		batch := make([]db.KeyValue, 100)
		for i := 0; i < b.N; i++ {
			for j := range batch {
				batch[j] = db.KeyValue{Key: benchKey(i, j), Value: []byte("value")}
			}
			_ = database.SetMany(batch)
		}
	}},
	{"Get", db.FeatureSet | db.FeatureGet, func(b *testing.B, database db.KVDB) {
		fill(b, database, 1, 10_000)
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			for i := 0; pb.Next(); i++ {
				_, _, _ = database.Get(benchKey(0, i%10_000))
			}
		})
	}},
	{"HasHalfMissing", db.FeatureSet | db.FeatureHas, func(b *testing.B, database db.KVDB) {
		fill(b, database, 1, 10_000)
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			for i := 0; pb.Next(); i++ {
				_, _ = database.Has(benchKey(0, i%20_000))
			}
		})
	}},
	{"Delete", db.FeatureSet | db.FeatureDelete, func(b *testing.B, database db.KVDB) {
		b.StopTimer()
		for i := 0; i < b.N; i++ {
			_ = database.Set(benchKey(0, i), []byte("value"))
		}
		b.StartTimer()
		for i := 0; i < b.N; i++ {
			_ = database.Delete(benchKey(0, i))
		}
	}},
	{"KeysOfNamespace", db.FeatureSet | db.FeatureKeys, func(b *testing.B, database db.KVDB) {
		fill(b, database, 10, 1000)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = database.Keys(fmt.Sprintf("bench%d!", i%10))
		}
	}},
	{"Mixed", db.FeatureSet | db.FeatureGet | db.FeatureDelete, func(b *testing.B, database db.KVDB) {
		fill(b, database, 1, 10_000)
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			r := rand.New(rand.NewSource(rand.Int63()))
			for pb.Next() {
				key := benchKey(0, r.Intn(10_000))
				switch op := r.Intn(10); {
				case op < 6:
					_, _, _ = database.Get(key)
				case op < 9:
					_ = database.Set(key, []byte("updated"))
				default:
					_ = database.Delete(key)
				}
			}
		})
	}},
}

// RunKVDBBenchmarks runs the benchmark set against fresh databases from factory.
// Benchmarks needing a feature the engine lacks are skipped.
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		for _, bench := range kvdbBenches {
			b.Run(bench.name, func(b *testing.B) {
				database := factory()
				b.Cleanup(func() { _ = database.Close() })
				requireFeature(b, database, bench.needs)

				b.ReportAllocs()
				b.ResetTimer()
				bench.run(b, database)
			})
		}

		b.Run("SaveLoad", func(b *testing.B) {
			benchmarkSaveLoad(b, factory)
		})
	})
}

func benchmarkSaveLoad(b *testing.B, factory DBFactory) {
	src, dst := factory(), factory()
	b.Cleanup(func() {
		_ = src.Close()
		_ = dst.Close()
	})
	requireFeature(b, src, db.FeatureSet|db.FeatureSave|db.FeatureLoad)

	fill(b, src, 4, 2500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := src.Save(&buf); err != nil {
			b.Fatalf("Save failed: %v", err)
		}
		b.SetBytes(int64(buf.Len()))
		if err := dst.Load(&buf); err != nil {
			b.Fatalf("Load failed: %v", err)
		}
	}
}
