package db

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ValentinKolb/oKV/cmd/util"
	"github.com/ValentinKolb/oKV/lib/ordered"
	"github.com/ValentinKolb/oKV/lib/ordered/codec"
)

var (
	perfCmd = &cobra.Command{
		Use:   "perf",
		Short: "Measures the latency of ordered store operations",
		Long: `Runs put, get, batch and range operations from several workers against
the store selected by --name and prints latency percentiles. All keys are
written below the __perf prefix and removed afterwards.`,
		Args: cobra.NoArgs,
		RunE: runPerf,
	}

	perfPercentiles = []float64{0.5, 0.9, 0.99}
)

const perfKeyPrefix = "__perf"

func init() {
	flags := perfCmd.Flags()
	flags.Int("ops", 1000, util.WrapString("Operations per benchmark and worker"))
	flags.Int("threads", 4, util.WrapString("Number of concurrent workers"))
	flags.Int("keys", 100, util.WrapString("Number of distinct keys per worker"))
	flags.String("value-size", "128B", util.WrapString("Size of the written values (e.g. 512B, 4KiB, 1MB)"))
	flags.String("csv", "", util.WrapString("Optional path to save the results as CSV"))
}

// perfConfig holds the parameters of one perf run
type perfConfig struct {
	ops       int
	threads   int
	keys      int
	valueSize uint64
}

// perfBench is one measured operation, run(worker, i) performs a single call
type perfBench struct {
	name string
	run  func(worker, i int) error
}

func runPerf(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	size, err := humanize.ParseBytes(viper.GetString("value-size"))
	if err != nil {
		return fmt.Errorf("invalid value-size: %w", err)
	}
	conf := perfConfig{
		ops:       max(viper.GetInt("ops"), 1),
		threads:   max(viper.GetInt("threads"), 1),
		keys:      max(viper.GetInt("keys"), 1),
		valueSize: size,
	}

	if err = openDB(); err != nil {
		return err
	}

	clientConf := util.GetClientConfig()
	fmt.Println("Configuration:")
	fmt.Println(clientConf.String())
	fmt.Printf("Store: %s, Threads: %d, Ops: %d, Keys: %d, Value size: %s\n\n",
		orderedDB.Location(), conf.threads, conf.ops, conf.keys, humanize.IBytes(conf.valueSize))

	value := codec.Bytes(make([]byte, conf.valueSize))
	key := func(worker, i int) []byte {
		return []byte(fmt.Sprintf("%s-%03d-%06d", perfKeyPrefix, worker, i%conf.keys))
	}

	benches := []perfBench{
		{"put", func(w, i int) error {
			return orderedDB.Put(key(w, i), value)
		}},
		{"get", func(w, i int) error {
			_, err := orderedDB.Get(key(w, i))
			if ordered.IsNotFound(err) {
				return nil
			}
			return err
		}},
		{"batch", func(w, i int) error {
			return orderedDB.Batch([]ordered.Operation{
				ordered.Put(key(w, i), value),
				ordered.Put(key(w, i+1), value),
				ordered.Del(key(w, i+2)),
			})
		}},
		{"range", func(w, i int) error {
			it := orderedDB.Iterator(ordered.IteratorOptions{Gte: key(w, i), Limit: 10})
			defer it.Close()
			for it.Next() {
			}
			return it.Err()
		}},
	}

	registry := gometrics.NewRegistry()
	for _, bench := range benches {
		timer := gometrics.GetOrRegisterTimer(bench.name, registry)
		if err = measure(conf, timer, bench.run); err != nil {
			return fmt.Errorf("%s: %w", bench.name, err)
		}
		printTimer(bench.name, timer)
	}

	if err = cleanupPerf(); err != nil {
		fmt.Printf("failed to remove perf keys: %v\n", err)
	}

	if path := viper.GetString("csv"); path != "" {
		return writeCSV(path, benches, registry, conf)
	}
	return nil
}

// measure runs fn ops times on every worker and records each call in timer
func measure(conf perfConfig, timer gometrics.Timer, fn func(worker, i int) error) error {
	var g errgroup.Group
	for w := 0; w < conf.threads; w++ {
		g.Go(func() error {
			for i := 0; i < conf.ops; i++ {
				start := time.Now()
				if err := fn(w, i); err != nil {
					return err
				}
				timer.UpdateSince(start)
			}
			return nil
		})
	}
	return g.Wait()
}

// cleanupPerf removes every key written by the benchmarks
func cleanupPerf() error {
	it := orderedDB.Iterator(ordered.IteratorOptions{Gte: []byte(perfKeyPrefix + "-"), Lt: []byte(perfKeyPrefix + ".")})
	defer it.Close()

	var keys [][]byte
	for it.Next() {
		keys = append(keys, it.Key())
	}
	if err := it.Err(); err != nil {
		return err
	}
	return orderedDB.MultiRemove(keys)
}

func printTimer(name string, timer gometrics.Timer) {
	snap := timer.Snapshot()
	ps := snap.Percentiles(perfPercentiles)
	fmt.Printf("%-8s%8d ops  %10.0f ops/sec  mean %-10s p50 %-10s p90 %-10s p99 %-10s max %s\n",
		name, snap.Count(), snap.RateMean(),
		time.Duration(snap.Mean()).Round(time.Microsecond),
		time.Duration(ps[0]).Round(time.Microsecond),
		time.Duration(ps[1]).Round(time.Microsecond),
		time.Duration(ps[2]).Round(time.Microsecond),
		time.Duration(snap.Max()).Round(time.Microsecond))
}

// writeCSV saves one row per benchmark
func writeCSV(path string, benches []perfBench, registry gometrics.Registry, conf perfConfig) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{"Test", "Count", "OpsPerSec", "MeanNs", "P50Ns", "P90Ns", "P99Ns", "MaxNs",
		"Store", "ShardID", "Transport", "Serializer", "Threads", "Keys", "ValueSize"}
	if err = w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, bench := range benches {
		timer, ok := registry.Get(bench.name).(gometrics.Timer)
		if !ok {
			continue
		}
		snap := timer.Snapshot()
		ps := snap.Percentiles(perfPercentiles)
		row := []string{
			bench.name,
			strconv.FormatInt(snap.Count(), 10),
			fmt.Sprintf("%.0f", snap.RateMean()),
			fmt.Sprintf("%.0f", snap.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatInt(snap.Max(), 10),
			orderedDB.Location(),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("transport"),
			viper.GetString("serializer"),
			strconv.Itoa(conf.threads),
			strconv.Itoa(conf.keys),
			strconv.FormatUint(conf.valueSize, 10),
		}
		if err = w.Write(row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", bench.name, err)
		}
	}

	w.Flush()
	return w.Error()
}
