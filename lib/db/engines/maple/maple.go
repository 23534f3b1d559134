package maple

import (
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/ValentinKolb/oKV/lib/db"
	"github.com/ValentinKolb/oKV/lib/db/engines/maple/internal"
	"github.com/ValentinKolb/oKV/lib/db/util"
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// supportedFeatures is the feature mask of every maple instance
const supportedFeatures = db.FeatureSet |
	db.FeatureGet |
	db.FeatureDelete |
	db.FeatureHas |
	db.FeatureKeys |
	db.FeatureSave |
	db.FeatureLoad

// mapleImpl implements an in-memory database with sharded data
type mapleImpl struct {
	numShards int               // Number of shards
	seed      uint64            // Seed for hash function
	shards    []*internal.Shard // Array of shards

	// Load swaps the shard array, every other method holds the read side
	swap sync.RWMutex
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards int // Number of shards (0 = auto)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards: runtime.NumCPU(), // Auto-determine based on CPU count
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
func NewMapleDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}

	seed := util.GenerateSeed()
	return &mapleImpl{
		numShards: opts.NumShards,
		seed:      seed,
		shards:    internal.NewShards(opts.NumShards, seed),
	}
}

// shard returns the shard responsible for key. The caller must hold maple.swap.
func (maple *mapleImpl) shard(key string) *internal.Shard {
	return internal.GetShard(key, maple.seed, maple.shards)
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry. The value is copied before it is stored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Set(key string, value []byte) error {
	maple.swap.RLock()
	defer maple.swap.RUnlock()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	maple.shard(key).Data.Store(key, valueCopy)
	return nil
}

// SetMany stores every entry. Entries are applied one after another,
// a concurrent reader may observe a partially applied batch.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) SetMany(entries []db.KeyValue) error {
	for _, e := range entries {
		if err := maple.Set(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an entry. The key is not findable anymore. This change is immediate.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Delete(key string) error {
	maple.swap.RLock()
	defer maple.swap.RUnlock()

	maple.shard(key).Data.Delete(key)
	return nil
}

// DeleteMany removes all given keys.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) DeleteMany(keys []string) error {
	for _, key := range keys {
		if err := maple.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a value for a key.
// The returned value is a copy of the stored data and therefore safe to use and modify.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Get(key string) ([]byte, bool, error) {
	maple.swap.RLock()
	defer maple.swap.RUnlock()

	stored, ok := maple.shard(key).Data.Load(key)
	if !ok {
		return nil, false, nil
	}

	data := make([]byte, len(stored))
	copy(data, stored)
	return data, true, nil
}

// Has checks if a key exists in the database.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Has(key string) (bool, error) {
	maple.swap.RLock()
	defer maple.swap.RUnlock()

	_, ok := maple.shard(key).Data.Load(key)
	return ok, nil
}

// Keys lists all keys starting with prefix. Maple has no key order, every shard is
// scanned and filtered.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// Keys written during the scan may or may not be included.
func (maple *mapleImpl) Keys(prefix string) ([]string, error) {
	maple.swap.RLock()
	defer maple.swap.RUnlock()

	keys := make([]string, 0)
	for _, shard := range maple.shards {
		shard.Data.Range(func(key string, _ []byte) bool {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
			return true
		})
	}
	return keys, nil
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save persists the database to the writer in the shared snapshot format.
//
// Thread-safety: Writes that happen during Save may or may not be part of the
// snapshot (fuzzy snapshot). The caller must provide a consistent cut if required.
func (maple *mapleImpl) Save(w io.Writer) error {
	maple.swap.RLock()
	defer maple.swap.RUnlock()

	sw, err := util.NewSnapshotWriter(w)
	if err != nil {
		return err
	}

	for _, shard := range maple.shards {
		shard.Data.Range(func(key string, value []byte) bool {
			err = sw.Write(key, value)
			return err == nil
		})
		if err != nil {
			return err
		}
	}

	return sw.Close()
}

// Load replaces the content of the database with the snapshot read from r.
// On error the previous content is kept.
//
// Thread-safety: Load blocks all other operations while the new shards are swapped in.
func (maple *mapleImpl) Load(r io.Reader) error {
	seed := util.GenerateSeed()
	shards := internal.NewShards(maple.numShards, seed)

	err := util.ReadSnapshot(r, func(key string, value []byte) error {
		internal.GetShard(key, seed, shards).Data.Store(key, value)
		return nil
	})
	if err != nil {
		return err
	}

	maple.swap.Lock()
	maple.seed = seed
	maple.shards = shards
	maple.swap.Unlock()
	return nil
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database. All numbers are exact at the time each
// shard was visited.
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	maple.swap.RLock()
	defer maple.swap.RUnlock()

	var (
		sizeBytes  int
		keyCount   int
		shardSizes = make([]float64, len(maple.shards))
	)
	for i, shard := range maple.shards {
		shard.Data.Range(func(key string, value []byte) bool {
			sizeBytes += len(key) + len(value)
			return true
		})
		size := shard.Data.Size()
		keyCount += size
		shardSizes[i] = float64(size)
	}

	// Metadata for this specific database implementation
	meta := &struct {
		ShardCount        int         `json:"shard_count"`
		ShardDistribution util.Spread `json:"shard_distribution"`
	}{
		ShardCount:        len(maple.shards),
		ShardDistribution: util.NewSpread(shardSizes),
	}

	return db.DatabaseInfo{
		SizeBytes:         sizeBytes,
		KeyCount:          keyCount,
		DbType:            db.ImplMaple,
		SupportedFeatures: db.FeatureList(supportedFeatures),
		Metadata:          meta,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	return supportedFeatures&feature == feature
}

// Close releases nothing, maple holds no external resources
func (maple *mapleImpl) Close() error {
	return nil
}
