package internal

import (
	"github.com/ValentinKolb/oKV/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Shard Type (partition of the database)
// --------------------------------------------------------------------------

// Shard represents a partition of the database.
// Values stored in a shard are never mutated in place; writers replace the slice.
type Shard struct {
	Data *xsync.MapOf[string, []byte]
}

// NewShard creates a new shard whose map hashes keys with the given seed
func NewShard(seed uint64) *Shard {
	return &Shard{
		Data: xsync.NewMapOfWithHasher[string, []byte](func(key string, mapSeed uint64) uint64 {
			return util.HashString(key, seed) ^ mapSeed
		}),
	}
}

// NewShards creates n empty shards
func NewShards(n int, seed uint64) []*Shard {
	shards := make([]*Shard, n)
	for i := range shards {
		shards[i] = NewShard(seed)
	}
	return shards
}

// GetShard returns the appropriate shard for a given key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func GetShard[T any](key string, seed uint64, shards []*T) *T {
	return shards[util.ShardIndex(util.HashString(key, seed), len(shards))]
}
