package util

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// GenerateSeed returns a random hash seed. Engines pick a new one on every Load,
// so shard placement differs between instances.
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// fall back to the clock if the system random source is unavailable
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// HashString is seeded 64 bit FNV-1a. It also derives raft replica ids from node names,
// so the result for seed 0 must stay stable.
func HashString(s string, seed uint64) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	hash := uint64(offset64) ^ seed
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime64
	}

	return hash
}

// ShardIndex maps hash onto [0, n). The low 7 bits are dropped, FNV mixes them poorly.
func ShardIndex(hash uint64, n int) int {
	return int((hash >> 7) % uint64(n))
}
