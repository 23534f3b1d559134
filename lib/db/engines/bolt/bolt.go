package bolt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ValentinKolb/oKV/lib/db"
	"github.com/ValentinKolb/oKV/lib/db/util"
	"github.com/lni/dragonboat/v4/logger"
	bolt "go.etcd.io/bbolt"
	boltErrors "go.etcd.io/bbolt/errors"
)

// --------------------------------------------------------------------------
// Core Bolt database structure
// --------------------------------------------------------------------------

// supportedFeatures is the feature mask of every bolt instance
const supportedFeatures = db.FeatureSet |
	db.FeatureGet |
	db.FeatureDelete |
	db.FeatureHas |
	db.FeatureKeys |
	db.FeaturePrefixScan |
	db.FeatureAtomicBatch |
	db.FeatureSave |
	db.FeatureLoad

// DefaultBucket is the bucket holding all entries inside the database file
const DefaultBucket = "okv"

var log = logger.GetLogger("bolt")

var (
	ErrBucketNotFound = errors.New("bolt: bucket not found")
	ErrKeyRequired    = errors.New("bolt: key must not be empty")
)

// boltImpl implements a persistent database on top of a single bbolt bucket
type boltImpl struct {
	path   string
	handle *bolt.DB
	bucket []byte
}

// DBOptions configures the boltImpl behavior during initialization
type DBOptions struct {
	Path    string        // Path of the database file, parent directories are created
	Timeout time.Duration // Time to wait for the file lock (0 = 1s)
	NoSync  bool          // Skip fsync after each commit
}

// DefaultOptions returns the default boltImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		Path:    "okv.bolt",
		Timeout: time.Second,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewBoltDB opens (or creates) the database file and makes sure the bucket exists.
func NewBoltDB(opts *DBOptions) (db.KVDB, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Path == "" {
		opts.Path = DefaultOptions().Path
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second
	}

	path := filepath.Clean(opts.Path)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory for %q: %w", path, err)
		}
	}

	handle, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: opts.Timeout,
		NoSync:  opts.NoSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}

	err = handle.Update(func(tx *bolt.Tx) error {
		if _, bucketErr := tx.CreateBucketIfNotExists([]byte(DefaultBucket)); bucketErr != nil {
			return fmt.Errorf("failed to create bucket %q: %w", DefaultBucket, bucketErr)
		}
		return nil
	})
	if err != nil {
		_ = handle.Close()
		return nil, err
	}

	return &boltImpl{
		path:   path,
		handle: handle,
		bucket: []byte(DefaultBucket),
	}, nil
}

// view runs fn in a read transaction on the bucket
func (b *boltImpl) view(fn func(bucket *bolt.Bucket) error) error {
	return b.handle.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("%w: %s", ErrBucketNotFound, b.bucket)
		}
		return fn(bucket)
	})
}

// update runs fn in a write transaction on the bucket. Returning an error rolls back.
func (b *boltImpl) update(fn func(bucket *bolt.Bucket) error) error {
	return b.handle.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("%w: %s", ErrBucketNotFound, b.bucket)
		}
		return fn(bucket)
	})
}

// lookup returns the value stored for key. A zero length value is a valid hit,
// so presence is decided by the cursor key and not by a nil value.
func lookup(bucket *bolt.Bucket, key []byte) ([]byte, bool) {
	k, v := bucket.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, false
	}
	return v, true
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry in its own write transaction.
func (b *boltImpl) Set(key string, value []byte) error {
	if key == "" {
		return ErrKeyRequired
	}
	return b.update(func(bucket *bolt.Bucket) error {
		return bucket.Put([]byte(key), nonNil(value))
	})
}

// SetMany stores every entry in a single write transaction. Either all
// entries are committed or none.
func (b *boltImpl) SetMany(entries []db.KeyValue) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e.Key == "" {
			return ErrKeyRequired
		}
	}
	return b.update(func(bucket *bolt.Bucket) error {
		for _, e := range entries {
			if err := bucket.Put([]byte(e.Key), nonNil(e.Value)); err != nil {
				return fmt.Errorf("failed to put %q: %w", e.Key, err)
			}
		}
		return nil
	})
}

// Delete removes an entry. Deleting a missing key is a no-op.
func (b *boltImpl) Delete(key string) error {
	if key == "" {
		return nil
	}
	return b.update(func(bucket *bolt.Bucket) error {
		return bucket.Delete([]byte(key))
	})
}

// DeleteMany removes all given keys in a single write transaction.
func (b *boltImpl) DeleteMany(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.update(func(bucket *bolt.Bucket) error {
		for _, key := range keys {
			if key == "" {
				continue
			}
			if err := bucket.Delete([]byte(key)); err != nil {
				return fmt.Errorf("failed to delete %q: %w", key, err)
			}
		}
		return nil
	})
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a copy of the value for key. Memory returned by bbolt is only
// valid inside the transaction.
func (b *boltImpl) Get(key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, nil
	}

	var (
		value []byte
		found bool
	)
	err := b.view(func(bucket *bolt.Bucket) error {
		v, ok := lookup(bucket, []byte(key))
		if ok {
			value = make([]byte, len(v))
			copy(value, v)
			found = true
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Has checks if a key exists in the database.
func (b *boltImpl) Has(key string) (bool, error) {
	if key == "" {
		return false, nil
	}

	var found bool
	err := b.view(func(bucket *bolt.Bucket) error {
		_, found = lookup(bucket, []byte(key))
		return nil
	})
	return found, err
}

// Keys lists all keys starting with prefix. The cursor seeks to the prefix and
// stops at the first key outside of it, so the result is in byte order.
func (b *boltImpl) Keys(prefix string) ([]string, error) {
	keys := make([]string, 0)
	prefixBytes := []byte(prefix)

	err := b.view(func(bucket *bolt.Bucket) error {
		cursor := bucket.Cursor()

		var k []byte
		if len(prefixBytes) == 0 {
			k, _ = cursor.First()
		} else {
			k, _ = cursor.Seek(prefixBytes)
		}

		for ; k != nil && bytes.HasPrefix(k, prefixBytes); k, _ = cursor.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save writes a consistent snapshot of the bucket in the util snapshot format.
func (b *boltImpl) Save(w io.Writer) error {
	sw, err := util.NewSnapshotWriter(w)
	if err != nil {
		return err
	}

	err = b.view(func(bucket *bolt.Bucket) error {
		return bucket.ForEach(func(k, v []byte) error {
			return sw.Write(string(k), v)
		})
	})
	if err != nil {
		return err
	}

	return sw.Close()
}

// Load replaces the bucket with the snapshot read from r. Everything runs in a
// single write transaction, a broken snapshot leaves the database unchanged.
func (b *boltImpl) Load(r io.Reader) error {
	return b.handle.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(b.bucket); err != nil && !errors.Is(err, boltErrors.ErrBucketNotFound) {
			return fmt.Errorf("failed to drop bucket %q: %w", b.bucket, err)
		}
		bucket, err := tx.CreateBucket(b.bucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %q: %w", b.bucket, err)
		}

		return util.ReadSnapshot(r, func(key string, value []byte) error {
			return bucket.Put([]byte(key), nonNil(value))
		})
	})
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database. SizeBytes is the size of the
// database file as seen by the read transaction. If the transaction cannot be
// opened (e.g. after Close) the counts stay zero.
func (b *boltImpl) GetInfo() db.DatabaseInfo {
	var (
		sizeBytes int
		keyCount  int
		depth     int
	)

	err := b.handle.View(func(tx *bolt.Tx) error {
		sizeBytes = int(tx.Size())
		if bucket := tx.Bucket(b.bucket); bucket != nil {
			stats := bucket.Stats()
			keyCount = stats.KeyN
			depth = stats.Depth
		}
		return nil
	})
	if err != nil {
		log.Warningf("failed to read stats of %s: %v", b.path, err)
	}

	meta := &struct {
		Path      string `json:"path"`
		Bucket    string `json:"bucket"`
		TreeDepth int    `json:"tree_depth"`
	}{
		Path:      b.path,
		Bucket:    string(b.bucket),
		TreeDepth: depth,
	}

	return db.DatabaseInfo{
		SizeBytes:         sizeBytes,
		KeyCount:          keyCount,
		DbType:            db.ImplBolt,
		SupportedFeatures: db.FeatureList(supportedFeatures),
		Metadata:          meta,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (b *boltImpl) SupportsFeature(feature db.Feature) bool {
	return supportedFeatures&feature == feature
}

// Close releases the file lock and the memory map
func (b *boltImpl) Close() error {
	return b.handle.Close()
}

// nonNil maps nil to an empty slice, bbolt stores both the same way
func nonNil(value []byte) []byte {
	if value == nil {
		return []byte{}
	}
	return value
}
