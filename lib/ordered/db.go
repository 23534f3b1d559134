package ordered

import (
	"errors"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sync/errgroup"

	"github.com/ValentinKolb/oKV/lib/ordered/codec"
	"github.com/ValentinKolb/oKV/lib/store"
)

var log = logger.GetLogger("ordered")

// DB is an ordered key-value store named location, kept in a namespace of a flat
// backing store. Several DBs can share one backing store as long as their names differ.
//
// A DB must be opened before use. All methods are safe for concurrent use.
type DB struct {
	location string
	st       store.IStore
	opts     Options

	mu sync.RWMutex
	c  *container // nil while the store is not open
}

// New creates a closed DB. opts may be nil.
func New(location string, backing store.IStore, opts *Options) (*DB, error) {
	if backing == nil {
		return nil, invalidArgument("backing store must not be nil")
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.PrefetchSize <= 0 {
		o.PrefetchSize = DefaultPrefetchSize
	}
	return &DB{location: location, st: backing, opts: o}, nil
}

// Location returns the name of the store
func (d *DB) Location() string {
	return d.location
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Open loads the keys of the store. Opening an open store is a no-op.
func (d *DB) Open() error {
	countOp("open")
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.c != nil {
		return nil
	}

	c := newContainer(d.location, d.st)
	if err := c.init(); err != nil {
		c.close()
		return countErr(err)
	}
	d.c = c

	log.Infof("opened store %q", d.location)
	return nil
}

// Close waits for pending operations and closes the store. It returns ErrNotOpen if
// the store is not open.
func (d *DB) Close() error {
	countOp("close")
	d.mu.Lock()
	c := d.c
	d.c = nil
	d.mu.Unlock()

	if c == nil {
		return ErrNotOpen
	}
	c.close()
	log.Infof("closed store %q", d.location)
	return nil
}

// container returns the open container
func (d *DB) container() (*container, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.c == nil {
		return nil, ErrNotOpen
	}
	return d.c, nil
}

// --------------------------------------------------------------------------
// Writes
// --------------------------------------------------------------------------

// Put stores value under key
func (d *DB) Put(key []byte, value codec.Value) error {
	countOp("put")
	return countErr(d.apply([]Operation{Put(key, value)}))
}

// MultiPut stores all entries with one write. Nothing is written if any entry is invalid.
// For repeated keys the last entry wins.
func (d *DB) MultiPut(entries []Entry) error {
	countOp("multi_put")
	ops := make([]Operation, len(entries))
	for i, e := range entries {
		ops[i] = Put(e.Key, e.Value)
	}
	return countErr(d.apply(ops))
}

// Del removes key. Removing a missing key is not an error.
func (d *DB) Del(key []byte) error {
	countOp("del")
	return countErr(d.apply([]Operation{Del(key)}))
}

// MultiRemove removes all keys with one delete
func (d *DB) MultiRemove(keys [][]byte) error {
	countOp("multi_remove")
	ops := make([]Operation, len(keys))
	for i, key := range keys {
		ops[i] = Del(key)
	}
	return countErr(d.apply(ops))
}

// Batch applies puts and deletes together. Every operation is validated before anything
// is written. A key that is deleted anywhere in the batch ends up deleted, repeated puts
// of a key keep the last value. Deletes and writes are issued concurrently, the first
// error is returned and already applied changes are not rolled back.
func (d *DB) Batch(ops []Operation) error {
	countOp("batch")
	return countErr(d.apply(ops))
}

func (d *DB) apply(ops []Operation) error {
	for i, op := range ops {
		if err := validateOp(i, op); err != nil {
			return err
		}
	}

	c, err := d.container()
	if err != nil {
		return err
	}

	dels, putKeys, putValues := splitBatch(ops)

	var g errgroup.Group
	if len(dels) > 0 {
		g.Go(func() error {
			return c.removeItems(dels)
		})
	}
	if len(putKeys) > 0 {
		g.Go(func() error {
			return c.setItems(putKeys, putValues)
		})
	}
	return g.Wait()
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

// Get returns the value stored under key or ErrNotFound
func (d *DB) Get(key []byte) (codec.Value, error) {
	countOp("get")
	values, errs, err := d.multiGet([][]byte{key})
	if err != nil {
		return codec.Value{}, countErr(err)
	}
	return values[0], countErr(errs[0])
}

// MultiGet returns the values for keys with one read. errs[i] is ErrNotFound for a
// missing key, err is set if the read failed as a whole.
func (d *DB) MultiGet(keys [][]byte) (values []codec.Value, errs []error, err error) {
	countOp("multi_get")
	values, errs, err = d.multiGet(keys)
	return values, errs, countErr(err)
}

func (d *DB) multiGet(keys [][]byte) ([]codec.Value, []error, error) {
	strKeys := make([]string, len(keys))
	for i, key := range keys {
		if err := validateKey(key); err != nil {
			return nil, nil, err
		}
		strKeys[i] = string(key)
	}

	c, err := d.container()
	if err != nil {
		return nil, nil, err
	}
	return c.getItems(strKeys)
}

// Has reports whether key exists. Only the index is consulted.
func (d *DB) Has(key []byte) (bool, error) {
	countOp("has")
	if err := validateKey(key); err != nil {
		return false, countErr(err)
	}
	c, err := d.container()
	if err != nil {
		return false, countErr(err)
	}

	var ok bool
	err = c.do(func() error {
		ok = c.index.Has(string(key))
		return nil
	})
	return ok, countErr(err)
}

// Keys returns every key in byte order
func (d *DB) Keys() ([][]byte, error) {
	countOp("keys")
	c, err := d.container()
	if err != nil {
		return nil, countErr(err)
	}
	keys, err := c.keys()
	if err != nil {
		return nil, countErr(err)
	}

	out := make([][]byte, len(keys))
	for i, key := range keys {
		out[i] = []byte(key)
	}
	return out, nil
}

// Length returns the number of keys
func (d *DB) Length() (int, error) {
	countOp("length")
	c, err := d.container()
	if err != nil {
		return 0, countErr(err)
	}
	n, err := c.length()
	return n, countErr(err)
}

// Iterator returns an iterator over the keys selected by opts. A store that is not
// open yields nothing and Err returns ErrNotOpen.
func (d *DB) Iterator(opts IteratorOptions) *Iterator {
	countOp("iterator")
	c, err := d.container()

	prefetch := d.opts.PrefetchSize
	if opts.PrefetchSize > 0 {
		prefetch = opts.PrefetchSize
	}
	return newIterator(c, err, opts, prefetch)
}

// --------------------------------------------------------------------------
// Destroy
// --------------------------------------------------------------------------

// Destroy deletes every key of the store named location from backing with one bulk
// delete. Stores with other names are not touched. Destroy does not coordinate with
// open DBs of the same name, they keep their index.
func Destroy(location string, backing store.IStore) error {
	countOp("destroy")
	if backing == nil {
		return countErr(invalidArgument("backing store must not be nil"))
	}

	b := newBacking(location, backing)
	raw, err := b.rawKeys()
	if err != nil {
		return countErr(storageError("list keys", err))
	}
	if len(raw) > 0 {
		if err := b.removeRaw(raw); err != nil {
			return countErr(storageError("delete", err))
		}
	}

	log.Infof("destroyed store %q (%d keys)", location, len(raw))
	return nil
}

// IsNotFound reports whether err is a missing key
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
