package internal

import "github.com/tidwall/btree"

// less orders keys byte-wise. Go compares strings by their raw bytes.
func less(a, b string) bool { return a < b }

// newTree creates an empty tree. Trees are only touched by one goroutine at a time
// (the queue consumer or the owner of a snapshot), so the tree's own locks are disabled.
func newTree() *btree.BTreeG[string] {
	return btree.NewBTreeGOptions(less, btree.Options{NoLocks: true})
}

// Index is the sorted set of live keys of one logical store.
// It is not safe for concurrent use; all access goes through the store's Queue.
type Index struct {
	tree *btree.BTreeG[string]
}

// NewIndex returns an empty index
func NewIndex() *Index {
	return &Index{tree: newTree()}
}

// Init replaces the content of the index with keys. Duplicates collapse.
func (x *Index) Init(keys []string) {
	tree := newTree()
	for _, key := range keys {
		// Load is fast for sorted input and falls back to Set otherwise
		tree.Load(key)
	}
	x.tree = tree
}

// InsertOrdered adds key if absent and reports whether it was added
func (x *Index) InsertOrdered(key string) bool {
	_, replaced := x.tree.Set(key)
	return !replaced
}

// RemoveOrdered removes key if present and reports whether it was removed
func (x *Index) RemoveOrdered(key string) bool {
	_, deleted := x.tree.Delete(key)
	return deleted
}

// Has reports whether key is in the index
func (x *Index) Has(key string) bool {
	_, ok := x.tree.Get(key)
	return ok
}

// Len returns the number of keys
func (x *Index) Len() int {
	return x.tree.Len()
}

// Keys returns all keys in order. The slice is owned by the caller.
func (x *Index) Keys() []string {
	return x.tree.Items()
}

// Snapshot returns a read-only copy of the index. Later changes to the index are not
// visible in the snapshot. The copy shares nodes with the index until either side is
// written (copy-on-write), so taking it is cheap.
func (x *Index) Snapshot() *Snapshot {
	return &Snapshot{tree: x.tree.Copy()}
}

// ----- snapshots and cursors -----

// Snapshot is a frozen view of an Index
type Snapshot struct {
	tree *btree.BTreeG[string]
}

// Len returns the number of keys in the snapshot
func (s *Snapshot) Len() int {
	return s.tree.Len()
}

// Keys returns all keys of the snapshot in order
func (s *Snapshot) Keys() []string {
	return s.tree.Items()
}

// Bound is one end of a key range. The zero Bound is unbounded.
type Bound struct {
	Key       string
	Set       bool
	Inclusive bool
}

// Range limits a cursor to the keys between Lower and Upper
type Range struct {
	Lower Bound
	Upper Bound
}

// belowUpper reports whether key does not exceed the upper bound
func (r Range) belowUpper(key string) bool {
	if !r.Upper.Set {
		return true
	}
	return key < r.Upper.Key || (r.Upper.Inclusive && key == r.Upper.Key)
}

// aboveLower reports whether key is not below the lower bound
func (r Range) aboveLower(key string) bool {
	if !r.Lower.Set {
		return true
	}
	return key > r.Lower.Key || (r.Lower.Inclusive && key == r.Lower.Key)
}

// Contains reports whether key lies inside the range
func (r Range) Contains(key string) bool {
	return r.aboveLower(key) && r.belowUpper(key)
}

// Cursor walks the keys of a snapshot inside a range, ascending or descending.
// A cursor is not safe for concurrent use.
type Cursor struct {
	iter    btree.IterG[string]
	rng     Range
	reverse bool
	started bool
	done    bool
}

// Cursor returns a cursor over the keys of s that lie in rng
func (s *Snapshot) Cursor(rng Range, reverse bool) *Cursor {
	return &Cursor{iter: s.tree.Iter(), rng: rng, reverse: reverse}
}

// seek positions the cursor on the first key of the walk
func (c *Cursor) seek() bool {
	if !c.reverse {
		if !c.rng.Lower.Set {
			return c.iter.First()
		}
		// lower-bound seek: first key >= Lower.Key
		if !c.iter.Seek(c.rng.Lower.Key) {
			return false
		}
		if !c.rng.Lower.Inclusive && c.iter.Item() == c.rng.Lower.Key {
			return c.iter.Next()
		}
		return true
	}

	if !c.rng.Upper.Set {
		return c.iter.Last()
	}
	// the lower-bound seek lands on the first key >= Upper.Key, step back unless it is
	// the bound itself and the bound is inclusive
	if !c.iter.Seek(c.rng.Upper.Key) {
		return c.iter.Last()
	}
	if c.iter.Item() == c.rng.Upper.Key && c.rng.Upper.Inclusive {
		return true
	}
	return c.iter.Prev()
}

// Next returns the next key of the walk. ok is false once the range is exhausted,
// every later call returns false too.
func (c *Cursor) Next() (key string, ok bool) {
	if c.done {
		return "", false
	}

	if !c.started {
		c.started = true
		ok = c.seek()
	} else if c.reverse {
		ok = c.iter.Prev()
	} else {
		ok = c.iter.Next()
	}

	if ok {
		key = c.iter.Item()
		if c.reverse {
			ok = c.rng.aboveLower(key)
		} else {
			ok = c.rng.belowUpper(key)
		}
	}

	if !ok {
		c.Close()
		return "", false
	}
	return key, true
}

// Close releases the cursor. Next returns false afterwards.
func (c *Cursor) Close() {
	if !c.done {
		c.done = true
		c.iter.Release()
	}
}
