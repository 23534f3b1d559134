package ordered

import (
	"errors"
	"time"

	"github.com/ValentinKolb/oKV/lib/ordered/codec"
	"github.com/ValentinKolb/oKV/lib/ordered/internal"
)

type iterState uint8

const (
	stateUninitialized iterState = iota
	stateInitializing
	stateReady
	stateExhausted
)

type entry struct {
	key   string
	value codec.Value
}

// Iterator walks the keys of a DB in byte order, or in reverse order.
//
// The first call to Next takes a snapshot of the keys. Keys created later are never
// returned, keys deleted later are skipped. Values are read in windows of
// PrefetchSize keys. An Iterator is not safe for concurrent use.
//
//	it := db.Iterator(ordered.IteratorOptions{Gte: []byte("a")})
//	defer it.Close()
//	for it.Next() {
//		fmt.Println(string(it.Key()), it.Value())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	c        *container
	opts     IteratorOptions
	rng      internal.Range
	prefetch int

	state  iterState
	cursor *internal.Cursor
	taken  int // keys taken from the cursor, counted against Limit

	buf []entry
	pos int
	cur entry
	err error
}

func newIterator(c *container, err error, opts IteratorOptions, prefetch int) *Iterator {
	it := &Iterator{
		c:        c,
		opts:     opts,
		rng:      opts.keyRange(),
		prefetch: prefetch,
	}
	if err != nil {
		it.err = err
		it.state = stateExhausted
	}
	return it
}

// Next advances to the next key and reports whether there is one
func (it *Iterator) Next() bool {
	if it.state == stateUninitialized {
		it.state = stateInitializing
		snap, err := it.c.snapshot()
		if err != nil {
			it.fail(err)
			return false
		}
		it.cursor = snap.Cursor(it.rng, it.opts.Reverse)
		it.state = stateReady
	}

	for {
		if it.pos < len(it.buf) {
			it.cur = it.buf[it.pos]
			it.pos++
			return true
		}
		if it.state != stateReady {
			it.cur = entry{}
			return false
		}
		if !it.fill() {
			it.cur = entry{}
			return false
		}
	}
}

// fill reads the next window into buf. It returns false once the walk is over or failed.
// A window whose keys were all deleted in the meantime leaves buf empty but returns true.
func (it *Iterator) fill() bool {
	defer observeFill(time.Now())

	it.buf = it.buf[:0]
	it.pos = 0

	n := it.prefetch
	if it.opts.Limit > 0 && it.opts.Limit-it.taken < n {
		n = it.opts.Limit - it.taken
	}

	keys := make([]string, 0, n)
	for len(keys) < n {
		key, ok := it.cursor.Next()
		if !ok {
			break
		}
		keys = append(keys, key)
	}
	it.taken += len(keys)

	if len(keys) == 0 {
		it.finish()
		return false
	}

	if it.opts.KeysOnly {
		for _, key := range keys {
			it.buf = append(it.buf, entry{key: key})
		}
		return true
	}

	values, errs, err := it.c.getItems(keys)
	if err != nil {
		it.fail(err)
		return false
	}
	for i, key := range keys {
		if errs[i] != nil {
			if errors.Is(errs[i], ErrNotFound) {
				continue
			}
			it.fail(errs[i])
			return false
		}
		it.buf = append(it.buf, entry{key: key, value: values[i]})
	}
	return true
}

func (it *Iterator) fail(err error) {
	it.err = countErr(err)
	it.finish()
}

func (it *Iterator) finish() {
	it.state = stateExhausted
	it.buf = nil
	it.pos = 0
	if it.cursor != nil {
		it.cursor.Close()
	}
}

// Key returns the current key. It is nil before the first and after the last call to Next.
func (it *Iterator) Key() []byte {
	if it.cur.key == "" {
		return nil
	}
	return []byte(it.cur.key)
}

// Value returns the current value. It is the zero Value for keys-only iterators.
func (it *Iterator) Value() codec.Value {
	return it.cur.value
}

// Err returns the error that ended the walk, nil if the range was simply exhausted
func (it *Iterator) Err() error {
	return it.err
}

// Close ends the walk. Next returns false afterwards. Close never fails.
func (it *Iterator) Close() error {
	it.cur = entry{}
	it.finish()
	return nil
}
