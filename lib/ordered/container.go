package ordered

import (
	"errors"

	"github.com/ValentinKolb/oKV/lib/ordered/codec"
	"github.com/ValentinKolb/oKV/lib/ordered/internal"
	"github.com/ValentinKolb/oKV/lib/store"
)

// container is one open logical store: the sorted index of its keys, the queue that
// serializes every access to the index and the namespaced backing store.
//
// Every method runs its work as a single queued task, so index and store are always
// changed together and readers never see one without the other.
type container struct {
	name    string
	backing *backing
	queue   *internal.Queue
	index   *internal.Index
}

func newContainer(name string, st store.IStore) *container {
	return &container{
		name:    name,
		backing: newBacking(name, st),
		queue:   internal.NewQueue(),
		index:   internal.NewIndex(),
	}
}

// do runs fn on the queue. A closed queue means the store was closed.
func (c *container) do(fn internal.Task) error {
	err := c.queue.Do(fn)
	if errors.Is(err, internal.ErrQueueClosed) {
		return ErrNotOpen
	}
	return err
}

// init loads every key of the namespace into the index
func (c *container) init() error {
	return c.do(func() error {
		keys, err := c.backing.listKeys()
		if err != nil {
			return storageError("list keys", err)
		}
		c.index.Init(keys)
		log.Debugf("store %q: loaded %d keys", c.name, c.index.Len())
		return nil
	})
}

// close waits for queued work and rejects everything added afterwards
func (c *container) close() {
	c.queue.Close()
}

// keys returns every key in order
func (c *container) keys() (keys []string, err error) {
	err = c.do(func() error {
		keys = c.index.Keys()
		return nil
	})
	return keys, err
}

// length returns the number of keys
func (c *container) length() (n int, err error) {
	err = c.do(func() error {
		n = c.index.Len()
		return nil
	})
	return n, err
}

// snapshot freezes the index for an iterator
func (c *container) snapshot() (snap *internal.Snapshot, err error) {
	err = c.do(func() error {
		snap = c.index.Snapshot()
		return nil
	})
	return snap, err
}

// setItems stores values[i] under keys[i]. Values are encoded before the task is
// queued. Inside the task the index takes the keys first and the store write follows.
// A failed write keeps the keys indexed, reads of them report NotFound until they
// are written again.
func (c *container) setItems(keys []string, values []codec.Value) error {
	encoded := make([]string, len(values))
	for i, v := range values {
		s, err := codec.Encode(v)
		if err != nil {
			return invalidArgument("value for key %q: %v", keys[i], err)
		}
		encoded[i] = s
	}

	return c.do(func() error {
		for _, key := range keys {
			c.index.InsertOrdered(key)
		}
		if err := c.backing.multiSet(keys, encoded); err != nil {
			return storageError("write", err)
		}
		return nil
	})
}

// removeItems drops keys from the index and then deletes them from the store
func (c *container) removeItems(keys []string) error {
	return c.do(func() error {
		for _, key := range keys {
			c.index.RemoveOrdered(key)
		}
		if err := c.backing.multiRemove(keys); err != nil {
			return storageError("delete", err)
		}
		return nil
	})
}

// getItems reads the values for keys. errs[i] is ErrNotFound for keys the index does not
// hold, those are never requested from the store. A key the index holds but the store
// does not is reported as not found too. err is set if the read failed as a whole.
func (c *container) getItems(keys []string) (values []codec.Value, errs []error, err error) {
	values = make([]codec.Value, len(keys))
	errs = make([]error, len(keys))

	err = c.do(func() error {
		present := make([]string, 0, len(keys))
		at := make([]int, 0, len(keys))
		for i, key := range keys {
			if !c.index.Has(key) {
				errs[i] = notFound(key)
				continue
			}
			present = append(present, key)
			at = append(at, i)
		}
		if len(present) == 0 {
			return nil
		}

		encoded, loaded, err := c.backing.multiGet(present)
		if err != nil {
			return storageError("read", err)
		}
		for j, i := range at {
			if !loaded[j] {
				log.Warningf("store %q: key %q is indexed but missing in the backing store", c.name, present[j])
				errs[i] = notFound(present[j])
				continue
			}
			values[i] = codec.Decode(encoded[j])
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return values, errs, nil
}
