package ordered

import (
	"github.com/ValentinKolb/oKV/lib/db"
	"github.com/ValentinKolb/oKV/lib/ordered/codec"
	"github.com/ValentinKolb/oKV/lib/store"
)

// backing is the namespaced view of a flat store. Keys passed in and returned are
// relative to the namespace, the prefix is applied and stripped here.
// Batched and prefix operations use the optional store interfaces when the store
// implements them and fall back to per-key calls otherwise.
type backing struct {
	st     store.IStore
	prefix string
}

func newBacking(name string, st store.IStore) *backing {
	return &backing{st: st, prefix: codec.MakePrefix(name)}
}

// rawKeys lists the full keys of the namespace
func (b *backing) rawKeys() ([]string, error) {
	if ps, ok := b.st.(store.IPrefixStore); ok {
		return ps.KeysWithPrefix(b.prefix)
	}

	all, err := b.st.Keys()
	if err != nil {
		return nil, err
	}
	return codec.ApplyPrefixAll(b.prefix, codec.StripPrefix(all, b.prefix)), nil
}

// listKeys lists the keys of the namespace in no particular order
func (b *backing) listKeys() ([]string, error) {
	raw, err := b.rawKeys()
	if err != nil {
		return nil, err
	}
	return codec.StripPrefix(raw, b.prefix), nil
}

// multiSet writes the encoded values for keys
func (b *backing) multiSet(keys, encoded []string) error {
	entries := make([]db.KeyValue, len(keys))
	for i, key := range keys {
		entries[i] = db.KeyValue{Key: codec.ApplyPrefix(b.prefix, key), Value: []byte(encoded[i])}
	}

	if bs, ok := b.st.(store.IBatchStore); ok {
		return bs.MultiSet(entries)
	}
	for _, e := range entries {
		if err := b.st.Set(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// multiGet reads the encoded values for keys, loaded[i] is false for a missing key
func (b *backing) multiGet(keys []string) (encoded []string, loaded []bool, err error) {
	raw := codec.ApplyPrefixAll(b.prefix, keys)

	var values [][]byte
	if bs, ok := b.st.(store.IBatchStore); ok {
		values, loaded, err = bs.MultiGet(raw)
		if err != nil {
			return nil, nil, err
		}
	} else {
		values = make([][]byte, len(raw))
		loaded = make([]bool, len(raw))
		for i, key := range raw {
			if values[i], loaded[i], err = b.st.Get(key); err != nil {
				return nil, nil, err
			}
		}
	}

	encoded = make([]string, len(values))
	for i, v := range values {
		encoded[i] = string(v)
	}
	return encoded, loaded, nil
}

// multiRemove deletes keys
func (b *backing) multiRemove(keys []string) error {
	return b.removeRaw(codec.ApplyPrefixAll(b.prefix, keys))
}

// removeRaw deletes full keys
func (b *backing) removeRaw(raw []string) error {
	if bs, ok := b.st.(store.IBatchStore); ok {
		return bs.MultiDelete(raw)
	}
	for _, key := range raw {
		if err := b.st.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
