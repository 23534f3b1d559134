// Package ordered provides an ordered, range-queryable key-value store on top of a flat
// store (store.IStore) that only knows unordered get, set, delete and key listing.
//
// Every DB lives in its own namespace of the flat store: keys are stored as
// codec.MakePrefix(name)+key, so stores with different names never see each other's keys.
// On Open the keys of the namespace are loaded into an in-memory sorted index. All reads of
// the index and all writes go through a per-store task queue, one task at a time.
//
// Values are tagged (codec.Value: bytes, text or structured JSON) and stored as strings,
// see package codec for the format.
//
// Range queries use an Iterator. It snapshots the index on its first Next call and reads
// values in windows of Options.PrefetchSize keys.
//
// Errors are *Error values with a Code. Compare them with errors.Is against
// ErrInvalidArgument, ErrNotFound, ErrStorageUnavailable and ErrNotOpen.
//
// Basic usage:
//
//	st, _ := lstore.NewLocalStore(func() (db.KVDB, error) { return maple.NewMapleDB(nil), nil })
//	d, _ := ordered.New("users", st, nil)
//	if err := d.Open(); err != nil { ... }
//	defer d.Close()
//
//	_ = d.Put([]byte("alice"), codec.Text("admin"))
//	v, err := d.Get([]byte("alice"))
//
// Related Packages:
//
// The codec package (github.com/ValentinKolb/oKV/lib/ordered/codec) holds the namespace
// and value encodings.
//
// The store package (github.com/ValentinKolb/oKV/lib/store) defines the flat store
// interfaces, implemented locally by lstore, replicated by dstore and remotely by the
// rpc client.
package ordered
