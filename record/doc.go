// Package record implements the record layer: it composes fixed-size
// [block.Block]s from package block into chains that represent
// variable-length records identified by stable u32 ids, and manages a
// free-block list so that deleted blocks can be reused without growing the
// backing stream.
//
// Record 0 is a sentinel: its chain's content is not a record payload but a
// queue of little-endian u32 ids of blocks available for reuse.
//
// # Basic usage
//
//	storage, _ := block.Open(stream, block.Config{})
//	store, err := record.Open(storage)
//	if err != nil {
//	    // handle err
//	}
//
//	id, err := store.CreateBytes([]byte("hello"))
//	data, found, err := store.Get(id)
//	err = store.Update(id, []byte("hello, world"))
//	err = store.Delete(id)
//
// # Error handling
//
// Errors are sentinel values in this package's var block, some of which
// alias package block's sentinels directly (a disposed or out-of-bounds
// block access surfaces the same error whether observed through block or
// record). Use [errors.Is] to check.
package record
