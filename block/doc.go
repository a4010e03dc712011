// Package block implements the fixed-size block layer that the record
// layer (package record) is built on.
//
// A [Storage] wraps a random-access, extensible byte [Stream] and partitions
// it into fixed-size [Block]s, each with a header region of little-endian
// i64 fields and a content region of opaque payload bytes. Storage owns an
// in-memory table of currently-live blocks keyed by id, so that two
// concurrent references to the same block observe each other's header
// edits before either is released.
//
// # Basic usage
//
//	storage, err := block.Open(stream, block.Config{})
//	if err != nil {
//	    // handle err
//	}
//	defer storage.Close()
//
//	b, err := storage.CreateNew()
//	b.SetHeader(block.FieldRecordLength, 42)
//	b.Release()
//
// # Error handling
//
// Errors are sentinel values in this package's var block, wrapped with
// context via fmt.Errorf and checked with [errors.Is].
package block
