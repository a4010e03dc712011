package record

import (
	"errors"

	"github.com/nyxstorage/recordstore/block"
)

// Sentinel errors returned by the record layer.
//
// [ErrDisposed], [ErrBadField], [ErrOutOfBounds], [ErrMisalignedStorage],
// [ErrShortRead] and [ErrAllocationFailed] alias the identically-named
// errors in package block, since a block-layer failure during a record
// operation surfaces as that same underlying cause.
var (
	// ErrBadArgument indicates an invalid parameter, such as a nil
	// generator function or a nil block storage. Oversized input is
	// reported as [ErrOversizedRecord] instead.
	//
	// Recovery: programming error - check the call site.
	ErrBadArgument = errors.New("record: bad argument")

	// ErrDisposed is [block.ErrDisposed].
	ErrDisposed = block.ErrDisposed

	// ErrBadField is [block.ErrBadField].
	ErrBadField = block.ErrBadField

	// ErrOutOfBounds is [block.ErrOutOfBounds].
	ErrOutOfBounds = block.ErrOutOfBounds

	// ErrMisalignedStorage is [block.ErrMisalignedStorage].
	ErrMisalignedStorage = block.ErrMisalignedStorage

	// ErrShortRead is [block.ErrShortRead].
	ErrShortRead = block.ErrShortRead

	// ErrAllocationFailed is [block.ErrAllocationFailed].
	ErrAllocationFailed = block.ErrAllocationFailed

	// ErrMisalignedFreeList indicates a free-list block's content length is
	// not a multiple of 4 bytes.
	//
	// Recovery: the store file is corrupt.
	ErrMisalignedFreeList = errors.New("record: misaligned free list")

	// ErrEmptyFreeList indicates an attempt to pop from a free-list block
	// that the chain walk expected to be non-empty.
	//
	// Recovery: the store file is corrupt.
	ErrEmptyFreeList = errors.New("record: empty free list")

	// ErrOversizedRecord indicates a record length exceeding
	// [MaxRecordSize].
	//
	// Recovery: either the caller passed too much data, or the store file
	// is corrupt (a header claims an impossible record_length).
	ErrOversizedRecord = errors.New("record: oversized record")

	// ErrBrokenChain indicates a dangling next pointer or a deleted block
	// encountered while walking a chain that should be live.
	//
	// Recovery: the store file is corrupt.
	ErrBrokenChain = errors.New("record: broken chain")
)
