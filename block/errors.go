package block

import "errors"

// Sentinel errors returned by the block layer.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, block.ErrDisposed) {
//	    // the block was already released
//	}
var (
	// ErrDisposed indicates an operation on a block that has already been
	// released.
	//
	// Recovery: programming error - fetch a fresh block via [Storage.Get].
	ErrDisposed = errors.New("block: disposed")

	// ErrBadField indicates a header field index outside
	// [0, header_size/8).
	//
	// Recovery: programming error - check the field index.
	ErrBadField = errors.New("block: bad header field")

	// ErrOutOfBounds indicates a read/write range exceeding a block's
	// content area or the caller's buffer.
	//
	// Recovery: programming error - check offsets and lengths.
	ErrOutOfBounds = errors.New("block: out of bounds")

	// ErrMisalignedStorage indicates the underlying stream's length is not
	// a multiple of the configured block size.
	//
	// Recovery: the store file is corrupt or was truncated; it cannot be
	// safely opened for writing.
	ErrMisalignedStorage = errors.New("block: misaligned storage")

	// ErrShortRead indicates the underlying stream returned EOF before the
	// requested number of bytes could be read.
	//
	// Recovery: the store file is truncated or corrupt.
	ErrShortRead = errors.New("block: short read")

	// ErrAllocationFailed indicates the block layer could not create a new
	// block (stream extension failed).
	//
	// Recovery: check available disk space and stream permissions.
	ErrAllocationFailed = errors.New("block: allocation failed")

	// ErrBadArgument indicates an invalid configuration parameter, such as
	// a block size below the minimum or a header size that doesn't fit.
	//
	// Recovery: programming error - fix the caller's [Config].
	ErrBadArgument = errors.New("block: bad argument")
)
