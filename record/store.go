package record

import (
	"fmt"

	"github.com/nyxstorage/recordstore/block"
)

// MaxRecordSize is the largest record length this layer will create or
// trust from a header: 4 MiB.
const MaxRecordSize = 4 << 20

// DefaultBlockSize and DefaultHeaderSize mirror package block's defaults,
// re-exported here since most callers configure a store through this
// package rather than through package block directly.
const (
	DefaultBlockSize  = block.DefaultBlockSize
	DefaultHeaderSize = block.DefaultHeaderSize
)

// freeListAlignment is the byte alignment every free-list block's
// block_content_length must respect (one little-endian u32 per entry).
const freeListAlignment = 4

// Store is the record layer built on top of a [block.Storage]: it chains
// blocks together into variable-length records and manages their reuse
// through an embedded free list.
//
// Store keeps no state of its own beyond a reference to the block storage
// and its content size; all durable state lives in the blocks themselves
// (record 0's chain doubles as the free-block queue).
type Store struct {
	blocks      *block.Storage
	contentSize int64
}

// Open returns a [Store] built on top of blocks. blocks must have already
// been opened with [block.Open]; Open itself performs no I/O.
func Open(blocks *block.Storage) (*Store, error) {
	if blocks == nil {
		return nil, fmt.Errorf("%w: nil block storage", ErrBadArgument)
	}
	return &Store{
		blocks:      blocks,
		contentSize: blocks.Config().ContentSize(),
	}, nil
}

// Blocks returns the underlying [block.Storage], for callers that need
// lower-level access to individual blocks.
func (s *Store) Blocks() *block.Storage {
	return s.blocks
}

// Close closes the underlying block storage.
func (s *Store) Close() error {
	return s.blocks.Close()
}

// Create allocates a single empty block and returns its id. The allocated
// block has every reserved header field zero, representing a zero-length
// record.
func (s *Store) Create() (uint32, error) {
	b, err := s.allocateBlock()
	if err != nil {
		return 0, err
	}
	id := b.ID()
	if err := b.Release(); err != nil {
		return 0, err
	}
	return id, nil
}

// CreateBytes is equivalent to CreateFunc(func(uint32) ([]byte, error) {
// return data, nil }).
func (s *Store) CreateBytes(data []byte) (uint32, error) {
	return s.CreateFunc(func(uint32) ([]byte, error) {
		return data, nil
	})
}

// CreateFunc allocates a head block, invokes gen with that block's id to
// obtain the record's payload, then writes the payload across as many
// blocks as needed.
func (s *Store) CreateFunc(gen func(id uint32) ([]byte, error)) (uint32, error) {
	if gen == nil {
		return 0, fmt.Errorf("%w: nil generator", ErrBadArgument)
	}

	head, err := s.allocateBlock()
	if err != nil {
		return 0, err
	}
	headID := head.ID()

	data, err := gen(headID)
	if err != nil {
		head.Release()
		return 0, err
	}
	if len(data) > MaxRecordSize {
		head.Release()
		return 0, fmt.Errorf("%w: %d bytes", ErrOversizedRecord, len(data))
	}
	if err := head.SetHeader(block.FieldRecordLength, int64(len(data))); err != nil {
		head.Release()
		return 0, err
	}

	if len(data) == 0 {
		if err := head.Release(); err != nil {
			return 0, err
		}
		return headID, nil
	}

	current := head
	offset := 0
	for {
		n := len(data) - offset
		if int64(n) > s.contentSize {
			n = int(s.contentSize)
		}
		if _, err := current.WriteAt(data[offset:offset+n], 0, 0, n); err != nil {
			current.Release()
			return 0, err
		}
		if err := current.SetHeader(block.FieldBlockContentLength, int64(n)); err != nil {
			current.Release()
			return 0, err
		}
		offset += n

		if offset >= len(data) {
			if err := current.Release(); err != nil {
				return 0, err
			}
			break
		}

		next, err := s.allocateBlock()
		if err != nil {
			current.Release()
			return 0, err
		}
		if err := current.SetHeader(block.FieldNextBlockID, int64(next.ID())); err != nil {
			current.Release()
			next.Release()
			return 0, err
		}
		if err := next.SetHeader(block.FieldPreviousBlockID, int64(current.ID())); err != nil {
			current.Release()
			next.Release()
			return 0, err
		}
		if err := current.Release(); err != nil {
			next.Release()
			return 0, err
		}
		current = next
	}
	return headID, nil
}

// Get reads back the record with the given id. found is false if the id
// doesn't name a live record (absent, deleted, or not a chain head).
func (s *Store) Get(recordID uint32) ([]byte, bool, error) {
	b, found, err := s.blocks.Get(recordID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	deleted, err := b.Header(block.FieldIsDeleted)
	if err != nil {
		b.Release()
		return nil, false, err
	}
	prev, err := b.Header(block.FieldPreviousBlockID)
	if err != nil {
		b.Release()
		return nil, false, err
	}
	if deleted != 0 || prev != 0 {
		b.Release()
		return nil, false, nil
	}

	length, err := b.Header(block.FieldRecordLength)
	if err != nil {
		b.Release()
		return nil, false, err
	}
	if length < 0 || length > MaxRecordSize {
		b.Release()
		return nil, false, fmt.Errorf("%w: %d bytes", ErrOversizedRecord, length)
	}

	out := make([]byte, length)
	offset := int64(0)
	current := b
	for {
		contentLen, err := current.Header(block.FieldBlockContentLength)
		if err != nil {
			current.Release()
			return nil, false, err
		}
		if contentLen < 0 || contentLen > s.contentSize {
			id := current.ID()
			current.Release()
			return nil, false, fmt.Errorf("%w: block %d content length %d", ErrOutOfBounds, id, contentLen)
		}
		if offset+contentLen > length {
			contentLen = length - offset
		}
		if contentLen > 0 {
			if _, err := current.ReadAt(out[offset:offset+contentLen], 0, 0, int(contentLen)); err != nil {
				current.Release()
				return nil, false, err
			}
		}
		offset += contentLen

		next, err := current.Header(block.FieldNextBlockID)
		if err != nil {
			current.Release()
			return nil, false, err
		}
		if err := current.Release(); err != nil {
			return nil, false, err
		}
		if next == 0 {
			break
		}

		nextBlock, found, err := s.blocks.Get(uint32(next))
		if err != nil {
			return nil, false, err
		}
		if !found {
			return nil, false, fmt.Errorf("%w: missing block %d", ErrBrokenChain, next)
		}
		current = nextBlock
	}
	return out, true, nil
}

// Update overwrites the record's payload with data, shrinking or growing
// its chain as needed. Blocks freed by a shrink are pushed to the free
// list; blocks needed to grow are taken from the free list or freshly
// allocated.
func (s *Store) Update(recordID uint32, data []byte) error {
	if len(data) > MaxRecordSize {
		return fmt.Errorf("%w: %d bytes", ErrOversizedRecord, len(data))
	}

	chain, err := s.getBlocks(recordID)
	if err != nil {
		return err
	}
	// oldTail tracks the suffix of chain not yet consumed by this write, so
	// error paths can release it without risking an out-of-range slice once
	// used grows past len(chain) (newly allocated blocks have no entry in
	// chain at all).
	oldTail := func(used int) []*block.Block {
		if used >= len(chain) {
			return nil
		}
		return chain[used:]
	}

	offset := 0
	used := 0
	var prevBlock *block.Block

	for offset < len(data) || used == 0 {
		sliceLen := len(data) - offset
		if int64(sliceLen) > s.contentSize {
			sliceLen = int(s.contentSize)
		}

		var current *block.Block
		if used < len(chain) {
			current = chain[used]
		} else {
			current, err = s.allocateBlock()
			if err != nil {
				if prevBlock != nil {
					prevBlock.Release()
				}
				return err
			}
		}

		if prevBlock != nil {
			if err := prevBlock.SetHeader(block.FieldNextBlockID, int64(current.ID())); err != nil {
				prevBlock.Release()
				current.Release()
				releaseAll(oldTail(used + 1))
				return err
			}
			if err := current.SetHeader(block.FieldPreviousBlockID, int64(prevBlock.ID())); err != nil {
				prevBlock.Release()
				current.Release()
				releaseAll(oldTail(used + 1))
				return err
			}
			if err := prevBlock.Release(); err != nil {
				current.Release()
				releaseAll(oldTail(used + 1))
				return err
			}
		}

		if _, err := current.WriteAt(data[offset:offset+sliceLen], 0, 0, sliceLen); err != nil {
			current.Release()
			releaseAll(oldTail(used + 1))
			return err
		}
		if err := current.SetHeader(block.FieldBlockContentLength, int64(sliceLen)); err != nil {
			current.Release()
			releaseAll(oldTail(used + 1))
			return err
		}
		// Set next = 0 unconditionally; the following iteration overwrites
		// it if another block follows, so the terminal block ends with
		// next = 0 either way.
		if err := current.SetHeader(block.FieldNextBlockID, 0); err != nil {
			current.Release()
			releaseAll(oldTail(used + 1))
			return err
		}
		if used == 0 {
			if err := current.SetHeader(block.FieldRecordLength, int64(len(data))); err != nil {
				current.Release()
				releaseAll(oldTail(used + 1))
				return err
			}
		}

		offset += sliceLen
		used++

		if offset >= len(data) {
			if err := current.Release(); err != nil {
				releaseAll(oldTail(used))
				return err
			}
			break
		}
		prevBlock = current
	}

	for _, b := range oldTail(used) {
		id := b.ID()
		if err := b.Release(); err != nil {
			return err
		}
		if err := s.markAsFree(id); err != nil {
			return err
		}
	}
	return nil
}

// Delete marks every block of the record's chain as free and deleted. A
// non-existent record, a non-head id, or a record already deleted is a
// no-op - matching [Store.Get]'s treatment of the same conditions. Without
// this check, deleting an already-deleted record would re-append its block
// ids to the free list a second time, letting two unrelated Create/Update
// calls later hand out the same physical block id to two live records.
func (s *Store) Delete(recordID uint32) error {
	b, found, err := s.blocks.Get(recordID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	deleted, err := b.Header(block.FieldIsDeleted)
	if err != nil {
		b.Release()
		return err
	}
	prev, err := b.Header(block.FieldPreviousBlockID)
	if err != nil {
		b.Release()
		return err
	}
	if deleted != 0 || prev != 0 {
		return b.Release()
	}

	current := b
	for {
		id := current.ID()
		if err := s.markAsFree(id); err != nil {
			current.Release()
			return err
		}
		if err := current.SetHeader(block.FieldIsDeleted, 1); err != nil {
			current.Release()
			return err
		}
		next, err := current.Header(block.FieldNextBlockID)
		if err != nil {
			current.Release()
			return err
		}
		if err := current.Release(); err != nil {
			return err
		}
		if next == 0 {
			break
		}

		nb, found, err := s.blocks.Get(uint32(next))
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: missing block %d", ErrBrokenChain, next)
		}
		current = nb
	}
	return nil
}

func releaseAll(blocks []*block.Block) {
	for _, b := range blocks {
		b.Release()
	}
}
