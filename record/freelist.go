package record

import (
	"encoding/binary"
	"fmt"

	"github.com/nyxstorage/recordstore/block"
)

// spaceTrackingBlocks returns record 0's final block (last) and, if the
// chain has more than one block, its predecessor (secondLast). Every other
// intermediate block in record 0's chain is released before returning.
// Callers are responsible for releasing last and secondLast.
func (s *Store) spaceTrackingBlocks() (last, secondLast *block.Block, err error) {
	chain, err := s.getBlocks(0)
	if err != nil {
		return nil, nil, err
	}

	last = chain[len(chain)-1]
	if len(chain) >= 2 {
		secondLast = chain[len(chain)-2]
	}
	releaseAll(chain[:max(0, len(chain)-2)])
	return last, secondLast, nil
}

// readTrailingU32 returns the last little-endian u32 stored in b's content,
// without modifying block_content_length.
func readTrailingU32(b *block.Block, contentLen int64) (uint32, error) {
	if contentLen%freeListAlignment != 0 {
		return 0, fmt.Errorf("%w: block %d length %d", ErrMisalignedFreeList, b.ID(), contentLen)
	}
	if contentLen == 0 {
		return 0, fmt.Errorf("%w: block %d", ErrEmptyFreeList, b.ID())
	}
	buf := make([]byte, freeListAlignment)
	if _, err := b.ReadAt(buf, 0, int(contentLen-freeListAlignment), freeListAlignment); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// popTrailingU32 reads and removes the last u32 entry from b's content,
// decrementing block_content_length by 4.
func popTrailingU32(b *block.Block) (uint32, error) {
	contentLen, err := b.Header(block.FieldBlockContentLength)
	if err != nil {
		return 0, err
	}
	id, err := readTrailingU32(b, contentLen)
	if err != nil {
		return 0, err
	}
	if err := b.SetHeader(block.FieldBlockContentLength, contentLen-freeListAlignment); err != nil {
		return 0, err
	}
	return id, nil
}

// appendU32 appends v as a little-endian u32 to b's content, incrementing
// block_content_length by 4. Callers must ensure there is room
// (block_content_length + 4 <= content_size).
func appendU32(b *block.Block, v uint32) error {
	contentLen, err := b.Header(block.FieldBlockContentLength)
	if err != nil {
		return err
	}
	if contentLen%freeListAlignment != 0 {
		return fmt.Errorf("%w: block %d length %d", ErrMisalignedFreeList, b.ID(), contentLen)
	}
	buf := make([]byte, freeListAlignment)
	binary.LittleEndian.PutUint32(buf, v)
	if _, err := b.WriteAt(buf, 0, int(contentLen), freeListAlignment); err != nil {
		return err
	}
	return b.SetHeader(block.FieldBlockContentLength, contentLen+freeListAlignment)
}

// tryPopFree attempts to pop one block id off the free-block queue stored
// in record 0's chain. ok is false if the queue is empty.
func (s *Store) tryPopFree() (id uint32, ok bool, err error) {
	last, secondLast, err := s.spaceTrackingBlocks()
	if err != nil {
		return 0, false, err
	}
	defer func() {
		if last != nil {
			last.Release()
		}
		if secondLast != nil {
			secondLast.Release()
		}
	}()

	lastLen, err := last.Header(block.FieldBlockContentLength)
	if err != nil {
		return 0, false, err
	}
	if lastLen%freeListAlignment != 0 {
		return 0, false, fmt.Errorf("%w: block %d length %d", ErrMisalignedFreeList, last.ID(), lastLen)
	}

	if lastLen > 0 {
		id, err := popTrailingU32(last)
		if err != nil {
			return 0, false, err
		}
		return id, true, nil
	}

	if secondLast == nil {
		return 0, false, nil
	}

	poppedID, err := popTrailingU32(secondLast)
	if err != nil {
		return 0, false, err
	}
	if err := appendU32(secondLast, last.ID()); err != nil {
		return 0, false, err
	}
	if err := secondLast.SetHeader(block.FieldNextBlockID, 0); err != nil {
		return 0, false, err
	}
	if err := last.SetHeader(block.FieldPreviousBlockID, 0); err != nil {
		return 0, false, err
	}
	return poppedID, true, nil
}

// markAsFree appends blockID to the free-block queue, growing the queue
// with a freshly created block if the current tail is full. The new block
// is always created via [block.Storage.CreateNew], never reused from the
// free list itself - reusing here would let the queue's own growth starve
// it of entries.
func (s *Store) markAsFree(blockID uint32) error {
	last, secondLast, err := s.spaceTrackingBlocks()
	if err != nil {
		return err
	}
	defer func() {
		if secondLast != nil {
			secondLast.Release()
		}
	}()

	lastLen, err := last.Header(block.FieldBlockContentLength)
	if err != nil {
		last.Release()
		return err
	}

	if lastLen+freeListAlignment <= s.contentSize {
		if err := appendU32(last, blockID); err != nil {
			last.Release()
			return err
		}
		return last.Release()
	}

	fresh, err := s.blocks.CreateNew()
	if err != nil {
		last.Release()
		return fmt.Errorf("%w: %v", ErrAllocationFailed, err)
	}
	if err := fresh.SetHeader(block.FieldPreviousBlockID, int64(last.ID())); err != nil {
		last.Release()
		fresh.Release()
		return err
	}
	if err := last.SetHeader(block.FieldNextBlockID, int64(fresh.ID())); err != nil {
		last.Release()
		fresh.Release()
		return err
	}
	if err := last.Release(); err != nil {
		fresh.Release()
		return err
	}
	if err := appendU32(fresh, blockID); err != nil {
		fresh.Release()
		return err
	}
	return fresh.Release()
}

// allocateBlock returns a block ready for reuse, taking one from the free
// list when available and falling back to a fresh block from
// [block.Storage.CreateNew] otherwise. A block taken from the free list has
// its five reserved header fields zeroed before it is returned.
func (s *Store) allocateBlock() (*block.Block, error) {
	id, ok, err := s.tryPopFree()
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.blocks.CreateNew()
	}

	b, found, err := s.blocks.Get(id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: free block %d missing", ErrBrokenChain, id)
	}
	for field := 0; field < 5; field++ {
		if err := b.SetHeader(field, 0); err != nil {
			b.Release()
			return nil, err
		}
	}
	return b, nil
}
