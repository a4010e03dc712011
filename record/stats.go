package record

import (
	"encoding/binary"

	"github.com/nyxstorage/recordstore/block"
)

// Stats is a best-effort diagnostic snapshot of a store. Computing it walks
// every block in the stream, so it is O(blocks) and meant for operator
// tooling (see cmd/recstore's "info" command), not a hot path. LiveRecords
// is approximate: it counts every non-deleted block whose
// previous_block_id is 0, which also matches free-list blocks with a
// previous_block_id of 0 (one linked directly after block 0, or one
// detached from the free-list chain by a pop).
type Stats struct {
	BlockSize   int64
	HeaderSize  int64
	ContentSize int64
	TotalBlocks uint32
	LiveRecords int
	FreeListLen int
}

// Stats walks every block in the store and reports counts. A "live record"
// is any block whose previous_block_id is 0 (a chain head) and that isn't
// deleted; record 0 itself is excluded since it's the free-list sentinel,
// not an application record.
func (s *Store) Stats() (Stats, error) {
	cfg := s.blocks.Config()
	stats := Stats{
		BlockSize:   cfg.BlockSize,
		HeaderSize:  cfg.HeaderSize,
		ContentSize: cfg.ContentSize(),
	}

	var id uint32
	for {
		b, found, err := s.blocks.Get(id)
		if err != nil {
			return Stats{}, err
		}
		if !found {
			break
		}
		stats.TotalBlocks++

		if id != 0 {
			deleted, err := b.Header(block.FieldIsDeleted)
			if err != nil {
				b.Release()
				return Stats{}, err
			}
			prev, err := b.Header(block.FieldPreviousBlockID)
			if err != nil {
				b.Release()
				return Stats{}, err
			}
			if deleted == 0 && prev == 0 {
				stats.LiveRecords++
			}
		}
		if err := b.Release(); err != nil {
			return Stats{}, err
		}
		id++
	}

	freeIDs, err := s.freeListIDs()
	if err != nil {
		return Stats{}, err
	}
	stats.FreeListLen = len(freeIDs)

	return stats, nil
}

// freeListIDs returns every block id currently queued on the free list, in
// queue order (head to tail). Used by Stats; cmd/recstore's "freelist"
// command walks record 0's chain on its own.
func (s *Store) freeListIDs() ([]uint32, error) {
	chain, err := s.getBlocks(0)
	if err != nil {
		return nil, err
	}
	defer releaseAll(chain)

	var ids []uint32
	for _, b := range chain {
		length, err := b.Header(block.FieldBlockContentLength)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, length)
		if length > 0 {
			if _, err := b.ReadAt(buf, 0, 0, int(length)); err != nil {
				return nil, err
			}
		}
		for off := int64(0); off+4 <= length; off += 4 {
			ids = append(ids, binary.LittleEndian.Uint32(buf[off:off+4]))
		}
	}
	return ids, nil
}
