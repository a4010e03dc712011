package record

import (
	"fmt"

	"github.com/nyxstorage/recordstore/block"
)

// getBlocks walks the chain starting at recordID, following next_block_id,
// and returns the ordered list of borrowed (live) blocks. The caller owns
// every returned block and must release each one.
//
// Special case: if recordID is 0 and block 0 doesn't exist yet, it is
// created - this bootstraps the free-list sentinel on a fresh store. For
// any other missing block, or any deleted block encountered mid-chain,
// getBlocks fails with [ErrBrokenChain] and releases every block it had
// already fetched.
func (s *Store) getBlocks(recordID uint32) ([]*block.Block, error) {
	var chain []*block.Block
	id := recordID

	for i := 0; ; i++ {
		b, found, err := s.blocks.Get(id)
		if err != nil {
			releaseAll(chain)
			return nil, err
		}

		if !found {
			if i == 0 && id == 0 {
				b, err = s.blocks.CreateNew()
				if err != nil {
					releaseAll(chain)
					return nil, fmt.Errorf("%w: %v", ErrAllocationFailed, err)
				}
			} else {
				releaseAll(chain)
				return nil, fmt.Errorf("%w: missing block %d", ErrBrokenChain, id)
			}
		} else {
			deleted, err := b.Header(block.FieldIsDeleted)
			if err != nil {
				chain = append(chain, b)
				releaseAll(chain)
				return nil, err
			}
			if deleted != 0 {
				chain = append(chain, b)
				releaseAll(chain)
				return nil, fmt.Errorf("%w: block %d marked deleted", ErrBrokenChain, id)
			}
		}

		chain = append(chain, b)

		next, err := b.Header(block.FieldNextBlockID)
		if err != nil {
			releaseAll(chain)
			return nil, err
		}
		if next == 0 {
			break
		}
		id = uint32(next)
	}
	return chain, nil
}
