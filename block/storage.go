package block

import (
	"fmt"
)

// Storage wraps a random-access, extensible [Stream] and partitions it into
// fixed-size blocks.
//
// Storage owns an in-memory table of currently-live blocks keyed by id, so
// that two calls to [Storage.Get] for the same id during that block's
// lifetime return the same *[Block] - header edits made through one
// reference are immediately visible through the other.
type Storage struct {
	stream Stream
	cfg    Config

	live map[uint32]*Block
}

// Open validates cfg, checks that the stream's length is a whole multiple
// of the configured block size (failing [ErrMisalignedStorage] otherwise),
// and returns a ready-to-use [Storage].
func Open(stream Stream, cfg Config) (*Storage, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	length, err := stream.Len()
	if err != nil {
		return nil, fmt.Errorf("block: read stream length: %w", err)
	}
	if length%cfg.BlockSize != 0 {
		return nil, fmt.Errorf("%w: stream length %d not a multiple of block size %d", ErrMisalignedStorage, length, cfg.BlockSize)
	}

	return &Storage{
		stream: stream,
		cfg:    cfg,
		live:   make(map[uint32]*Block),
	}, nil
}

// Config returns the storage's normalized configuration.
func (s *Storage) Config() Config {
	return s.cfg
}

// Close flushes and closes the underlying stream. Any still-live blocks are
// left un-released - callers must release every [Block] they hold before
// closing.
func (s *Storage) Close() error {
	if err := s.stream.Flush(); err != nil {
		return err
	}
	return s.stream.Close()
}

// Get returns the block with the given id. If a live reference to that
// block already exists, the same *[Block] is returned. If the id lies
// beyond the stream's current length, found is false. A read error is
// reported as a non-nil error with found meaningless.
func (s *Storage) Get(id uint32) (b *Block, found bool, err error) {
	if existing, ok := s.live[id]; ok {
		return existing, true, nil
	}

	length, err := s.stream.Len()
	if err != nil {
		return nil, false, fmt.Errorf("block: read stream length: %w", err)
	}
	offset := int64(id) * s.cfg.BlockSize
	if offset+s.cfg.BlockSize > length {
		return nil, false, nil
	}

	sectorBuf := make([]byte, s.cfg.sectorSize())
	n, err := s.stream.ReadAt(sectorBuf, offset)
	if err != nil || int64(n) < s.cfg.sectorSize() {
		return nil, false, fmt.Errorf("%w: reading sector for block %d: %v", ErrShortRead, id, err)
	}

	blk := newBlock(s, id, sectorBuf)
	s.live[id] = blk
	return blk, true, nil
}

// CreateNew extends the stream by one block_size, assigns the new block the
// next sequential id, and returns it with a zeroed sector buffer.
//
// Requires the stream's length to already be a multiple of block_size
// (guaranteed by [Open] and maintained by every call to CreateNew);
// violating this is reported as [ErrMisalignedStorage].
func (s *Storage) CreateNew() (*Block, error) {
	length, err := s.stream.Len()
	if err != nil {
		return nil, fmt.Errorf("block: read stream length: %w", err)
	}
	if length%s.cfg.BlockSize != 0 {
		return nil, fmt.Errorf("%w: stream length %d not a multiple of block size %d", ErrMisalignedStorage, length, s.cfg.BlockSize)
	}

	id := uint32(length / s.cfg.BlockSize)
	newLength := length + s.cfg.BlockSize
	if err := s.stream.Truncate(newLength); err != nil {
		return nil, fmt.Errorf("%w: extending stream: %v", ErrAllocationFailed, err)
	}
	if err := s.stream.Flush(); err != nil {
		return nil, fmt.Errorf("%w: flushing after extend: %v", ErrAllocationFailed, err)
	}

	sectorBuf := make([]byte, s.cfg.sectorSize())
	blk := newBlock(s, id, sectorBuf)
	s.live[id] = blk
	return blk, nil
}

// release is called by [Block.Release] on first release to remove the
// block from the live table.
func (s *Storage) release(id uint32) {
	delete(s.live, id)
}
