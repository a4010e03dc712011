package block

import (
	"encoding/binary"
	"fmt"
	"io"
)

const writeThroughChunkSize = 4096

// Block is a fixed-size region of a [Storage]'s stream: a header of
// little-endian i64 fields followed by a content area of opaque payload
// bytes.
//
// A Block is obtained from [Storage.Get] or [Storage.CreateNew] and must be
// released via [Block.Release] when the caller is done with it. Header
// writes are cached in memory and in a sector-sized write-behind buffer;
// they are not guaranteed to reach the stream until Release.
type Block struct {
	storage *Storage
	id      uint32

	sectorBuf []byte
	dirty     bool
	disposed  bool

	headerCache      [numReservedFields]int64
	headerCacheValid [numReservedFields]bool
}

func newBlock(s *Storage, id uint32, sectorBuf []byte) *Block {
	return &Block{
		storage:   s,
		id:        id,
		sectorBuf: sectorBuf,
	}
}

// ID returns the block's id, equal to its offset divided by block_size.
func (b *Block) ID() uint32 {
	return b.id
}

// Header returns the decoded i64 value of the given header field.
func (b *Block) Header(field int) (int64, error) {
	if err := b.checkField(field); err != nil {
		return 0, err
	}
	if field < numReservedFields {
		if b.headerCacheValid[field] {
			return b.headerCache[field], nil
		}
		v := b.decodeField(field)
		b.headerCache[field] = v
		b.headerCacheValid[field] = true
		return v, nil
	}
	return b.decodeField(field), nil
}

// SetHeader encodes value into the given header field. The change is
// buffered in memory and is not written to the stream until [Block.Release].
func (b *Block) SetHeader(field int, value int64) error {
	if err := b.checkField(field); err != nil {
		return err
	}
	b.encodeField(field, value)
	if field < numReservedFields {
		b.headerCache[field] = value
		b.headerCacheValid[field] = true
	}
	b.dirty = true
	return nil
}

func (b *Block) checkField(field int) error {
	if b.disposed {
		return ErrDisposed
	}
	if field < 0 || int64(field) >= b.storage.cfg.numHeaderFields() {
		return fmt.Errorf("%w: field %d", ErrBadField, field)
	}
	return nil
}

func (b *Block) decodeField(field int) int64 {
	off := field * fieldWidth
	return int64(binary.LittleEndian.Uint64(b.sectorBuf[off : off+fieldWidth]))
}

func (b *Block) encodeField(field int, value int64) {
	off := field * fieldWidth
	binary.LittleEndian.PutUint64(b.sectorBuf[off:off+fieldWidth], uint64(value))
}

// bytesInSector returns how many leading content bytes (content offset 0
// through this value, exclusive) live inside the sector buffer.
func (b *Block) bytesInSector() int64 {
	n := b.storage.cfg.sectorSize() - b.storage.cfg.HeaderSize
	if n < 0 {
		return 0
	}
	return n
}

// ReadAt reads count content bytes starting at content offset srcOff into
// dest[destOff : destOff+count].
func (b *Block) ReadAt(dest []byte, destOff, srcOff, count int) (int, error) {
	if b.disposed {
		return 0, ErrDisposed
	}
	contentSize := b.storage.cfg.contentSize()
	if int64(srcOff+count) > contentSize || destOff+count > len(dest) || srcOff < 0 || destOff < 0 || count < 0 {
		return 0, fmt.Errorf("%w: read src_off=%d count=%d dest_off=%d", ErrOutOfBounds, srcOff, count, destOff)
	}

	inSector := b.bytesInSector()
	headerSize := b.storage.cfg.HeaderSize
	read := 0

	if int64(srcOff) < inSector {
		n := count
		if int64(srcOff+n) > inSector {
			n = int(inSector) - srcOff
		}
		start := int(headerSize) + srcOff
		copy(dest[destOff:destOff+n], b.sectorBuf[start:start+n])
		srcOff += n
		destOff += n
		count -= n
		read += n
	}

	if count > 0 {
		absOff := int64(b.id)*b.storage.cfg.BlockSize + headerSize + int64(srcOff)
		n, err := b.readThrough(dest[destOff:destOff+count], absOff)
		read += n
		if err != nil {
			return read, err
		}
	}
	return read, nil
}

func (b *Block) readThrough(dest []byte, absOff int64) (int, error) {
	sector := int(b.storage.cfg.sectorSize())
	total := 0
	for total < len(dest) {
		chunk := len(dest) - total
		if chunk > sector {
			chunk = sector
		}
		n, err := b.storage.stream.ReadAt(dest[total:total+chunk], absOff+int64(total))
		total += n
		if err != nil {
			if err == io.EOF || n < chunk {
				return total, fmt.Errorf("%w: %v", ErrShortRead, err)
			}
			return total, err
		}
	}
	return total, nil
}

// WriteAt writes count content bytes from src[srcOff:srcOff+count] to
// content offset dstOff.
func (b *Block) WriteAt(src []byte, srcOff, dstOff, count int) (int, error) {
	if b.disposed {
		return 0, ErrDisposed
	}
	contentSize := b.storage.cfg.contentSize()
	if int64(dstOff+count) > contentSize || srcOff+count > len(src) || srcOff < 0 || dstOff < 0 || count < 0 {
		return 0, fmt.Errorf("%w: write src_off=%d count=%d dst_off=%d", ErrOutOfBounds, srcOff, count, dstOff)
	}

	inSector := b.bytesInSector()
	headerSize := b.storage.cfg.HeaderSize
	written := 0

	if int64(dstOff) < inSector {
		n := count
		if int64(dstOff+n) > inSector {
			n = int(inSector) - dstOff
		}
		start := int(headerSize) + dstOff
		copy(b.sectorBuf[start:start+n], src[srcOff:srcOff+n])
		b.dirty = true
		srcOff += n
		dstOff += n
		count -= n
		written += n
	}

	if count > 0 {
		absOff := int64(b.id)*b.storage.cfg.BlockSize + headerSize + int64(dstOff)
		n, err := b.writeThrough(src[srcOff:srcOff+count], absOff)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (b *Block) writeThrough(src []byte, absOff int64) (int, error) {
	total := 0
	for total < len(src) {
		chunk := len(src) - total
		if chunk > writeThroughChunkSize {
			chunk = writeThroughChunkSize
		}
		n, err := b.storage.stream.WriteAt(src[total:total+chunk], absOff+int64(total))
		total += n
		if err != nil {
			return total, err
		}
		if err := b.storage.stream.Flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Release flushes any buffered header changes and removes the block from
// its storage's live table. Idempotent - calling Release more than once is
// a no-op after the first call.
func (b *Block) Release() error {
	if b.disposed {
		return nil
	}
	b.disposed = true

	if b.dirty {
		absOff := int64(b.id) * b.storage.cfg.BlockSize
		if _, err := b.storage.stream.WriteAt(b.sectorBuf, absOff); err != nil {
			return fmt.Errorf("block: flushing sector for block %d: %w", b.id, err)
		}
		if err := b.storage.stream.Flush(); err != nil {
			return fmt.Errorf("block: flushing stream after block %d: %w", b.id, err)
		}
		b.dirty = false
	}

	b.storage.release(b.id)
	return nil
}
