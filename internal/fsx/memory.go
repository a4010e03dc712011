package fsx

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"
)

// MemoryFile is an in-memory [File] backed by a growable byte slice.
//
// Used by block/record tests so the storage layer's behavior (sector
// write-behind, chain walking, free-list arithmetic) can be exercised
// without touching disk.
type MemoryFile struct {
	buf    []byte
	pos    int64
	closed bool
}

// NewMemoryFile returns an empty [MemoryFile].
func NewMemoryFile() *MemoryFile {
	return &MemoryFile{}
}

func (m *MemoryFile) Read(p []byte) (int, error) {
	if m.closed {
		return 0, os.ErrClosed
	}
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemoryFile) Write(p []byte) (int, error) {
	if m.closed {
		return 0, os.ErrClosed
	}
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.pos:end], p)
	m.pos = end
	return n, nil
}

func (m *MemoryFile) Seek(offset int64, whence int) (int64, error) {
	if m.closed {
		return 0, os.ErrClosed
	}
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = int64(len(m.buf))
	default:
		return 0, errors.New("fsx: invalid whence")
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, errors.New("fsx: negative seek position")
	}
	m.pos = newPos
	return m.pos, nil
}

func (m *MemoryFile) Truncate(size int64) error {
	if m.closed {
		return os.ErrClosed
	}
	if size < 0 {
		return errors.New("fsx: negative truncate size")
	}
	if size <= int64(len(m.buf)) {
		m.buf = m.buf[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, m.buf)
	m.buf = grown
	return nil
}

func (m *MemoryFile) Sync() error {
	if m.closed {
		return os.ErrClosed
	}
	return nil
}

func (m *MemoryFile) Stat() (os.FileInfo, error) {
	if m.closed {
		return nil, os.ErrClosed
	}
	return memoryFileInfo{size: int64(len(m.buf))}, nil
}

func (m *MemoryFile) Close() error {
	m.closed = true
	return nil
}

// Bytes returns a copy of the file's current contents, for test assertions.
func (m *MemoryFile) Bytes() []byte {
	return bytes.Clone(m.buf)
}

type memoryFileInfo struct {
	size int64
}

func (i memoryFileInfo) Name() string       { return "" }
func (i memoryFileInfo) Size() int64        { return i.size }
func (i memoryFileInfo) Mode() os.FileMode  { return 0o644 }
func (i memoryFileInfo) ModTime() time.Time { return time.Time{} }
func (i memoryFileInfo) IsDir() bool        { return false }
func (i memoryFileInfo) Sys() interface{}   { return nil }

var _ File = (*MemoryFile)(nil)
