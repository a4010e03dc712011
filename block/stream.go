package block

import (
	"io"

	"github.com/nyxstorage/recordstore/internal/fsx"
)

// Stream is the random-access, extensible byte stream that a [Storage]
// partitions into blocks.
//
// Implemented by [FileStream] (backed by an [fsx.File]) and by in-memory
// test doubles.
type Stream interface {
	// Len returns the current length of the stream in bytes.
	Len() (int64, error)

	// Truncate sets the stream's length. Used only to grow the stream by
	// one block_size at a time in [Storage.CreateNew].
	Truncate(size int64) error

	// ReadAt reads len(p) bytes starting at absolute offset off. It
	// behaves like [io.ReaderAt]: it returns an error (wrapping
	// [ErrShortRead] at the Storage/Block layer) if fewer than len(p) bytes
	// could be read.
	ReadAt(p []byte, off int64) (int, error)

	// WriteAt writes p at absolute offset off.
	WriteAt(p []byte, off int64) (int, error)

	// Flush commits buffered writes. For [FileStream] this calls Sync.
	Flush() error

	// Close releases the stream's resources.
	Close() error
}

// FileStream adapts an [fsx.File] to the [Stream] interface.
type FileStream struct {
	f fsx.File
}

// NewFileStream wraps f as a [Stream].
func NewFileStream(f fsx.File) *FileStream {
	return &FileStream{f: f}
}

func (s *FileStream) Len() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *FileStream) Truncate(size int64) error {
	return s.f.Truncate(size)
}

func (s *FileStream) ReadAt(p []byte, off int64) (int, error) {
	if _, err := s.f.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(s.f, p)
}

func (s *FileStream) WriteAt(p []byte, off int64) (int, error) {
	if _, err := s.f.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return s.f.Write(p)
}

func (s *FileStream) Flush() error {
	return s.f.Sync()
}

func (s *FileStream) Close() error {
	return s.f.Close()
}

var _ Stream = (*FileStream)(nil)
