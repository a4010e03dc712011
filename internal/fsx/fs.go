// Package fsx provides the filesystem abstraction that the block layer's
// stream sits on top of.
//
// The main types are:
//   - [File]: interface for an open file, satisfied by [os.File]
//   - [FS]: interface for filesystem operations, satisfied by [Real]
//   - [Real]: production implementation using the [os] package
//
// Tests use an in-memory [File] implementation (see memory.go) so that
// block-layer behavior can be exercised without touching disk.
package fsx

import (
	"io"
	"os"
)

// File represents an open, randomly-addressable file.
//
// Satisfied by [os.File]. The block layer only ever seeks, reads, writes,
// truncates, syncs, stats and closes through this interface - it never
// assumes the file is backed by a real inode.
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Truncate changes the size of the file. See [os.File.Truncate].
	Truncate(size int64) error

	// Sync commits the file's contents to stable storage. See [os.File.Sync].
	Sync() error

	// Stat returns file metadata. See [os.File.Stat].
	Stat() (os.FileInfo, error)
}

// FS creates and opens [File]s.
//
// Implementations in this package: [Real] for production use.
type FS interface {
	// OpenFile opens path with the given flags and permissions.
	// See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// Stat returns file metadata for path. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Remove deletes the file at path. See [os.Remove].
	Remove(path string) error

	// Rename moves oldpath to newpath. See [os.Rename]. Atomic on the same
	// filesystem.
	Rename(oldpath, newpath string) error

	// MkdirAll creates a directory and all necessary parents. See
	// [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error
}

// Real implements [FS] using the real filesystem.
//
// All methods are pure passthroughs to the [os] package with identical
// behavior and error semantics.
type Real struct{}

// NewReal returns a [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

func (r *Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

func (r *Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (r *Real) Remove(path string) error {
	return os.Remove(path)
}

func (r *Real) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (r *Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Compile-time interface checks.
var (
	_ FS   = (*Real)(nil)
	_ File = (*os.File)(nil)
)
