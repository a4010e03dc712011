package fsx

import (
	"bytes"
	"fmt"

	"github.com/natefinch/atomic"
)

// CreateAtomic builds a new file at path from scratch and writes it with a
// single temp-file-plus-rename dance, so a reader never observes a
// partially-written file.
//
// build is called once with a buffer positioned to receive the complete
// initial contents (e.g. a zero-length stream for a fresh record store,
// since [block.Storage.CreateNew] grows the stream lazily on first
// allocation). On success the content is atomically renamed onto path; on
// any error path is left untouched.
func CreateAtomic(path string, build func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := build(&buf); err != nil {
		return fmt.Errorf("fsx: build %q: %w", path, err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("fsx: atomic rename onto %q: %w", path, err)
	}
	return nil
}
