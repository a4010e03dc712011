package fsx_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxstorage/recordstore/internal/fsx"
)

func TestMemoryFile_WriteReadSeekTruncate(t *testing.T) {
	m := fsx.NewMemoryFile()

	n, err := m.Write([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, 11, n)

	_, err = m.Seek(0, io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 5)
	n, err = m.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))

	require.NoError(t, m.Truncate(5))
	require.Equal(t, "hello", string(m.Bytes()))

	require.NoError(t, m.Truncate(8))
	require.Equal(t, 8, len(m.Bytes()))

	info, err := m.Stat()
	require.NoError(t, err)
	require.Equal(t, int64(8), info.Size())

	require.NoError(t, m.Close())
	_, err = m.Write([]byte("x"))
	require.Error(t, err)
}

func TestMemoryFile_WriteBeyondEndGrows(t *testing.T) {
	m := fsx.NewMemoryFile()
	_, err := m.Seek(10, io.SeekStart)
	require.NoError(t, err)
	_, err = m.Write([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, 11, len(m.Bytes()))
}

var _ fsx.File = (*fsx.MemoryFile)(nil)
