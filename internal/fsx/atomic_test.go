package fsx_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxstorage/recordstore/internal/fsx"
)

func TestCreateAtomic_WritesCompleteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	err := fsx.CreateAtomic(path, func(buf *bytes.Buffer) error {
		_, err := buf.Write([]byte("payload"))
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestCreateAtomic_LeavesNothingOnBuildError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	err := fsx.CreateAtomic(path, func(buf *bytes.Buffer) error {
		return os.ErrInvalid
	})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
