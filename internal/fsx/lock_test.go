package fsx_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxstorage/recordstore/internal/fsx"
)

func TestLockPath_ExclusiveAcrossSecondAcquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")

	l1, err := fsx.LockPath(path)
	require.NoError(t, err)

	_, err = fsx.LockPath(path)
	require.ErrorIs(t, err, fsx.ErrLockHeld)

	require.NoError(t, l1.Close())

	l2, err := fsx.LockPath(path)
	require.NoError(t, err)
	require.NoError(t, l2.Close())
}

func TestLockPath_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")

	l, err := fsx.LockPath(path)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}
