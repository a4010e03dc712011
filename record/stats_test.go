package record_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStats_CountsLiveAndFreeBlocks(t *testing.T) {
	store, _ := newStore(t, defaultConfig())

	id1, err := store.CreateBytes([]byte("one"))
	require.NoError(t, err)
	_, err = store.CreateBytes([]byte("two"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(id1))

	stats, err := store.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.LiveRecords)
	require.Equal(t, 1, stats.FreeListLen)
	require.EqualValues(t, 3, stats.TotalBlocks) // block 0 (sentinel) + the two records
}
