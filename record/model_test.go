package record_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxstorage/recordstore/block"
	"github.com/nyxstorage/recordstore/internal/fsx"
	"github.com/nyxstorage/recordstore/record"
)

// TestModel_RandomizedOperationsMatchOracle runs a long sequence of random
// create/update/delete operations against a real [record.Store] and checks
// every live id against an in-memory oracle after each step. It exists to
// exercise free-list reuse and chain relinking paths that hand-picked unit
// tests are unlikely to hit in combination.
func TestModel_RandomizedOperationsMatchOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	mem := fsx.NewMemoryFile()
	stream := block.NewFileStream(mem)
	storage, err := block.Open(stream, block.Config{BlockSize: 512, HeaderSize: 48})
	require.NoError(t, err)
	store, err := record.Open(storage)
	require.NoError(t, err)

	oracle := map[uint32][]byte{}
	var liveIDs []uint32

	randomPayload := func() []byte {
		n := rng.Intn(2000)
		p := make([]byte, n)
		rng.Read(p)
		return p
	}

	for step := 0; step < 400; step++ {
		switch {
		case len(liveIDs) == 0 || rng.Intn(3) == 0:
			// create
			data := randomPayload()
			id, err := store.CreateBytes(data)
			require.NoErrorf(t, err, "step %d create", step)
			oracle[id] = data
			liveIDs = append(liveIDs, id)

		case rng.Intn(2) == 0:
			// update a random live id
			idx := rng.Intn(len(liveIDs))
			id := liveIDs[idx]
			data := randomPayload()
			require.NoError(t, store.Update(id, data))
			oracle[id] = data

		default:
			// delete a random live id
			idx := rng.Intn(len(liveIDs))
			id := liveIDs[idx]
			require.NoError(t, store.Delete(id))
			delete(oracle, id)
			liveIDs = append(liveIDs[:idx], liveIDs[idx+1:]...)
		}

		// spot-check every live id still matches the oracle.
		for id, want := range oracle {
			got, found, err := store.Get(id)
			require.NoErrorf(t, err, "step %d get(%d)", step, id)
			require.Truef(t, found, "step %d get(%d) should be found", step, id)
			require.Equalf(t, want, got, "step %d record %d mismatch", step, id)
		}
	}

	// final pass: deleted ids must read back absent.
	allIDs := map[uint32]bool{}
	for _, id := range liveIDs {
		allIDs[id] = true
	}
	for id := uint32(1); id < uint32(len(oracle))*3+10; id++ {
		if allIDs[id] {
			continue
		}
		data, found, err := store.Get(id)
		require.NoError(t, err)
		if found {
			t.Fatalf("id %d should not be a live record but returned %d bytes", id, len(data))
		}
	}
	t.Logf("model test finished with %d live records", len(oracle))
}
