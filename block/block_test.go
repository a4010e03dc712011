package block_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/nyxstorage/recordstore/block"
	"github.com/nyxstorage/recordstore/internal/fsx"
)

func newStorage(t *testing.T, cfg block.Config) (*block.Storage, *fsx.MemoryFile) {
	t.Helper()
	mem := fsx.NewMemoryFile()
	stream := block.NewFileStream(mem)
	storage, err := block.Open(stream, cfg)
	require.NoError(t, err)
	return storage, mem
}

func TestOpen_RejectsMisalignedStream(t *testing.T) {
	mem := fsx.NewMemoryFile()
	require.NoError(t, mem.Truncate(100))
	stream := block.NewFileStream(mem)

	_, err := block.Open(stream, block.Config{BlockSize: 128, HeaderSize: 48})
	require.ErrorIs(t, err, block.ErrMisalignedStorage)
}

func TestOpen_NormalizesDefaults(t *testing.T) {
	storage, _ := newStorage(t, block.Config{})
	cfg := storage.Config()
	require.Equal(t, int64(block.DefaultBlockSize), cfg.BlockSize)
	require.Equal(t, int64(block.DefaultHeaderSize), cfg.HeaderSize)
}

func TestOpen_RejectsBadConfig(t *testing.T) {
	mem := fsx.NewMemoryFile()
	stream := block.NewFileStream(mem)

	_, err := block.Open(stream, block.Config{BlockSize: 64})
	require.ErrorIs(t, err, block.ErrBadArgument)

	_, err = block.Open(stream, block.Config{BlockSize: 128, HeaderSize: 128})
	require.ErrorIs(t, err, block.ErrBadArgument)
}

func TestCreateNew_AssignsSequentialIDs(t *testing.T) {
	storage, mem := newStorage(t, block.Config{BlockSize: 128, HeaderSize: 48})

	b0, err := storage.CreateNew()
	require.NoError(t, err)
	require.Equal(t, uint32(0), b0.ID())
	require.NoError(t, b0.Release())

	b1, err := storage.CreateNew()
	require.NoError(t, err)
	require.Equal(t, uint32(1), b1.ID())
	require.NoError(t, b1.Release())

	require.Equal(t, int64(256), int64(len(mem.Bytes())))
}

func TestGet_ReturnsSameReferenceWhileLive(t *testing.T) {
	storage, _ := newStorage(t, block.Config{BlockSize: 128, HeaderSize: 48})

	created, err := storage.CreateNew()
	require.NoError(t, err)

	got1, found, err := storage.Get(created.ID())
	require.NoError(t, err)
	require.True(t, found)
	require.Same(t, created, got1)

	require.NoError(t, got1.SetHeader(block.FieldRecordLength, 99))

	got2, found, err := storage.Get(created.ID())
	require.NoError(t, err)
	require.True(t, found)
	require.Same(t, created, got2)

	v, err := got2.Header(block.FieldRecordLength)
	require.NoError(t, err)
	require.Equal(t, int64(99), v)

	require.NoError(t, created.Release())
}

func TestGet_AbsentBeyondStreamLength(t *testing.T) {
	storage, _ := newStorage(t, block.Config{BlockSize: 128, HeaderSize: 48})

	_, found, err := storage.Get(5)
	require.NoError(t, err)
	require.False(t, found)
}

func TestHeader_RoundTripsAllFields(t *testing.T) {
	storage, _ := newStorage(t, block.Config{BlockSize: 128, HeaderSize: 48})
	b, err := storage.CreateNew()
	require.NoError(t, err)

	want := map[int]int64{
		block.FieldNextBlockID:        7,
		block.FieldRecordLength:       1234,
		block.FieldBlockContentLength: 80,
		block.FieldPreviousBlockID:    3,
		block.FieldIsDeleted:          1,
		5:                             -1, // non-reserved field, within header size (48/8=6 fields)
	}
	for field, v := range want {
		require.NoError(t, b.SetHeader(field, v))
	}
	got := map[int]int64{}
	for field := range want {
		v, err := b.Header(field)
		require.NoError(t, err)
		got[field] = v
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, b.Release())
}

func TestHeader_BadFieldAndDisposed(t *testing.T) {
	storage, _ := newStorage(t, block.Config{BlockSize: 128, HeaderSize: 48})
	b, err := storage.CreateNew()
	require.NoError(t, err)

	_, err = b.Header(-1)
	require.ErrorIs(t, err, block.ErrBadField)

	_, err = b.Header(6)
	require.ErrorIs(t, err, block.ErrBadField)

	require.NoError(t, b.Release())

	_, err = b.Header(0)
	require.ErrorIs(t, err, block.ErrDisposed)

	err = b.SetHeader(0, 1)
	require.ErrorIs(t, err, block.ErrDisposed)
}

func TestContent_RoundTripWithinSector(t *testing.T) {
	// Small block size forces sector_size == block_size == 128, header 48,
	// content_size = 80, entirely inside the sector.
	storage, _ := newStorage(t, block.Config{BlockSize: 128, HeaderSize: 48})
	b, err := storage.CreateNew()
	require.NoError(t, err)

	payload := make([]byte, 80)
	for i := range payload {
		payload[i] = byte(i)
	}
	n, err := b.WriteAt(payload, 0, 0, len(payload))
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	out := make([]byte, 80)
	n, err = b.ReadAt(out, 0, 0, len(out))
	require.NoError(t, err)
	require.Equal(t, len(out), n)
	require.Equal(t, payload, out)

	require.NoError(t, b.Release())
}

func TestContent_WriteThroughBeyondSector(t *testing.T) {
	// Large block size: sector_size = 4096, header 48, content_size large,
	// so most writes land beyond the sector buffer and go write-through.
	storage, _ := newStorage(t, block.Config{BlockSize: 40960, HeaderSize: 48})
	b, err := storage.CreateNew()
	require.NoError(t, err)

	contentSize := 40960 - 48
	payload := make([]byte, contentSize)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	n, err := b.WriteAt(payload, 0, 0, len(payload))
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	out := make([]byte, contentSize)
	n, err = b.ReadAt(out, 0, 0, len(out))
	require.NoError(t, err)
	require.Equal(t, len(out), n)
	require.Equal(t, payload, out)

	require.NoError(t, b.Release())
}

func TestContent_OutOfBounds(t *testing.T) {
	storage, _ := newStorage(t, block.Config{BlockSize: 128, HeaderSize: 48})
	b, err := storage.CreateNew()
	require.NoError(t, err)

	_, err = b.WriteAt(make([]byte, 10), 0, 75, 10)
	require.ErrorIs(t, err, block.ErrOutOfBounds)

	_, err = b.ReadAt(make([]byte, 10), 0, 75, 10)
	require.ErrorIs(t, err, block.ErrOutOfBounds)

	require.NoError(t, b.Release())
}

func TestRelease_IsIdempotent(t *testing.T) {
	storage, _ := newStorage(t, block.Config{BlockSize: 128, HeaderSize: 48})
	b, err := storage.CreateNew()
	require.NoError(t, err)

	require.NoError(t, b.Release())
	require.NoError(t, b.Release())
}

func TestReopen_HeaderAndContentSurvive(t *testing.T) {
	storage, mem := newStorage(t, block.Config{BlockSize: 128, HeaderSize: 48})
	b, err := storage.CreateNew()
	require.NoError(t, err)
	require.NoError(t, b.SetHeader(block.FieldRecordLength, 42))
	_, err = b.WriteAt([]byte("hello"), 0, 0, 5)
	require.NoError(t, err)
	require.NoError(t, b.Release())
	require.NoError(t, storage.Close())

	// A closed MemoryFile rejects every operation, so reopen over a fresh
	// MemoryFile holding the same bytes.
	mem2 := fsx.NewMemoryFile()
	_, err = mem2.Write(mem.Bytes())
	require.NoError(t, err)
	stream2 := block.NewFileStream(mem2)
	storage2, err := block.Open(stream2, block.Config{BlockSize: 128, HeaderSize: 48})
	require.NoError(t, err)

	b2, found, err := storage2.Get(0)
	require.NoError(t, err)
	require.True(t, found)

	v, err := b2.Header(block.FieldRecordLength)
	require.NoError(t, err)
	require.Equal(t, int64(42), v)

	out := make([]byte, 5)
	_, err = b2.ReadAt(out, 0, 0, 5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(out))

	require.NoError(t, b2.Release())
}
