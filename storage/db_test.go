package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBGetMissing(t *testing.T) {
	db := NewMemDB()
	_, err := db.Get([]byte("missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLevelDBBatchPersists(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewLevelDB(dir)
	require.NoError(t, err)

	batch := new(Batch)
	batch.Put([]byte("a"), []byte("1"))
	batch.Put([]byte("b"), []byte("2"))
	batch.Delete([]byte("b"))
	require.NoError(t, db1.Write(batch))
	db1.Close()

	db2, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	_, err = db2.Get([]byte("b"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOverlayCommitAndDiscard(t *testing.T) {
	base := NewMemDB()
	require.NoError(t, base.Put([]byte("keep"), []byte("v0")))
	require.NoError(t, base.Put([]byte("drop"), []byte("x")))

	overlay := NewOverlay(base)
	require.NoError(t, overlay.Put([]byte("keep"), []byte("v1")))
	require.NoError(t, overlay.Delete([]byte("drop")))

	got, err := overlay.Get([]byte("keep"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)
	ok, err := overlay.Has([]byte("drop"))
	require.NoError(t, err)
	require.False(t, ok)

	// base untouched until commit
	got, err = base.Get([]byte("keep"))
	require.NoError(t, err)
	require.Equal(t, []byte("v0"), got)

	overlay.Discard()
	require.False(t, overlay.Dirty())
	got, err = overlay.Get([]byte("keep"))
	require.NoError(t, err)
	require.Equal(t, []byte("v0"), got)

	require.NoError(t, overlay.Put([]byte("keep"), []byte("v2")))
	require.NoError(t, overlay.Delete([]byte("drop")))
	require.NoError(t, overlay.Commit())

	got, err = base.Get([]byte("keep"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)
	_, err = base.Get([]byte("drop"))
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, overlay.Dirty())
}
