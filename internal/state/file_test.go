package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "cart", []byte(`[{"ProductID":1}]`)))

	raw, err := store.Load(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"ProductID":1}]`, string(raw))

	require.NoError(t, store.Delete(ctx, "cart"))
	raw, err = store.Load(ctx, "cart")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestFileStore_LoadAbsentKey(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	raw, err := store.Load(ctx, "never-saved")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "cart", []byte("old")))
	require.NoError(t, store.Save(ctx, "cart", []byte("new")))

	raw, err := store.Load(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, "new", string(raw))
}

func TestFileStore_DeleteAbsentKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(ctx, "never-saved"))
}

func TestFileStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	_, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}
