package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "reports/missing.json")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "reports/b.json", []byte("b")))
	require.NoError(t, s.Put(ctx, "reports/a.json", []byte("a")))
	require.NoError(t, s.Put(ctx, "other/c.json", []byte("c")))
	require.NoError(t, s.Put(ctx, "reports/a.json", []byte("a2")))

	data, err := s.Get(ctx, "reports/a.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("a2"), data)

	names, err := s.List(ctx, "reports/")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/a.json", "reports/b.json"}, names)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.Delete(ctx, "reports/a.json"))
	require.NoError(t, s.Delete(ctx, "reports/a.json"))
	_, err = s.Get(ctx, "reports/a.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testStore(t, s)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStore_CopiesData(t *testing.T) {
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Put(context.Background(), "x", buf))
	buf[0] = 'z'

	got, err := s.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	s := NewLocalStore(filepath.Join(t.TempDir(), "absent"))
	names, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_NoTempLeftovers(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(root)
	require.NoError(t, s.Put(context.Background(), "r/x.json", []byte("{}")))

	entries, err := os.ReadDir(filepath.Join(root, "r"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x.json", entries[0].Name())
}

func TestLocalStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewLocalStore(t.TempDir())
	assert.ErrorIs(t, s.Put(ctx, "x", nil), context.Canceled)
}
