package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremap/caremap/internal/cache"
)

// backendUnderTest runs the shared Backend contract tests against an
// implementation.
func backendUnderTest(t *testing.T, backend cache.Backend) {
	t.Helper()

	t.Run("get absent key", func(t *testing.T) {
		_, err := backend.Get("absent")
		assert.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, backend.Set("k1", []byte("v1")))
		got, err := backend.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, backend.Set("k1", []byte("v2")))
		got, err := backend.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("keys", func(t *testing.T) {
		require.NoError(t, backend.Set("k2", []byte("v")))
		keys, err := backend.Keys()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"k1", "k2"}, keys)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, backend.Delete("k1"))
		_, err := backend.Get("k1")
		assert.ErrorIs(t, err, cache.ErrNotFound)

		// Deleting an absent key is idempotent.
		require.NoError(t, backend.Delete("k1"))
	})
}

func TestMemoryBackend(t *testing.T) {
	backend := cache.NewMemoryBackend()
	defer backend.Close()
	backendUnderTest(t, backend)
}

func TestSQLiteBackend(t *testing.T) {
	backend, err := cache.NewSQLiteBackend(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer backend.Close()
	backendUnderTest(t, backend)
}

func TestSQLiteBackend_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.db")
	backend, err := cache.NewSQLiteBackend(path)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Set("k", []byte("v")))
}

func TestMemoryBackend_CopiesValues(t *testing.T) {
	backend := cache.NewMemoryBackend()

	value := []byte("original")
	require.NoError(t, backend.Set("k", value))
	value[0] = 'X'

	got, err := backend.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}
