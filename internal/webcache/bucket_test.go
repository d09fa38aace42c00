package webcache_test

import (
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremap/caremap/internal/webcache"
)

func newBucketStore(t *testing.T) *webcache.BucketStore {
	t.Helper()
	store, err := webcache.NewBucketStore(filepath.Join(t.TempDir(), "buckets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func cachedResponse(body string) *webcache.CachedResponse {
	return &webcache.CachedResponse{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"text/plain"}},
		Body:   []byte(body),
	}
}

func TestBucketStore_PutGetRoundTrip(t *testing.T) {
	store := newBucketStore(t)

	resp := &webcache.CachedResponse{
		Status: http.StatusOK,
		Header: http.Header{
			"Content-Type":  []string{"application/json"},
			"Cache-Control": []string{"no-cache", "no-store"},
		},
		Body: []byte(`{"ok":true}`),
	}
	require.NoError(t, store.Put("caremap-api-v1", "https://app/programs.json", resp, 0))

	got, ok := store.Get("caremap-api-v1", "https://app/programs.json")
	require.True(t, ok)
	assert.Equal(t, resp.Status, got.Status)
	assert.Equal(t, resp.Header, got.Header)
	assert.Equal(t, resp.Body, got.Body)
}

func TestBucketStore_GetAbsent(t *testing.T) {
	store := newBucketStore(t)

	_, ok := store.Get("caremap-api-v1", "https://app/none.json")
	assert.False(t, ok)
}

func TestBucketStore_BoundedEvictionDropsOldestInserted(t *testing.T) {
	store := newBucketStore(t)
	const bucket = "caremap-images-v1"
	const max = 50

	// 51 sequential distinct inserts into a bucket capped at 50.
	for i := 0; i < max+1; i++ {
		url := fmt.Sprintf("https://cdn/img-%02d.png", i)
		require.NoError(t, store.Put(bucket, url, cachedResponse("img"), max))
	}

	count, err := store.Count(bucket)
	require.NoError(t, err)
	assert.Equal(t, max, count)

	// The first-inserted image is gone; everything newer survives.
	_, ok := store.Get(bucket, "https://cdn/img-00.png")
	assert.False(t, ok)
	for i := 1; i < max+1; i++ {
		_, ok := store.Get(bucket, fmt.Sprintf("https://cdn/img-%02d.png", i))
		assert.True(t, ok, "img-%02d should still be cached", i)
	}
}

func TestBucketStore_ExactlyOneEvictionAtBound(t *testing.T) {
	store := newBucketStore(t)
	const bucket = "caremap-maps-v1"

	for i := 0; i < 4; i++ {
		require.NoError(t, store.Put(bucket, fmt.Sprintf("https://tiles/%d.pbf", i), cachedResponse("tile"), 3))
	}

	urls, err := store.URLs(bucket)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://tiles/1.pbf", "https://tiles/2.pbf", "https://tiles/3.pbf"}, urls)
}

func TestBucketStore_ReplacingEntryDoesNotEvict(t *testing.T) {
	store := newBucketStore(t)
	const bucket = "caremap-images-v1"

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(bucket, fmt.Sprintf("https://cdn/%d.png", i), cachedResponse("old"), 3))
	}

	// Re-storing an existing member refreshes it in place: no growth, no
	// eviction, original insertion order kept.
	require.NoError(t, store.Put(bucket, "https://cdn/1.png", cachedResponse("new"), 3))

	count, err := store.Count(bucket)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	got, ok := store.Get(bucket, "https://cdn/1.png")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got.Body)

	urls, err := store.URLs(bucket)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/0.png", "https://cdn/1.png", "https://cdn/2.png"}, urls)
}

func TestBucketStore_UnboundedBucketNeverEvicts(t *testing.T) {
	store := newBucketStore(t)
	const bucket = "caremap-static-v1"

	for i := 0; i < 500; i++ {
		require.NoError(t, store.Put(bucket, fmt.Sprintf("https://app/a-%d.css", i), cachedResponse("css"), 0))
	}

	count, err := store.Count(bucket)
	require.NoError(t, err)
	assert.Equal(t, 500, count)
}

func TestBucketStore_BucketIsolation(t *testing.T) {
	store := newBucketStore(t)

	require.NoError(t, store.Put("caremap-api-v1", "https://app/x.json", cachedResponse("api"), 0))
	require.NoError(t, store.Put("caremap-static-v1", "https://app/x.json", cachedResponse("static"), 0))

	api, ok := store.Get("caremap-api-v1", "https://app/x.json")
	require.True(t, ok)
	assert.Equal(t, []byte("api"), api.Body)

	static, ok := store.Get("caremap-static-v1", "https://app/x.json")
	require.True(t, ok)
	assert.Equal(t, []byte("static"), static.Body)
}

func TestBucketStore_DeleteBucket(t *testing.T) {
	store := newBucketStore(t)

	require.NoError(t, store.Put("caremap-api-v1", "https://app/x.json", cachedResponse("a"), 0))
	require.NoError(t, store.Put("caremap-api-v2", "https://app/x.json", cachedResponse("b"), 0))

	require.NoError(t, store.DeleteBucket("caremap-api-v1"))

	_, ok := store.Get("caremap-api-v1", "https://app/x.json")
	assert.False(t, ok)
	_, ok = store.Get("caremap-api-v2", "https://app/x.json")
	assert.True(t, ok)

	names, err := store.BucketNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"caremap-api-v2"}, names)
}

func TestBucketStore_DeleteAll(t *testing.T) {
	store := newBucketStore(t)

	require.NoError(t, store.Put("caremap-api-v1", "https://app/x.json", cachedResponse("a"), 0))
	require.NoError(t, store.Put("caremap-images-v1", "https://cdn/y.png", cachedResponse("b"), 0))

	require.NoError(t, store.DeleteAll())

	names, err := store.BucketNames()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestBucketName(t *testing.T) {
	assert.Equal(t, "caremap-images-20260831",
		webcache.BucketName("caremap", webcache.BucketImages, "20260831"))
}
