package cli_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremap/caremap/internal/cli"
)

// execute runs the caremap CLI with args against an isolated data dir.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// isolate points every persisted path at a fresh temp dir.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("CAREMAP_CACHE_PATH", filepath.Join(dir, "cache.db"))
	t.Setenv("CAREMAP_WEB_BUCKET_PATH", filepath.Join(dir, "buckets.db"))
	t.Setenv("CAREMAP_LOG_FORMAT", "json")
}

func TestRootCmd_Help(t *testing.T) {
	isolate(t)
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "caremap")
	assert.Contains(t, out, "serve")
	assert.Contains(t, out, "fetch")
	assert.Contains(t, out, "favorites")
}

func TestCacheStatus_EmptyCache(t *testing.T) {
	isolate(t)
	out, err := execute(t, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "caremap:programs")
	assert.Contains(t, out, "absent")
}

func TestFetchThenCacheStatus(t *testing.T) {
	isolate(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/programs.json":
			_, _ = w.Write([]byte(`[{"id":"prog-1","name":"Food Bank","description":"","category":"food"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()
	t.Setenv("CAREMAP_API_BASE_URL", server.URL)

	out, err := execute(t, "fetch", "programs")
	require.NoError(t, err)
	assert.Contains(t, out, "programs: 1")

	out, err = execute(t, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "fresh")

	out, err = execute(t, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared")

	out, err = execute(t, "cache", "status")
	require.NoError(t, err)
	assert.NotContains(t, out, "fresh")
}

func TestFetch_UnknownResource(t *testing.T) {
	isolate(t)
	_, err := execute(t, "fetch", "podcasts")
	assert.Error(t, err)
}

func TestFavoritesWorkflow(t *testing.T) {
	isolate(t)

	out, err := execute(t, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no saved programs")

	out, err = execute(t, "favorites", "toggle", "prog-42")
	require.NoError(t, err)
	assert.Contains(t, out, "saved prog-42")

	out, err = execute(t, "favorites", "status", "prog-42", "applied")
	require.NoError(t, err)
	assert.Contains(t, out, "prog-42 -> applied")

	out, err = execute(t, "favorites", "notes", "prog-42", "call first")
	require.NoError(t, err)
	assert.Contains(t, out, "updated notes")

	out, err = execute(t, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "prog-42")
	assert.Contains(t, out, "applied")
	assert.Contains(t, out, "call first")

	// Toggling again removes the favorite.
	out, err = execute(t, "favorites", "toggle", "prog-42")
	require.NoError(t, err)
	assert.Contains(t, out, "removed prog-42")
}

func TestFavoritesStatus_RejectsUnknownProgram(t *testing.T) {
	isolate(t)
	_, err := execute(t, "favorites", "status", "prog-unknown", "applied")
	assert.Error(t, err)
}

func TestFavoritesStatus_RejectsInvalidStatus(t *testing.T) {
	isolate(t)

	_, err := execute(t, "favorites", "toggle", "prog-1")
	require.NoError(t, err)

	_, err = execute(t, "favorites", "status", "prog-1", "ghosted")
	assert.Error(t, err)
}
