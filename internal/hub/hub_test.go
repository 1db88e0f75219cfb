package hub

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDir_Fetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{}"), 0o644))

	repo := NewLocalDir(dir)
	path, err := repo.Fetch("config.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.json"), path)

	_, err = repo.Fetch("missing.json")
	require.Error(t, err)
}

func TestHFRepository_FetchAndCache(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requests++
		assert.Equal(t, "/org/model/resolve/main/config.json", req.URL.Path)
		_, _ = w.Write([]byte(`{"model_type": "bert"}`))
	}))
	defer server.Close()

	repo := NewHFRepository("org/model", "", t.TempDir(), WithEndpoint(server.URL))

	path, err := repo.Fetch("config.json")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"model_type": "bert"}`, string(data))

	// Second fetch is served from the cache.
	_, err = repo.Fetch("config.json")
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestHFRepository_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	repo := NewHFRepository("org/model", "v1", t.TempDir(), WithEndpoint(server.URL))
	_, err := repo.Fetch("weights.safetensors")
	require.Error(t, err)
}
