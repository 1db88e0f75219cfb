// Package hub provides the public API for model repositories: local
// directories and the Hugging Face hub with on-disk caching.
package hub

import (
	"net/http"

	"github.com/KennethEnevoldsen/curated-transformers/internal/hub"
)

// Repository fetches files of one model repository at a fixed revision.
type Repository = hub.Repository

// LocalDir serves repository files from a directory on disk.
type LocalDir = hub.LocalDir

// NewLocalDir creates a repository backed by a local directory.
func NewLocalDir(dir string) *LocalDir {
	return hub.NewLocalDir(dir)
}

// HFRepository downloads and caches files from the Hugging Face hub.
type HFRepository = hub.HFRepository

// HFOption adjusts an HFRepository.
type HFOption = hub.HFOption

// NewHFRepository creates a hub-backed repository. An empty revision means
// "main".
func NewHFRepository(name, revision, cacheDir string, opts ...HFOption) *HFRepository {
	return hub.NewHFRepository(name, revision, cacheDir, opts...)
}

// WithEndpoint overrides the hub endpoint.
func WithEndpoint(endpoint string) HFOption {
	return hub.WithEndpoint(endpoint)
}

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) HFOption {
	return hub.WithHTTPClient(client)
}
