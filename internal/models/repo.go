package models

import (
	"os"

	"github.com/KennethEnevoldsen/curated-transformers/internal/hub"
	"github.com/KennethEnevoldsen/curated-transformers/internal/loader"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

const (
	configFile          = "config.json"
	checkpointFile      = "model.safetensors"
	checkpointIndexFile = "model.safetensors.index.json"
)

// LoadRepoConfig fetches and reads a repository's config.json.
func LoadRepoConfig(repo hub.Repository) ([]byte, error) {
	path, err := repo.Fetch(configFile)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// LoadRepoCheckpoint fetches a repository's checkpoint, preferring a single
// safetensors file and falling back to a sharded index.
func LoadRepoCheckpoint(repo hub.Repository, device tensor.Device) (StateDict, error) {
	path, err := repo.Fetch(checkpointFile)
	if err != nil {
		if path, err = repo.Fetch(checkpointIndexFile); err != nil {
			return nil, err
		}
	}
	stateDict, err := loader.LoadCheckpoint(path, device)
	if err != nil {
		return nil, err
	}
	return stateDict, nil
}
