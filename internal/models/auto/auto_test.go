package auto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KennethEnevoldsen/curated-transformers/internal/hub"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
)

func repoWithConfig(t *testing.T, config string) hub.Repository {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(config), 0o644))
	return hub.NewLocalDir(dir)
}

func TestModelType(t *testing.T) {
	repo := repoWithConfig(t, `{"model_type": "llama", "hidden_size": 4096}`)
	modelType, err := ModelType(repo)
	require.NoError(t, err)
	assert.Equal(t, "llama", modelType)
}

func TestModelType_InvalidJSON(t *testing.T) {
	repo := repoWithConfig(t, `not json`)
	var configErr *models.ConfigurationError
	_, err := ModelType(repo)
	require.ErrorAs(t, err, &configErr)
}

func TestEncoder_UnsupportedModelType(t *testing.T) {
	repo := repoWithConfig(t, `{"model_type": "t5"}`)
	var configErr *models.ConfigurationError
	_, err := Encoder(repo)
	require.ErrorAs(t, err, &configErr)
	assert.Contains(t, err.Error(), "bert, roberta")
}

func TestCausalLM_UnsupportedModelType(t *testing.T) {
	repo := repoWithConfig(t, `{"model_type": "bert"}`)
	var configErr *models.ConfigurationError
	_, err := CausalLM(repo)
	require.ErrorAs(t, err, &configErr)
	assert.Contains(t, err.Error(), "gpt_neox, llama")
}

func TestEncoder_MissingConfig(t *testing.T) {
	repo := hub.NewLocalDir(t.TempDir())
	_, err := Encoder(repo)
	require.Error(t, err)
}
