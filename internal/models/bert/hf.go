package bert

import (
	"encoding/json"
	"strings"

	"github.com/KennethEnevoldsen/curated-transformers/internal/hub"
	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

type hfConfig struct {
	VocabSize             int     `json:"vocab_size"`
	HiddenSize            int     `json:"hidden_size"`
	IntermediateSize      int     `json:"intermediate_size"`
	NumHiddenLayers       int     `json:"num_hidden_layers"`
	NumAttentionHeads     int     `json:"num_attention_heads"`
	MaxPositionEmbeddings int     `json:"max_position_embeddings"`
	TypeVocabSize         int     `json:"type_vocab_size"`
	LayerNormEps          float32 `json:"layer_norm_eps"`
	HiddenAct             string  `json:"hidden_act"`
}

// ConvertHFConfig maps a HuggingFace config.json onto a Config.
func ConvertHFConfig(data []byte) (*Config, error) {
	var hf hfConfig
	if err := json.Unmarshal(data, &hf); err != nil {
		return nil, models.NewConfigurationError("failed to parse model config: %v", err)
	}
	activation, err := layers.ParseActivation(hf.HiddenAct)
	if err != nil {
		return nil, models.NewConfigurationError("%v", err)
	}
	config := &Config{
		VocabSize:        hf.VocabSize,
		HiddenSize:       hf.HiddenSize,
		IntermediateSize: hf.IntermediateSize,
		NumLayers:        hf.NumHiddenLayers,
		NumHeads:         hf.NumAttentionHeads,
		MaxPositions:     hf.MaxPositionEmbeddings,
		TypeVocabSize:    hf.TypeVocabSize,
		LayerNormEps:     hf.LayerNormEps,
		Activation:       activation,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FromRepo loads config and checkpoint from a repository and builds the
// encoder.
func FromRepo(repo hub.Repository) (*Encoder, error) {
	configData, err := models.LoadRepoConfig(repo)
	if err != nil {
		return nil, err
	}
	config, err := ConvertHFConfig(configData)
	if err != nil {
		return nil, err
	}
	stateDict, err := models.LoadRepoCheckpoint(repo, tensor.CPU)
	if err != nil {
		return nil, err
	}
	return New(config, stripPrefix(stateDict, "bert."))
}

// stripPrefix removes a task-model prefix ("bert.") that some checkpoints
// carry in front of the encoder parameters.
func stripPrefix(stateDict models.StateDict, prefix string) models.StateDict {
	out := make(models.StateDict, len(stateDict))
	for name, t := range stateDict {
		out[strings.TrimPrefix(name, prefix)] = t
	}
	return out
}
