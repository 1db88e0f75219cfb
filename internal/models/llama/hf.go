package llama

import (
	"encoding/json"

	"github.com/KennethEnevoldsen/curated-transformers/internal/hub"
	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/quant"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

type hfConfig struct {
	VocabSize         int     `json:"vocab_size"`
	HiddenSize        int     `json:"hidden_size"`
	IntermediateSize  int     `json:"intermediate_size"`
	NumHiddenLayers   int     `json:"num_hidden_layers"`
	NumAttentionHeads int     `json:"num_attention_heads"`
	NumKeyValueHeads  *int    `json:"num_key_value_heads"`
	RMSNormEps        float32 `json:"rms_norm_eps"`
	RopeTheta         float64 `json:"rope_theta"`
	HiddenAct         string  `json:"hidden_act"`
}

// ConvertHFConfig maps a HuggingFace config.json onto a Config.
func ConvertHFConfig(data []byte) (*Config, error) {
	var hf hfConfig
	if err := json.Unmarshal(data, &hf); err != nil {
		return nil, models.NewConfigurationError("failed to parse model config: %v", err)
	}
	activation := layers.ActivationSiLU
	if hf.HiddenAct != "" {
		var err error
		if activation, err = layers.ParseActivation(hf.HiddenAct); err != nil {
			return nil, models.NewConfigurationError("%v", err)
		}
	}
	kvHeads := hf.NumAttentionHeads
	if hf.NumKeyValueHeads != nil {
		kvHeads = *hf.NumKeyValueHeads
	}
	ropeBase := hf.RopeTheta
	if ropeBase == 0 {
		ropeBase = 10000
	}
	config := &Config{
		VocabSize:        hf.VocabSize,
		HiddenSize:       hf.HiddenSize,
		IntermediateSize: hf.IntermediateSize,
		NumLayers:        hf.NumHiddenLayers,
		NumHeads:         hf.NumAttentionHeads,
		NumKVHeads:       kvHeads,
		RMSNormEps:       hf.RMSNormEps,
		RopeBase:         ropeBase,
		Activation:       activation,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FromRepo loads config and checkpoint from a repository and builds the
// model.
func FromRepo(repo hub.Repository) (*CausalLM, error) {
	return FromRepoQuantized(repo, nil)
}

// FromRepoQuantized loads like FromRepo but runs the quantizer over the
// checkpoint before construction, skipping the modules the model keeps in
// full precision. A nil quantizer loads the weights unchanged.
func FromRepoQuantized(repo hub.Repository, q quant.Quantizer) (*CausalLM, error) {
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
	if q != nil {
		// "output_embeddings" maps to lm_head, or to the input embeddings
		// when the checkpoint ties them.
		exclude := []string{"lm_head"}
		if _, ok := stateDict["lm_head.weight"]; !ok {
			exclude = append(exclude, "model.embed_tokens")
		}
		if err := quant.Apply(stateDict, q, exclude); err != nil {
			return nil, err
		}
	}
	return New(config, stateDict)
}
