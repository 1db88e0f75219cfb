package gptneox

import (
	"encoding/json"

	"github.com/KennethEnevoldsen/curated-transformers/internal/hub"
	"github.com/KennethEnevoldsen/curated-transformers/internal/layers"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/quant"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

type hfConfig struct {
	VocabSize           int     `json:"vocab_size"`
	HiddenSize          int     `json:"hidden_size"`
	IntermediateSize    int     `json:"intermediate_size"`
	NumHiddenLayers     int     `json:"num_hidden_layers"`
	NumAttentionHeads   int     `json:"num_attention_heads"`
	LayerNormEps        float32 `json:"layer_norm_eps"`
	HiddenAct           string  `json:"hidden_act"`
	RotaryPct           float32 `json:"rotary_pct"`
	RotaryEmbBase       float64 `json:"rotary_emb_base"`
	UseParallelResidual *bool   `json:"use_parallel_residual"`
}

// ConvertHFConfig maps a HuggingFace config.json onto a Config.
func ConvertHFConfig(data []byte) (*Config, error) {
	var hf hfConfig
	if err := json.Unmarshal(data, &hf); err != nil {
		return nil, models.NewConfigurationError("failed to parse model config: %v", err)
	}
	activation := layers.ActivationGELU
	if hf.HiddenAct != "" {
		var err error
		if activation, err = layers.ParseActivation(hf.HiddenAct); err != nil {
			return nil, models.NewConfigurationError("%v", err)
		}
	}
	rotaryPct := hf.RotaryPct
	if rotaryPct == 0 {
		rotaryPct = 0.25
	}
	ropeBase := hf.RotaryEmbBase
	if ropeBase == 0 {
		ropeBase = 10000
	}
	parallel := true
	if hf.UseParallelResidual != nil {
		parallel = *hf.UseParallelResidual
	}
	config := &Config{
		VocabSize:           hf.VocabSize,
		HiddenSize:          hf.HiddenSize,
		IntermediateSize:    hf.IntermediateSize,
		NumLayers:           hf.NumHiddenLayers,
		NumHeads:            hf.NumAttentionHeads,
		LayerNormEps:        hf.LayerNormEps,
		Activation:          activation,
		RotaryPct:           rotaryPct,
		RopeBase:            ropeBase,
		UseParallelResidual: parallel,
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
		// "output_embeddings" maps to the embed_out projection.
		if err := quant.Apply(stateDict, q, []string{"embed_out"}); err != nil {
			return nil, err
		}
	}
	return New(config, stateDict)
}
