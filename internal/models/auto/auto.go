// Package auto dispatches repository loading on the config.json model type,
// so callers can load any supported architecture without naming it.
package auto

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/KennethEnevoldsen/curated-transformers/internal/hub"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models/bert"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models/gptneox"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models/llama"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models/roberta"
	"github.com/KennethEnevoldsen/curated-transformers/internal/quant"
)

var encoderFactories = map[string]func(hub.Repository) (models.Encoder, error){
	"bert": func(repo hub.Repository) (models.Encoder, error) {
		return bert.FromRepo(repo)
	},
	"roberta": func(repo hub.Repository) (models.Encoder, error) {
		return roberta.FromRepo(repo)
	},
}

var causalLMFactories = map[string]func(hub.Repository, quant.Quantizer) (models.CausalLM, error){
	"llama": func(repo hub.Repository, q quant.Quantizer) (models.CausalLM, error) {
		return llama.FromRepoQuantized(repo, q)
	},
	"gpt_neox": func(repo hub.Repository, q quant.Quantizer) (models.CausalLM, error) {
		return gptneox.FromRepoQuantized(repo, q)
	},
}

// ModelType reads the model_type field of a repository's config.json.
func ModelType(repo hub.Repository) (string, error) {
	data, err := models.LoadRepoConfig(repo)
	if err != nil {
		return "", err
	}
	var probe struct {
		ModelType string `json:"model_type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", models.NewConfigurationError("failed to parse model config: %v", err)
	}
	return probe.ModelType, nil
}

// Encoder loads an encoder of any supported architecture from a repository.
func Encoder(repo hub.Repository) (models.Encoder, error) {
	modelType, err := ModelType(repo)
	if err != nil {
		return nil, err
	}
	factory, ok := encoderFactories[modelType]
	if !ok {
		return nil, models.NewConfigurationError("unsupported encoder model type %q, must be one of: %s", modelType, supported(encoderFactories))
	}
	return factory(repo)
}

// CausalLM loads a causal language model of any supported architecture
// from a repository.
func CausalLM(repo hub.Repository) (models.CausalLM, error) {
	return CausalLMQuantized(repo, nil)
}

// CausalLMQuantized loads like CausalLM but quantizes the checkpoint before
// construction. A nil quantizer loads the weights unchanged.
func CausalLMQuantized(repo hub.Repository, q quant.Quantizer) (models.CausalLM, error) {
	modelType, err := ModelType(repo)
	if err != nil {
		return nil, err
	}
	factory, ok := causalLMFactories[modelType]
	if !ok {
		return nil, models.NewConfigurationError("unsupported causal language model type %q, must be one of: %s", modelType, supported(causalLMFactories))
	}
	return factory(repo, q)
}

func supported[T any](factories map[string]T) string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
