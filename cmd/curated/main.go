// Package main provides the curated-transformers CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KennethEnevoldsen/curated-transformers/generation"
	"github.com/KennethEnevoldsen/curated-transformers/hub"
	"github.com/KennethEnevoldsen/curated-transformers/models"
	"github.com/KennethEnevoldsen/curated-transformers/tokenization"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("curated-transformers %s\n", version)
	case "encode":
		err = runEncode(os.Args[2:])
	case "generate":
		err = runGenerate(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("curated-transformers - transformer models for Go")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  version     Show version")
	fmt.Println("  encode      Tokenize text with a model's tokenizer")
	fmt.Println("  generate    Generate text with a causal language model")
}

func runEncode(args []string) error {
	flags := flag.NewFlagSet("encode", flag.ExitOnError)
	model := flags.String("model", "", "model directory")
	text := flags.String("text", "", "text to tokenize")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *model == "" || *text == "" {
		return fmt.Errorf("encode requires -model and -text")
	}

	tok, err := loadTokenizer(*model)
	if err != nil {
		return err
	}
	pieces := tok.Encode([]string{*text})
	fmt.Println("pieces:", pieces.Pieces[0])
	fmt.Println("ids:   ", pieces.IDs[0])
	return nil
}

func runGenerate(args []string) error {
	flags := flag.NewFlagSet("generate", flag.ExitOnError)
	model := flags.String("model", "", "model directory")
	prompt := flags.String("prompt", "", "prompt text")
	maxTokens := flags.Int("max-tokens", 128, "maximum pieces to generate")
	temperature := flags.Float64("temperature", 0, "sampling temperature, 0 decodes greedily")
	topK := flags.Int("top-k", 0, "keep only the K most likely pieces, 0 disables")
	topP := flags.Float64("top-p", 1, "nucleus sampling threshold, 1 disables")
	seed := flags.Int64("seed", -1, "sampling seed, negative for random")
	eos := flags.Int("eos", -1, "end-of-sequence piece id, negative disables")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *model == "" || *prompt == "" {
		return fmt.Errorf("generate requires -model and -prompt")
	}

	tok, err := loadTokenizer(*model)
	if err != nil {
		return err
	}
	lm, err := models.AutoCausalLM(hub.NewLocalDir(*model))
	if err != nil {
		return err
	}

	config := generation.Config{
		MaxNewTokens: *maxTokens,
		EosID:        int32(*eos),
		Sampling: generation.SamplingConfig{
			Temperature: float32(*temperature),
			TopK:        *topK,
			TopP:        float32(*topP),
			Seed:        *seed,
		},
	}
	gen, err := generation.NewGenerator(lm, config)
	if err != nil {
		return err
	}

	pieces := tok.Encode([]string{*prompt})
	generated, err := gen.Generate(context.Background(), pieces.IDs[0])
	if err != nil {
		return err
	}
	fmt.Println(tok.Decode([][]int32{generated})[0])
	return nil
}

// loadTokenizer tries tokenizer.json first, then the BERT vocab.txt format.
func loadTokenizer(dir string) (*tokenization.Tokenizer, error) {
	if data, err := os.ReadFile(filepath.Join(dir, "tokenizer.json")); err == nil {
		if tok, err := tokenization.NewRobertaTokenizerFromHF(data); err == nil {
			return tok, nil
		}
		return tokenization.NewGPTNeoXTokenizerFromHF(data)
	}
	if _, err := os.Stat(filepath.Join(dir, "vocab.json")); err == nil {
		return tokenization.NewGPTNeoXTokenizerFromFiles(
			filepath.Join(dir, "vocab.json"), filepath.Join(dir, "merges.txt"))
	}
	if _, err := os.Stat(filepath.Join(dir, "vocab.txt")); err == nil {
		return tokenization.NewBertTokenizerFromFile(
			filepath.Join(dir, "vocab.txt"), tokenization.DefaultBertConfig())
	}
	return nil, fmt.Errorf("no tokenizer files found in %q", dir)
}
