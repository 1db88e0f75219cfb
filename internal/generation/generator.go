package generation

import (
	"context"
	"fmt"

	"github.com/KennethEnevoldsen/curated-transformers/internal/kvcache"
	"github.com/KennethEnevoldsen/curated-transformers/internal/models"
	"github.com/KennethEnevoldsen/curated-transformers/internal/tensor"
)

// State is the phase of a decoding session.
type State int

const (
	// StateEmpty means no prompt has been consumed yet.
	StateEmpty State = iota

	// StatePrimed means the prompt was consumed in one forward pass and the
	// first piece was sampled.
	StatePrimed

	// StateExtending means the session is decoding piece by piece, one
	// cached forward pass per step.
	StateExtending

	// StateDone means a stop condition was reached.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePrimed:
		return "primed"
	case StateExtending:
		return "extending"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config configures the decoding loop.
type Config struct {
	// MaxNewTokens caps the number of generated pieces per sequence.
	MaxNewTokens int

	// EosID stops a sequence when sampled. Negative disables the check.
	EosID int32

	// Sampling configures how pieces are drawn from logits.
	Sampling SamplingConfig
}

// DefaultConfig decodes greedily for up to 256 pieces without an
// end-of-sequence check.
func DefaultConfig() Config {
	sampling := DefaultSamplingConfig()
	sampling.Temperature = 0
	return Config{
		MaxNewTokens: 256,
		EosID:        -1,
		Sampling:     sampling,
	}
}

// Generator decodes sequences from a causal language model.
type Generator struct {
	model  models.CausalLM
	config Config
}

func NewGenerator(model models.CausalLM, config Config) (*Generator, error) {
	if config.MaxNewTokens <= 0 {
		return nil, models.NewConfigurationError("max new tokens must be positive, got %d", config.MaxNewTokens)
	}
	return &Generator{model: model, config: config}, nil
}

// Generate decodes one sequence and returns the generated piece ids,
// without the prompt and without the end-of-sequence piece.
func (g *Generator) Generate(ctx context.Context, prompt []int32) ([]int32, error) {
	session, err := g.NewSession(len(prompt))
	if err != nil {
		return nil, err
	}
	if _, err := session.Prime(prompt); err != nil {
		return nil, err
	}
	for session.State() != StateDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := session.Next(); err != nil {
			return nil, err
		}
	}
	return session.Generated(), nil
}

// GenerateBatch decodes each prompt independently.
func (g *Generator) GenerateBatch(ctx context.Context, prompts [][]int32) ([][]int32, error) {
	results := make([][]int32, len(prompts))
	for i, prompt := range prompts {
		generated, err := g.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to generate sequence %d: %w", i, err)
		}
		results[i] = generated
	}
	return results, nil
}

// Stream decodes one sequence and calls yield for every generated piece id.
// Decoding stops early when yield returns false.
func (g *Generator) Stream(ctx context.Context, prompt []int32, yield func(id int32) bool) error {
	session, err := g.NewSession(len(prompt))
	if err != nil {
		return err
	}
	id, err := session.Prime(prompt)
	if err != nil {
		return err
	}
	if session.stopped {
		return nil
	}
	if !yield(id) {
		return nil
	}
	for session.State() != StateDone {
		if err := ctx.Err(); err != nil {
			return err
		}
		if id, err = session.Next(); err != nil {
			return err
		}
		if session.stopped {
			return nil
		}
		if !yield(id) {
			return nil
		}
	}
	return nil
}

// NewSession starts a decoding session with a cache sized for the prompt
// plus the configured number of new pieces.
func (g *Generator) NewSession(promptLen int) (*Session, error) {
	if promptLen <= 0 {
		return nil, models.NewConfigurationError("prompt must not be empty")
	}
	return &Session{
		model:   g.model,
		sampler: NewSampler(g.config.Sampling),
		config:  g.config,
		cache:   g.model.NewCache(1, promptLen+g.config.MaxNewTokens),
	}, nil
}

// Session decodes a single sequence through the state machine
// empty -> primed -> extending -> done. The prompt is consumed in one
// forward pass; every later step feeds only the previously sampled piece
// and reads the last position's logits.
type Session struct {
	model   models.CausalLM
	sampler *Sampler
	config  Config
	cache   *kvcache.Cache

	state     State
	lastID    int32
	generated []int32
	stopped   bool
}

// State returns the session's phase.
func (s *Session) State() State {
	return s.state
}

// Generated returns the piece ids sampled so far, without the
// end-of-sequence piece.
func (s *Session) Generated() []int32 {
	return s.generated
}

// Prime consumes the whole prompt in one forward pass and samples the
// first piece. The session must be empty.
func (s *Session) Prime(prompt []int32) (int32, error) {
	if s.state != StateEmpty {
		return 0, models.NewConfigurationError("cannot prime a session in state %v", s.state)
	}
	if len(prompt) == 0 {
		return 0, models.NewConfigurationError("prompt must not be empty")
	}
	ids, err := tensor.FromInts(prompt, tensor.Shape{1, len(prompt)}, tensor.CPU)
	if err != nil {
		return 0, err
	}
	id, err := s.step(ids)
	if err != nil {
		return 0, err
	}
	if s.state != StateDone {
		s.state = StatePrimed
	}
	return id, nil
}

// Next feeds the previously sampled piece and samples the following one.
// The session must be primed or extending.
func (s *Session) Next() (int32, error) {
	if s.state != StatePrimed && s.state != StateExtending {
		return 0, models.NewConfigurationError("cannot extend a session in state %v", s.state)
	}
	ids, err := tensor.FromInts([]int32{s.lastID}, tensor.Shape{1, 1}, tensor.CPU)
	if err != nil {
		return 0, err
	}
	id, err := s.step(ids)
	if err != nil {
		return 0, err
	}
	if s.state != StateDone {
		s.state = StateExtending
	}
	return id, nil
}

func (s *Session) step(ids *tensor.Tensor) (int32, error) {
	out, err := s.model.Forward(ids, nil, s.cache)
	if err != nil {
		return 0, err
	}
	logits := out.Logits
	vocab := logits.Dim(len(logits.Shape()) - 1)
	data := logits.AsFloat32()
	id := s.sampler.Sample(data[len(data)-vocab:])

	if s.config.EosID >= 0 && id == s.config.EosID {
		s.state = StateDone
		s.stopped = true
		return id, nil
	}
	s.lastID = id
	s.generated = append(s.generated, id)
	if len(s.generated) >= s.config.MaxNewTokens {
		s.state = StateDone
	}
	return id, nil
}
