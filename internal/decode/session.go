package decode

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nextquery/nextquery/internal/decoder"
	"github.com/nextquery/nextquery/internal/tensor"
)

// stepFunc advances one single-sequence decoding step and returns the
// log-probability row, the carried hidden state and the attention row
// (nil for the no-attention variant).
type stepFunc[B tensor.Backend] func(token int32, hidden decoder.Hidden[B]) ([]float32, decoder.Hidden[B], []float32, error)

// Session decodes one suggestion autoregressively from a start token,
// threading hidden state (and, for the global variant, the context
// vector) between steps and collecting per-step attention rows.
type Session[B tensor.Backend] struct {
	step      stepFunc[B]
	hidden    decoder.Hidden[B]
	sampler   *Sampler
	eosID     int32
	maxLength int
	logger    *zap.Logger
}

// Result is a finished decode.
type Result struct {
	// Tokens are the emitted token ids, without the start token and
	// without the terminating EOS.
	Tokens []int32
	// Attention holds one row per emitted token for attending
	// variants, empty otherwise.
	Attention [][]float32
}

// SessionOption customizes a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	sampler   *Sampler
	maxLength int
	logger    *zap.Logger
}

// WithSampler replaces the default greedy sampler.
func WithSampler(s *Sampler) SessionOption {
	return func(c *sessionConfig) { c.sampler = s }
}

// WithMaxLength caps the number of emitted tokens.
func WithMaxLength(n int) SessionOption {
	return func(c *sessionConfig) { c.maxLength = n }
}

// WithLogger attaches a logger for per-step debug output.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = logger }
}

const defaultMaxLength = 20

func newSession[B tensor.Backend](step stepFunc[B], hidden decoder.Hidden[B], eosID int32, opts ...SessionOption) *Session[B] {
	cfg := sessionConfig{
		sampler:   NewSampler(DefaultSamplingConfig()),
		maxLength: defaultMaxLength,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session[B]{
		step:      step,
		hidden:    hidden,
		sampler:   cfg.sampler,
		eosID:     eosID,
		maxLength: cfg.maxLength,
		logger:    cfg.logger,
	}
}

// Step advances the session by one token and returns the sampled
// next token plus its attention row (nil when not attending).
func (s *Session[B]) Step(token int32) (int32, []float32, error) {
	logProbs, hidden, attn, err := s.step(token, s.hidden)
	if err != nil {
		return 0, nil, err
	}
	s.hidden = hidden

	next := s.sampler.Sample(logProbs)
	s.logger.Debug("decoded step",
		zap.Int32("input", token),
		zap.Int32("next", next),
		zap.Float32("log_prob", logProbs[next]))
	return next, attn, nil
}

// Run decodes from startToken until EOS or the length cap.
func (s *Session[B]) Run(startToken int32) (*Result, error) {
	result := &Result{}
	token := startToken
	for i := 0; i < s.maxLength; i++ {
		next, attn, err := s.Step(token)
		if err != nil {
			return nil, fmt.Errorf("decoding step %d: %w", i, err)
		}
		if next == s.eosID {
			break
		}
		result.Tokens = append(result.Tokens, next)
		if attn != nil {
			result.Attention = append(result.Attention, attn)
		}
		token = next
	}

	s.logger.Info("decode finished", zap.Int("tokens", len(result.Tokens)))
	return result, nil
}

func singleToken[B tensor.Backend](token int32, backend B) *tensor.Tensor[int32, B] {
	t, err := tensor.FromSlice([]int32{token}, tensor.Shape{1}, backend)
	if err != nil {
		panic(err)
	}
	return t
}

// NewNoAttentionSession decodes with the baseline decoder.
func NewNoAttentionSession[B tensor.Backend](d *decoder.NoAttention[B], backend B, eosID int32, opts ...SessionOption) *Session[B] {
	step := func(token int32, hidden decoder.Hidden[B]) ([]float32, decoder.Hidden[B], []float32, error) {
		logProbs, hidden, err := d.Forward(singleToken(token, backend), hidden)
		if err != nil {
			return nil, decoder.Hidden[B]{}, nil, err
		}
		return logProbs.Data(), hidden, nil, nil
	}
	return newSession(step, d.InitHidden(1), eosID, opts...)
}

// NewNaiveSession decodes with the concat-scoring decoder over fixed
// encoder outputs of shape [1, maxSentLength, hidden].
func NewNaiveSession[B tensor.Backend](d *decoder.NaiveAttention[B], encoderOutputs *tensor.Tensor[float32, B], backend B, eosID int32, opts ...SessionOption) *Session[B] {
	step := func(token int32, hidden decoder.Hidden[B]) ([]float32, decoder.Hidden[B], []float32, error) {
		logProbs, hidden, attn, err := d.Forward(singleToken(token, backend), hidden, encoderOutputs)
		if err != nil {
			return nil, decoder.Hidden[B]{}, nil, err
		}
		return logProbs.Data(), hidden, attn.Data(), nil
	}
	return newSession(step, d.InitHidden(1), eosID, opts...)
}

// NewGlobalSession decodes with the global-attention decoder,
// threading the context vector across steps internally.
func NewGlobalSession[B tensor.Backend](d *decoder.GlobalAttention[B], encoderOutputs *tensor.Tensor[float32, B], backend B, eosID int32, opts ...SessionOption) *Session[B] {
	context := d.InitContext(1)
	step := func(token int32, hidden decoder.Hidden[B]) ([]float32, decoder.Hidden[B], []float32, error) {
		logProbs, hidden, newContext, attn, err := d.Forward(singleToken(token, backend), hidden, context, encoderOutputs)
		if err != nil {
			return nil, decoder.Hidden[B]{}, nil, err
		}
		context = newContext
		return logProbs.Data(), hidden, attn.Data(), nil
	}
	return newSession(step, d.InitHidden(1), eosID, opts...)
}

// NewLocalSession decodes with the windowed-attention decoder.
func NewLocalSession[B tensor.Backend](d *decoder.LocalAttention[B], encoderOutputs *tensor.Tensor[float32, B], backend B, eosID int32, opts ...SessionOption) *Session[B] {
	step := func(token int32, hidden decoder.Hidden[B]) ([]float32, decoder.Hidden[B], []float32, error) {
		logProbs, hidden, attn, err := d.Forward(singleToken(token, backend), hidden, encoderOutputs)
		if err != nil {
			return nil, decoder.Hidden[B]{}, nil, err
		}
		return logProbs.Data(), hidden, attn.Data(), nil
	}
	return newSession(step, d.InitHidden(1), eosID, opts...)
}
