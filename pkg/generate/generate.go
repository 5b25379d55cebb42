// Package generate talks to the text-generation service.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/cohere"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultModel is used when neither the request nor the options name a model.
const DefaultModel = "gpt-4o"

const defaultOllamaURL = "http://localhost:11434"

// Provider names a text-generation backend.
type Provider string

// Supported providers.
const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderGoogleAI  Provider = "googleai"
	ProviderCohere    Provider = "cohere"
)

// NeedsAPIKey reports whether the provider is a hosted service requiring a key.
func (p Provider) NeedsAPIKey() bool {
	return p != ProviderOllama
}

// Request is a single generation request.
type Request struct {
	Model  string // empty selects the generator's default
	System string
	Prompt string
}

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ErrEmptyResponse is returned when the service answers without any choices.
var ErrEmptyResponse = errors.New("empty response from model")

// Options configures the backend LLM.
type Options struct {
	Provider    Provider
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// LLM is a Generator backed by a langchaingo model.
type LLM struct {
	model       llms.Model
	logger      *slog.Logger
	name        string
	temperature float64
}

// Option is a function that configures an LLM.
type Option func(*LLM)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *LLM) {
		l.logger = logger
	}
}

// WithTemperature sets the sampling temperature. Zero keeps the provider default.
func WithTemperature(t float64) Option {
	return func(l *LLM) {
		l.temperature = t
	}
}

// WithDefaultModel sets the model used for requests that do not name one.
func WithDefaultModel(name string) Option {
	return func(l *LLM) {
		if name != "" {
			l.name = name
		}
	}
}

// New creates an LLM for the configured provider.
func New(ctx context.Context, o Options, opts ...Option) (*LLM, error) {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.Provider == "" {
		o.Provider = ProviderOpenAI
	}

	var model llms.Model
	var err error
	switch o.Provider {
	case ProviderOpenAI:
		model, err = newOpenAI(o)
	case ProviderAnthropic:
		model, err = newAnthropic(o)
	case ProviderOllama:
		model, err = newOllama(o)
	case ProviderGoogleAI:
		model, err = googleai.New(ctx, googleai.WithAPIKey(o.APIKey), googleai.WithDefaultModel(o.Model))
	case ProviderCohere:
		model, err = newCohere(o)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", o.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s model: %w", o.Provider, err)
	}

	opts = append([]Option{WithDefaultModel(o.Model), WithTemperature(o.Temperature)}, opts...)
	return FromModel(model, opts...), nil
}

// FromModel wraps an existing langchaingo model.
func FromModel(model llms.Model, opts ...Option) *LLM {
	l := &LLM{
		model:  model,
		logger: slog.Default(),
		name:   DefaultModel,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func newOpenAI(o Options) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(o.Model),
		openai.WithToken(o.APIKey),
	}
	if o.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(o.BaseURL))
	}
	return openai.New(opts...)
}

func newAnthropic(o Options) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithToken(o.APIKey),
		anthropic.WithModel(o.Model),
	}
	if o.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(o.BaseURL))
	}
	return anthropic.New(opts...)
}

func newOllama(o Options) (llms.Model, error) {
	if o.BaseURL == "" {
		o.BaseURL = defaultOllamaURL
	}
	return ollama.New(ollama.WithServerURL(o.BaseURL), ollama.WithModel(o.Model))
}

func newCohere(o Options) (llms.Model, error) {
	opts := []cohere.Option{
		cohere.WithToken(o.APIKey),
		cohere.WithModel(o.Model),
	}
	if o.BaseURL != "" {
		opts = append(opts, cohere.WithBaseURL(o.BaseURL))
	}
	return cohere.New(opts...)
}

// Generate sends the system instructions and prompt as a two-message
// conversation and returns the first choice verbatim.
func (l *LLM) Generate(ctx context.Context, req Request) (string, error) {
	name := req.Model
	if name == "" {
		name = l.name
	}

	var messages []llms.MessageContent
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	callOpts := []llms.CallOption{llms.WithModel(name)}
	if l.temperature != 0 {
		callOpts = append(callOpts, llms.WithTemperature(l.temperature))
	}

	start := time.Now()
	resp, err := l.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		l.logger.DebugContext(ctx, "generation failed", "model", name, "elapsed", time.Since(start), "error", err)
		return "", fmt.Errorf("generating with %s: %w", name, err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", ErrEmptyResponse
	}

	l.logger.DebugContext(ctx, "generation complete",
		"model", name, "elapsed", time.Since(start), "chars", len(resp.Choices[0].Content))
	return resp.Choices[0].Content, nil
}
