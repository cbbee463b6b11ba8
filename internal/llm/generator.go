package llm

import (
	"context"
	"fmt"
	"strings"

	"agent_orchestrator/internal/config"
	"agent_orchestrator/internal/core"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
	"github.com/ollama/ollama/api"
)

// Generator is the narrow capability the engine depends on: given a
// prompt, return generated text. Every failure mode of the underlying
// provider surfaces as an error here and nowhere else.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message) (string, error)
}

// GenerateFunc adapts a plain function to the Generator interface.
type GenerateFunc func(ctx context.Context, messages []*schema.Message) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	return f(ctx, messages)
}

// New builds a Generator for the configured provider with the given
// sampling temperature. The provider set is validated at config load,
// so an unknown provider here is a programming error.
func New(ctx context.Context, cfg config.LLMConfig, temperature float64) (Generator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIGenerator(ctx, cfg, temperature)
	case "ollama":
		return NewOllamaGenerator(ctx, cfg, temperature)
	default:
		return nil, fmt.Errorf("%w: unknown llm provider '%s'", core.ErrConfiguration, cfg.Provider)
	}
}

type openAIGenerator struct {
	model *openai.ChatModel
}

// NewOpenAIGenerator creates a Generator backed by an OpenAI-compatible
// endpoint (OpenRouter, Groq, or the OpenAI API itself).
func NewOpenAIGenerator(ctx context.Context, cfg config.LLMConfig, temperature float64) (Generator, error) {
	maxTokens := cfg.MaxTokens
	temp := float32(temperature)

	model, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	return &openAIGenerator{model: model}, nil
}

func (g *openAIGenerator) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	out, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}
	return strings.TrimSpace(out.Content), nil
}

type ollamaGenerator struct {
	model *ollama.ChatModel
}

// NewOllamaGenerator creates a Generator backed by a local Ollama
// server, selected with llm.provider: ollama.
func NewOllamaGenerator(ctx context.Context, cfg config.LLMConfig, temperature float64) (Generator, error) {
	model, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Options: &api.Options{
			Temperature: float32(temperature),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating ollama chat model: %w", err)
	}

	return &ollamaGenerator{model: model}, nil
}

func (g *ollamaGenerator) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	out, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}
	return strings.TrimSpace(out.Content), nil
}
