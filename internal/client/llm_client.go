package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/devagent/orchestrator/internal/agent"
	"github.com/devagent/orchestrator/internal/config"
)

// LLMClient adapts a langchaingo model to agent.Generator
type LLMClient struct {
	llm       llms.Model
	name      string
	maxTokens int
	// inlineSystem sends the system prompt as the head of the user turn
	inlineSystem bool
}

// NewGeminiClient creates a generator backed by the Gemini API
func NewGeminiClient(ctx context.Context, cfg *config.GeminiConfig) (*LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key not configured")
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &LLMClient{llm: llm, name: "gemini:" + cfg.Model, maxTokens: 8192, inlineSystem: true}, nil
}

// NewOpenAIClient creates a generator backed by the OpenAI chat API
func NewOpenAIClient(cfg *config.OpenAIConfig) (*LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key not configured")
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}
	return &LLMClient{llm: llm, name: "openai:" + cfg.Model, maxTokens: 4096}, nil
}

// NewOllamaClient creates a generator backed by a local Ollama server
func NewOllamaClient(cfg *config.OllamaConfig) (*LLMClient, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.ServerURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating Ollama client: %w", err)
	}
	return &LLMClient{llm: llm, name: "ollama:" + cfg.Model, maxTokens: 4096}, nil
}

func (c *LLMClient) Name() string { return c.name }

func (c *LLMClient) Generate(ctx context.Context, in agent.GenerationRequest) (string, error) {
	messages := c.messages(in)
	resp, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices in response", c.name)
	}
	return resp.Choices[0].Content, nil
}

func (c *LLMClient) messages(in agent.GenerationRequest) []llms.MessageContent {
	if c.inlineSystem {
		return []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, in.System+"\n\n"+in.Prompt),
		}
	}
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, in.System),
		llms.TextParts(llms.ChatMessageTypeHuman, in.Prompt),
	}
}
