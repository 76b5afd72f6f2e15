package client

import (
	"context"
	"fmt"

	"github.com/devagent/orchestrator/internal/agent"
	"github.com/devagent/orchestrator/internal/config"
)

// NewGenerator selects the generation backend. "auto" takes the first
// provider with an api key in the order gemini, groq, openai and falls back
// to the mock generator; ollama must be chosen explicitly because it needs
// a reachable local server.
func NewGenerator(ctx context.Context, cfg *config.Config) (agent.Generator, error) {
	switch cfg.Agent.Provider {
	case "gemini":
		return NewGeminiClient(ctx, &cfg.Gemini)
	case "groq":
		return NewGroqClient(&cfg.Groq), nil
	case "openai":
		return NewOpenAIClient(&cfg.OpenAI)
	case "ollama":
		return NewOllamaClient(&cfg.Ollama)
	case "mock":
		return MockGenerator{}, nil
	case "auto", "":
		switch {
		case cfg.Gemini.APIKey != "":
			return NewGeminiClient(ctx, &cfg.Gemini)
		case cfg.Groq.APIKey != "":
			return NewGroqClient(&cfg.Groq), nil
		case cfg.OpenAI.APIKey != "":
			return NewOpenAIClient(&cfg.OpenAI)
		}
		return MockGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Agent.Provider)
	}
}
