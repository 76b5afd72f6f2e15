package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/devagent/orchestrator/internal/agent"
)

// MockGenerator returns deterministic placeholder content. It is selected
// when no generation backend is configured.
type MockGenerator struct{}

func (MockGenerator) Name() string { return "mock" }

func (MockGenerator) Generate(ctx context.Context, in agent.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(in.Prompt, "JSON array") {
		return `[{"method":"GET","path":"/api/health","description":"Health check"},` +
			`{"method":"GET","path":"/api/items","description":"List items"},` +
			`{"method":"POST","path":"/api/items","description":"Create item"}]`, nil
	}
	first := in.Prompt
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	return fmt.Sprintf("// %s placeholder output\n// %s\n", in.Role, first), nil
}
