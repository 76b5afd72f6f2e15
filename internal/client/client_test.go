package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/devagent/orchestrator/internal/agent"
	"github.com/devagent/orchestrator/internal/config"
)

func TestLocalStore_WriteReadList(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	loc, err := s.Write(ctx, "project-1", "backend/src/routes/usersRoutes.ts", "v1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "project-1", "backend", "src", "routes", "usersRoutes.ts"), loc)

	// overwrite is idempotent
	_, err = s.Write(ctx, "project-1", "backend/src/routes/usersRoutes.ts", "v2")
	require.NoError(t, err)
	content, found, err := s.Read(ctx, "project-1", "backend/src/routes/usersRoutes.ts")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", content)

	_, found, err = s.Read(ctx, "project-1", "missing.json")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = s.Write(ctx, "project-1", "backend/src/server.ts", "x")
	require.NoError(t, err)
	files, err := s.List(ctx, "project-1", "backend/src")
	require.NoError(t, err)
	assert.Equal(t, []string{"backend/src/routes/usersRoutes.ts", "backend/src/server.ts"}, files)

	files, err = s.List(ctx, "project-1", "frontend")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(filepath.Join(root, "out"))
	require.NoError(t, err)

	_, err = s.Write(ctx, "project-1", "../../escape.txt", "x")
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestObjectKey(t *testing.T) {
	key, err := objectKey("project-1", "architecture/README.md")
	require.NoError(t, err)
	assert.Equal(t, "project-1/architecture/README.md", key)

	_, err = objectKey("project-1", "../../x")
	assert.Error(t, err)
}

func TestGroqClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "system prompt", req.Messages[0].Content)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	c := NewGroqClient(&config.GroqConfig{APIKey: "key", BaseURL: srv.URL, Model: "m"})
	out, err := c.Generate(context.Background(), agent.GenerationRequest{System: "system prompt", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestGroqClient_ErrorClassification(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"x"}`))
	}))
	defer srv.Close()
	c := NewGroqClient(&config.GroqConfig{APIKey: "key", BaseURL: srv.URL, Model: "m"})

	_, err := c.Generate(context.Background(), agent.GenerationRequest{})
	require.Error(t, err)
	assert.False(t, agent.IsPermanent(err), "429 is retryable")

	status = http.StatusUnauthorized
	_, err = c.Generate(context.Background(), agent.GenerationRequest{})
	require.Error(t, err)
	assert.True(t, agent.IsPermanent(err))

	_, err = NewGroqClient(&config.GroqConfig{}).Generate(context.Background(), agent.GenerationRequest{})
	assert.True(t, agent.IsPermanent(err))
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Agent: config.AgentConfig{Provider: "auto"}}
	g, err := NewGenerator(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", g.Name())

	cfg.OpenAI = config.OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini"}
	g, err = NewGenerator(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai:gpt-4o-mini", g.Name())

	cfg.Groq = config.GroqConfig{APIKey: "k", Model: "llama"}
	g, err = NewGenerator(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "groq:llama", g.Name())

	cfg.Gemini = config.GeminiConfig{APIKey: "k", Model: "gemini-2.5-flash"}
	g, err = NewGenerator(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "gemini:gemini-2.5-flash", g.Name())

	for _, provider := range []string{"gemini", "openai"} {
		cfg := &config.Config{Agent: config.AgentConfig{Provider: provider}}
		_, err = NewGenerator(ctx, cfg)
		assert.Error(t, err, "%s without a key", provider)
	}

	cfg.Agent.Provider = "bogus"
	_, err = NewGenerator(ctx, cfg)
	assert.Error(t, err)
}

type recordingModel struct {
	got []llms.MessageContent
}

func (m *recordingModel) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.got = msgs
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "ok"}}}, nil
}

func (m *recordingModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", nil
}

func TestLLMClient_Messages(t *testing.T) {
	req := agent.GenerationRequest{Role: agent.RoleBackend, System: "be terse", Prompt: "write main.go"}

	m := &recordingModel{}
	out, err := (&LLMClient{llm: m, name: "openai:x"}).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	require.Len(t, m.got, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, m.got[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.got[1].Role)

	m = &recordingModel{}
	_, err = (&LLMClient{llm: m, name: "gemini:x", inlineSystem: true}).Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, m.got, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.got[0].Role)
	assert.Equal(t, llms.TextContent{Text: "be terse\n\nwrite main.go"}, m.got[0].Parts[0])
}

func TestMockGenerator(t *testing.T) {
	out, err := MockGenerator{}.Generate(context.Background(), agent.GenerationRequest{Role: agent.RoleArchitect, Prompt: "Reply with a JSON array"})
	require.NoError(t, err)
	var eps []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &eps))
	assert.Len(t, eps, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = MockGenerator{}.Generate(ctx, agent.GenerationRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
