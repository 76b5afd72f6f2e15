package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/devagent/orchestrator/internal/agent"
)

// FakeGenerator returns canned text, an error, or blocks until ctx ends
type FakeGenerator struct {
	mu    sync.Mutex
	Err   error
	Block bool
	Reply func(req agent.GenerationRequest) string
	Calls []agent.GenerationRequest
}

func (g *FakeGenerator) Name() string { return "fake" }

func (g *FakeGenerator) Generate(ctx context.Context, req agent.GenerationRequest) (string, error) {
	g.mu.Lock()
	g.Calls = append(g.Calls, req)
	err, block, reply := g.Err, g.Block, g.Reply
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	if reply != nil {
		return reply(req), nil
	}
	return fmt.Sprintf("// generated for %s\n", req.Role), nil
}

// CallCount is safe for concurrent use
func (g *FakeGenerator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Calls)
}

// MemoryStore is an in-memory artifact store
type MemoryStore struct {
	mu    sync.Mutex
	Files map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Files: map[string]string{}}
}

func (s *MemoryStore) Write(_ context.Context, basePath, relPath, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := basePath + "/" + relPath
	s.Files[key] = content
	return "mem://" + key, nil
}

func (s *MemoryStore) Read(_ context.Context, basePath, relPath string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.Files[basePath+"/"+relPath]
	return v, ok, nil
}

func (s *MemoryStore) List(_ context.Context, basePath, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	root := basePath + "/"
	var out []string
	for k := range s.Files {
		rel, ok := strings.CutPrefix(k, root)
		if ok && strings.HasPrefix(rel, strings.TrimSuffix(prefix, "/")+"/") {
			out = append(out, rel)
		}
	}
	sort.Strings(out)
	return out, nil
}
