package testutil

import (
	"context"
	"sync"

	"github.com/devagent/orchestrator/internal/model"
)

// RecordingPublisher keeps published events in memory
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []model.PipelineEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, evt model.PipelineEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, evt)
}

// Kinds returns the kinds of all events published so far
func (p *RecordingPublisher) Kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Events))
	for i, e := range p.Events {
		out[i] = e.Kind
	}
	return out
}
