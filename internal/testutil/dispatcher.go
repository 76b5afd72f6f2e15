package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/devagent/orchestrator/internal/model"
)

// RecordingDispatcher captures dispatched messages in memory
type RecordingDispatcher struct {
	mu       sync.Mutex
	Err      error
	Messages []model.DispatchMessage
}

func (d *RecordingDispatcher) Dispatch(_ context.Context, msg model.DispatchMessage) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return "", d.Err
	}
	d.Messages = append(d.Messages, msg)
	return fmt.Sprintf("task-%d", len(d.Messages)), nil
}

// For returns the messages dispatched for one contract
func (d *RecordingDispatcher) For(contractID string) []model.DispatchMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []model.DispatchMessage
	for _, m := range d.Messages {
		if m.ContractID == contractID {
			out = append(out, m)
		}
	}
	return out
}
