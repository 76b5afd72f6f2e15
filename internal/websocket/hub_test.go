package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devagent/orchestrator/internal/model"
)

func TestHub_BroadcastToPipelineSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(nil)
	go h.Run(ctx)

	a := &Client{PipelineID: "p1", Send: make(chan []byte, 4)}
	b := &Client{PipelineID: "p2", Send: make(chan []byte, 4)}
	h.Register(a)
	h.Register(b)
	require.Eventually(t, func() bool { return h.Subscribers("p1") == 1 && h.Subscribers("p2") == 1 }, time.Second, 5*time.Millisecond)

	h.BroadcastEvent(model.PipelineEvent{Kind: model.EventStageStatus, PipelineID: "p1", EntityID: "s1", Status: "completed"})

	select {
	case data := <-a.Send:
		var evt model.PipelineEvent
		require.NoError(t, json.Unmarshal(data, &evt))
		assert.Equal(t, model.WSMessageTypeEvent, evt.Type)
		assert.Equal(t, "s1", evt.EntityID)
	case <-time.After(time.Second):
		t.Fatal("subscriber of p1 got nothing")
	}
	assert.Empty(t, b.Send)

	h.Unregister(a)
	require.Eventually(t, func() bool { return h.Subscribers("p1") == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-a.Send
	assert.False(t, open)
}

func TestHub_DropsSlowConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(nil)
	go h.Run(ctx)

	slow := &Client{PipelineID: "p1", Send: make(chan []byte)}
	h.Register(slow)
	require.Eventually(t, func() bool { return h.Subscribers("p1") == 1 }, time.Second, 5*time.Millisecond)

	h.Broadcast("p1", []byte("x"))
	require.Eventually(t, func() bool { return h.Subscribers("p1") == 0 }, time.Second, 5*time.Millisecond)

	// unregistering an already dropped client must not panic
	h.Unregister(slow)
}
