package queue

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	"github.com/devagent/orchestrator/internal/model"
)

// DeadLetters lists archived dispatch messages. Archived messages are never
// re-enqueued automatically; operators resubmit the contract instead.
type DeadLetters struct {
	inspector *asynq.Inspector
	queue     string
}

func NewDeadLetters(inspector *asynq.Inspector, queue string) *DeadLetters {
	return &DeadLetters{inspector: inspector, queue: queue}
}

// List returns up to size archived messages of the queue
func (d *DeadLetters) List(size int) ([]model.DeadLetter, error) {
	tasks, err := d.inspector.ListArchivedTasks(d.queue, asynq.PageSize(size))
	if err != nil {
		if errors.Is(err, asynq.ErrQueueNotFound) {
			return []model.DeadLetter{}, nil
		}
		return nil, err
	}
	out := make([]model.DeadLetter, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toDeadLetter(t))
	}
	return out, nil
}

func toDeadLetter(t *asynq.TaskInfo) model.DeadLetter {
	dl := model.DeadLetter{
		TaskID:    t.ID,
		Retried:   t.Retried,
		MaxRetry:  t.MaxRetry,
		LastError: t.LastErr,
	}
	var msg model.DispatchMessage
	if err := json.Unmarshal(t.Payload, &msg); err == nil {
		dl.ContractID = msg.ContractID
		dl.Agent = msg.Agent
	}
	if !t.LastFailedAt.IsZero() {
		dl.LastFailedAt = t.LastFailedAt.UTC().Format(time.RFC3339)
	}
	return dl
}
