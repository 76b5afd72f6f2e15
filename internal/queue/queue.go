// Package queue carries dispatch messages over asynq.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/devagent/orchestrator/internal/model"
)

// TaskTypeExecuteAgent is the asynq task type of a dispatch message
const TaskTypeExecuteAgent = "agent:execute"

// maxBackoff caps the exponential retry delay
const maxBackoff = time.Hour

// Dispatcher enqueues dispatch messages and returns the queue task id
type Dispatcher interface {
	Dispatch(ctx context.Context, msg model.DispatchMessage) (string, error)
}

// Options controls retry and retention of enqueued messages
type Options struct {
	Queue            string
	MaxRetry         int
	Retention        time.Duration
	ExecutionTimeout time.Duration
}

// AsynqDispatcher implements Dispatcher with an asynq client
type AsynqDispatcher struct {
	client *asynq.Client
	opts   Options
}

func NewAsynqDispatcher(client *asynq.Client, opts Options) *AsynqDispatcher {
	return &AsynqDispatcher{client: client, opts: opts}
}

// NewTask encodes a dispatch message as an asynq task
func NewTask(msg model.DispatchMessage) (*asynq.Task, error) {
	if msg.ContractID == "" {
		return nil, errors.New("dispatch message without contract id")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeExecuteAgent, data), nil
}

// ParseMessage decodes the payload of an agent task
func ParseMessage(t *asynq.Task) (model.DispatchMessage, error) {
	var msg model.DispatchMessage
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return msg, fmt.Errorf("decode dispatch message: %w", err)
	}
	if msg.ContractID == "" {
		return msg, errors.New("dispatch message without contract id")
	}
	return msg, nil
}

func (d *AsynqDispatcher) Dispatch(ctx context.Context, msg model.DispatchMessage) (string, error) {
	task, err := NewTask(msg)
	if err != nil {
		return "", err
	}
	opts := []asynq.Option{
		asynq.Queue(d.opts.Queue),
		asynq.MaxRetry(d.opts.MaxRetry),
		asynq.Retention(d.opts.Retention),
	}
	if d.opts.ExecutionTimeout > 0 {
		// the worker enforces ExecutionTimeout itself; asynq's deadline is a backstop
		opts = append(opts, asynq.Timeout(d.opts.ExecutionTimeout+time.Minute))
	}
	info, err := d.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue contract %s: %w", msg.ContractID, err)
	}
	return info.ID, nil
}

// RetryDelay doubles base for every retry already made: base, 2*base, 4*base...
func RetryDelay(base time.Duration) asynq.RetryDelayFunc {
	return func(n int, _ error, _ *asynq.Task) time.Duration {
		return backoff(base, n)
	}
}

func backoff(base time.Duration, n int) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > 30 {
		return maxBackoff
	}
	d := base << uint(n)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
