package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/agent"
	"github.com/devagent/orchestrator/internal/metrics"
	"github.com/devagent/orchestrator/internal/model"
	"github.com/devagent/orchestrator/internal/queue"
	"github.com/devagent/orchestrator/internal/repository"
	"github.com/devagent/orchestrator/internal/service"
)

// Orchestrator is the part of the orchestrator service the worker drives
type Orchestrator interface {
	GetContract(ctx context.Context, id string) (*model.TaskContract, error)
	GetPipeline(ctx context.Context, id string) (*model.Pipeline, error)
	ClaimContract(ctx context.Context, id, dispatchID string) (*model.TaskContract, bool, error)
	CompleteContract(ctx context.Context, c *model.TaskContract, dispatchID string, output map[string]any) error
	FailContract(ctx context.Context, c *model.TaskContract, dispatchID string) error
}

// Executor runs an agent task
type Executor interface {
	Resolve(agent string) (agent.Role, error)
	Execute(ctx context.Context, task agent.Task) (*agent.Result, error)
}

// AgentWorker processes agent:execute tasks
type AgentWorker struct {
	orchestrator Orchestrator
	executor     Executor
	timeout      time.Duration
	metrics      *metrics.Metrics
	log          *zap.Logger
}

// NewAgentWorker creates a new agent worker
func NewAgentWorker(o Orchestrator, ex Executor, timeout time.Duration, m *metrics.Metrics, log *zap.Logger) *AgentWorker {
	if m == nil {
		m = metrics.New(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AgentWorker{
		orchestrator: o,
		executor:     ex,
		timeout:      timeout,
		metrics:      m,
		log:          log.Named("worker"),
	}
}

// ProcessTask handles one dispatch message. A nil return acknowledges the
// message; an error hands it back to the queue for retry.
func (w *AgentWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	msg, err := queue.ParseMessage(t)
	if err != nil {
		w.metrics.DispatchDropped.WithLabelValues(metrics.DropBadPayload).Inc()
		w.log.Error("dropping malformed dispatch message", zap.Error(err))
		return nil
	}

	dispatchID, ok := asynq.GetTaskID(ctx)
	if !ok {
		dispatchID = uuid.New().String()
	}
	log := w.log.With(zap.String("contract_id", msg.ContractID), zap.String("task_id", dispatchID))

	if _, err := w.orchestrator.GetContract(ctx, msg.ContractID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.metrics.DispatchDropped.WithLabelValues(metrics.DropMissing).Inc()
			log.Warn("dropping message for missing contract")
			return nil
		}
		return fmt.Errorf("load contract %s: %w", msg.ContractID, err)
	}

	contract, claimed, err := w.orchestrator.ClaimContract(ctx, msg.ContractID, dispatchID)
	if err != nil {
		return fmt.Errorf("claim contract %s: %w", msg.ContractID, err)
	}
	if !claimed {
		w.metrics.DispatchDropped.WithLabelValues(metrics.DropAlreadyClaimed).Inc()
		log.Info("contract already claimed, dropping message")
		return nil
	}

	return w.execute(ctx, log, contract, dispatchID)
}

func (w *AgentWorker) execute(ctx context.Context, log *zap.Logger, c *model.TaskContract, dispatchID string) error {
	role := "unknown"
	if r, err := w.executor.Resolve(c.Agent); err == nil {
		role = string(r)
	}

	pipeline, err := w.orchestrator.GetPipeline(ctx, c.PipelineID)
	if err != nil {
		return w.fail(ctx, log, c, dispatchID, role, metrics.OutcomeTransient, fmt.Errorf("load pipeline: %w", err))
	}

	execCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	res, err := w.run(execCtx, agent.Task{
		ContractID: c.ID,
		PipelineID: c.PipelineID,
		ProjectID:  pipeline.ProjectID,
		Agent:      c.Agent,
		Objective:  c.Objective,
		Input:      c.Input,
	})
	w.metrics.ExecutionDuration.WithLabelValues(role).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := metrics.OutcomeTransient
		switch {
		case ctx.Err() == nil && errors.Is(execCtx.Err(), context.DeadlineExceeded):
			outcome = metrics.OutcomeTimeout
			err = fmt.Errorf("execution exceeded %s: %w", w.timeout, err)
		case agent.IsPermanent(err):
			outcome = metrics.OutcomePermanent
		}
		return w.fail(ctx, log, c, dispatchID, role, outcome, err)
	}

	if err := w.orchestrator.CompleteContract(context.WithoutCancel(ctx), c, dispatchID, res.ToOutput()); err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			log.Warn("contract moved during execution, discarding result", zap.Error(err))
			return nil
		}
		return fmt.Errorf("complete contract %s: %w", c.ID, err)
	}
	w.metrics.Executions.WithLabelValues(role, metrics.OutcomeSucceeded).Inc()
	log.Info("contract ready for review",
		zap.String("role", role),
		zap.Int("files", len(res.FilesGenerated)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// run stops waiting for the executor once ctx is done. A backend that
// ignores ctx keeps running in the background and its result is dropped.
func (w *AgentWorker) run(ctx context.Context, task agent.Task) (*agent.Result, error) {
	type result struct {
		res *agent.Result
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := w.executor.Execute(ctx, task)
		done <- result{res, err}
	}()

	select {
	case r := <-done:
		if r.err == nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return r.res, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fail records the failure first, then acknowledges permanent errors and
// timeouts and returns transient errors to the queue
func (w *AgentWorker) fail(ctx context.Context, log *zap.Logger, c *model.TaskContract, dispatchID, role, outcome string, cause error) error {
	w.metrics.Executions.WithLabelValues(role, outcome).Inc()
	log.Error("agent execution failed",
		zap.String("role", role),
		zap.String("outcome", outcome),
		zap.Int("attempt", c.Attempts),
		zap.Error(cause))

	if err := w.orchestrator.FailContract(context.WithoutCancel(ctx), c, dispatchID); err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			log.Warn("contract moved during execution", zap.Error(err))
			return nil
		}
		return fmt.Errorf("mark contract %s failed: %w", c.ID, err)
	}

	if outcome == metrics.OutcomeTransient {
		return cause
	}
	return nil
}
