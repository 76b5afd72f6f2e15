package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/agent"
	"github.com/devagent/orchestrator/internal/events"
	"github.com/devagent/orchestrator/internal/metrics"
	"github.com/devagent/orchestrator/internal/model"
	"github.com/devagent/orchestrator/internal/queue"
	"github.com/devagent/orchestrator/internal/repository"
)

// OrchestratorService is the only writer of pipeline, stage and contract
// status. Every status write is a conditional update checked against the
// stored status.
type OrchestratorService struct {
	repo       repository.Repository
	dispatcher queue.Dispatcher
	events     events.Publisher
	metrics    *metrics.Metrics
	log        *zap.Logger
	stageNames []string
	now        func() time.Time
}

// OrchestratorConfig carries the collaborators of OrchestratorService
type OrchestratorConfig struct {
	Repo       repository.Repository
	Dispatcher queue.Dispatcher
	Events     events.Publisher
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	StageNames []string
}

func NewOrchestratorService(cfg OrchestratorConfig) *OrchestratorService {
	s := &OrchestratorService{
		repo:       cfg.Repo,
		dispatcher: cfg.Dispatcher,
		events:     cfg.Events,
		metrics:    cfg.Metrics,
		log:        cfg.Logger,
		stageNames: cfg.StageNames,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if len(s.stageNames) == 0 {
		s.stageNames = model.DefaultStageNames
	}
	return s
}

// CreatePipeline creates a queued pipeline with one pending stage per
// configured stage name. A non-empty ownerID must own the project.
func (s *OrchestratorService) CreatePipeline(ctx context.Context, ownerID, projectID string) (*model.PipelineWithStages, error) {
	if _, err := s.ownedProject(ctx, ownerID, projectID); err != nil {
		return nil, err
	}

	now := s.now()
	pipeline := &model.Pipeline{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Status:    model.PipelineStatusQueued,
		CreatedAt: now,
	}
	stages := make([]model.Stage, len(s.stageNames))
	for i, name := range s.stageNames {
		stages[i] = model.Stage{
			ID:         uuid.New().String(),
			PipelineID: pipeline.ID,
			Name:       name,
			Status:     model.StageStatusPending,
			Position:   i + 1,
		}
	}

	if err := s.repo.CreatePipeline(ctx, pipeline, stages); err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	s.log.Info("pipeline created",
		zap.String("pipeline_id", pipeline.ID),
		zap.String("project_id", projectID),
		zap.Int("stages", len(stages)))

	return &model.PipelineWithStages{Pipeline: pipeline, Stages: stages}, nil
}

// ListPipelines returns the pipelines of a project, newest first
func (s *OrchestratorService) ListPipelines(ctx context.Context, ownerID, projectID string) ([]model.Pipeline, error) {
	if _, err := s.ownedProject(ctx, ownerID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListPipelinesByProject(ctx, projectID)
}

// GetPipeline returns one pipeline without its stages
func (s *OrchestratorService) GetPipeline(ctx context.Context, pipelineID string) (*model.Pipeline, error) {
	return s.repo.GetPipeline(ctx, pipelineID)
}

// GetPipelineDetail returns the pipeline with its stages by position and its
// contracts, newest first, each carrying its reviews
func (s *OrchestratorService) GetPipelineDetail(ctx context.Context, pipelineID string) (*model.PipelineDetail, error) {
	pipeline, err := s.repo.GetPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	stages, err := s.repo.ListStages(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	contracts, err := s.repo.ListContractsByPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListReviewsByPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}

	byContract := make(map[string][]model.AgentReview, len(contracts))
	for _, r := range reviews {
		byContract[r.TaskContractID] = append(byContract[r.TaskContractID], r)
	}
	detail := &model.PipelineDetail{
		Pipeline:  pipeline,
		Stages:    stages,
		Contracts: make([]model.ContractWithReviews, len(contracts)),
	}
	for i, c := range contracts {
		rs := byContract[c.ID]
		if rs == nil {
			rs = []model.AgentReview{}
		}
		detail.Contracts[i] = model.ContractWithReviews{TaskContract: c, Reviews: rs}
	}
	return detail, nil
}

// CreateContract persists a draft contract and enqueues exactly one dispatch
// message for it. The agent role is validated first. An enqueue failure is
// logged and left to the recovery sweep; the contract is still returned.
func (s *OrchestratorService) CreateContract(ctx context.Context, pipelineID string, req *model.CreateContractRequest) (*model.TaskContract, error) {
	if _, err := agent.ParseRole(req.Agent); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPipeline(ctx, pipelineID); err != nil {
		return nil, err
	}

	input := req.Input
	if input == nil {
		input = map[string]any{}
	}
	now := s.now()
	contract := &model.TaskContract{
		ID:         uuid.New().String(),
		PipelineID: pipelineID,
		Agent:      req.Agent,
		Objective:  req.Objective,
		Input:      input,
		Status:     model.ContractStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateContract(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}
	s.publish(ctx, model.EventContractCreate, pipelineID, contract.ID, string(contract.Status))
	s.dispatch(ctx, contract)

	return contract, nil
}

func (s *OrchestratorService) dispatch(ctx context.Context, c *model.TaskContract) {
	taskID, err := s.dispatcher.Dispatch(ctx, model.DispatchMessage{
		ContractID: c.ID,
		Agent:      c.Agent,
		Objective:  c.Objective,
	})
	if err != nil {
		s.metrics.DispatchEnqueued.WithLabelValues("failed").Inc()
		s.log.Error("failed to enqueue contract, leaving it to the recovery sweep",
			zap.String("contract_id", c.ID), zap.Error(err))
		return
	}
	s.metrics.DispatchEnqueued.WithLabelValues("ok").Inc()
	s.log.Info("contract enqueued", zap.String("contract_id", c.ID), zap.String("task_id", taskID))
}

// UpdateContractStatus applies a client-requested transition. Moving a
// failed contract back to draft resubmits it with a new dispatch message.
func (s *OrchestratorService) UpdateContractStatus(ctx context.Context, contractID string, to model.ContractStatus) (*model.TaskContract, error) {
	current, err := s.repo.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !CanTransitionContract(current.Status, to) {
		return nil, fmt.Errorf("%w: contract %s is %s, cannot move to %s", ErrInvalidTransition, contractID, current.Status, to)
	}

	t := repository.ContractTransition{
		ID:   contractID,
		From: []model.ContractStatus{current.Status},
		To:   to,
		At:   s.now(),
	}
	switch to {
	case model.ContractStatusInProgress:
		t.Claim = true
	case model.ContractStatusDraft:
		t.ClearDispatch = true
	}
	if err := s.transition(ctx, current.PipelineID, t); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if to == model.ContractStatusDraft {
		s.dispatch(ctx, updated)
	}
	return updated, nil
}

// transition commits t or reports ErrInvalidTransition when the stored
// status moved underneath the caller
func (s *OrchestratorService) transition(ctx context.Context, pipelineID string, t repository.ContractTransition) error {
	ok, err := s.repo.TransitionContract(ctx, t)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.repo.GetContract(ctx, t.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: contract %s is no longer in %v", ErrInvalidTransition, t.ID, t.From)
	}
	s.metrics.ContractTransitions.WithLabelValues(string(t.To)).Inc()
	s.publish(ctx, model.EventContractStatus, pipelineID, t.ID, string(t.To))
	return nil
}

// ClaimContract moves a draft contract to in_progress on behalf of queue
// task dispatchID. A contract already claimed by the same task (left
// in_progress by a crash or failed by a retryable error) is reclaimed.
// claimed is false when another claim holds the contract.
func (s *OrchestratorService) ClaimContract(ctx context.Context, contractID, dispatchID string) (*model.TaskContract, bool, error) {
	ok, err := s.repo.TransitionContract(ctx, repository.ContractTransition{
		ID:         contractID,
		From:       []model.ContractStatus{model.ContractStatusDraft},
		To:         model.ContractStatusInProgress,
		Claim:      true,
		DispatchID: dispatchID,
		At:         s.now(),
	})
	if err != nil {
		return nil, false, err
	}
	if !ok && dispatchID != "" {
		// Queue retry only: failed and in_progress are left to the task that
		// holds the dispatch id, outside contractTransitions. Operators and
		// other tasks never match it.
		ok, err = s.repo.TransitionContract(ctx, repository.ContractTransition{
			ID:                contractID,
			From:              []model.ContractStatus{model.ContractStatusInProgress, model.ContractStatusFailed},
			To:                model.ContractStatusInProgress,
			Claim:             true,
			DispatchID:        dispatchID,
			RequireDispatchID: true,
			At:                s.now(),
		})
		if err != nil {
			return nil, false, err
		}
		if ok {
			s.log.Info("contract reclaimed by redelivery",
				zap.String("contract_id", contractID), zap.String("task_id", dispatchID))
		}
	}
	if !ok {
		return nil, false, nil
	}

	c, err := s.repo.GetContract(ctx, contractID)
	if err != nil {
		return nil, false, err
	}
	s.metrics.ContractTransitions.WithLabelValues(string(model.ContractStatusInProgress)).Inc()
	s.publish(ctx, model.EventContractStatus, c.PipelineID, c.ID, string(c.Status))
	return c, true, nil
}

// CompleteContract moves an in_progress contract held by dispatchID to
// review and stores its output
func (s *OrchestratorService) CompleteContract(ctx context.Context, c *model.TaskContract, dispatchID string, output map[string]any) error {
	if output == nil {
		output = map[string]any{}
	}
	return s.transition(ctx, c.PipelineID, repository.ContractTransition{
		ID:                c.ID,
		From:              []model.ContractStatus{model.ContractStatusInProgress},
		To:                model.ContractStatusReview,
		Output:            output,
		DispatchID:        dispatchID,
		RequireDispatchID: dispatchID != "",
		At:                s.now(),
	})
}

// FailContract moves an in_progress contract held by dispatchID to failed
func (s *OrchestratorService) FailContract(ctx context.Context, c *model.TaskContract, dispatchID string) error {
	return s.transition(ctx, c.PipelineID, repository.ContractTransition{
		ID:                c.ID,
		From:              []model.ContractStatus{model.ContractStatusInProgress},
		To:                model.ContractStatusFailed,
		DispatchID:        dispatchID,
		RequireDispatchID: dispatchID != "",
		At:                s.now(),
	})
}

// GetContract returns one contract
func (s *OrchestratorService) GetContract(ctx context.Context, contractID string) (*model.TaskContract, error) {
	return s.repo.GetContract(ctx, contractID)
}

// CreateReview appends a review; reviews are accepted at any contract status
func (s *OrchestratorService) CreateReview(ctx context.Context, contractID string, req *model.CreateReviewRequest) (*model.AgentReview, error) {
	c, err := s.repo.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	review := &model.AgentReview{
		ID:             uuid.New().String(),
		TaskContractID: contractID,
		Reviewer:       req.Reviewer,
		Notes:          req.Notes,
		Status:         req.Status,
		CreatedAt:      s.now(),
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	s.publish(ctx, model.EventReviewCreate, c.PipelineID, review.ID, string(review.Status))
	return review, nil
}

// UpdateStageStatus applies a stage transition and derives the pipeline
// status in the same transaction:
//   - stage enters in_progress: pipeline becomes running unless completed
//     or another stage is still blocked
//   - stage enters blocked: pipeline becomes blocked unless completed
//   - stage enters completed: pipeline becomes completed once every stage is
func (s *OrchestratorService) UpdateStageStatus(ctx context.Context, pipelineID, stageID string, to model.StageStatus) (*model.Stage, error) {
	var (
		stage         *model.Stage
		pipelineMoved model.PipelineStatus
	)
	err := s.repo.InTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.LockPipeline(ctx, pipelineID); err != nil {
			return err
		}
		current, err := tx.GetStage(ctx, pipelineID, stageID)
		if err != nil {
			return err
		}
		if !CanTransitionStage(current.Status, to) {
			return fmt.Errorf("%w: stage %s is %s, cannot move to %s", ErrInvalidTransition, stageID, current.Status, to)
		}
		ok, err := tx.UpdateStageStatus(ctx, stageID, to, []model.StageStatus{current.Status}, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: stage %s changed concurrently", ErrInvalidTransition, stageID)
		}

		if pipelineMoved, err = s.derivePipelineStatus(ctx, tx, pipelineID, to); err != nil {
			return err
		}
		stage, err = tx.GetStage(ctx, pipelineID, stageID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StageTransitions.WithLabelValues(string(to)).Inc()
	s.publish(ctx, model.EventStageStatus, pipelineID, stageID, string(to))
	if pipelineMoved != "" {
		s.metrics.PipelineTransitions.WithLabelValues(string(pipelineMoved)).Inc()
		s.publish(ctx, model.EventPipelineStatus, pipelineID, pipelineID, string(pipelineMoved))
		s.log.Info("pipeline status changed",
			zap.String("pipeline_id", pipelineID), zap.String("status", string(pipelineMoved)))
	}
	return stage, nil
}

// derivePipelineStatus returns the new pipeline status, or "" if unchanged
func (s *OrchestratorService) derivePipelineStatus(ctx context.Context, tx repository.Repository, pipelineID string, stageTo model.StageStatus) (model.PipelineStatus, error) {
	var (
		to   model.PipelineStatus
		from []model.PipelineStatus
	)
	switch stageTo {
	case model.StageStatusInProgress:
		stages, err := tx.ListStages(ctx, pipelineID)
		if err != nil {
			return "", err
		}
		for _, st := range stages {
			if st.Status == model.StageStatusBlocked {
				return "", nil
			}
		}
		to = model.PipelineStatusRunning
		from = []model.PipelineStatus{model.PipelineStatusQueued, model.PipelineStatusBlocked}
	case model.StageStatusBlocked:
		to = model.PipelineStatusBlocked
		from = []model.PipelineStatus{model.PipelineStatusQueued, model.PipelineStatusRunning}
	case model.StageStatusCompleted:
		stages, err := tx.ListStages(ctx, pipelineID)
		if err != nil {
			return "", err
		}
		for _, st := range stages {
			if st.Status != model.StageStatusCompleted {
				return "", nil
			}
		}
		to = model.PipelineStatusCompleted
		from = []model.PipelineStatus{model.PipelineStatusQueued, model.PipelineStatusRunning, model.PipelineStatusBlocked}
	default:
		return "", nil
	}

	ok, err := tx.UpdatePipelineStatus(ctx, pipelineID, to, from...)
	if err != nil || !ok {
		return "", err
	}
	return to, nil
}

// RequeueStaleDrafts re-enqueues draft contracts untouched for minAge. Each
// one is touched first so the next sweep skips it while its message waits.
func (s *OrchestratorService) RequeueStaleDrafts(ctx context.Context, minAge time.Duration, batch int) (int, error) {
	stale, err := s.repo.ListStaleDrafts(ctx, s.now().Add(-minAge), batch)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range stale {
		c := &stale[i]
		ok, err := s.repo.TransitionContract(ctx, repository.ContractTransition{
			ID:   c.ID,
			From: []model.ContractStatus{model.ContractStatusDraft},
			To:   model.ContractStatusDraft,
			At:   s.now(),
		})
		if err != nil {
			return n, err
		}
		if !ok {
			continue
		}
		s.dispatch(ctx, c)
		s.metrics.SweepRequeued.Inc()
		n++
	}
	if n > 0 {
		s.log.Info("re-enqueued stale drafts", zap.Int("count", n))
	}
	return n, nil
}

// RunSweeper calls RequeueStaleDrafts every interval until ctx is done
func (s *OrchestratorService) RunSweeper(ctx context.Context, interval, minAge time.Duration, batch int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RequeueStaleDrafts(ctx, minAge, batch); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Warn("recovery sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *OrchestratorService) ownedProject(ctx context.Context, ownerID, projectID string) (*model.Project, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && p.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *OrchestratorService) publish(ctx context.Context, kind, pipelineID, entityID, status string) {
	s.events.Publish(ctx, model.PipelineEvent{
		Kind:       kind,
		PipelineID: pipelineID,
		EntityID:   entityID,
		Status:     status,
		At:         s.now(),
	})
}
