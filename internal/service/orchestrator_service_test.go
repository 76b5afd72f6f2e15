package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devagent/orchestrator/internal/model"
	"github.com/devagent/orchestrator/internal/repository"
	"github.com/devagent/orchestrator/internal/service"
	"github.com/devagent/orchestrator/internal/testutil"
)

type fixture struct {
	repo       *repository.SQLRepository
	dispatcher *testutil.RecordingDispatcher
	events     *testutil.RecordingPublisher
	svc        *service.OrchestratorService
	project    *model.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := testutil.NewRepository(t)
	f := &fixture{
		repo:       repo,
		dispatcher: &testutil.RecordingDispatcher{},
		events:     &testutil.RecordingPublisher{},
	}
	f.svc = service.NewOrchestratorService(service.OrchestratorConfig{
		Repo:       repo,
		Dispatcher: f.dispatcher,
		Events:     f.events,
	})
	f.project = testutil.SeedProject(t, repo, "owner-1", "Acme")
	return f
}

func (f *fixture) pipeline(t *testing.T) *model.PipelineWithStages {
	t.Helper()
	p, err := f.svc.CreatePipeline(context.Background(), "owner-1", f.project.ID)
	require.NoError(t, err)
	return p
}

func (f *fixture) contract(t *testing.T, pipelineID, role string) *model.TaskContract {
	t.Helper()
	c, err := f.svc.CreateContract(context.Background(), pipelineID, &model.CreateContractRequest{
		Agent:     role,
		Objective: "Build the thing",
		Input:     map[string]any{"endpoints": []any{"/users"}},
	})
	require.NoError(t, err)
	return c
}

func TestCreatePipeline_DefaultStages(t *testing.T) {
	f := newFixture(t)

	p := f.pipeline(t)

	assert.Equal(t, model.PipelineStatusQueued, p.Pipeline.Status)
	require.Len(t, p.Stages, len(model.DefaultStageNames))
	for i, st := range p.Stages {
		assert.Equal(t, model.DefaultStageNames[i], st.Name)
		assert.Equal(t, i+1, st.Position)
		assert.Equal(t, model.StageStatusPending, st.Status)
	}
}

func TestCreatePipeline_ForeignOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePipeline(ctx, "someone-else", f.project.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.ListPipelines(ctx, "someone-else", f.project.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.CreatePipeline(ctx, "owner-1", "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCreateContract_DispatchesOnce(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t)

	c := f.contract(t, p.Pipeline.ID, "Backend Engineer")

	assert.Equal(t, model.ContractStatusDraft, c.Status)
	msgs := f.dispatcher.For(c.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Backend Engineer", msgs[0].Agent)
	assert.Equal(t, "Build the thing", msgs[0].Objective)
	assert.Contains(t, f.events.Kinds(), model.EventContractCreate)
}

func TestCreateContract_UnknownAgent(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t)

	_, err := f.svc.CreateContract(context.Background(), p.Pipeline.ID, &model.CreateContractRequest{
		Agent:     "Astrologer",
		Objective: "Read the stars",
	})

	assert.ErrorIs(t, err, service.ErrUnknownAgent)
	assert.Empty(t, f.dispatcher.Messages)
	contracts, err := f.repo.ListContractsByPipeline(context.Background(), p.Pipeline.ID)
	require.NoError(t, err)
	assert.Empty(t, contracts)
}

func TestCreateContract_MissingPipeline(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateContract(context.Background(), "00000000-0000-0000-0000-000000000000", &model.CreateContractRequest{
		Agent:     "Backend Engineer",
		Objective: "Build the thing",
	})

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCreateContract_EnqueueFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t)
	f.dispatcher.Err = errors.New("redis down")

	c := f.contract(t, p.Pipeline.ID, "Frontend Engineer")

	got, err := f.repo.GetContract(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusDraft, got.Status)
}

func TestUpdateContractStatus_Transitions(t *testing.T) {
	all := model.ValidContractStatuses
	allowed := map[[2]model.ContractStatus]bool{
		{model.ContractStatusDraft, model.ContractStatusInProgress}:  true,
		{model.ContractStatusInProgress, model.ContractStatusReview}: true,
		{model.ContractStatusInProgress, model.ContractStatusFailed}: true,
		{model.ContractStatusReview, model.ContractStatusApproved}:   true,
		{model.ContractStatusReview, model.ContractStatusRejected}:   true,
		{model.ContractStatusFailed, model.ContractStatusDraft}:      true,
	}
	// path from draft to each status through legal moves
	paths := map[model.ContractStatus][]model.ContractStatus{
		model.ContractStatusDraft:      nil,
		model.ContractStatusInProgress: {model.ContractStatusInProgress},
		model.ContractStatusReview:     {model.ContractStatusInProgress, model.ContractStatusReview},
		model.ContractStatusApproved:   {model.ContractStatusInProgress, model.ContractStatusReview, model.ContractStatusApproved},
		model.ContractStatusRejected:   {model.ContractStatusInProgress, model.ContractStatusReview, model.ContractStatusRejected},
		model.ContractStatusFailed:     {model.ContractStatusInProgress, model.ContractStatusFailed},
	}

	for _, from := range all {
		for _, to := range all {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				f := newFixture(t)
				ctx := context.Background()
				p := f.pipeline(t)
				c := f.contract(t, p.Pipeline.ID, "Backend Engineer")
				for _, step := range paths[from] {
					_, err := f.svc.UpdateContractStatus(ctx, c.ID, step)
					require.NoError(t, err)
				}

				got, err := f.svc.UpdateContractStatus(ctx, c.ID, to)

				if allowed[[2]model.ContractStatus{from, to}] {
					require.NoError(t, err)
					assert.Equal(t, to, got.Status)
					return
				}
				assert.ErrorIs(t, err, service.ErrInvalidTransition)
				stored, err := f.repo.GetContract(ctx, c.ID)
				require.NoError(t, err)
				assert.Equal(t, from, stored.Status)
			})
		}
	}
}

func TestUpdateContractStatus_ResubmitEnqueues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.pipeline(t)
	c := f.contract(t, p.Pipeline.ID, "Backend Engineer")

	_, ok, err := f.svc.ClaimContract(ctx, c.ID, "task-1")
	require.NoError(t, err)
	require.True(t, ok)
	claimed, err := f.repo.GetContract(ctx, c.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.FailContract(ctx, claimed, "task-1"))

	got, err := f.svc.UpdateContractStatus(ctx, c.ID, model.ContractStatusDraft)
	require.NoError(t, err)

	assert.Equal(t, model.ContractStatusDraft, got.Status)
	assert.Empty(t, got.DispatchID)
	assert.Len(t, f.dispatcher.For(c.ID), 2)
}

func TestUpdateContractStatus_Missing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateContractStatus(context.Background(), "00000000-0000-0000-0000-000000000000", model.ContractStatusInProgress)

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestClaimContract_ExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t)
	c := f.contract(t, p.Pipeline.ID, "Backend Engineer")

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := f.svc.ClaimContract(context.Background(), c.ID, "task-"+string(rune('a'+i)))
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	got, err := f.repo.GetContract(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusInProgress, got.Status)
	assert.Equal(t, 1, got.Attempts)
}

func TestClaimContract_RedeliveryReclaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.pipeline(t)
	c := f.contract(t, p.Pipeline.ID, "Backend Engineer")

	_, ok, err := f.svc.ClaimContract(ctx, c.ID, "task-1")
	require.NoError(t, err)
	require.True(t, ok)

	// a different task never takes over
	_, ok, err = f.svc.ClaimContract(ctx, c.ID, "task-2")
	require.NoError(t, err)
	assert.False(t, ok)

	claimed, ok, err := f.svc.ClaimContract(ctx, c.ID, "task-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, claimed.Attempts)

	require.NoError(t, f.svc.FailContract(ctx, claimed, "task-1"))

	// a failed contract goes back to work only through its own task's retry
	_, ok, err = f.svc.ClaimContract(ctx, c.ID, "task-2")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = f.svc.ClaimContract(ctx, c.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = f.svc.UpdateContractStatus(ctx, c.ID, model.ContractStatusInProgress)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	claimed, ok, err = f.svc.ClaimContract(ctx, c.ID, "task-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.ContractStatusInProgress, claimed.Status)
	assert.Equal(t, 3, claimed.Attempts)
}

func TestCompleteContract_StaleDispatchRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.pipeline(t)
	c := f.contract(t, p.Pipeline.ID, "Backend Engineer")

	claimed, ok, err := f.svc.ClaimContract(ctx, c.ID, "task-1")
	require.NoError(t, err)
	require.True(t, ok)

	err = f.svc.CompleteContract(ctx, claimed, "task-other", map[string]any{"success": true})
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	require.NoError(t, f.svc.CompleteContract(ctx, claimed, "task-1", map[string]any{"success": true}))
	got, err := f.repo.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusReview, got.Status)
	assert.Equal(t, true, got.Output["success"])
}

func TestUpdateStageStatus_PipelineDerivation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.pipeline(t)
	stages := p.Stages

	st, err := f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, stages[0].ID, model.StageStatusInProgress)
	require.NoError(t, err)
	assert.NotNil(t, st.StartedAt)
	assert.Equal(t, model.PipelineStatusRunning, f.pipelineStatus(t, p.Pipeline.ID))

	_, err = f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, stages[1].ID, model.StageStatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, model.PipelineStatusBlocked, f.pipelineStatus(t, p.Pipeline.ID))

	_, err = f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, stages[1].ID, model.StageStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.PipelineStatusRunning, f.pipelineStatus(t, p.Pipeline.ID))

	// completing one stage while others are pending keeps the pipeline running
	st, err = f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, stages[1].ID, model.StageStatusCompleted)
	require.NoError(t, err)
	assert.NotNil(t, st.CompletedAt)
	assert.Equal(t, model.PipelineStatusRunning, f.pipelineStatus(t, p.Pipeline.ID))

	for _, s := range stages {
		if s.ID == stages[1].ID {
			continue
		}
		if s.ID != stages[0].ID {
			_, err = f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, s.ID, model.StageStatusInProgress)
			require.NoError(t, err)
		}
		_, err = f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, s.ID, model.StageStatusCompleted)
		require.NoError(t, err)
	}
	assert.Equal(t, model.PipelineStatusCompleted, f.pipelineStatus(t, p.Pipeline.ID))
	assert.Contains(t, f.events.Kinds(), model.EventPipelineStatus)
}

func TestUpdateStageStatus_StaysBlockedWhileAnyStageBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.pipeline(t)
	a, b := p.Stages[0], p.Stages[1]

	_, err := f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, a.ID, model.StageStatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, model.PipelineStatusBlocked, f.pipelineStatus(t, p.Pipeline.ID))

	_, err = f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, b.ID, model.StageStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.PipelineStatusBlocked, f.pipelineStatus(t, p.Pipeline.ID))

	_, err = f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, a.ID, model.StageStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.PipelineStatusRunning, f.pipelineStatus(t, p.Pipeline.ID))
}

func TestUpdateStageStatus_InvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.pipeline(t)
	stage := p.Stages[0]

	_, err := f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, stage.ID, model.StageStatusCompleted)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)
	_, err = f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, stage.ID, model.StageStatusPending)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	_, err = f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, stage.ID, model.StageStatusInProgress)
	require.NoError(t, err)
	_, err = f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, stage.ID, model.StageStatusCompleted)
	require.NoError(t, err)
	_, err = f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, stage.ID, model.StageStatusInProgress)
	assert.ErrorIs(t, err, service.ErrInvalidTransition)

	assert.Equal(t, model.PipelineStatusRunning, f.pipelineStatus(t, p.Pipeline.ID))
}

func TestUpdateStageStatus_WrongPipeline(t *testing.T) {
	f := newFixture(t)
	a := f.pipeline(t)
	b := f.pipeline(t)

	_, err := f.svc.UpdateStageStatus(context.Background(), b.Pipeline.ID, a.Stages[0].ID, model.StageStatusInProgress)

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateStageStatus_ConcurrentCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.pipeline(t)
	for _, s := range p.Stages {
		_, err := f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, s.ID, model.StageStatusInProgress)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for _, s := range p.Stages {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.UpdateStageStatus(ctx, p.Pipeline.ID, id, model.StageStatusCompleted)
			assert.NoError(t, err)
		}(s.ID)
	}
	wg.Wait()

	assert.Equal(t, model.PipelineStatusCompleted, f.pipelineStatus(t, p.Pipeline.ID))
}

func TestGetPipelineDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.pipeline(t)
	first := f.contract(t, p.Pipeline.ID, "System Architect")
	second := f.contract(t, p.Pipeline.ID, "Backend Engineer")
	_, err := f.svc.CreateReview(ctx, first.ID, &model.CreateReviewRequest{
		Reviewer: "lead",
		Notes:    "tighten the schema",
		Status:   model.ReviewStatusChangesRequested,
	})
	require.NoError(t, err)

	detail, err := f.svc.GetPipelineDetail(ctx, p.Pipeline.ID)
	require.NoError(t, err)

	require.Len(t, detail.Stages, len(model.DefaultStageNames))
	require.Len(t, detail.Contracts, 2)
	assert.Equal(t, second.ID, detail.Contracts[0].ID)
	assert.Empty(t, detail.Contracts[0].Reviews)
	require.Len(t, detail.Contracts[1].Reviews, 1)
	assert.Equal(t, "lead", detail.Contracts[1].Reviews[0].Reviewer)

	_, err = f.svc.GetPipelineDetail(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCreateReview_MissingContract(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateReview(context.Background(), "00000000-0000-0000-0000-000000000000", &model.CreateReviewRequest{
		Reviewer: "lead",
		Status:   model.ReviewStatusApproved,
	})

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRequeueStaleDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.pipeline(t)
	stale := testutil.SeedContract(t, f.repo, p.Pipeline.ID, "Backend Engineer", "Old work", nil)
	fresh := testutil.SeedContract(t, f.repo, p.Pipeline.ID, "Backend Engineer", "New work", nil)
	ok, err := f.repo.TransitionContract(ctx, repository.ContractTransition{
		ID:   stale.ID,
		From: []model.ContractStatus{model.ContractStatusDraft},
		To:   model.ContractStatusDraft,
		At:   time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)
	require.True(t, ok)

	n, err := f.svc.RequeueStaleDrafts(ctx, 5*time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.dispatcher.For(stale.ID), 1)
	assert.Empty(t, f.dispatcher.For(fresh.ID))

	// the requeued draft was touched and is skipped by the next sweep
	n, err = f.svc.RequeueStaleDrafts(ctx, 5*time.Minute, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		f.svc.RunSweeper(ctx, 10*time.Millisecond, time.Minute, 10)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func (f *fixture) pipelineStatus(t *testing.T, id string) model.PipelineStatus {
	t.Helper()
	p, err := f.repo.GetPipeline(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}
