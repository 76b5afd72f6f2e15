package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devagent/orchestrator/internal/model"
	"github.com/devagent/orchestrator/internal/repository"
	"github.com/devagent/orchestrator/internal/testutil"
)

func TestProjectCRUD(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)

	p := testutil.SeedProject(t, repo, "owner-1", "Acme")
	got, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Nil(t, got.Description)

	desc := "Internal tools"
	got.Description = &desc
	got.Status = model.ProjectStatusActive
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.UpdateProject(ctx, got))

	list, err := repo.ListProjectsByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.ProjectStatusActive, list[0].Status)
	require.NotNil(t, list[0].Description)
	assert.Equal(t, desc, *list[0].Description)

	others, err := repo.ListProjectsByOwner(ctx, "owner-2")
	require.NoError(t, err)
	assert.Empty(t, others)

	require.NoError(t, repo.DeleteProject(ctx, p.ID))
	_, err = repo.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteProject(ctx, p.ID), repository.ErrNotFound)
}

func TestCreatePipeline_StagesOrdered(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	project := testutil.SeedProject(t, repo, "owner", "Acme")

	p, _ := testutil.SeedPipeline(t, repo, project.ID, "Architecture", "Backend", "Frontend")

	stages, err := repo.ListStages(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	for i, s := range stages {
		assert.Equal(t, i+1, s.Position)
		assert.Equal(t, model.StageStatusPending, s.Status)
		assert.Nil(t, s.StartedAt)
		assert.Nil(t, s.CompletedAt)
	}
	assert.Equal(t, "Backend", stages[1].Name)
}

func TestCreatePipeline_DuplicatePositionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	project := testutil.SeedProject(t, repo, "owner", "Acme")

	p := &model.Pipeline{ID: uuid.New().String(), ProjectID: project.ID, Status: model.PipelineStatusQueued, CreatedAt: time.Now()}
	stages := []model.Stage{
		{ID: uuid.New().String(), PipelineID: p.ID, Name: "A", Status: model.StageStatusPending, Position: 1},
		{ID: uuid.New().String(), PipelineID: p.ID, Name: "B", Status: model.StageStatusPending, Position: 1},
	}
	require.Error(t, repo.CreatePipeline(ctx, p, stages))

	_, err := repo.GetPipeline(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreatePipeline_MissingProject(t *testing.T) {
	repo := testutil.NewRepository(t)
	p := &model.Pipeline{ID: uuid.New().String(), ProjectID: uuid.New().String(), Status: model.PipelineStatusQueued, CreatedAt: time.Now()}
	assert.Error(t, repo.CreatePipeline(context.Background(), p, nil))
}

func TestUpdateStageStatus_Timestamps(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	project := testutil.SeedProject(t, repo, "owner", "Acme")
	p, stages := testutil.SeedPipeline(t, repo, project.ID, "Backend")
	id := stages[0].ID

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ok, err := repo.UpdateStageStatus(ctx, id, model.StageStatusInProgress, []model.StageStatus{model.StageStatusPending}, start)
	require.NoError(t, err)
	assert.True(t, ok)

	// wrong source state is a no-op
	ok, err = repo.UpdateStageStatus(ctx, id, model.StageStatusInProgress, []model.StageStatus{model.StageStatusPending}, start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.UpdateStageStatus(ctx, id, model.StageStatusBlocked, []model.StageStatus{model.StageStatusInProgress}, start.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.UpdateStageStatus(ctx, id, model.StageStatusInProgress, []model.StageStatus{model.StageStatusBlocked}, start.Add(2*time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	end := start.Add(time.Hour)
	ok, err = repo.UpdateStageStatus(ctx, id, model.StageStatusCompleted, []model.StageStatus{model.StageStatusInProgress}, end)
	require.NoError(t, err)
	require.True(t, ok)

	s, err := repo.GetStage(ctx, p.ID, id)
	require.NoError(t, err)
	require.NotNil(t, s.StartedAt)
	require.NotNil(t, s.CompletedAt)
	assert.True(t, s.StartedAt.Equal(start), "started_at keeps the first entry time")
	assert.True(t, s.CompletedAt.Equal(end))

	_, err = repo.GetStage(ctx, uuid.New().String(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdatePipelineStatus_Conditional(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	project := testutil.SeedProject(t, repo, "owner", "Acme")
	p, _ := testutil.SeedPipeline(t, repo, project.ID, "Backend")

	ok, err := repo.UpdatePipelineStatus(ctx, p.ID, model.PipelineStatusRunning, model.PipelineStatusQueued, model.PipelineStatusBlocked)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdatePipelineStatus(ctx, p.ID, model.PipelineStatusRunning, model.PipelineStatusQueued)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetPipeline(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PipelineStatusRunning, got.Status)
}

func TestTransitionContract(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	project := testutil.SeedProject(t, repo, "owner", "Acme")
	p, _ := testutil.SeedPipeline(t, repo, project.ID, "Backend")
	c := testutil.SeedContract(t, repo, p.ID, "Backend Agent", "Build API", map[string]any{"framework": "fiber"})

	claim := repository.ContractTransition{
		ID:         c.ID,
		From:       []model.ContractStatus{model.ContractStatusDraft},
		To:         model.ContractStatusInProgress,
		Claim:      true,
		DispatchID: "task-1",
		At:         time.Now(),
	}
	ok, err := repo.TransitionContract(ctx, claim)
	require.NoError(t, err)
	require.True(t, ok)

	// second claim loses
	claim.DispatchID = "task-2"
	ok, err = repo.TransitionContract(ctx, claim)
	require.NoError(t, err)
	assert.False(t, ok)

	// reclaim needs the matching dispatch id
	reclaim := repository.ContractTransition{
		ID:                c.ID,
		From:              []model.ContractStatus{model.ContractStatusInProgress, model.ContractStatusFailed},
		To:                model.ContractStatusInProgress,
		Claim:             true,
		DispatchID:        "task-2",
		RequireDispatchID: true,
		At:                time.Now(),
	}
	ok, err = repo.TransitionContract(ctx, reclaim)
	require.NoError(t, err)
	assert.False(t, ok)
	reclaim.DispatchID = "task-1"
	ok, err = repo.TransitionContract(ctx, reclaim)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionContract(ctx, repository.ContractTransition{
		ID:     c.ID,
		From:   []model.ContractStatus{model.ContractStatusInProgress},
		To:     model.ContractStatusReview,
		Output: map[string]any{"summary": "done"},
		At:     time.Now(),
	})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusReview, got.Status)
	assert.Equal(t, "done", got.Output["summary"])
	assert.Equal(t, "fiber", got.Input["framework"])
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, "task-1", got.DispatchID)
}

func TestListStaleDrafts(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	project := testutil.SeedProject(t, repo, "owner", "Acme")
	p, _ := testutil.SeedPipeline(t, repo, project.ID, "Backend")
	draft := testutil.SeedContract(t, repo, p.ID, "Backend Agent", "Build API", nil)
	claimed := testutil.SeedContract(t, repo, p.ID, "Frontend Agent", "Build UI", nil)
	_, err := repo.TransitionContract(ctx, repository.ContractTransition{
		ID: claimed.ID, From: []model.ContractStatus{model.ContractStatusDraft}, To: model.ContractStatusInProgress,
		Claim: true, DispatchID: "t", At: claimed.UpdatedAt,
	})
	require.NoError(t, err)

	stale, err := repo.ListStaleDrafts(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, draft.ID, stale[0].ID)

	fresh, err := repo.ListStaleDrafts(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestReviewsAndCascade(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	project := testutil.SeedProject(t, repo, "owner", "Acme")
	p, _ := testutil.SeedPipeline(t, repo, project.ID, "Backend")
	c := testutil.SeedContract(t, repo, p.ID, "Backend Agent", "Build API", nil)

	base := time.Now().UTC()
	for i, status := range []model.ReviewStatus{model.ReviewStatusRequested, model.ReviewStatusApproved} {
		require.NoError(t, repo.CreateReview(ctx, &model.AgentReview{
			ID:             uuid.New().String(),
			TaskContractID: c.ID,
			Reviewer:       "lead",
			Status:         status,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}))
	}

	reviews, err := repo.ListReviewsByPipeline(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, model.ReviewStatusApproved, reviews[0].Status, "newest first")

	require.NoError(t, repo.DeleteProject(ctx, project.ID))
	_, err = repo.GetContract(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	reviews, err = repo.ListReviewsByPipeline(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewRepository(t)
	project := testutil.SeedProject(t, repo, "owner", "Acme")
	p, stages := testutil.SeedPipeline(t, repo, project.ID, "Backend")

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(tx repository.Repository) error {
		locked, err := tx.LockPipeline(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PipelineStatusQueued, locked.Status)
		ok, err := tx.UpdateStageStatus(ctx, stages[0].ID, model.StageStatusInProgress, []model.StageStatus{model.StageStatusPending}, time.Now())
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	s, err := repo.GetStage(ctx, p.ID, stages[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageStatusPending, s.Status)

	err = repo.InTx(ctx, func(tx repository.Repository) error {
		_, err := tx.LockPipeline(ctx, uuid.New().String())
		return err
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
