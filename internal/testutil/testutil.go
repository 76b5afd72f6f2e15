// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/devagent/orchestrator/internal/db"
	"github.com/devagent/orchestrator/internal/model"
	"github.com/devagent/orchestrator/internal/repository"
)

// NewRepository opens a migrated SQLite database in a temp dir
func NewRepository(t testing.TB) *repository.SQLRepository {
	t.Helper()
	ctx := context.Background()
	conn, dialect, err := db.Open(ctx, db.Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = db.Migrate(ctx, conn, dialect)
	require.NoError(t, err)
	return repository.New(conn, dialect)
}

// SeedProject inserts a project owned by ownerID
func SeedProject(t testing.TB, repo repository.Repository, ownerID, name string) *model.Project {
	t.Helper()
	now := time.Now().UTC()
	p := &model.Project{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      name,
		Status:    model.ProjectStatusPlanned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateProject(context.Background(), p))
	return p
}

// SeedPipeline inserts a queued pipeline with the given stage names
func SeedPipeline(t testing.TB, repo repository.Repository, projectID string, stageNames ...string) (*model.Pipeline, []model.Stage) {
	t.Helper()
	p := &model.Pipeline{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Status:    model.PipelineStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	stages := make([]model.Stage, len(stageNames))
	for i, name := range stageNames {
		stages[i] = model.Stage{
			ID:         uuid.New().String(),
			PipelineID: p.ID,
			Name:       name,
			Status:     model.StageStatusPending,
			Position:   i + 1,
		}
	}
	require.NoError(t, repo.CreatePipeline(context.Background(), p, stages))
	return p, stages
}

// SeedContract inserts a draft contract directly, bypassing role validation
func SeedContract(t testing.TB, repo repository.Repository, pipelineID, agent, objective string, input map[string]any) *model.TaskContract {
	t.Helper()
	now := time.Now().UTC()
	c := &model.TaskContract{
		ID:         uuid.New().String(),
		PipelineID: pipelineID,
		Agent:      agent,
		Objective:  objective,
		Input:      input,
		Status:     model.ContractStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.CreateContract(context.Background(), c))
	return c
}
