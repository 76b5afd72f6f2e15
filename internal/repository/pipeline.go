package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/devagent/orchestrator/internal/model"
)

const (
	pipelineColumns = `id, project_id, status, created_at`
	stageColumns    = `id, pipeline_id, name, status, position, started_at, completed_at`
)

func scanPipeline(row rowScanner) (*model.Pipeline, error) {
	var (
		p       model.Pipeline
		status  string
		created string
	)
	if err := row.Scan(&p.ID, &p.ProjectID, &status, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Status = model.PipelineStatus(status)
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanStage(row rowScanner) (*model.Stage, error) {
	var (
		s                  model.Stage
		status             string
		started, completed sql.NullString
	)
	if err := row.Scan(&s.ID, &s.PipelineID, &s.Name, &status, &s.Position, &started, &completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Status = model.StageStatus(status)
	var err error
	if s.StartedAt, err = scanNullTime(started); err != nil {
		return nil, err
	}
	if s.CompletedAt, err = scanNullTime(completed); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreatePipeline inserts the pipeline and its stages in one transaction.
// A missing project surfaces as a foreign key error.
func (r *SQLRepository) CreatePipeline(ctx context.Context, p *model.Pipeline, stages []model.Stage) error {
	return r.InTx(ctx, func(txr Repository) error {
		tx := txr.(*SQLRepository)
		if _, err := tx.exec(ctx, `INSERT INTO orchestrator_pipelines(`+pipelineColumns+`) VALUES (?,?,?,?)`,
			p.ID, p.ProjectID, string(p.Status), formatTime(p.CreatedAt)); err != nil {
			return wrapErr("insert pipeline", err)
		}
		for _, s := range stages {
			if _, err := tx.exec(ctx, `INSERT INTO pipeline_stages(`+stageColumns+`) VALUES (?,?,?,?,?,?,?)`,
				s.ID, s.PipelineID, s.Name, string(s.Status), s.Position, nullTime(s.StartedAt), nullTime(s.CompletedAt)); err != nil {
				return wrapErr("insert stage", err)
			}
		}
		return nil
	})
}

func (r *SQLRepository) GetPipeline(ctx context.Context, id string) (*model.Pipeline, error) {
	p, err := scanPipeline(r.queryRow(ctx, `SELECT `+pipelineColumns+` FROM orchestrator_pipelines WHERE id=?`, id))
	if err != nil {
		return nil, wrapErr("get pipeline", err)
	}
	return p, nil
}

func (r *SQLRepository) ListPipelinesByProject(ctx context.Context, projectID string) ([]model.Pipeline, error) {
	rows, err := r.query(ctx, `SELECT `+pipelineColumns+` FROM orchestrator_pipelines WHERE project_id=? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, wrapErr("list pipelines", err)
	}
	defer rows.Close()

	pipelines := []model.Pipeline{}
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, wrapErr("scan pipeline", err)
		}
		pipelines = append(pipelines, *p)
	}
	return pipelines, wrapErr("list pipelines", rows.Err())
}

// UpdatePipelineStatus sets the status when the current one is in from
func (r *SQLRepository) UpdatePipelineStatus(ctx context.Context, id string, to model.PipelineStatus, from ...model.PipelineStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	args := append([]any{string(to), id}, statusArgs(from)...)
	res, err := r.exec(ctx, `UPDATE orchestrator_pipelines SET status=? WHERE id=? AND status IN (`+placeholders(len(from))+`)`, args...)
	if err != nil {
		return false, wrapErr("update pipeline status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("update pipeline status", err)
	}
	return n > 0, nil
}

// LockPipeline issues a no-op update so concurrent writers of the same
// pipeline serialize until the surrounding transaction ends
func (r *SQLRepository) LockPipeline(ctx context.Context, id string) (*model.Pipeline, error) {
	res, err := r.exec(ctx, `UPDATE orchestrator_pipelines SET status=status WHERE id=?`, id)
	if err != nil {
		return nil, wrapErr("lock pipeline", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.GetPipeline(ctx, id)
}

// ListStages returns the stages of a pipeline by position
func (r *SQLRepository) ListStages(ctx context.Context, pipelineID string) ([]model.Stage, error) {
	rows, err := r.query(ctx, `SELECT `+stageColumns+` FROM pipeline_stages WHERE pipeline_id=? ORDER BY position ASC`, pipelineID)
	if err != nil {
		return nil, wrapErr("list stages", err)
	}
	defer rows.Close()

	stages := []model.Stage{}
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, wrapErr("scan stage", err)
		}
		stages = append(stages, *s)
	}
	return stages, wrapErr("list stages", rows.Err())
}

func (r *SQLRepository) GetStage(ctx context.Context, pipelineID, stageID string) (*model.Stage, error) {
	s, err := scanStage(r.queryRow(ctx, `SELECT `+stageColumns+` FROM pipeline_stages WHERE id=? AND pipeline_id=?`, stageID, pipelineID))
	if err != nil {
		return nil, wrapErr("get stage", err)
	}
	return s, nil
}

// UpdateStageStatus sets the status when the current one is in from.
// started_at is stamped on the first entry to in_progress, completed_at on
// entry to completed.
func (r *SQLRepository) UpdateStageStatus(ctx context.Context, id string, to model.StageStatus, from []model.StageStatus, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	var started, completed any
	if to == model.StageStatusInProgress {
		started = formatTime(at)
	}
	if to == model.StageStatusCompleted {
		completed = formatTime(at)
	}
	args := append([]any{string(to), started, completed, id}, statusArgs(from)...)
	res, err := r.exec(ctx, `UPDATE pipeline_stages
SET status=?, started_at=COALESCE(started_at, ?), completed_at=COALESCE(?, completed_at)
WHERE id=? AND status IN (`+placeholders(len(from))+`)`, args...)
	if err != nil {
		return false, wrapErr("update stage status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("update stage status", err)
	}
	return n > 0, nil
}
