package repository

import (
	"context"

	"github.com/devagent/orchestrator/internal/model"
)

func (r *SQLRepository) CreateReview(ctx context.Context, rv *model.AgentReview) error {
	_, err := r.exec(ctx, `INSERT INTO agent_reviews(id, task_contract_id, reviewer, notes, status, created_at) VALUES (?,?,?,?,?,?)`,
		rv.ID, rv.TaskContractID, rv.Reviewer, rv.Notes, string(rv.Status), formatTime(rv.CreatedAt))
	return wrapErr("create review", err)
}

// ListReviewsByPipeline returns every review of the pipeline's contracts,
// newest first
func (r *SQLRepository) ListReviewsByPipeline(ctx context.Context, pipelineID string) ([]model.AgentReview, error) {
	rows, err := r.query(ctx, `SELECT r.id, r.task_contract_id, r.reviewer, r.notes, r.status, r.created_at
FROM agent_reviews r
JOIN task_contracts c ON c.id = r.task_contract_id
WHERE c.pipeline_id=?
ORDER BY r.created_at DESC, r.id DESC`, pipelineID)
	if err != nil {
		return nil, wrapErr("list reviews", err)
	}
	defer rows.Close()

	reviews := []model.AgentReview{}
	for rows.Next() {
		var (
			rv      model.AgentReview
			status  string
			created string
		)
		if err := rows.Scan(&rv.ID, &rv.TaskContractID, &rv.Reviewer, &rv.Notes, &status, &created); err != nil {
			return nil, wrapErr("scan review", err)
		}
		rv.Status = model.ReviewStatus(status)
		if rv.CreatedAt, err = parseTime(created); err != nil {
			return nil, wrapErr("scan review", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, wrapErr("list reviews", rows.Err())
}
