package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/devagent/orchestrator/internal/model"
)

const contractColumns = `id, pipeline_id, agent, objective, input, output, status, attempts, dispatch_id, created_at, updated_at`

func scanContract(row rowScanner) (*model.TaskContract, error) {
	var (
		c                model.TaskContract
		input, output    sql.NullString
		status           string
		created, updated string
	)
	if err := row.Scan(&c.ID, &c.PipelineID, &c.Agent, &c.Objective, &input, &output, &status,
		&c.Attempts, &c.DispatchID, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Status = model.ContractStatus(status)
	var err error
	if c.Input, err = decodeJSON(input); err != nil {
		return nil, err
	}
	if c.Input == nil {
		c.Input = map[string]any{}
	}
	if c.Output, err = decodeJSON(output); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SQLRepository) CreateContract(ctx context.Context, c *model.TaskContract) error {
	input, err := encodeJSON(c.Input)
	if err != nil {
		return wrapErr("encode contract input", err)
	}
	_, err = r.exec(ctx, `INSERT INTO task_contracts(`+contractColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.PipelineID, c.Agent, c.Objective, input, nil, string(c.Status), c.Attempts, c.DispatchID,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	return wrapErr("create contract", err)
}

func (r *SQLRepository) GetContract(ctx context.Context, id string) (*model.TaskContract, error) {
	c, err := scanContract(r.queryRow(ctx, `SELECT `+contractColumns+` FROM task_contracts WHERE id=?`, id))
	if err != nil {
		return nil, wrapErr("get contract", err)
	}
	return c, nil
}

// ListContractsByPipeline returns contracts newest first
func (r *SQLRepository) ListContractsByPipeline(ctx context.Context, pipelineID string) ([]model.TaskContract, error) {
	return r.listContracts(ctx, `SELECT `+contractColumns+` FROM task_contracts WHERE pipeline_id=? ORDER BY created_at DESC, id DESC`, pipelineID)
}

// ListStaleDrafts returns draft contracts not touched since olderThan, oldest first
func (r *SQLRepository) ListStaleDrafts(ctx context.Context, olderThan time.Time, limit int) ([]model.TaskContract, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.listContracts(ctx, `SELECT `+contractColumns+` FROM task_contracts WHERE status=? AND updated_at < ? ORDER BY updated_at ASC LIMIT ?`,
		string(model.ContractStatusDraft), formatTime(olderThan), limit)
}

func (r *SQLRepository) listContracts(ctx context.Context, query string, args ...any) ([]model.TaskContract, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list contracts", err)
	}
	defer rows.Close()

	contracts := []model.TaskContract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, wrapErr("scan contract", err)
		}
		contracts = append(contracts, *c)
	}
	return contracts, wrapErr("list contracts", rows.Err())
}

// TransitionContract applies a conditional status update. It returns false
// when no row matched, meaning the contract was missing or not in an allowed
// source state.
func (r *SQLRepository) TransitionContract(ctx context.Context, t ContractTransition) (bool, error) {
	if len(t.From) == 0 {
		return false, nil
	}
	set := []string{"status=?", "updated_at=?"}
	args := []any{string(t.To), formatTime(t.At)}
	if t.Output != nil {
		out, err := encodeJSON(t.Output)
		if err != nil {
			return false, wrapErr("encode contract output", err)
		}
		set = append(set, "output=?")
		args = append(args, out)
	}
	switch {
	case t.Claim:
		set = append(set, "attempts=attempts+1", "dispatch_id=?")
		args = append(args, t.DispatchID)
	case t.ClearDispatch:
		set = append(set, "dispatch_id=''")
	}

	where := "id=? AND status IN (" + placeholders(len(t.From)) + ")"
	args = append(args, t.ID)
	args = append(args, statusArgs(t.From)...)
	if t.RequireDispatchID {
		where += " AND dispatch_id=? AND dispatch_id<>''"
		args = append(args, t.DispatchID)
	}

	res, err := r.exec(ctx, `UPDATE task_contracts SET `+strings.Join(set, ", ")+` WHERE `+where, args...)
	if err != nil {
		return false, wrapErr("transition contract", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("transition contract", err)
	}
	return n > 0, nil
}
