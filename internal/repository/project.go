package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/devagent/orchestrator/internal/model"
)

const projectColumns = `id, owner_id, name, description, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var (
		p                  model.Project
		desc               sql.NullString
		status             string
		created, updated string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &desc, &status, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if desc.Valid {
		p.Description = &desc.String
	}
	p.Status = model.ProjectStatus(status)
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLRepository) CreateProject(ctx context.Context, p *model.Project) error {
	_, err := r.exec(ctx, `INSERT INTO projects(`+projectColumns+`) VALUES (?,?,?,?,?,?,?)`,
		p.ID, p.OwnerID, p.Name, p.Description, string(p.Status), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return wrapErr("create project", err)
}

func (r *SQLRepository) GetProject(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(r.queryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
	if err != nil {
		return nil, wrapErr("get project", err)
	}
	return p, nil
}

func (r *SQLRepository) ListProjectsByOwner(ctx context.Context, ownerID string) ([]model.Project, error) {
	rows, err := r.query(ctx, `SELECT `+projectColumns+` FROM projects WHERE owner_id=? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, wrapErr("list projects", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, wrapErr("scan project", err)
		}
		projects = append(projects, *p)
	}
	return projects, wrapErr("list projects", rows.Err())
}

// UpdateProject overwrites the mutable project columns
func (r *SQLRepository) UpdateProject(ctx context.Context, p *model.Project) error {
	res, err := r.exec(ctx, `UPDATE projects SET name=?, description=?, status=?, updated_at=? WHERE id=?`,
		p.Name, p.Description, string(p.Status), formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return wrapErr("update project", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject removes a project; pipelines and everything below cascade
func (r *SQLRepository) DeleteProject(ctx context.Context, id string) error {
	res, err := r.exec(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return wrapErr("delete project", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
