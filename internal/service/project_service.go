package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devagent/orchestrator/internal/model"
	"github.com/devagent/orchestrator/internal/repository"
)

// ProjectService manages projects scoped to their owner
type ProjectService struct {
	repo repository.Repository
	now  func() time.Time
}

// NewProjectService creates a new project service
func NewProjectService(repo repository.Repository) *ProjectService {
	return &ProjectService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new project owned by ownerID
func (s *ProjectService) Create(ctx context.Context, ownerID string, req *model.CreateProjectRequest) (*model.Project, error) {
	status := req.Status
	if status == "" {
		status = model.ProjectStatusPlanned
	}
	now := s.now()
	p := &model.Project{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// List returns the owner's projects, newest first
func (s *ProjectService) List(ctx context.Context, ownerID string) ([]model.Project, error) {
	return s.repo.ListProjectsByOwner(ctx, ownerID)
}

// Get returns a project; projects of other owners are reported as missing
func (s *ProjectService) Get(ctx context.Context, ownerID, id string) (*model.Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && p.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return p, nil
}

// Update applies the non-nil fields of req
func (s *ProjectService) Update(ctx context.Context, ownerID, id string, req *model.UpdateProjectRequest) (*model.Project, error) {
	if req.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	p, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	p.UpdatedAt = s.now()
	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// Delete removes a project together with its pipelines
func (s *ProjectService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repo.DeleteProject(ctx, id)
}
