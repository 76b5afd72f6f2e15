package model

import "time"

// Project owns zero or more pipelines
type Project struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"ownerId"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// CreateProjectRequest represents the request body for project creation
type CreateProjectRequest struct {
	Name        string        `json:"name" validate:"required,min=2,max=120"`
	Description *string       `json:"description" validate:"omitempty,max=1000"`
	Status      ProjectStatus `json:"status" validate:"omitempty,oneof=planned active completed"`
}

// UpdateProjectRequest is a partial update; nil fields are left untouched
type UpdateProjectRequest struct {
	Name        *string        `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string        `json:"description" validate:"omitempty,max=1000"`
	Status      *ProjectStatus `json:"status" validate:"omitempty,oneof=planned active completed"`
}

// IsEmpty reports whether the update carries no fields
func (r *UpdateProjectRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Status == nil
}

// ProjectListResponse represents the response for project listing
type ProjectListResponse struct {
	Projects []Project `json:"projects"`
}

// ProjectResponse wraps a single project
type ProjectResponse struct {
	Project *Project `json:"project"`
}
