package model

import "time"

// Pipeline is one delivery run for a project
type Pipeline struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"projectId"`
	Status    PipelineStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Stage is one named phase of a pipeline
type Stage struct {
	ID          string      `json:"id"`
	PipelineID  string      `json:"pipelineId"`
	Name        string      `json:"name"`
	Status      StageStatus `json:"status"`
	Position    int         `json:"position"`
	StartedAt   *time.Time  `json:"startedAt"`
	CompletedAt *time.Time  `json:"completedAt"`
}

// PipelineWithStages is returned when a pipeline is created
type PipelineWithStages struct {
	Pipeline *Pipeline `json:"pipeline"`
	Stages   []Stage   `json:"stages"`
}

// PipelineDetail is the read model for rendering a pipeline
type PipelineDetail struct {
	Pipeline  *Pipeline             `json:"pipeline"`
	Stages    []Stage               `json:"stages"`
	Contracts []ContractWithReviews `json:"contracts"`
}

// CreatePipelineRequest represents the request body for pipeline creation
type CreatePipelineRequest struct {
	ProjectID string `json:"projectId" validate:"required,uuid"`
}

// UpdateStageRequest represents the request body for a stage status change
type UpdateStageRequest struct {
	Status StageStatus `json:"status" validate:"required,oneof=pending in_progress blocked completed"`
}

// PipelineListResponse represents the response for pipeline listing
type PipelineListResponse struct {
	Pipelines []Pipeline `json:"pipelines"`
}

// StageResponse wraps a single stage
type StageResponse struct {
	Stage *Stage `json:"stage"`
}
