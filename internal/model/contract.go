package model

import "time"

// TaskContract is one unit of agent work
type TaskContract struct {
	ID         string         `json:"id"`
	PipelineID string         `json:"pipelineId"`
	Agent      string         `json:"agent"`
	Objective  string         `json:"objective"`
	Input      map[string]any `json:"input"`
	Output     map[string]any `json:"output"`
	Status     ContractStatus `json:"status"`
	Attempts   int            `json:"attempts"`
	DispatchID string         `json:"-"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// AgentReview is a reviewer's verdict on a task contract
type AgentReview struct {
	ID             string       `json:"id"`
	TaskContractID string       `json:"taskContractId"`
	Reviewer       string       `json:"reviewer"`
	Notes          string       `json:"notes"`
	Status         ReviewStatus `json:"status"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// ContractWithReviews is a contract together with its review history
type ContractWithReviews struct {
	TaskContract
	Reviews []AgentReview `json:"reviews"`
}

// CreateContractRequest represents the request body for contract creation
type CreateContractRequest struct {
	Agent     string         `json:"agent" validate:"required,min=2,max=120"`
	Objective string         `json:"objective" validate:"required,min=3,max=2000"`
	Input     map[string]any `json:"input"`
}

// UpdateContractStatusRequest represents the request body for a contract status change
type UpdateContractStatusRequest struct {
	Status ContractStatus `json:"status" validate:"required,oneof=draft in_progress review approved rejected failed"`
}

// CreateReviewRequest represents the request body for review creation
type CreateReviewRequest struct {
	Reviewer string       `json:"reviewer" validate:"required,min=1,max=120"`
	Notes    string       `json:"notes" validate:"max=5000"`
	Status   ReviewStatus `json:"status" validate:"required,oneof=requested approved changes_requested"`
}

// ContractResponse wraps a single contract
type ContractResponse struct {
	Contract *TaskContract `json:"contract"`
}

// ReviewResponse wraps a single review
type ReviewResponse struct {
	Review *AgentReview `json:"review"`
}
