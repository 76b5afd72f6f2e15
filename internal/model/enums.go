package model

// Project lifecycle
type ProjectStatus string

const (
	ProjectStatusPlanned   ProjectStatus = "planned"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Pipeline status
type PipelineStatus string

const (
	PipelineStatusQueued    PipelineStatus = "queued"
	PipelineStatusRunning   PipelineStatus = "running"
	PipelineStatusBlocked   PipelineStatus = "blocked"
	PipelineStatusCompleted PipelineStatus = "completed"
)

// Stage status
type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusInProgress StageStatus = "in_progress"
	StageStatusBlocked    StageStatus = "blocked"
	StageStatusCompleted  StageStatus = "completed"
)

// Task contract status
type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "draft"
	ContractStatusInProgress ContractStatus = "in_progress"
	ContractStatusReview     ContractStatus = "review"
	ContractStatusApproved   ContractStatus = "approved"
	ContractStatusRejected   ContractStatus = "rejected"
	ContractStatusFailed     ContractStatus = "failed"
)

var ValidContractStatuses = []ContractStatus{
	ContractStatusDraft, ContractStatusInProgress, ContractStatusReview,
	ContractStatusApproved, ContractStatusRejected, ContractStatusFailed,
}

// Review verdicts
type ReviewStatus string

const (
	ReviewStatusRequested        ReviewStatus = "requested"
	ReviewStatusApproved         ReviewStatus = "approved"
	ReviewStatusChangesRequested ReviewStatus = "changes_requested"
)

// DefaultStageNames is the stage set created with every pipeline unless
// configuration overrides it.
var DefaultStageNames = []string{
	"Architecture",
	"Backend",
	"Frontend",
	"Security",
	"Testing",
	"Deployment",
}
