package service

import (
	"slices"

	"github.com/devagent/orchestrator/internal/model"
)

// contractTransitions lists the allowed target statuses per source status
var contractTransitions = map[model.ContractStatus][]model.ContractStatus{
	model.ContractStatusDraft:      {model.ContractStatusInProgress},
	model.ContractStatusInProgress: {model.ContractStatusReview, model.ContractStatusFailed},
	model.ContractStatusReview:     {model.ContractStatusApproved, model.ContractStatusRejected},
	model.ContractStatusFailed:     {model.ContractStatusDraft},
}

var stageTransitions = map[model.StageStatus][]model.StageStatus{
	model.StageStatusPending:    {model.StageStatusInProgress, model.StageStatusBlocked},
	model.StageStatusInProgress: {model.StageStatusCompleted, model.StageStatusBlocked},
	model.StageStatusBlocked:    {model.StageStatusInProgress},
}

// CanTransitionContract reports whether from -> to is a legal contract move
func CanTransitionContract(from, to model.ContractStatus) bool {
	return slices.Contains(contractTransitions[from], to)
}

// CanTransitionStage reports whether from -> to is a legal stage move
func CanTransitionStage(from, to model.StageStatus) bool {
	return slices.Contains(stageTransitions[from], to)
}
