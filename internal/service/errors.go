package service

import (
	"errors"

	"github.com/devagent/orchestrator/internal/agent"
	"github.com/devagent/orchestrator/internal/repository"
)

var (
	ErrNotFound          = repository.ErrNotFound
	ErrStoreUnavailable  = repository.ErrStoreUnavailable
	ErrUnknownAgent      = agent.ErrUnknownAgent
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyUpdate       = errors.New("no fields to update")
)
