package client

import (
	"fmt"

	"github.com/devagent/orchestrator/internal/agent"
	"github.com/devagent/orchestrator/internal/config"
)

// NewArtifactStore builds the configured artifact store
func NewArtifactStore(cfg *config.Config) (agent.ArtifactStore, error) {
	switch cfg.Agent.Storage {
	case "r2":
		return NewR2Store(&cfg.R2)
	case "local", "":
		return NewLocalStore(cfg.Agent.OutputDir)
	default:
		return nil, fmt.Errorf("unknown artifact storage %q", cfg.Agent.Storage)
	}
}
