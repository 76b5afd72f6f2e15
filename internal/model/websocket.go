package model

import "time"

// WebSocket message types
const (
	WSMessageTypeEvent = "event"
	WSMessageTypePing  = "ping"
	WSMessageTypePong  = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// Pipeline event kinds
const (
	EventPipelineStatus = "pipeline.status"
	EventStageStatus    = "stage.status"
	EventContractStatus = "contract.status"
	EventContractCreate = "contract.created"
	EventReviewCreate   = "review.created"
)

// PipelineEvent is published whenever an entity of a pipeline changes
type PipelineEvent struct {
	Type       string    `json:"type"`
	Kind       string    `json:"kind"`
	PipelineID string    `json:"pipelineId"`
	EntityID   string    `json:"entityId"`
	Status     string    `json:"status,omitempty"`
	At         time.Time `json:"at"`
}
