// Package metrics holds the Prometheus collectors of the dispatch loop and
// the orchestrator.
//
// Metrics:
//   - devagent_dispatch_enqueued_total{result}
//   - devagent_dispatch_dropped_total{reason}
//   - devagent_executions_total{role, outcome}
//   - devagent_execution_duration_seconds{role}
//   - devagent_contract_transitions_total{to}
//   - devagent_stage_transitions_total{to}
//   - devagent_pipeline_transitions_total{to}
//   - devagent_sweep_requeued_total
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons
const (
	DropMissing        = "missing"
	DropAlreadyClaimed = "already_claimed"
	DropBadPayload     = "bad_payload"
)

// Execution outcomes
const (
	OutcomeSucceeded = "succeeded"
	OutcomePermanent = "permanent"
	OutcomeTransient = "transient"
	OutcomeTimeout   = "timeout"
)

type Metrics struct {
	DispatchEnqueued    *prometheus.CounterVec
	DispatchDropped     *prometheus.CounterVec
	Executions          *prometheus.CounterVec
	ExecutionDuration   *prometheus.HistogramVec
	ContractTransitions *prometheus.CounterVec
	StageTransitions    *prometheus.CounterVec
	PipelineTransitions *prometheus.CounterVec
	SweepRequeued       prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses a private registry,
// which keeps tests independent of each other.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		DispatchEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devagent_dispatch_enqueued_total",
			Help: "Dispatch messages handed to the queue",
		}, []string{"result"}),
		DispatchDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devagent_dispatch_dropped_total",
			Help: "Dispatch messages acknowledged without execution",
		}, []string{"reason"}),
		Executions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devagent_executions_total",
			Help: "Agent executions by outcome",
		}, []string{"role", "outcome"}),
		ExecutionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devagent_execution_duration_seconds",
			Help:    "Duration of agent executions in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"role"}),
		ContractTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devagent_contract_transitions_total",
			Help: "Committed task contract status transitions",
		}, []string{"to"}),
		StageTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devagent_stage_transitions_total",
			Help: "Committed stage status transitions",
		}, []string{"to"}),
		PipelineTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devagent_pipeline_transitions_total",
			Help: "Committed pipeline status transitions",
		}, []string{"to"}),
		SweepRequeued: f.NewCounter(prometheus.CounterOpts{
			Name: "devagent_sweep_requeued_total",
			Help: "Stale draft contracts re-enqueued by the recovery sweep",
		}),
	}
}
