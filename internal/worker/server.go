package worker

import (
	"strings"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/config"
	"github.com/devagent/orchestrator/internal/queue"
)

// RedisOpt converts the redis section into asynq connection options
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewServer builds the asynq server that runs agent tasks with a fixed
// number of worker slots
func NewServer(redis asynq.RedisConnOpt, cfg config.QueueConfig, logLevel string, log *zap.Logger) *asynq.Server {
	return asynq.NewServer(redis, asynq.Config{
		Concurrency:    cfg.Concurrency,
		Queues:         map[string]int{cfg.Name: 1},
		RetryDelayFunc: queue.RetryDelay(cfg.BackoffBase),
		Logger:         log.Named("asynq").Sugar(),
		LogLevel:       asynqLevel(logLevel),
	})
}

// NewMux routes agent tasks to w
func NewMux(w *AgentWorker) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskTypeExecuteAgent, w.ProcessTask)
	return mux
}

func asynqLevel(level string) asynq.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return asynq.DebugLevel
	case "warn", "warning":
		return asynq.WarnLevel
	case "error":
		return asynq.ErrorLevel
	default:
		return asynq.InfoLevel
	}
}
