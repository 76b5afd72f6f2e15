package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/config"
	"github.com/devagent/orchestrator/internal/db"
	"github.com/devagent/orchestrator/internal/events"
	"github.com/devagent/orchestrator/internal/logging"
	"github.com/devagent/orchestrator/internal/metrics"
	"github.com/devagent/orchestrator/internal/queue"
	"github.com/devagent/orchestrator/internal/repository"
	"github.com/devagent/orchestrator/internal/service"
	"github.com/devagent/orchestrator/internal/worker"
)

// app holds the process-wide collaborators shared by every command
type app struct {
	cfg          *config.Config
	log          *zap.Logger
	conn         *sql.DB
	repo         *repository.SQLRepository
	redis        *redis.Client
	asynq        *asynq.Client
	registry     *prometheus.Registry
	metrics      *metrics.Metrics
	orchestrator *service.OrchestratorService
}

// newApp loads configuration and opens the store, Redis and the queue client.
// Migrations are applied so every command sees the current schema.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.Server.LogLevel, cfg.Server.Env)
	if err != nil {
		return nil, err
	}

	conn, dialect, err := db.Open(ctx, db.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return nil, err
	}
	if n, err := db.Migrate(ctx, conn, dialect); err != nil {
		conn.Close()
		return nil, err
	} else if n > 0 {
		log.Info("applied migrations", zap.Int("count", n))
	}

	redisOpt := worker.RedisOpt(cfg.Redis)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis not available", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	repo := repository.New(conn, dialect)
	client := asynq.NewClient(redisOpt)

	a := &app{
		cfg:      cfg,
		log:      log,
		conn:     conn,
		repo:     repo,
		redis:    rdb,
		asynq:    client,
		registry: reg,
		metrics:  m,
	}
	a.orchestrator = service.NewOrchestratorService(service.OrchestratorConfig{
		Repo: repo,
		Dispatcher: queue.NewAsynqDispatcher(client, queue.Options{
			Queue:            cfg.Queue.Name,
			MaxRetry:         cfg.Queue.MaxRetry,
			Retention:        cfg.Queue.Retention,
			ExecutionTimeout: cfg.Queue.ExecutionTimeout,
		}),
		Events:     events.NewRedisPublisher(rdb, log),
		Metrics:    m,
		Logger:     log,
		StageNames: cfg.Pipeline.Stages,
	})
	return a, nil
}

func (a *app) Close() {
	if err := a.asynq.Close(); err != nil {
		a.log.Warn("close queue client", zap.Error(err))
	}
	if err := a.redis.Close(); err != nil {
		a.log.Warn("close redis", zap.Error(err))
	}
	if err := a.conn.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
