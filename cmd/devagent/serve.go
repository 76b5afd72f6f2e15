package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/agent"
	"github.com/devagent/orchestrator/internal/auth"
	"github.com/devagent/orchestrator/internal/client"
	"github.com/devagent/orchestrator/internal/events"
	"github.com/devagent/orchestrator/internal/handler"
	"github.com/devagent/orchestrator/internal/middleware"
	"github.com/devagent/orchestrator/internal/server"
	"github.com/devagent/orchestrator/internal/service"
	"github.com/devagent/orchestrator/internal/websocket"
	"github.com/devagent/orchestrator/internal/worker"
)

func serveCmd() *cobra.Command {
	var withWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, optionally with an in-process worker pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			gen, store, err := agentBackends(ctx, a)
			if err != nil {
				return err
			}

			hub := websocket.NewHub(a.log)
			go hub.Run(ctx)
			relay := events.NewRelay(a.redis, hub, a.log)
			go func() {
				if err := relay.Run(ctx); err != nil {
					a.log.Warn("event relay stopped", zap.Error(err))
				}
			}()

			authenticator := newAuthenticator(ctx, a)

			app := server.New(server.Deps{
				Config:        a.cfg,
				Log:           a.log,
				Projects:      service.NewProjectService(a.repo),
				Orchestrator:  a.orchestrator,
				Authenticator: authenticator,
				RateLimiter:   middleware.NewRateLimiter(a.redis, a.log),
				Hub:           hub,
				Health: handler.NewHealthHandler(a.repo, handler.PingFunc(func(ctx context.Context) error {
					return a.redis.Ping(ctx).Err()
				}), gen.Name(), a.cfg.Agent.Storage),
				Gatherer: a.registry,
			})

			errc := make(chan error, 1)
			if withWorker {
				go func() { errc <- runWorker(ctx, a, gen, store) }()
			}
			if a.cfg.Sweep.Enabled {
				go a.orchestrator.RunSweeper(ctx, a.cfg.Sweep.Interval, a.cfg.Sweep.MinAge, a.cfg.Sweep.Batch)
			}

			go func() {
				select {
				case <-ctx.Done():
				case err := <-errc:
					if err != nil {
						a.log.Error("worker stopped", zap.Error(err))
					}
				}
				a.log.Info("shutting down server")
				if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
					a.log.Warn("server shutdown", zap.Error(err))
				}
			}()

			addr := ":" + a.cfg.Server.Port
			a.log.Info("server starting",
				zap.String("addr", addr),
				zap.Bool("worker", withWorker),
				zap.String("generator", gen.Name()),
				zap.String("database", a.cfg.Database.Driver))
			return app.Listen(addr)
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", true, "run the agent worker pool in this process")
	return cmd
}

func workerCmd() *cobra.Command {
	var sweep bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the agent worker pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			gen, store, err := agentBackends(ctx, a)
			if err != nil {
				return err
			}
			if sweep && a.cfg.Sweep.Enabled {
				go a.orchestrator.RunSweeper(ctx, a.cfg.Sweep.Interval, a.cfg.Sweep.MinAge, a.cfg.Sweep.Batch)
			}
			return runWorker(ctx, a, gen, store)
		},
	}
	cmd.Flags().BoolVar(&sweep, "sweep", false, "also run the recovery sweep")
	return cmd
}

func agentBackends(ctx context.Context, a *app) (agent.Generator, agent.ArtifactStore, error) {
	gen, err := client.NewGenerator(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := client.NewArtifactStore(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	return gen, store, nil
}

// runWorker blocks until ctx is done. In-flight tasks get asynq's shutdown
// grace period; unfinished ones are redelivered and reclaimed.
func runWorker(ctx context.Context, a *app, gen agent.Generator, store agent.ArtifactStore) error {
	router := agent.NewRouter(gen, store, a.log)
	w := worker.NewAgentWorker(a.orchestrator, router, a.cfg.Queue.ExecutionTimeout, a.metrics, a.log)
	srv := worker.NewServer(worker.RedisOpt(a.cfg.Redis), a.cfg.Queue, a.cfg.Server.LogLevel, a.log)

	if err := srv.Start(worker.NewMux(w)); err != nil {
		return err
	}
	a.log.Info("worker pool started",
		zap.String("queue", a.cfg.Queue.Name),
		zap.Int("concurrency", a.cfg.Queue.Concurrency),
		zap.String("generator", gen.Name()))

	<-ctx.Done()
	srv.Shutdown()
	return nil
}

// newAuthenticator prefers the Zitadel issuer and keeps the HMAC secret as a
// fallback. A failing discovery degrades to the secret alone.
func newAuthenticator(ctx context.Context, a *app) *auth.Authenticator {
	authenticator := &auth.Authenticator{Secret: a.cfg.JWT.Secret}
	if a.cfg.Zitadel.Issuer == "" {
		return authenticator
	}
	verifier, err := auth.NewOIDCVerifier(ctx, a.cfg.Zitadel)
	if err != nil {
		a.log.Warn("zitadel verification unavailable", zap.Error(err))
		return authenticator
	}
	authenticator.Verifier = verifier
	return authenticator
}
