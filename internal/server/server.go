// Package server assembles the HTTP API: REST routes under /api, the
// pipeline websocket stream, health and metrics.
package server

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/docs"
	"github.com/devagent/orchestrator/internal/auth"
	"github.com/devagent/orchestrator/internal/config"
	"github.com/devagent/orchestrator/internal/handler"
	"github.com/devagent/orchestrator/internal/middleware"
	"github.com/devagent/orchestrator/internal/service"
	ws "github.com/devagent/orchestrator/internal/websocket"
	"github.com/devagent/orchestrator/pkg/response"
)

// Deps are the collaborators of the HTTP API
type Deps struct {
	Config        *config.Config
	Log           *zap.Logger
	Projects      *service.ProjectService
	Orchestrator  *service.OrchestratorService
	Authenticator *auth.Authenticator
	// RateLimiter is optional
	RateLimiter *middleware.RateLimiter
	Hub         *ws.Hub
	Health      *handler.HealthHandler
	Gatherer    prometheus.Gatherer
}

// New builds the fiber app with every route registered
func New(d Deps) *fiber.App {
	cfg := d.Config
	if d.Authenticator == nil {
		d.Authenticator = &auth.Authenticator{}
	}
	validate := validator.New()

	if cfg.Server.ApiDomain != "" {
		docs.SwaggerInfo.Host = cfg.Server.ApiDomain
		docs.SwaggerInfo.Schemes = []string{"https"}
	} else {
		docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port
		docs.SwaggerInfo.Schemes = []string{"http"}
	}

	projectHandler := handler.NewProjectHandler(d.Projects, d.Orchestrator, validate, d.Log)
	pipelineHandler := handler.NewPipelineHandler(d.Orchestrator, validate, d.Log)
	contractHandler := handler.NewContractHandler(d.Orchestrator, validate, d.Log)
	authHandler := handler.NewAuthHandler(d.Authenticator)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(d.Log),
		BodyLimit:    4 * 1024 * 1024,
	})

	app.Use(recover.New())
	if cfg.IsDevelopment() {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", d.Health.Check)
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Swagger UI
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	// ForwardAuth endpoint for Traefik
	app.Get("/auth/verify", authHandler.Verify)

	var authenticate fiber.Handler
	if cfg.Gateway.Enabled {
		authenticate = middleware.GatewayAuthMiddleware()
	} else {
		authenticate = middleware.NewAuthMiddleware(d.Authenticator).Authenticate()
	}

	api := app.Group("/api", authenticate)
	contractLimit := func(c *fiber.Ctx) error { return c.Next() }
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.APILimit(cfg.RateLimit.APIPerMin))
		contractLimit = d.RateLimiter.ContractLimit(cfg.RateLimit.ContractsPerHour)
	}

	// Project routes
	projects := api.Group("/projects")
	projects.Get("/", projectHandler.List)
	projects.Post("/", projectHandler.Create)
	projects.Get("/:projectId", projectHandler.Get)
	projects.Patch("/:projectId", projectHandler.Update)
	projects.Delete("/:projectId", projectHandler.Delete)
	projects.Get("/:projectId/pipelines", projectHandler.Pipelines)

	// Pipeline routes
	pipelines := api.Group("/pipelines")
	pipelines.Post("/", pipelineHandler.Create)
	pipelines.Get("/:pipelineId", pipelineHandler.Get)
	pipelines.Patch("/:pipelineId/stages/:stageId", pipelineHandler.UpdateStage)
	pipelines.Post("/:pipelineId/contracts", contractLimit, pipelineHandler.CreateContract)

	// Contract routes
	contracts := api.Group("/contracts")
	contracts.Get("/:contractId", contractHandler.Get)
	contracts.Patch("/:contractId/status", contractHandler.UpdateStatus)
	contracts.Post("/:contractId/reviews", contractHandler.CreateReview)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/pipelines/:pipelineId", wsAuth(cfg, d.Authenticator), func(c *fiber.Ctx) error {
		if _, err := d.Orchestrator.GetPipeline(c.UserContext(), c.Params("pipelineId")); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return response.NotFound(c, "Pipeline not found")
			}
			return err
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		d.Hub.HandleConnection(c, c.Params("pipelineId"))
	}))

	return app
}

// wsAuth validates the token query parameter, since browsers cannot set
// headers on websocket upgrades
func wsAuth(cfg *config.Config, a *auth.Authenticator) fiber.Handler {
	if cfg.Gateway.Enabled {
		return middleware.GatewayAuthMiddleware()
	}
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			return response.Unauthorized(c, "Missing token")
		}
		if _, err := a.Authenticate(token); err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}
		return c.Next()
	}
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		} else {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		return response.Error(c, code, response.CodeServiceError, message, nil)
	}
}
