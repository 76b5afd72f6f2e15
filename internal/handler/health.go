package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is anything the health check can probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	store     Pinger
	redis     Pinger
	generator string
	storage   string
}

func NewHealthHandler(store, redis Pinger, generator, storage string) *HealthHandler {
	return &HealthHandler{store: store, redis: redis, generator: generator, storage: storage}
}

// Check handles GET /health
// @Summary      Health check
// @Description  Reports store and redis reachability; 503 when the store is down
// @Tags         Health
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      503 {object} map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	code, status := fiber.StatusOK, "ok"
	store := probe(ctx, h.store)
	if store != "ok" {
		code, status = fiber.StatusServiceUnavailable, "degraded"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"store":     store,
		"redis":     probe(ctx, h.redis),
		"generator": h.generator,
		"storage":   h.storage,
	})
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "unavailable"
	}
	return "ok"
}
