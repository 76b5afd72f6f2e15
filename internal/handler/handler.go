package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/service"
	"github.com/devagent/orchestrator/pkg/response"
)

// serviceError maps service sentinels onto the response envelope
func serviceError(c *fiber.Ctx, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return response.NotFound(c, "Resource not found")
	case errors.Is(err, service.ErrInvalidTransition):
		return response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrUnknownAgent):
		return response.UnknownAgent(c, err.Error())
	case errors.Is(err, service.ErrEmptyUpdate):
		return response.ValidationError(c, err.Error(), nil)
	case errors.Is(err, service.ErrStoreUnavailable):
		log.Error("store unavailable", zap.String("path", c.Path()), zap.Error(err))
		return response.StoreUnavailable(c, "Store unavailable, retry later")
	default:
		log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return response.ServiceError(c, "Internal server error")
	}
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		out := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			out[e.Field()] = e.Tag()
		}
		return out
	}
	return err.Error()
}
