package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/model"
	"github.com/devagent/orchestrator/internal/service"
	"github.com/devagent/orchestrator/pkg/response"
)

type ContractHandler struct {
	service   *service.OrchestratorService
	validator *validator.Validate
	log       *zap.Logger
}

func NewContractHandler(svc *service.OrchestratorService, v *validator.Validate, log *zap.Logger) *ContractHandler {
	return &ContractHandler{
		service:   svc,
		validator: v,
		log:       log,
	}
}

// Get handles GET /api/contracts/:contractId
// @Summary      Get task contract
// @Tags         Contracts
// @Produce      json
// @Param        contractId path string true "Contract ID"
// @Success      200 {object} model.ContractResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contracts/{contractId} [get]
func (h *ContractHandler) Get(c *fiber.Ctx) error {
	contract, err := h.service.GetContract(c.UserContext(), c.Params("contractId"))
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return response.OK(c, model.ContractResponse{Contract: contract})
}

// UpdateStatus handles PATCH /api/contracts/:contractId/status
// @Summary      Update contract status
// @Description  Move a contract along its lifecycle; failed -> draft resubmits it
// @Tags         Contracts
// @Accept       json
// @Produce      json
// @Param        contractId path string true "Contract ID"
// @Param        request body model.UpdateContractStatusRequest true "New status"
// @Success      200 {object} model.ContractResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contracts/{contractId}/status [patch]
func (h *ContractHandler) UpdateStatus(c *fiber.Ctx) error {
	var req model.UpdateContractStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	contract, err := h.service.UpdateContractStatus(c.UserContext(), c.Params("contractId"), req.Status)
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return response.OK(c, model.ContractResponse{Contract: contract})
}

// CreateReview handles POST /api/contracts/:contractId/reviews
// @Summary      Review a contract
// @Tags         Contracts
// @Accept       json
// @Produce      json
// @Param        contractId path string true "Contract ID"
// @Param        request body model.CreateReviewRequest true "Review"
// @Success      201 {object} model.ReviewResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/contracts/{contractId}/reviews [post]
func (h *ContractHandler) CreateReview(c *fiber.Ctx) error {
	var req model.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	review, err := h.service.CreateReview(c.UserContext(), c.Params("contractId"), &req)
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return response.Created(c, model.ReviewResponse{Review: review})
}
