package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/devagent/orchestrator/internal/middleware"
	"github.com/devagent/orchestrator/internal/model"
	"github.com/devagent/orchestrator/internal/service"
	"github.com/devagent/orchestrator/pkg/response"
)

type PipelineHandler struct {
	service   *service.OrchestratorService
	validator *validator.Validate
	log       *zap.Logger
}

func NewPipelineHandler(svc *service.OrchestratorService, v *validator.Validate, log *zap.Logger) *PipelineHandler {
	return &PipelineHandler{
		service:   svc,
		validator: v,
		log:       log,
	}
}

// Create handles POST /api/pipelines
// @Summary      Create pipeline
// @Description  Create a queued pipeline with its default stages
// @Tags         Pipelines
// @Accept       json
// @Produce      json
// @Param        request body model.CreatePipelineRequest true "Pipeline request"
// @Success      201 {object} model.PipelineWithStages
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipelines [post]
func (h *PipelineHandler) Create(c *fiber.Ctx) error {
	var req model.CreatePipelineRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.CreatePipeline(c.UserContext(), middleware.GetUserID(c), req.ProjectID)
	if err != nil {
		return serviceError(c, h.log, err)
	}

	return response.Created(c, result)
}

// Get handles GET /api/pipelines/:pipelineId
// @Summary      Get pipeline
// @Description  Pipeline with its stages in order and its contracts with reviews
// @Tags         Pipelines
// @Produce      json
// @Param        pipelineId path string true "Pipeline ID"
// @Success      200 {object} model.PipelineDetail
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipelines/{pipelineId} [get]
func (h *PipelineHandler) Get(c *fiber.Ctx) error {
	detail, err := h.service.GetPipelineDetail(c.UserContext(), c.Params("pipelineId"))
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return response.OK(c, detail)
}

// UpdateStage handles PATCH /api/pipelines/:pipelineId/stages/:stageId
// @Summary      Update stage status
// @Tags         Pipelines
// @Accept       json
// @Produce      json
// @Param        pipelineId path string true "Pipeline ID"
// @Param        stageId path string true "Stage ID"
// @Param        request body model.UpdateStageRequest true "New status"
// @Success      200 {object} model.StageResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipelines/{pipelineId}/stages/{stageId} [patch]
func (h *PipelineHandler) UpdateStage(c *fiber.Ctx) error {
	var req model.UpdateStageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	stage, err := h.service.UpdateStageStatus(c.UserContext(), c.Params("pipelineId"), c.Params("stageId"), req.Status)
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return response.OK(c, model.StageResponse{Stage: stage})
}

// CreateContract handles POST /api/pipelines/:pipelineId/contracts
// @Summary      Create task contract
// @Description  Persist a draft contract and enqueue it for its agent
// @Tags         Contracts
// @Accept       json
// @Produce      json
// @Param        pipelineId path string true "Pipeline ID"
// @Param        request body model.CreateContractRequest true "Contract"
// @Success      201 {object} model.ContractResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/pipelines/{pipelineId}/contracts [post]
func (h *PipelineHandler) CreateContract(c *fiber.Ctx) error {
	var req model.CreateContractRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	contract, err := h.service.CreateContract(c.UserContext(), c.Params("pipelineId"), &req)
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return response.Created(c, model.ContractResponse{Contract: contract})
}
