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

type ProjectHandler struct {
	projects     *service.ProjectService
	orchestrator *service.OrchestratorService
	validator    *validator.Validate
	log          *zap.Logger
}

func NewProjectHandler(projects *service.ProjectService, orchestrator *service.OrchestratorService, v *validator.Validate, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects:     projects,
		orchestrator: orchestrator,
		validator:    v,
		log:          log,
	}
}

// List handles GET /api/projects
// @Summary      List projects
// @Tags         Projects
// @Produce      json
// @Success      200 {object} model.ProjectListResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects [get]
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return serviceError(c, h.log, err)
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return response.OK(c, model.ProjectListResponse{Projects: projects})
}

// Create handles POST /api/projects
// @Summary      Create project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        request body model.CreateProjectRequest true "Project"
// @Success      201 {object} model.ProjectResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects [post]
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req model.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	project, err := h.projects.Create(c.UserContext(), middleware.GetUserID(c), &req)
	if err != nil {
		return serviceError(c, h.log, err)
	}

	return response.Created(c, model.ProjectResponse{Project: project})
}

// Get handles GET /api/projects/:projectId
// @Summary      Get project
// @Tags         Projects
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Success      200 {object} model.ProjectResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId} [get]
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := h.projects.Get(c.UserContext(), middleware.GetUserID(c), c.Params("projectId"))
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return response.OK(c, model.ProjectResponse{Project: project})
}

// Update handles PATCH /api/projects/:projectId
// @Summary      Update project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Param        request body model.UpdateProjectRequest true "Fields to change"
// @Success      200 {object} model.ProjectResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId} [patch]
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var req model.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	project, err := h.projects.Update(c.UserContext(), middleware.GetUserID(c), c.Params("projectId"), &req)
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return response.OK(c, model.ProjectResponse{Project: project})
}

// Delete handles DELETE /api/projects/:projectId
// @Summary      Delete project
// @Description  Delete a project together with its pipelines, contracts and reviews
// @Tags         Projects
// @Param        projectId path string true "Project ID"
// @Success      204
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId} [delete]
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	if err := h.projects.Delete(c.UserContext(), middleware.GetUserID(c), c.Params("projectId")); err != nil {
		return serviceError(c, h.log, err)
	}
	return response.NoContent(c)
}

// Pipelines handles GET /api/projects/:projectId/pipelines
// @Summary      List pipelines of a project
// @Tags         Pipelines
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Success      200 {object} model.PipelineListResponse
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /api/projects/{projectId}/pipelines [get]
func (h *ProjectHandler) Pipelines(c *fiber.Ctx) error {
	pipelines, err := h.orchestrator.ListPipelines(c.UserContext(), middleware.GetUserID(c), c.Params("projectId"))
	if err != nil {
		return serviceError(c, h.log, err)
	}
	if pipelines == nil {
		pipelines = []model.Pipeline{}
	}
	return response.OK(c, model.PipelineListResponse{Pipelines: pipelines})
}
