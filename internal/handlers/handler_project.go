package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	portssvc "github.com/SscSPs/rental_backoffice_app/internal/core/ports/services"
	"github.com/SscSPs/rental_backoffice_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// projectHandler handles HTTP requests related to projects.
type projectHandler struct {
	repos portssvc.RepositorySvc
}

func newProjectHandler(repos portssvc.RepositorySvc) *projectHandler {
	return &projectHandler{repos: repos}
}

// registerProjectRoutes registers routes related to projects.
func registerProjectRoutes(rg *gin.RouterGroup, repos portssvc.RepositorySvc) {
	h := newProjectHandler(repos)

	projects := rg.Group("/projects")
	{
		projects.GET("", h.listProjects)
		projects.POST("", h.createProject)
		projects.GET("/:projectId", h.getProject)
	}
}

// listProjects godoc
// @Summary List projects
// @Tags projects
// @Produce json
// @Success 200 {array} domain.Project
// @Failure 500 {object} dto.ErrorResponse
// @Router /projects [get]
func (h *projectHandler) listProjects(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projects, err := h.repos.Current().ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list projects")
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

// createProject godoc
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Param project body domain.ProjectInput true "Project details"
// @Success 201 {object} domain.Project
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Project name already exists"
// @Router /projects [post]
func (h *projectHandler) createProject(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req domain.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}

	project, err := h.repos.Current().CreateProject(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create project")
		return
	}
	logger.Info("Project created", slog.Int64("project_id", project.ID))
	c.JSON(http.StatusCreated, project)
}

// getProject godoc
// @Summary Get a project
// @Tags projects
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {object} domain.Project
// @Failure 404 {object} dto.ErrorResponse
// @Router /projects/{projectId} [get]
func (h *projectHandler) getProject(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	project, err := h.repos.Current().FindProjectByID(c.Request.Context(), projectID)
	if err == nil && project == nil {
		err = apperrors.NewNotFoundError("project not found")
	}
	if err != nil {
		respondError(c, logger, err, "Failed to get project")
		return
	}
	c.JSON(http.StatusOK, project)
}
