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

// entityHandler handles clients and operators.
type entityHandler struct {
	repos portssvc.RepositorySvc
}

func registerEntityRoutes(rg *gin.RouterGroup, repos portssvc.RepositorySvc) {
	h := &entityHandler{repos: repos}

	rg.GET("/projects/:projectId/entities", h.listEntities)
	rg.POST("/projects/:projectId/entities", h.createEntity)

	entities := rg.Group("/entities/:entityId")
	{
		entities.GET("", h.getEntity)
		entities.PUT("", h.updateEntity)
		entities.DELETE("", h.deactivateEntity)
	}
}

// listEntities godoc
// @Summary List clients or operators
// @Tags entities
// @Produce json
// @Param projectId path int true "Project ID"
// @Param kind query string true "Client or Operator"
// @Param include_inactive query bool false "Include deactivated entities"
// @Success 200 {array} domain.Entity
// @Router /projects/{projectId}/entities [get]
func (h *entityHandler) listEntities(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	kind := domain.EntityKind(c.Query("kind"))
	if kind != domain.EntityClient && kind != domain.EntityOperator {
		respondError(c, logger, apperrors.NewValidationError("kind must be Client or Operator"), "Invalid kind")
		return
	}
	inactive, err := boolQuery(c, "include_inactive")
	if err != nil {
		respondError(c, logger, err, "Invalid filter")
		return
	}

	entities, err := h.repos.Current().ListEntities(c.Request.Context(), projectID, kind, inactive != nil && *inactive)
	if err != nil {
		respondError(c, logger, err, "Failed to list entities")
		return
	}
	if entities == nil {
		entities = []domain.Entity{}
	}
	c.JSON(http.StatusOK, entities)
}

// createEntity godoc
// @Summary Create a client or operator
// @Tags entities
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param entity body domain.EntityInput true "Entity details"
// @Success 201 {object} domain.Entity
// @Failure 409 {object} dto.ErrorResponse "Name already used for this kind"
// @Router /projects/{projectId}/entities [post]
func (h *entityHandler) createEntity(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	var req domain.EntityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	req.ProjectID = projectID

	e, err := h.repos.Current().CreateEntity(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create entity")
		return
	}
	logger.Info("Entity created", slog.Int64("entity_id", e.ID), slog.String("kind", string(e.Kind)))
	c.JSON(http.StatusCreated, e)
}

func (h *entityHandler) findEntity(c *gin.Context, logger *slog.Logger) (*domain.Entity, bool) {
	entityID, ok := int64Param(c, logger, "entityId")
	if !ok {
		return nil, false
	}
	e, err := h.repos.Current().FindEntityByID(c.Request.Context(), entityID)
	if err == nil && e == nil {
		err = apperrors.NewNotFoundError("entity not found")
	}
	if err != nil {
		respondError(c, logger, err, "Failed to get entity")
		return nil, false
	}
	return e, true
}

// getEntity godoc
// @Summary Get a client or operator
// @Tags entities
// @Produce json
// @Param entityId path int true "Entity ID"
// @Success 200 {object} domain.Entity
// @Router /entities/{entityId} [get]
func (h *entityHandler) getEntity(c *gin.Context) {
	e, ok := h.findEntity(c, middleware.GetLoggerFromContext(c))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, e)
}

// updateEntity godoc
// @Summary Update a client or operator
// @Tags entities
// @Accept json
// @Produce json
// @Param entityId path int true "Entity ID"
// @Param entity body domain.EntityInput true "Entity details"
// @Success 200 {object} domain.Entity
// @Router /entities/{entityId} [put]
func (h *entityHandler) updateEntity(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	existing, ok := h.findEntity(c, logger)
	if !ok {
		return
	}
	var req domain.EntityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	req.ProjectID = existing.ProjectID

	e, err := h.repos.Current().UpdateEntity(c.Request.Context(), existing.ID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to update entity")
		return
	}
	c.JSON(http.StatusOK, e)
}

// deactivateEntity godoc
// @Summary Deactivate a client or operator
// @Tags entities
// @Param entityId path int true "Entity ID"
// @Success 204
// @Router /entities/{entityId} [delete]
func (h *entityHandler) deactivateEntity(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	entityID, ok := int64Param(c, logger, "entityId")
	if !ok {
		return
	}
	if err := h.repos.Current().DeactivateEntity(c.Request.Context(), entityID); err != nil {
		respondError(c, logger, err, "Failed to deactivate entity")
		return
	}
	c.Status(http.StatusNoContent)
}
