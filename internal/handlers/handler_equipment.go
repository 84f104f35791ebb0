package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	portssvc "github.com/SscSPs/rental_backoffice_app/internal/core/ports/services"
	"github.com/SscSPs/rental_backoffice_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// equipmentHandler handles equipment, its maintenance history and the fleet board.
type equipmentHandler struct {
	repos portssvc.RepositorySvc
	now   func() time.Time
}

func newEquipmentHandler(repos portssvc.RepositorySvc) *equipmentHandler {
	return &equipmentHandler{repos: repos, now: time.Now}
}

// registerEquipmentRoutes registers equipment, maintenance and fleet routes.
func registerEquipmentRoutes(rg *gin.RouterGroup, repos portssvc.RepositorySvc) {
	h := newEquipmentHandler(repos)

	rg.GET("/projects/:projectId/equipment", h.listEquipment)
	rg.POST("/projects/:projectId/equipment", h.createEquipment)
	rg.GET("/projects/:projectId/fleet", h.fleetStatus)

	equipment := rg.Group("/equipment/:equipmentId")
	{
		equipment.GET("", h.getEquipment)
		equipment.PUT("", h.updateEquipment)
		equipment.DELETE("", h.deactivateEquipment)
		equipment.GET("/maintenance", h.listMaintenance)
		equipment.POST("/maintenance", h.createMaintenance)
	}

	maintenance := rg.Group("/maintenance/:maintenanceId")
	{
		maintenance.GET("", h.getMaintenance)
		maintenance.PUT("", h.updateMaintenance)
		maintenance.DELETE("", h.deleteMaintenance)
	}
}

// listEquipment godoc
// @Summary List a project's equipment
// @Tags equipment
// @Produce json
// @Param projectId path int true "Project ID"
// @Param active query bool false "Only active (true) or inactive (false) equipment"
// @Success 200 {array} domain.Equipment
// @Router /projects/{projectId}/equipment [get]
func (h *equipmentHandler) listEquipment(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	active, err := boolQuery(c, "active")
	if err != nil {
		respondError(c, logger, err, "Invalid filter")
		return
	}
	items, err := h.repos.Current().ListEquipment(c.Request.Context(), projectID, active)
	if err != nil {
		respondError(c, logger, err, "Failed to list equipment")
		return
	}
	if items == nil {
		items = []domain.Equipment{}
	}
	c.JSON(http.StatusOK, items)
}

// createEquipment godoc
// @Summary Create equipment
// @Tags equipment
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param equipment body domain.EquipmentInput true "Equipment details"
// @Success 201 {object} domain.Equipment
// @Failure 400 {object} dto.ErrorResponse
// @Router /projects/{projectId}/equipment [post]
func (h *equipmentHandler) createEquipment(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	var req domain.EquipmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	req.ProjectID = projectID

	eq, err := h.repos.Current().CreateEquipment(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create equipment")
		return
	}
	logger.Info("Equipment created", slog.Int64("equipment_id", eq.ID))
	c.JSON(http.StatusCreated, eq)
}

// findEquipment loads the equipment named by the path, answering 404 when it is gone.
func (h *equipmentHandler) findEquipment(c *gin.Context, logger *slog.Logger) (*domain.Equipment, bool) {
	equipmentID, ok := int64Param(c, logger, "equipmentId")
	if !ok {
		return nil, false
	}
	eq, err := h.repos.Current().FindEquipmentByID(c.Request.Context(), equipmentID)
	if err == nil && eq == nil {
		err = apperrors.NewNotFoundError("equipment not found")
	}
	if err != nil {
		respondError(c, logger, err, "Failed to get equipment")
		return nil, false
	}
	return eq, true
}

// getEquipment godoc
// @Summary Get equipment
// @Tags equipment
// @Produce json
// @Param equipmentId path int true "Equipment ID"
// @Success 200 {object} domain.Equipment
// @Failure 404 {object} dto.ErrorResponse
// @Router /equipment/{equipmentId} [get]
func (h *equipmentHandler) getEquipment(c *gin.Context) {
	eq, ok := h.findEquipment(c, middleware.GetLoggerFromContext(c))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, eq)
}

// updateEquipment godoc
// @Summary Update equipment
// @Tags equipment
// @Accept json
// @Produce json
// @Param equipmentId path int true "Equipment ID"
// @Param equipment body domain.EquipmentInput true "Equipment details"
// @Success 200 {object} domain.Equipment
// @Router /equipment/{equipmentId} [put]
func (h *equipmentHandler) updateEquipment(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	existing, ok := h.findEquipment(c, logger)
	if !ok {
		return
	}
	var req domain.EquipmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	req.ProjectID = existing.ProjectID

	eq, err := h.repos.Current().UpdateEquipment(c.Request.Context(), existing.ID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to update equipment")
		return
	}
	c.JSON(http.StatusOK, eq)
}

// deactivateEquipment godoc
// @Summary Deactivate equipment
// @Description Clears the active flag; rentals keep referencing the row
// @Tags equipment
// @Param equipmentId path int true "Equipment ID"
// @Success 204
// @Router /equipment/{equipmentId} [delete]
func (h *equipmentHandler) deactivateEquipment(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	equipmentID, ok := int64Param(c, logger, "equipmentId")
	if !ok {
		return
	}
	if err := h.repos.Current().DeactivateEquipment(c.Request.Context(), equipmentID); err != nil {
		respondError(c, logger, err, "Failed to deactivate equipment")
		return
	}
	logger.Info("Equipment deactivated", slog.Int64("equipment_id", equipmentID))
	c.Status(http.StatusNoContent)
}

// fleetStatus godoc
// @Summary Fleet maintenance board
// @Description Evaluates every active equipment of the project against its maintenance trigger
// @Tags equipment
// @Produce json
// @Param projectId path int true "Project ID"
// @Param as_of query string false "Evaluation date (YYYY-MM-DD), defaults to today"
// @Success 200 {array} domain.EquipmentStatus
// @Router /projects/{projectId}/fleet [get]
func (h *equipmentHandler) fleetStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	asOf := c.Query("as_of")
	if asOf == "" {
		asOf = h.now().Format(domain.DateLayout)
	} else if _, err := time.Parse(domain.DateLayout, asOf); err != nil {
		respondError(c, logger, apperrors.NewValidationError("as_of must be a YYYY-MM-DD date"), "Invalid date")
		return
	}
	board, err := h.repos.Current().FleetStatus(c.Request.Context(), projectID, asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to compute fleet status")
		return
	}
	if board == nil {
		board = []domain.EquipmentStatus{}
	}
	c.JSON(http.StatusOK, board)
}

// listMaintenance godoc
// @Summary Maintenance history of one equipment
// @Tags maintenance
// @Produce json
// @Param equipmentId path int true "Equipment ID"
// @Success 200 {array} domain.Maintenance
// @Router /equipment/{equipmentId}/maintenance [get]
func (h *equipmentHandler) listMaintenance(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	equipmentID, ok := int64Param(c, logger, "equipmentId")
	if !ok {
		return
	}
	history, err := h.repos.Current().ListMaintenanceByEquipment(c.Request.Context(), equipmentID)
	if err != nil {
		respondError(c, logger, err, "Failed to list maintenance")
		return
	}
	if history == nil {
		history = []domain.Maintenance{}
	}
	c.JSON(http.StatusOK, history)
}

// createMaintenance godoc
// @Summary Record a maintenance
// @Tags maintenance
// @Accept json
// @Produce json
// @Param equipmentId path int true "Equipment ID"
// @Param maintenance body domain.MaintenanceInput true "Maintenance details"
// @Success 201 {object} domain.Maintenance
// @Router /equipment/{equipmentId}/maintenance [post]
func (h *equipmentHandler) createMaintenance(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	equipmentID, ok := int64Param(c, logger, "equipmentId")
	if !ok {
		return
	}
	var req domain.MaintenanceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	req.EquipmentID = equipmentID

	m, err := h.repos.Current().CreateMaintenance(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create maintenance")
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *equipmentHandler) findMaintenance(c *gin.Context, logger *slog.Logger) (*domain.Maintenance, bool) {
	maintenanceID, ok := int64Param(c, logger, "maintenanceId")
	if !ok {
		return nil, false
	}
	m, err := h.repos.Current().FindMaintenanceByID(c.Request.Context(), maintenanceID)
	if err == nil && m == nil {
		err = apperrors.NewNotFoundError("maintenance not found")
	}
	if err != nil {
		respondError(c, logger, err, "Failed to get maintenance")
		return nil, false
	}
	return m, true
}

// getMaintenance godoc
// @Summary Get a maintenance record
// @Tags maintenance
// @Produce json
// @Param maintenanceId path int true "Maintenance ID"
// @Success 200 {object} domain.Maintenance
// @Router /maintenance/{maintenanceId} [get]
func (h *equipmentHandler) getMaintenance(c *gin.Context) {
	m, ok := h.findMaintenance(c, middleware.GetLoggerFromContext(c))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m)
}

// updateMaintenance godoc
// @Summary Update a maintenance record
// @Tags maintenance
// @Accept json
// @Produce json
// @Param maintenanceId path int true "Maintenance ID"
// @Param maintenance body domain.MaintenanceInput true "Maintenance details"
// @Success 200 {object} domain.Maintenance
// @Router /maintenance/{maintenanceId} [put]
func (h *equipmentHandler) updateMaintenance(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	existing, ok := h.findMaintenance(c, logger)
	if !ok {
		return
	}
	var req domain.MaintenanceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	req.EquipmentID = existing.EquipmentID

	m, err := h.repos.Current().UpdateMaintenance(c.Request.Context(), existing.ID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to update maintenance")
		return
	}
	c.JSON(http.StatusOK, m)
}

// deleteMaintenance godoc
// @Summary Delete a maintenance record
// @Tags maintenance
// @Param maintenanceId path int true "Maintenance ID"
// @Success 204
// @Router /maintenance/{maintenanceId} [delete]
func (h *equipmentHandler) deleteMaintenance(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	maintenanceID, ok := int64Param(c, logger, "maintenanceId")
	if !ok {
		return
	}
	if err := h.repos.Current().DeleteMaintenance(c.Request.Context(), maintenanceID); err != nil {
		respondError(c, logger, err, "Failed to delete maintenance")
		return
	}
	c.Status(http.StatusNoContent)
}
