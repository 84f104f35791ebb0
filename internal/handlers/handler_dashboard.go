package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	portssvc "github.com/SscSPs/rental_backoffice_app/internal/core/ports/services"
	"github.com/SscSPs/rental_backoffice_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// dashboardHandler serves the monthly KPIs and raw cached collections.
type dashboardHandler struct {
	repos portssvc.RepositorySvc
	now   func() time.Time
}

func registerDashboardRoutes(rg *gin.RouterGroup, repos portssvc.RepositorySvc) {
	h := &dashboardHandler{repos: repos, now: time.Now}

	rg.GET("/projects/:projectId/kpis", h.monthlyKPIs)
	rg.GET("/cache/:collection", h.cachedCollection)
}

// monthlyKPIs godoc
// @Summary Monthly dashboard figures
// @Description Income, expense, balance, outstanding and top equipment/operator for one month
// @Tags dashboard
// @Produce json
// @Param projectId path int true "Project ID"
// @Param year query int false "Year, defaults to the current one"
// @Param month query int false "Month 1-12, defaults to the current one"
// @Success 200 {object} domain.DashboardKPIs
// @Router /projects/{projectId}/kpis [get]
func (h *dashboardHandler) monthlyKPIs(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	projectID, ok := int64Param(c, logger, "projectId")
	if !ok {
		return
	}
	now := h.now()
	year, month := now.Year(), int(now.Month())
	if raw := c.Query("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1900 || v > 9999 {
			respondError(c, logger, apperrors.NewValidationError("year must be a four-digit number"), "Invalid year")
			return
		}
		year = v
	}
	if raw := c.Query("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			respondError(c, logger, apperrors.NewValidationError("month must be between 1 and 12"), "Invalid month")
			return
		}
		month = v
	}

	kpis, err := h.repos.Current().MonthlyKPIs(c.Request.Context(), projectID, year, time.Month(month))
	if err != nil {
		respondError(c, logger, err, "Failed to compute KPIs")
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// cachedCollection godoc
// @Summary Raw rows of a collection
// @Description Served from the local store, or from the in-memory mirror when the remote backend is active
// @Tags dashboard
// @Produce json
// @Param collection path string true "Collection name"
// @Success 200 {array} object
// @Router /cache/{collection} [get]
func (h *dashboardHandler) cachedCollection(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	rows, err := h.repos.Cached(c.Request.Context(), c.Param("collection"))
	if err != nil {
		respondError(c, logger, err, "Failed to read collection")
		return
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	c.JSON(http.StatusOK, rows)
}
