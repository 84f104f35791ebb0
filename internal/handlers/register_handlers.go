package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/rental_backoffice_app/cmd/docs"
	portssvc "github.com/SscSPs/rental_backoffice_app/internal/core/ports/services"
	"github.com/SscSPs/rental_backoffice_app/internal/dto"
	"github.com/SscSPs/rental_backoffice_app/internal/middleware"
	"github.com/SscSPs/rental_backoffice_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	r.GET("/health", healthHandler(services.Repos))
	r.GET("/ws/progress", progressStream(services.Jobs))

	setupAPIV1Routes(r, services)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(r *gin.Engine, services *portssvc.ServiceContainer) {
	v1 := r.Group("/api/v1")

	registerProjectRoutes(v1, services.Repos)
	registerCatalogRoutes(v1, services.Repos)
	registerEquipmentRoutes(v1, services.Repos)
	registerEntityRoutes(v1, services.Repos)
	registerRentalRoutes(v1, services.Repos)
	registerPaymentRoutes(v1, services.Repos)
	registerDashboardRoutes(v1, services.Repos)
	registerJobRoutes(v1, services.Jobs)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthHandler godoc
// @Summary Report backend health
// @Description Verifies the active backend connection
// @Tags root
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func healthHandler(repos portssvc.RepositorySvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		repo := repos.Current()
		healthy := repo.VerifyConnection(c.Request.Context())
		resp := dto.HealthResponse{Status: "OK", Backend: string(repo.Backend()), Healthy: healthy}
		if !healthy {
			middleware.GetLoggerFromContext(c).Warn("Health check failed", slog.String("backend", resp.Backend))
			resp.Status = "UNAVAILABLE"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
