package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/rental_backoffice_app/internal/core/ports/services"
	"github.com/SscSPs/rental_backoffice_app/internal/dto"
	"github.com/SscSPs/rental_backoffice_app/internal/middleware"
	"github.com/SscSPs/rental_backoffice_app/internal/worker"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

const wsWriteTimeout = 5 * time.Second

// jobHandler submits and controls background jobs.
type jobHandler struct {
	jobs portssvc.JobSvcFacade
}

func registerJobRoutes(rg *gin.RouterGroup, jobs portssvc.JobSvcFacade) {
	h := &jobHandler{jobs: jobs}

	group := rg.Group("/jobs")
	{
		group.GET("/status", h.status)
		group.POST("/migrate", h.migrate)
		group.POST("/sync", h.sync)
		group.POST("/backup", h.backup)
		group.POST("/stop", h.stop)
	}
}

// accepted answers 202, or 409 when another job holds the worker.
func accepted(c *gin.Context, logger *slog.Logger, job string, err error) {
	if errors.Is(err, worker.ErrBusy) {
		logger.Warn("Job rejected, worker busy", slog.String("job", job))
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		respondError(c, logger, err, "Failed to start job")
		return
	}
	logger.Info("Job started", slog.String("job", job))
	c.JSON(http.StatusAccepted, dto.JobAcceptedResponse{Job: job, Message: "started"})
}

// migrate godoc
// @Summary Start a migration from the local store to the remote
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body dto.MigrateJobRequest false "Migration options"
// @Success 202 {object} dto.JobAcceptedResponse
// @Failure 409 {object} dto.ErrorResponse "Another job is running"
// @Router /jobs/migrate [post]
func (h *jobHandler) migrate(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.MigrateJobRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, logger, err)
			return
		}
	}
	accepted(c, logger, "migrate", h.jobs.StartMigration(req.ToDomain()))
}

// sync godoc
// @Summary Refresh the in-memory mirror from the remote
// @Tags jobs
// @Produce json
// @Success 202 {object} dto.JobAcceptedResponse
// @Failure 409 {object} dto.ErrorResponse "Another job is running"
// @Router /jobs/sync [post]
func (h *jobHandler) sync(c *gin.Context) {
	accepted(c, middleware.GetLoggerFromContext(c), "sync", h.jobs.StartSync())
}

// backup godoc
// @Summary Copy the active backend into a timestamped SQLite file
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body dto.BackupJobRequest false "Target folder"
// @Success 202 {object} dto.JobAcceptedResponse
// @Failure 409 {object} dto.ErrorResponse "Another job is running"
// @Router /jobs/backup [post]
func (h *jobHandler) backup(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.BackupJobRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, logger, err)
			return
		}
	}
	accepted(c, logger, "backup", h.jobs.StartBackup(req.Folder))
}

// stop godoc
// @Summary Ask the running job to stop
// @Tags jobs
// @Produce json
// @Success 200 {object} worker.Status
// @Failure 409 {object} dto.ErrorResponse "No job is running"
// @Router /jobs/stop [post]
func (h *jobHandler) stop(c *gin.Context) {
	if !h.jobs.Stop() {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "no job is running"})
		return
	}
	c.JSON(http.StatusOK, h.jobs.Status())
}

// status godoc
// @Summary Current or last job
// @Tags jobs
// @Produce json
// @Success 200 {object} worker.Status
// @Router /jobs/status [get]
func (h *jobHandler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobs.Status())
}

// progressStream upgrades to a websocket and forwards worker events until either side closes.
// The first message is the current status.
func progressStream(jobs portssvc.JobControlSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := middleware.GetLoggerFromContext(c)
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warn("WebSocket upgrade failed", slog.String("error", err.Error()))
			return
		}
		defer conn.CloseNow()

		events, unsubscribe := jobs.Worker().Subscribe(32)
		defer unsubscribe()

		// Client messages are ignored; CloseRead cancels ctx once the peer goes away.
		ctx := conn.CloseRead(c.Request.Context())

		status := jobs.Status()
		if err := writeJSON(ctx, conn, status); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
					return
				}
				if err := writeJSON(ctx, conn, ev); err != nil {
					logger.Debug("Progress client dropped", slog.String("error", err.Error()))
					return
				}
			}
		}
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
