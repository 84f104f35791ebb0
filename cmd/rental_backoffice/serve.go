package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/core/ports/repositories"
	"github.com/SscSPs/rental_backoffice_app/internal/core/services"
	"github.com/SscSPs/rental_backoffice_app/internal/handlers"
	"github.com/SscSPs/rental_backoffice_app/internal/middleware"
	"github.com/SscSPs/rental_backoffice_app/internal/settings"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API over the backend selected in the settings document.

When the remote backend is active, the essential collections are mirrored into
memory in the background right after startup. Editing data_source in the
settings file switches the backend without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// @title Rental Back-office API
// @version 1.0
// @description Projects, equipment, rentals, payments and maintenance over the local or remote store.
// @BasePath /api/v1
func runServe(parent context.Context) error {
	a := current
	logger := a.logger

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := a.services(ctx, true)
	if err != nil {
		logger.Error("Failed to open backend", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := container.Repos.Close(); err != nil {
			logger.Warn("Failed to close repository", slog.String("error", err.Error()))
		}
	}()

	watchDataSource(ctx, a, container)
	startupSync(container, logger)

	router, err := newRouter(a, container)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", a.cfg.Port), slog.String("backend", string(container.Repos.Backend())))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	container.Jobs.Stop()
	if err := container.Jobs.Worker().Wait(shutdownCtx); err != nil {
		logger.Warn("Background job did not finish before shutdown, aborting", slog.String("error", err.Error()))
		container.Jobs.Worker().Abort()
	}
	return srv.Shutdown(shutdownCtx)
}

func newRouter(a *app, container *services.Container) (*gin.Engine, error) {
	if a.cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	rate, err := limiter.NewRateFromFormatted(a.cfg.RateLimit)
	if err != nil {
		a.logger.Error("Invalid RATE_LIMIT", slog.String("value", a.cfg.RateLimit), slog.String("error", err.Error()))
		return nil, err
	}

	r := gin.New()
	r.Use(
		middleware.StructuredLoggingMiddleware(a.logger),
		gin.Recovery(),
		cors.New(corsConfig(a.cfg.CORSAllowedOrigins)),
		middleware.ClientIdentity(),
		middleware.RateLimit(limiter.New(memory.NewStore(), rate)),
		middleware.PosthogMiddleware(a.telemetry),
	)
	if err := r.SetTrustedProxies(nil); err != nil {
		a.logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		return nil, err
	}

	handlers.RegisterRoutes(r, a.cfg, container.Ports())
	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID", middleware.ClientIDHeader},
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// startupSync mirrors the essential collections in the background when the remote backend is active.
func startupSync(container *services.Container, logger *slog.Logger) {
	if container.Repos.Backend() != repositories.BackendRemote {
		return
	}
	if err := container.Jobs.StartSync(); err != nil {
		logger.Warn("Startup sync not started", slog.String("error", err.Error()))
	}
}

// watchDataSource swaps the active repository when data_source changes in the settings file.
func watchDataSource(ctx context.Context, a *app, container *services.Container) {
	a.settings.Watch(func(s *settings.Store) {
		want := string(s.DataSource())
		if want == string(container.Repos.Backend()) {
			return
		}
		logger := a.logger.With(slog.String("data_source", want))
		if container.Jobs.Status().Running {
			logger.Warn("Backend change ignored while a job runs")
			return
		}
		repo, err := a.factory.New(ctx, s, true)
		if err != nil {
			logger.Error("Failed to open new backend, keeping the current one", slog.String("error", err.Error()))
			return
		}
		container.Repos.Swap(ctx, repo)
		startupSync(container, logger)
	})
}
