package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/services"
	"github.com/SscSPs/rental_backoffice_app/internal/platform/config"
	"github.com/SscSPs/rental_backoffice_app/internal/repositories"
	"github.com/SscSPs/rental_backoffice_app/internal/settings"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

// app is what every command shares once the root command has run.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	settings  *settings.Store
	factory   *repositories.Factory
	telemetry *utils.PosthogClientWrapper
	logFile   io.Closer
}

var current = &app{}

var rootCmd = &cobra.Command{
	Use:           "rental_backoffice",
	Short:         "Back-office for an equipment rental business",
	Long:          `Serves projects, equipment, rentals, payments and maintenance from a local SQLite file or the remote document store, and migrates, mirrors and backs up data between them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return current.init()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		current.close()
	},
}

func (a *app) init() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	rotating := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30,
	}
	a.logFile = rotating
	a.logger = slog.New(slog.NewJSONHandler(io.MultiWriter(rotating, os.Stderr), &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(a.logger)

	st, err := settings.Load(cfg.SettingsPath, a.logger)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	a.settings = st
	a.factory = repositories.NewFactory(a.logger)
	a.telemetry = utils.InitializePosthogClient(cfg.PosthogAPIKey, a.logger)
	return nil
}

func (a *app) close() {
	if a.telemetry != nil {
		a.telemetry.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// services opens the selected backend and wires the service container around it.
func (a *app) services(ctx context.Context, memoryFallback bool) (*services.Container, error) {
	repo, err := a.factory.New(ctx, a.settings, memoryFallback)
	if err != nil {
		return nil, err
	}
	repos := services.NewRepositories(repo, a.factory, a.logger)
	return services.NewContainer(a.cfg, a.factory, repos, a.settings, a.telemetry, a.logger), nil
}

// interruptible returns a context for a long job and its should-stop check. The first
// SIGINT/SIGTERM only sets the stop flag, so the job finishes the batch in flight; a
// second signal cancels the context.
func interruptible(parent context.Context) (context.Context, func() bool, context.CancelFunc) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	ctx, shouldStop, cancel := stopOnSignal(parent, sigs)
	return ctx, shouldStop, func() {
		signal.Stop(sigs)
		cancel()
	}
}

func stopOnSignal(parent context.Context, sigs <-chan os.Signal) (context.Context, func() bool, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	var stop atomic.Bool
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigs:
				if stop.Swap(true) {
					cancel()
					return
				}
			}
		}
	}()
	return ctx, stop.Load, cancel
}

// printProgress writes worker-style progress lines to stdout.
func printProgress(out io.Writer) func(int, string) {
	return func(percent int, message string) {
		fmt.Fprintf(out, "[%3d%%] %s\n", percent, message)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, syncCmd, backupCmd, healthCmd, seedCmd, settingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, apperrors.ErrCancelled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}
