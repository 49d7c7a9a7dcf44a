package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"pdfdispatch/internal/app"
	"pdfdispatch/internal/config"
	"pdfdispatch/internal/infra/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "pdfdispatch",
		Short:        "HTTP dispatcher for external HTML-to-PDF tools",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath != "" {
				os.Setenv("CONFIG_PATH", configPath)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $CONFIG_PATH or ./config.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP service",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve()
			},
		},
		newToolsCmd(),
		newConvertCmd(),
	)
	return root
}

func initLogging(cfg config.Config) {
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
}

func serve() error {
	cfg := config.Load()
	initLogging(cfg)

	dispatcher, err := app.NewDispatcher(cfg)
	if err != nil {
		logging.Error("Failed to set up dispatcher", "error", err)
		return err
	}
	logging.Info("Tools available", "tools", dispatcher.AvailableTools(), "work_dir", cfg.Dispatch.WorkDir)

	idleConnsClosed := make(chan struct{})
	fiberApp := app.SetupApp(cfg, dispatcher)

	startServer(fiberApp, cfg, idleConnsClosed)
	<-idleConnsClosed
	return nil
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint
	signal.Stop(sigint)

	logging.Warn("Shutdown signal received, closing server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
