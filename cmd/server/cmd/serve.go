package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Togather-Foundation/campus/internal/api"
	"github.com/Togather-Foundation/campus/internal/api/handlers"
	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/config"
	"github.com/Togather-Foundation/campus/internal/metrics"
	"github.com/Togather-Foundation/campus/internal/storage/postgres"
	"github.com/Togather-Foundation/campus/internal/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	host    string
	port    int
	migrate bool
}

func newServeCommand() *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the campus events HTTP server",
		Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from --config and environment variables
- Optionally apply pending database migrations (--migrate)
- Serve the events, registrations and profile API under /api/v1
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with configuration from the environment
  campus serve

  # Start on a specific host and port
  campus serve --host 127.0.0.1 --port 9090

  # Apply migrations first, with debug logging
  campus serve --migrate --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&flags.port, "port", 0, "server port (default: 8080)")
	cmd.Flags().BoolVar(&flags.migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServer(parent context.Context, flags serveFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	applyServeFlags(&cfg, flags)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting campus server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	if flags.migrate {
		if err := postgres.MigrateUp(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	svc, err := openServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	unregisterPool, err := metrics.RegisterPool(svc.pool)
	if err != nil {
		return fmt.Errorf("register pool metrics: %w", err)
	}
	defer unregisterPool()

	build := api.BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}
	handler := api.NewRouter(ctx, cfg, logger, api.Deps{
		Events:        svc.events,
		Registrations: svc.registrations,
		Users:         svc.users,
		JWT:           auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer),
		Health:        handlers.NewHealthChecker(svc.pool, Version, GitCommit),
		Build:         build,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func applyServeFlags(cfg *config.Config, flags serveFlags) {
	if flags.host != "" {
		cfg.Server.Host = flags.host
	}
	if flags.port != 0 {
		cfg.Server.Port = flags.port
	}
}
