package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campus-events/server/internal/api"
	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/config"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/registrations"
	"github.com/campus-events/server/internal/domain/users"
	"github.com/campus-events/server/internal/email"
	"github.com/campus-events/server/internal/jobs"
	"github.com/campus-events/server/internal/metrics"
	"github.com/campus-events/server/internal/storage/postgres"
	"github.com/campus-events/server/internal/telemetry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the campus events HTTP server",
	Long: `Start the campus events HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Seed the default admin account if ADMIN_* env vars are set
- Start the past-event sweep background worker
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Msg("starting campus events server")

	metrics.Init(Version, GitCommit, BuildDate)

	if cfg.Tracing.Enabled {
		tracingCtx, tracingCancel := context.WithTimeout(context.Background(), 10*time.Second)
		shutdownTracing, err := telemetry.InitTracing(tracingCtx, cfg.Tracing, Version)
		tracingCancel()
		if err != nil {
			logger.Warn().Err(err).Msg("tracing init failed, continuing without tracing")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("tracing shutdown error")
				}
			}()
		}
	}

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(poolCtx, cfg.Database.URL)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	dbCollector := metrics.NewDBCollector(pool)
	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	go dbCollector.Start(collectorCtx, 15*time.Second)
	defer collectorCancel()
	defer dbCollector.Stop()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return fmt.Errorf("repository init failed: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)
	usersService := users.NewService(repo.Users(), jwtManager)
	eventsService := events.NewService(repo.Events())

	mailer, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("email service init failed: %w", err)
	}
	registrationsService := registrations.NewService(repo.Registrations(), mailer)

	if err := bootstrapAdmin(cfg, logger, usersService); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}

	riverClient, stopRiver, err := startSweepWorkers(logger, pool, repo)
	if err != nil {
		return err
	}
	defer stopRiver()

	router := api.NewRouter(api.Deps{
		Config:        cfg,
		Logger:        logger,
		Pool:          pool,
		RiverClient:   riverClient,
		JWT:           jwtManager,
		Users:         usersService,
		Events:        eventsService,
		Registrations: registrationsService,
		Version:       Version,
		GitCommit:     GitCommit,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func bootstrapAdmin(cfg config.Config, logger zerolog.Logger, usersService *users.Service) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ctx = logger.WithContext(ctx)

	bootstrap := cfg.AdminBootstrap
	return usersService.EnsureDefaultAdmin(ctx, bootstrap.Name, bootstrap.Email, bootstrap.Password)
}

// startSweepWorkers starts the River client running the past-event
// sweep. The returned stop function blocks until workers drain.
func startSweepWorkers(logger zerolog.Logger, pool *pgxpool.Pool, repo *postgres.Repository) (*river.Client[pgx.Tx], func(), error) {
	workers := jobs.NewWorkers(repo.Events(), logger)
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	client, err := jobs.NewClient(pool, workers, slogLogger, jobs.NewPeriodicJobs())
	if err != nil {
		return nil, nil, fmt.Errorf("river client init failed: %w", err)
	}

	riverCtx, riverCancel := context.WithCancel(context.Background())
	if err := client.Start(riverCtx); err != nil {
		riverCancel()
		return nil, nil, fmt.Errorf("river workers failed to start: %w", err)
	}
	logger.Info().Msg("past-event sweep workers started")

	stop := func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		defer riverCancel()
		if err := client.Stop(stopCtx); err != nil {
			logger.Error().Err(err).Msg("river workers shutdown error")
		} else {
			logger.Info().Msg("river workers stopped")
		}
	}
	return client, stop, nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}
