// Package main contains the entrypoint for the ReplyDesk operator review service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/edgard/replydesk/internal/app"
	"github.com/edgard/replydesk/internal/app/jobs"
	"github.com/edgard/replydesk/internal/config"
	"github.com/edgard/replydesk/internal/database"
	"github.com/edgard/replydesk/internal/gateway"
	"github.com/edgard/replydesk/internal/logger"
	"github.com/edgard/replydesk/internal/metrics"
	"github.com/edgard/replydesk/internal/review"
	"github.com/edgard/replydesk/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all components (config, logger, store, gateway, review workflow,
// HTTP server, scheduler), blocks until shutdown, and returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to an optional dotenv file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load env file", "path", *envPath, "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Error("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	m := metrics.New()

	gw := gateway.New(store, log,
		gateway.WithProfileCache(gateway.NewProfileCache(cfg.Review.ProfileCacheTTL)),
		gateway.WithMetrics(m),
		gateway.WithMessenger(database.ChannelLine, gateway.NewLineFactory(gateway.LineOptions{
			Endpoint:   cfg.Gateway.LineEndpoint,
			HTTPClient: &http.Client{Timeout: cfg.Gateway.RequestTimeout},
		})),
		gateway.WithMessenger(database.ChannelTelegram, gateway.NewTelegramFactory(gateway.TelegramOptions{
			ServerURL:      cfg.Gateway.TelegramServerURL,
			RequestTimeout: cfg.Gateway.RequestTimeout,
		})),
	)

	workflow := review.NewWorkflow(store, gw, review.Options{
		DiagnosticMarker: cfg.Review.DiagnosticMarker,
		Metrics:          m,
		Logger:           log,
	})

	srv := server.New(workflow, store, server.Options{
		Messages:            cfg.Messages,
		PlaceholderImageURL: cfg.Review.PlaceholderImageURL,
		AdminUser:           cfg.HTTP.AdminUser,
		AdminPassword:       cfg.HTTP.AdminPassword,
		Metrics:             m,
		Logger:              log,
	})
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	jobMap := jobs.RegisterAllJobs(jobs.JobDeps{
		Logger:   log,
		Store:    store,
		Profiles: workflow,
		Metrics:  m,
	})
	sched, err := app.NewScheduler(log, cfg.Scheduler, jobMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	a := app.New(log, httpServer, sched, cfg.HTTP.ShutdownTimeout)

	log.Info("Starting ReplyDesk", "addr", cfg.HTTP.Addr)
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("ReplyDesk stopped due to error", "error", err)
		return 1
	}

	log.Info("ReplyDesk stopped gracefully")
	return 0
}
