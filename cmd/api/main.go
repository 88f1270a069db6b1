package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"certhub/internal/config"
	"certhub/internal/database"
	"certhub/internal/domain/notification"
	"certhub/internal/pkg/sl"
	"certhub/internal/rabbitmq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", sl.Err(err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("starting certhub api", slog.String("env", cfg.AppEnv), slog.String("addr", cfg.HTTPAddr))

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", sl.Err(err))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("db migrate failed", sl.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publisher notification.Publisher
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, 5, 2*time.Second)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", sl.Err(err))
			os.Exit(1)
		}
		defer func() { _ = conn.Close() }()

		ch, err := rabbitmq.SetupChannel(conn, cfg.NotifyExchange)
		if err != nil {
			logger.Error("failed to setup RabbitMQ channel", sl.Err(err))
			os.Exit(1)
		}
		defer func() { _ = ch.Close() }()

		publisher = rabbitmq.NewPublisher(ch, cfg.NotifyExchange)
		logger.Info("publishing notifications to RabbitMQ", slog.String("exchange", cfg.NotifyExchange))
	}

	app := newApp(cfg, db, publisher, logger)
	app.cleanup.Schedule(ctx, notification.CleanupConfig{
		RetentionDays: cfg.NotificationRetentionDays,
		Interval:      cfg.NotificationCleanupInterval,
		Enabled:       cfg.NotificationCleanupInterval > 0,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", sl.Err(err))
	}
	logger.Info("server stopped")
}
