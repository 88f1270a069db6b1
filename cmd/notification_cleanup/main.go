package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"certhub/internal/config"
	"certhub/internal/database"
	"certhub/internal/domain/notification"
	"certhub/internal/pkg/sl"
)

// One-shot retention run for deployments that schedule cleanup externally
// (cron) and set NOTIFICATION_CLEANUP_INTERVAL=0 on the API.
func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", sl.Err(err))
		os.Exit(1)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", sl.Err(err))
		os.Exit(1)
	}

	cleanup := notification.NewCleanupService(notification.NewRepository(db), logger)
	if _, err := cleanup.CleanupOldNotifications(context.Background(), cfg.NotificationRetentionDays); err != nil {
		os.Exit(1)
	}
}
