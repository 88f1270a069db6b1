package notification

import (
	"context"
	"log/slog"
	"time"

	"certhub/internal/pkg/sl"
)

// CleanupConfig controls retention of read notifications.
type CleanupConfig struct {
	RetentionDays int
	Interval      time.Duration
	Enabled       bool
}

func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays: 90,
		Interval:      24 * time.Hour,
		Enabled:       true,
	}
}

// CleanupService deletes read notifications past their retention.
type CleanupService struct {
	repo   *Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewCleanupService(repo *Repository, logger *slog.Logger) *CleanupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupService{repo: repo, logger: logger, now: time.Now}
}

func (c *CleanupService) CleanupOldNotifications(ctx context.Context, daysToKeep int) (int64, error) {
	start := c.now()
	cutoff := start.Add(-time.Duration(daysToKeep) * 24 * time.Hour)

	deleted, err := c.repo.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		c.logger.Error("notification cleanup failed", sl.Err(err))
		return 0, err
	}

	c.logger.Info("notification cleanup completed",
		slog.Int64("deleted", deleted),
		slog.Duration("took", time.Since(start)),
	)
	return deleted, nil
}

// Schedule runs the cleanup every cfg.Interval until ctx is done.
func (c *CleanupService) Schedule(ctx context.Context, cfg CleanupConfig) {
	if !cfg.Enabled || cfg.Interval <= 0 {
		c.logger.Info("automatic notification cleanup is disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_, _ = c.CleanupOldNotifications(ctx, cfg.RetentionDays)
			case <-ctx.Done():
				c.logger.Info("notification cleanup stopped")
				return
			}
		}
	}()

	c.logger.Info("notification cleanup scheduled", slog.Duration("interval", cfg.Interval))
}
