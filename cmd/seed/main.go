package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"certhub/internal/config"
	"certhub/internal/database"
	"certhub/internal/domain/auth"
	"certhub/internal/domain/ranking"
	"certhub/internal/domain/user"
	"certhub/internal/pkg/sl"
)

// defaultGroups are the ranked tiers. The names of the top three must match
// the target level mapping.
var defaultGroups = []ranking.Group{
	{Name: "Член ассоциации", Rank: 1},
	{Name: "Инструктор", Rank: 2},
	{Name: "Куратор", Rank: 3},
	{Name: "Супервизор", Rank: 4},
}

func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

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
	if err := database.Migrate(db); err != nil {
		logger.Error("db migrate failed", sl.Err(err))
		os.Exit(1)
	}

	ctx := context.Background()
	groups := ranking.NewRepository(db)
	for _, g := range defaultGroups {
		err := groups.Create(ctx, &g)
		switch {
		case errors.Is(err, ranking.ErrGroupExists):
			logger.Info("group already exists", slog.String("name", g.Name))
		case err != nil:
			logger.Error("failed to create group", slog.String("name", g.Name), sl.Err(err))
			os.Exit(1)
		default:
			logger.Info("group created", slog.String("name", g.Name), slog.Int("rank", g.Rank))
		}
	}

	email := getEnv("SEED_ADMIN_EMAIL", "admin@certhub.local")
	password := getEnv("SEED_ADMIN_PASSWORD", "admin12345")

	hash, err := auth.HashPassword(password)
	if err != nil {
		logger.Error("failed to hash password", sl.Err(err))
		os.Exit(1)
	}

	admin := &user.User{Email: email, PasswordHash: hash, Name: "Администратор", Role: user.RoleAdmin}
	err = user.NewRepository(db).Create(ctx, admin)
	switch {
	case errors.Is(err, user.ErrEmailAlreadyExists):
		logger.Info("admin already exists", slog.String("email", email))
	case err != nil:
		logger.Error("failed to create admin", sl.Err(err))
		os.Exit(1)
	default:
		logger.Info("admin created", slog.String("email", email))
	}

	logger.Info("seeding completed")
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
