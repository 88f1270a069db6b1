package main

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"certhub/internal/config"
	"certhub/internal/domain/auth"
	"certhub/internal/domain/notification"
	"certhub/internal/domain/payment"
	"certhub/internal/domain/ranking"
	"certhub/internal/domain/target"
	"certhub/internal/domain/user"
	"certhub/internal/metrics"
	"certhub/internal/middleware"
	"certhub/internal/pkg/jwt"
)

type app struct {
	router  *gin.Engine
	cleanup *notification.CleanupService
}

// newApp wires repositories, services and routes. publisher may be nil.
func newApp(cfg *config.Config, db *gorm.DB, publisher notification.Publisher, logger *slog.Logger) *app {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	users := user.NewRepository(db)
	groups := ranking.NewRepository(db)
	payments := payment.NewRepository(db)
	notes := notification.NewRepository(db)

	hub := notification.NewHub(middleware.Origins(cfg.CORSOrigins), logger)
	notifier := notification.NewService(notes, users, logger).WithHub(hub)
	if publisher != nil {
		notifier.WithPublisher(publisher)
	}

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	targetService := target.NewService(db, users, groups, payments, notifier, logger)
	rankingService := ranking.NewService(db, groups, users, targetService, logger)
	paymentService := payment.NewService(db, payments, notifier, logger)
	authService := auth.NewService(users, tokens)

	authHandler := auth.NewHandler(authService)
	targetHandler := target.NewHandler(targetService)
	rankingHandler := ranking.NewHandler(rankingService)
	paymentHandler := payment.NewHandler(paymentService)
	notificationHandler := notification.NewHandler(notifier, hub)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(logger),
		middleware.CORS(cfg.CORSOrigins),
		middleware.Metrics(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	authHandler.RegisterPublicRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(tokens))

	admin := protected.Group("/admin")
	admin.Use(middleware.AdminOnly())

	stream := v1.Group("")
	stream.Use(middleware.JWTAuthWithQuery(tokens))

	authHandler.RegisterProtectedRoutes(protected)
	targetHandler.RegisterRoutes(protected)
	rankingHandler.RegisterRoutes(protected, admin)
	paymentHandler.RegisterRoutes(protected, admin)
	notificationHandler.RegisterRoutes(protected, stream)

	return &app{
		router:  r,
		cleanup: notification.NewCleanupService(notes, logger),
	}
}
