package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/achievement"
	"github.com/skillbase/learn-server-go/internal/features/auth"
	"github.com/skillbase/learn-server-go/internal/features/badge"
	"github.com/skillbase/learn-server-go/internal/features/company"
	"github.com/skillbase/learn-server-go/internal/features/content"
	"github.com/skillbase/learn-server-go/internal/features/course"
	"github.com/skillbase/learn-server-go/internal/features/enrollment"
	"github.com/skillbase/learn-server-go/internal/features/leaderboard"
	"github.com/skillbase/learn-server-go/internal/features/learning"
	"github.com/skillbase/learn-server-go/internal/features/points"
	"github.com/skillbase/learn-server-go/internal/features/progress"
	"github.com/skillbase/learn-server-go/internal/features/quiz"
	"github.com/skillbase/learn-server-go/internal/features/team"
	"github.com/skillbase/learn-server-go/internal/features/user"
	"github.com/skillbase/learn-server-go/internal/middleware"
	"github.com/skillbase/learn-server-go/pkg/cache"
	"github.com/skillbase/learn-server-go/pkg/config"
	"github.com/skillbase/learn-server-go/pkg/health"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, cfg *config.Config, db *gorm.DB, logger *slog.Logger, cacheClient cache.Client) {
	// Health check endpoints (no /api prefix for Kubernetes probes)
	healthHandler := health.NewHandler(db, logger)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.Version)

	// Metrics endpoint for Prometheus
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Database stats endpoint (protected in production)
	if !cfg.IsProduction() {
		engine.GET("/debug/db-stats", healthHandler.DBStats)
	}

	api := engine.Group("/api")

	// Initialize global middleware instance
	middleware.Initialize(db, cfg.JWTSecret, logger)

	superadminOnly := middleware.RequireRoles(types.UserTypeSuperAdmin)

	// Company-scoped access chains. SuperAdmin passes every role check.
	acStaff := middleware.AccessControl([]types.UserType{types.UserTypeAdmin, types.UserTypeManager})
	acAll := middleware.AccessControl([]types.UserType{types.UserTypeAll})

	authHandler := auth.NewHandler(db, logger, cfg)
	auth.RegisterRoutes(api, authHandler)

	companyHandler := company.NewHandler(db, logger)
	company.RegisterRoutes(api, companyHandler, superadminOnly)

	userHandler := user.NewHandler(db, logger)
	user.RegisterRoutes(api, userHandler, acStaff, acAll)

	courseHandler := course.NewHandler(db, logger, content.ResyncCourse)
	course.RegisterRoutes(api, courseHandler, acStaff, acAll)

	contentHandler := content.NewHandler(db, logger)
	content.RegisterRoutes(api, contentHandler, acStaff, acAll)

	enrollmentHandler := enrollment.NewHandler(db, logger)
	enrollment.RegisterRoutes(api, enrollmentHandler, acStaff, acAll)

	progressHandler := progress.NewHandler(db, logger)
	progress.RegisterRoutes(api, progressHandler, acStaff, acAll)

	learningHandler := learning.NewHandler(db, logger)
	learning.RegisterRoutes(api, learningHandler, acAll)

	pointsHandler := points.NewHandler(db, logger)
	points.RegisterRoutes(api, pointsHandler, acStaff, acAll)

	achievementHandler := achievement.NewHandler(db, logger)
	achievement.RegisterRoutes(api, achievementHandler, acStaff, acAll)

	quizHandler := quiz.NewHandler(db, logger)
	quiz.RegisterRoutes(api, quizHandler, acStaff, acAll)

	leaderboardService := leaderboard.NewService(db, cacheClient, logger)
	leaderboardHandler := leaderboard.NewHandler(leaderboardService, logger)
	leaderboard.RegisterRoutes(api, leaderboardHandler, acAll)

	teamHandler := team.NewHandler(db, logger)
	team.RegisterRoutes(api, teamHandler, acStaff)

	badgeHandler := badge.NewHandler(db, logger)
	badge.RegisterRoutes(api, badgeHandler, acStaff, acAll)
}
