package main

import (
	"github.com/collabhub/backend/internal/access"
	"github.com/collabhub/backend/internal/audit"
	"github.com/collabhub/backend/internal/auth"
	"github.com/collabhub/backend/internal/config"
	"github.com/collabhub/backend/internal/database"
	"github.com/collabhub/backend/internal/handlers"
	"github.com/collabhub/backend/internal/middleware"
	"github.com/collabhub/backend/internal/repository"
	"github.com/collabhub/backend/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database; the handle is owned here and injected into
	// every repository.
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database ready", zap.String("driver", cfg.DBDriver))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Core components
	issuer := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	resolver := access.NewResolver(projectRepo)
	auditor := audit.NewRecorder(auditRepo, logger)

	// Services
	authService := services.NewAuthService(userRepo, tokenRepo, issuer, cfg.RefreshTokenTTL, auditor)
	projectService := services.NewProjectService(projectRepo, userRepo, resolver, auditor)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService)

	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.Refresh)
			authRoutes.POST("/logout", middleware.RequireAuth(issuer), authHandler.Logout)
			authRoutes.PUT("/password", middleware.RequireAuth(issuer), authHandler.ChangePassword)
			authRoutes.GET("/me", middleware.RequireAuth(issuer), authHandler.GetCurrentUser)
			authRoutes.PATCH("/me", middleware.RequireAuth(issuer), authHandler.UpdateProfile)
		}

		projects := api.Group("/projects")
		{
			projects.POST("", middleware.RequireAuth(issuer), projectHandler.CreateProject)
			projects.GET("", middleware.RequireAuth(issuer), projectHandler.ListProjects)

			// Single-project routes allow anonymous callers so public
			// projects stay readable; the resolver decides per request.
			projects.GET("/:id", middleware.OptionalAuth(issuer), middleware.RequireProjectAccess(resolver), projectHandler.GetProject)
			projects.PATCH("/:id", middleware.RequireAuth(issuer), middleware.RequireProjectAccess(resolver), middleware.RequirePermission(access.ActionEdit), projectHandler.UpdateProject)
			projects.DELETE("/:id", middleware.RequireAuth(issuer), middleware.RequireProjectAccess(resolver), middleware.RequirePermission(access.ActionDelete), projectHandler.DeleteProject)

			projects.GET("/:id/members", middleware.OptionalAuth(issuer), middleware.RequireProjectAccess(resolver), projectHandler.ListMembers)
			projects.POST("/:id/members", middleware.RequireAuth(issuer), middleware.RequireProjectAccess(resolver), middleware.RequirePermission(access.ActionManageMembers), projectHandler.AddMember)
			projects.PATCH("/:id/members/:user_id", middleware.RequireAuth(issuer), middleware.RequireProjectAccess(resolver), middleware.RequirePermission(access.ActionManageMembers), projectHandler.UpdateMember)
			projects.DELETE("/:id/members/:user_id", middleware.RequireAuth(issuer), middleware.RequireProjectAccess(resolver), middleware.RequirePermission(access.ActionManageMembers), projectHandler.RemoveMember)
		}
	}

	logger.Info("server starting", zap.String("addr", cfg.ServerAddr))
	if err := r.Run(cfg.ServerAddr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.GinMode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
