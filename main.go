package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/smarttracker/backend/internal/config"
	"github.com/smarttracker/backend/internal/db"
	"github.com/smarttracker/backend/internal/handler"
	"github.com/smarttracker/backend/internal/service"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	ctx := context.Background()

	repo, cleanup, err := newUserStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up user store", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	userSvc := service.NewUserService(repo, logger)
	authSvc, err := service.NewAuthService(repo, cfg.Auth, logger)
	if err != nil {
		logger.Error("failed to set up auth service", "err", err)
		os.Exit(1)
	}

	router := gin.Default()

	if cfg.Server.AllowedOrigins != "" {
		origins := strings.Split(cfg.Server.AllowedOrigins, ",")
		router.Use(handler.CORSMiddleware(origins, true))
	}

	router.GET("/", handler.Root)
	router.GET("/ping", handler.Ping)
	router.GET("/openapi.json", handler.OpenAPIDoc)

	h := handler.NewAuthHandler(userSvc, authSvc)

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", h.Register)
		auth.GET("/check-username/:username", h.CheckUsername)
		auth.GET("/check-email/:email", h.CheckEmail)
		auth.POST("/validate-password", h.ValidatePassword)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
	}

	protected := auth.Group("")
	protected.Use(handler.AuthMiddleware(authSvc))
	{
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
	}

	addr := ":" + cfg.Server.Port
	logger.Info("starting server", "addr", addr)
	if err := router.Run(addr); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// newUserStore connects to postgres and applies migrations, falling back
// to the in-memory store when no database is configured.
func newUserStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (service.UserRepository, func(), error) {
	dsn, err := db.BuildPostgresURL(cfg.Postgres)
	if err != nil {
		if errors.Is(err, db.ErrNotConfigured) {
			logger.Warn("postgres not configured, using in-memory user store")
			return db.NewMemory(), func() {}, nil
		}
		return nil, nil, err
	}

	if err := db.RunMigrations(ctx, dsn); err != nil {
		return nil, nil, err
	}

	store, err := db.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	return store, store.Close, nil
}
