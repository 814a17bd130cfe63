package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"athletehub-api/internal/adapters/storage"
	"athletehub-api/internal/auth"
	"athletehub-api/internal/config"
	"athletehub-api/internal/handlers"
	"athletehub-api/internal/middleware"
	"athletehub-api/pkg/lambda"
	"athletehub-api/pkg/server"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := server.NewLogger(cfg)

	container, err := server.NewContainer(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize container")
	}
	connections := server.GetConnectionManager()
	connections.Set(container)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.PerformanceMonitor(logger, time.Second))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(lambda.MaxBodyBytes))
	if !cfg.RateLimit.Enabled && cfg.RateLimit.PerMinute > 0 {
		router.Use(middleware.RateLimiter(float64(cfg.RateLimit.PerMinute)/60, cfg.RateLimit.PerMinute, logger))
	}

	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret:        cfg.JWT.Secret,
		Issuer:        cfg.JWT.Issuer,
		TokenDuration: time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
	})
	router.Use(middleware.BearerClaims(tokens, logger))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.IsDevelopment() && cfg.JWT.Secret != "" {
		router.POST("/dev/token", handlers.NewDevTokenHandler(tokens).Issue)
		logger.Warn("Development token endpoint enabled")
	}
	if files, ok := container.Uploads.(*storage.LocalFileStorage); ok {
		handlers.NewLocalFileHandler(files, logger).Register(router.Group("/files"))
	}

	// Everything else goes through the same dispatcher the Lambda uses
	router.NoRoute(lambda.GinHandler(container.Router, cfg.BasePath))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":        cfg.Port,
		"environment": cfg.Environment,
	}).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}
	if err := connections.Cleanup(); err != nil {
		logger.WithError(err).Warn("Failed to release connections")
	}

	logger.Info("Server exited")
}
