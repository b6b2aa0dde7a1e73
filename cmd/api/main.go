package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sukunslide/docshare-api/api/swagger"
	"github.com/sukunslide/docshare-api/internal/handler"
	"github.com/sukunslide/docshare-api/internal/middleware"
	"github.com/sukunslide/docshare-api/internal/repository"
	"github.com/sukunslide/docshare-api/internal/service"
	"github.com/sukunslide/docshare-api/internal/upload"
	"github.com/sukunslide/docshare-api/pkg/cache"
	"github.com/sukunslide/docshare-api/pkg/config"
	"github.com/sukunslide/docshare-api/pkg/database"
	"github.com/sukunslide/docshare-api/pkg/logger"
	corsmiddleware "github.com/sukunslide/docshare-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sukunslide/docshare-api/pkg/middleware/requestid"
	"github.com/sukunslide/docshare-api/pkg/storage"
)

// @title DocShare API
// @version 1.0.0
// @description Student document sharing platform with moderation
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logr.Sugar().Fatalw("failed to init storage backend", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	downloadRepo := repository.NewDownloadRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()

	activityService := service.NewActivityService(activityRepo, metricsService, logr, service.ActivityConfig{
		Workers:    cfg.Activity.Workers,
		BufferSize: cfg.Activity.BufferSize,
		MaxRetries: cfg.Activity.MaxRetries,
		RetryDelay: cfg.Activity.RetryDelay,
	})
	activityService.Start(ctx)
	defer activityService.Stop()

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})

	fileValidator := upload.NewValidator(cfg.Uploads.MaxFileSizeBytes, cfg.Uploads.AllowedExtensions)
	documentService := service.NewDocumentService(
		documentRepo, subjectRepo, downloadRepo, cacheRepo, blobs, signer,
		validate, fileValidator, activityService, metricsService, logr,
		service.DocumentConfig{CacheEnabled: cfg.Cache.Enabled, CacheTTL: cfg.Cache.TTL},
	)
	userService := service.NewUserService(userRepo, downloadRepo, favoriteRepo, documentRepo, validate, activityService, logr)
	subjectService := service.NewSubjectService(subjectRepo, documentRepo, validate, activityService, logr)
	analyticsService := service.NewAnalyticsService(analyticsRepo, cacheRepo, metricsService, logr, cfg.Cache.TTL)

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(documentService)
	userHandler := handler.NewUserHandler(userService)
	subjectHandler := handler.NewSubjectHandler(subjectService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, activityService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.JWT(authService), authHandler.Me)
		}

		subjects := api.Group("/subjects", middleware.JWT(authService))
		{
			subjects.GET("", subjectHandler.List)
			subjects.GET("/:id", subjectHandler.Get)
		}

		documents := api.Group("/documents")
		{
			documents.GET("/:id/file", documentHandler.ServeFile)

			authed := documents.Group("", middleware.JWT(authService))
			{
				authed.GET("", documentHandler.List)
				authed.GET("/:id", documentHandler.Get)
				authed.POST("", documentHandler.Submit)
				authed.POST("/:id/download", documentHandler.Download)
			}
		}

		users := api.Group("/users", middleware.JWT(authService))
		{
			users.GET("/me", userHandler.Profile)
			users.PUT("/me", userHandler.UpdateProfile)
			users.GET("/downloads", userHandler.Downloads)
			users.GET("/favorites", userHandler.ListFavorites)
			users.POST("/favorites/:id", userHandler.AddFavorite)
			users.DELETE("/favorites/:id", userHandler.RemoveFavorite)
		}

		admin := api.Group("/admin", middleware.JWT(authService), middleware.RequireAdmin())
		{
			admin.POST("/documents/upload", documentHandler.AdminUpload)
			admin.GET("/documents/pending", documentHandler.Pending)
			admin.PUT("/documents/:id", documentHandler.Update)
			admin.DELETE("/documents/:id", documentHandler.Delete)
			admin.PUT("/documents/:id/approve", documentHandler.Approve)
			admin.PUT("/documents/:id/reject", documentHandler.Reject)

			admin.GET("/users", userHandler.ListUsers)
			admin.PUT("/users/:id/status", userHandler.SetUserStatus)

			admin.POST("/subjects", subjectHandler.Create)
			admin.PUT("/subjects/:id", subjectHandler.Update)
			admin.DELETE("/subjects/:id", subjectHandler.Delete)

			admin.GET("/analytics/overview", analyticsHandler.Overview)
			admin.GET("/analytics/subjects", analyticsHandler.DocumentsBySubject)
			admin.GET("/analytics/top-downloads", analyticsHandler.TopDownloads)
			admin.GET("/analytics/export", analyticsHandler.Export)
			admin.GET("/activity-logs", analyticsHandler.RecentActivity)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
