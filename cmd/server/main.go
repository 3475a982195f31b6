package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"story-server/internal/config"
	"story-server/internal/database"
	"story-server/internal/handler"
	"story-server/internal/logger"
	"story-server/internal/middleware"
	"story-server/internal/repository"
	"story-server/internal/service"
	"story-server/internal/taskrunner"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// .env is optional in production deployments.
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Configuration loaded",
		zap.Int("port", cfg.ServerPort),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.String("db_dsn", cfg.GetMaskedDSN()),
		zap.String("media_root", cfg.MediaRoot))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbPool, err := database.NewPool(ctx, database.Config{
		DSN:         cfg.GetDSN(),
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
	}, log)
	cancel()
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()

	// Repositories
	storyRepo := repository.NewPgStoryRepository(dbPool, log)
	imageRepo := repository.NewPgImageRepository(dbPool, log)
	sessionRepo := repository.NewPgSessionRepository(dbPool, log)

	// Backend clients are constructed once and injected.
	aiClient, err := service.NewAIClient(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize AI client", zap.Error(err))
	}
	storySvc := service.NewStoryGenerationService(aiClient, log)
	imageGen := service.NewDiffusionImageService(cfg, log)
	merger := service.NewImageMergeService(cfg.MergeWidth, cfg.MergeHeight, log)

	generationSvc := service.NewGenerationService(
		storySvc, imageGen, merger,
		storyRepo, imageRepo, sessionRepo,
		cfg.MediaRoot, log,
	)

	runner := taskrunner.New(cfg.MaxGenerationTasks, log)

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ZapLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Registers the /metrics endpoint and per-request metrics.
	prom := ginprometheus.NewPrometheus("gin")
	prom.Use(router)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.Static("/media", cfg.MediaRoot)

	storyHandler := handler.NewStoryHandler(generationSvc, runner, storyRepo, imageRepo, sessionRepo, log)
	storyHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	go func() {
		log.Info("Starting HTTP server", zap.Int("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		log.Error("Task runner shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
