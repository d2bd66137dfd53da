package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/handlers"
	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/ratelimit"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger utils.Logger) error {
	repo, closeRepo, err := pkg.OpenRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	limiterCfg := ratelimit.Config{Limit: cfg.RateLimit.Starts, Window: cfg.RateLimit.Window}
	deps := services.Dependencies{
		Repo:    repo,
		Metrics: metrics.New(),
		Logger:  logger,
	}

	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("Using Redis for cache and rate limiting")
		deps.Cache = cache.NewRedisCache(redisClient, utils.ToSlogLogger(logger))
		deps.Limiter = ratelimit.NewRedisLimiter(redisClient, limiterCfg)
	} else {
		local := ratelimit.NewLocalLimiter(limiterCfg)
		go local.Run(ctx)
		deps.Cache = cache.NewMemoryCache()
		deps.Limiter = local
	}

	publisher, err := cfg.Events.CreateEventPublisher(utils.ToSlogLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.LogError(err, "Failed to close event publisher")
		}
	}()
	deps.Publisher = publisher

	serviceManager := services.NewServiceManager(deps)

	if cfg.SeedFile != "" {
		if err := seed(ctx, serviceManager, cfg.SeedFile, logger); err != nil {
			return err
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger, "/health", "/metrics"))
	router.Use(handlers.CORSMiddleware(cfg.AllowedOrigins))

	handlers.NewHandlerManager(serviceManager, repo, deps.Metrics, handlers.SessionConfig{
		CookieName: cfg.SessionCookie,
		Secure:     cfg.IsProduction(),
	}, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server running", "port", cfg.Port, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Server exiting")
	return nil
}

func seed(ctx context.Context, sm *services.ServiceManager, path string, logger utils.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	summary, err := services.LoadSeed(ctx, sm, f)
	if err != nil {
		return err
	}
	logger.Info("Loaded seed data",
		"file", path,
		"lessons", summary.Lessons,
		"quizzes", summary.Quizzes,
		"rejected_questions", summary.Rejected)
	return nil
}
