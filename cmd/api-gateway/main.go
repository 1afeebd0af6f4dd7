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
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/optimizer"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/events"
	"github.com/noah-isme/timetable-api/pkg/jobs"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 1.0.0
// @description University timetable generation service backed by an NSGA-II optimizer.
// @BasePath /api/v1
// @schemes http https
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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	readiness := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if cfg.Timetable.CacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, timetable cache disabled", "error", err)
		} else {
			redisRepo := repository.NewCacheRepository(redisClient, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
			readiness["redis"] = redisRepo.Ping
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		amqpPublisher, err := events.Dial(cfg.Events.DSN, cfg.Events.Queue, cfg.Events.PublishTimeout)
		if err != nil {
			logr.Sugar().Warnw("event broker unavailable, events disabled", "error", err)
		} else {
			defer amqpPublisher.Close() //nolint:errcheck
			publisher = amqpPublisher
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.CacheTTL, logr, cfg.Timetable.CacheEnabled)

	engine := optimizer.NewEngine(optimizer.Config{
		PopulationSize:       cfg.Optimizer.PopulationSize,
		Generations:          cfg.Optimizer.Generations,
		CrossoverProbability: cfg.Optimizer.CrossoverProbability,
		MutationProbability:  cfg.Optimizer.MutationProbability,
		Seed:                 cfg.Optimizer.Seed,
		FacultyStrategy:      optimizer.FacultyStrategy(cfg.Optimizer.FacultyStrategy),
		Parallelism:          cfg.Optimizer.Parallelism,
	}, logr.Named("optimizer"))

	problemRepo := repository.NewProblemRepository(db)
	logRepo := repository.NewGenerationLogRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	trackerRepo := repository.NewLectureTrackerRepository(db)
	jobRepo := repository.NewGenerationJobRepository(db)
	userRepo := repository.NewUserRepository(db)

	timetableSvc := service.NewTimetableService(
		service.TimetableStores{Problems: problemRepo, Logs: logRepo, Entries: timetableRepo, Trackers: trackerRepo},
		db,
		engine,
		cacheSvc,
		metricsSvc,
		publisher,
		validate,
		logr,
		service.TimetableServiceConfig{OptimizerTimeout: cfg.Optimizer.Timeout, CacheTTL: cfg.Timetable.CacheTTL},
	)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	exportSvc := service.NewExportService(
		timetableRepo,
		exportStorage,
		storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL, CleanupInterval: cfg.Exports.CleanupInterval},
		validate,
		logr,
	)
	exportSvc.StartCleanup(ctx)

	bulkHandler := handler.NewBulkGenerationHandler(nil)
	if cfg.BulkJobs.Enabled {
		worker := service.NewBulkGenerationWorker(jobRepo, timetableSvc, metricsSvc, logr)
		queue := jobs.NewQueue("timetable-bulk", worker.Handle, jobs.QueueConfig{
			Workers:     cfg.BulkJobs.WorkerConcurrency,
			MaxRetries:  cfg.BulkJobs.WorkerRetries,
			RetryDelay:  cfg.BulkJobs.RetryDelay,
			OnExhausted: worker.MarkFailed,
			Logger:      logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		bulkSvc := service.NewBulkGenerationService(jobRepo, queue, validate, logr)
		bulkSvc.RecoverPendingJobs(ctx)
		bulkHandler = handler.NewBulkGenerationHandler(bulkSvc)
	}

	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/timetables/export/:token", exportHandler.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)

	planners := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)
	reviewers := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator, models.RoleHOD)

	timetables := secured.Group("/timetables")
	timetables.POST("/generate", planners, timetableHandler.Generate)
	timetables.GET("/logs", reviewers, timetableHandler.ListLogs)
	timetables.GET("/logs/:id", timetableHandler.GetLog)
	timetables.POST("/bulk", planners, bulkHandler.Create)
	timetables.GET("/bulk/:id", bulkHandler.Status)
	timetables.POST("/export", reviewers, exportHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
