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

	_ "github.com/fitdesk/coach-api/api/swagger"
	"github.com/fitdesk/coach-api/internal/handler"
	"github.com/fitdesk/coach-api/internal/repository"
	"github.com/fitdesk/coach-api/internal/service"
	"github.com/fitdesk/coach-api/pkg/cache"
	"github.com/fitdesk/coach-api/pkg/config"
	"github.com/fitdesk/coach-api/pkg/database"
	"github.com/fitdesk/coach-api/pkg/export"
	"github.com/fitdesk/coach-api/pkg/jobs"
	"github.com/fitdesk/coach-api/pkg/logger"
	corsmiddleware "github.com/fitdesk/coach-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fitdesk/coach-api/pkg/middleware/requestid"
	"github.com/fitdesk/coach-api/pkg/storage"
)

// @title FitDesk Coach API
// @version 1.0.0
// @description Coaching dashboard backend: rosters, programs, diet plans and assignment synchronization
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	programRepo := repository.NewProgramRepository(db)
	dietPlanRepo := repository.NewDietPlanRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Assignments.MembershipCacheTTL, logr, true)

	notificationSvc := service.NewNotificationService(notificationRepo, redisClient, cfg.Notifications.Channel, logr)
	notificationQueue := jobs.NewQueue("notifications", notificationSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		Logger:     logr,
	})
	notificationSvc.AttachQueue(notificationQueue)
	notificationQueue.Start(ctx)
	defer notificationQueue.Stop()

	assignmentSvc := service.NewAssignmentService(assignmentRepo, cacheSvc, notificationSvc, cfg.Assignments, logr)
	studentSvc := service.NewStudentService(studentRepo, assignmentSvc, validate, logr)
	programSvc := service.NewProgramService(programRepo, assignmentSvc, validate, logr)
	dietPlanSvc := service.NewDietPlanService(dietPlanRepo, assignmentSvc, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, notificationSvc, validate, logr)
	calendarSvc := service.NewCalendarService(calendarRepo, notificationSvc, validate, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, validate, logr, cfg.Assignments.ReconcileAfterWrite)
	dashboardSvc := service.NewDashboardService(statsRepo, metricsSvc, cacheSvc, cfg.Dashboard, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "fitdesk-coach-api",
	})

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("export storage init failed", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(
		programRepo,
		dietPlanRepo,
		studentRepo,
		assignmentSvc,
		exportStore,
		signer,
		export.NewCSVExporter(),
		export.NewPDFExporter(),
		logr,
	)
	exportSvc.StartCleanup(ctx, cfg.Exports.CleanupInterval, cfg.Exports.SignedURLTTL)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	router := &handler.Router{
		Auth:             handler.NewAuthHandler(authSvc),
		Students:         handler.NewStudentHandler(studentSvc),
		Programs:         handler.NewProgramHandler(programSvc, exportSvc),
		DietPlans:        handler.NewDietPlanHandler(dietPlanSvc, exportSvc),
		Messages:         handler.NewMessageHandler(messageSvc),
		Notifications:    handler.NewNotificationHandler(notificationSvc),
		Calendar:         handler.NewCalendarHandler(calendarSvc),
		Settings:         handler.NewSettingsHandler(settingsSvc),
		Dashboard:        handler.NewDashboardHandler(dashboardSvc),
		Exports:          handler.NewExportHandler(exportSvc),
		Metrics:          handler.NewMetricsHandler(metricsSvc),
		AuthService:      authSvc,
		MetricsService:   metricsSvc,
		UserRepo:         userRepo,
		DashboardEnabled: cfg.Dashboard.Enabled,
	}
	router.Register(r, cfg.APIPrefix)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
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
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
