package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/markaz-annoor/annoor-api/api/swagger"
	"github.com/markaz-annoor/annoor-api/internal/access"
	"github.com/markaz-annoor/annoor-api/internal/handler"
	"github.com/markaz-annoor/annoor-api/internal/middleware"
	"github.com/markaz-annoor/annoor-api/internal/models"
	"github.com/markaz-annoor/annoor-api/internal/repository"
	"github.com/markaz-annoor/annoor-api/internal/service"
	"github.com/markaz-annoor/annoor-api/pkg/cache"
	"github.com/markaz-annoor/annoor-api/pkg/config"
	"github.com/markaz-annoor/annoor-api/pkg/database"
	"github.com/markaz-annoor/annoor-api/pkg/jobs"
	"github.com/markaz-annoor/annoor-api/pkg/logger"
	corsmiddleware "github.com/markaz-annoor/annoor-api/pkg/middleware/cors"
	reqidmiddleware "github.com/markaz-annoor/annoor-api/pkg/middleware/requestid"
	"github.com/markaz-annoor/annoor-api/pkg/storage"
)

// @title Markaz An-noor API
// @version 1.0.0
// @description Student participation and progress tracking for Markaz An-noor
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
		}
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	exportRepo := repository.NewExportRepository(db)

	// Export plumbing.
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	// Services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "annoor-api",
		Audience:           []string{"annoor-dashboard"},
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	activitySvc := service.NewActivityService(activityRepo, validate, logr)
	participationSvc := service.NewParticipationService(participationRepo, cacheSvc, validate, logr)
	alertSvc := service.NewAlertService(alertRepo, validate, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, teacherRepo, activityRepo, participationRepo, alertRepo, cacheSvc, metricsSvc, cfg.Dashboard.CacheTTL, logr)

	exportSvc := service.NewExportService(participationRepo, studentRepo, alertRepo, exportStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	exportWorker := service.NewExportWorker(exportRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
	exportQueue := jobs.NewQueue("exports", exportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportJobSvc := service.NewExportJobService(exportRepo, exportQueue, exportSvc, validate, logr, service.ExportJobConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exportQueue.Start(rootCtx)
	defer exportQueue.Stop()
	exportJobSvc.RecoverPendingJobs(rootCtx)
	go exportJobSvc.StartCleanup(rootCtx)

	table := access.DefaultTable()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc, userSvc)
	userHandler := handler.NewUserHandler(userSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	participationHandler := handler.NewParticipationHandler(participationSvc)
	alertHandler := handler.NewAlertHandler(alertSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, studentSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportJobSvc)
	navigationHandler := handler.NewNavigationHandler(table)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

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
	r.GET("/metrics", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	api.GET("/navigation/resolve", middleware.OptionalJWT(authSvc), navigationHandler.Resolve)

	users := api.Group("/users", middleware.JWT(authSvc), middleware.RouteAccess(table, access.RouteUsers))
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", userHandler.Create)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	students := api.Group("/students", middleware.JWT(authSvc), middleware.RouteAccess(table, access.RouteStudents))
	{
		students.GET("", studentHandler.List)
		students.GET("/classes", studentHandler.ClassNames)
		students.GET("/:id", studentHandler.Get)
		students.GET("/:id/progress", dashboardHandler.StudentProgress)
		students.POST("", studentHandler.Create)
		students.PUT("/:id", studentHandler.Update)
		students.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), studentHandler.Delete)
	}

	teachers := api.Group("/teachers", middleware.JWT(authSvc), middleware.RouteAccess(table, access.RouteTeachers))
	{
		teachers.GET("", teacherHandler.List)
		teachers.GET("/:id", teacherHandler.Get)
		teachers.POST("", middleware.Audit(userRepo, models.AuditActionCreate, "teachers", logr), teacherHandler.Create)
		teachers.PUT("/:id", middleware.Audit(userRepo, models.AuditActionUpdate, "teachers", logr), teacherHandler.Update)
		teachers.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, models.AuditActionDelete, "teachers", logr), teacherHandler.Delete)
	}

	activities := api.Group("/activities", middleware.JWT(authSvc), middleware.RouteAccess(table, access.RouteActivities))
	{
		activities.GET("", activityHandler.List)
		activities.GET("/:id", activityHandler.Get)
		activities.POST("", middleware.Audit(userRepo, models.AuditActionCreate, "activities", logr), activityHandler.Create)
		activities.PUT("/:id", middleware.Audit(userRepo, models.AuditActionUpdate, "activities", logr), activityHandler.Update)
		activities.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, models.AuditActionDelete, "activities", logr), activityHandler.Delete)
	}

	participations := api.Group("/participations", middleware.JWT(authSvc), middleware.RouteAccess(table, access.RouteParticipations))
	{
		participations.GET("", participationHandler.List)
		participations.GET("/stats", participationHandler.Stats)
		participations.GET("/:id", participationHandler.Get)
		participations.POST("", middleware.Audit(userRepo, models.AuditActionCreate, "participations", logr), participationHandler.Create)
		participations.PUT("/:id", middleware.Audit(userRepo, models.AuditActionUpdate, "participations", logr), participationHandler.Update)
		participations.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, models.AuditActionDelete, "participations", logr), participationHandler.Delete)
	}

	alerts := api.Group("/alerts", middleware.JWT(authSvc), middleware.RouteAccess(table, access.RouteAlerts))
	{
		alerts.GET("", alertHandler.List)
		alerts.GET("/:id", alertHandler.Get)
		alerts.POST("", middleware.Audit(userRepo, models.AuditActionCreate, "alerts", logr), alertHandler.Create)
		alerts.PUT("/:id", middleware.Audit(userRepo, models.AuditActionUpdate, "alerts", logr), alertHandler.Update)
		alerts.POST("/:id/transition", middleware.Audit(userRepo, models.AuditActionUpdate, "alerts", logr), alertHandler.Transition)
		alerts.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, models.AuditActionDelete, "alerts", logr), alertHandler.Delete)
	}

	leaves := api.Group("/leaves", middleware.JWT(authSvc), middleware.RouteAccess(table, access.RouteLeaves))
	{
		leaves.GET("", leaveHandler.List)
		leaves.GET("/:id", leaveHandler.Get)
		leaves.POST("", middleware.Audit(userRepo, models.AuditActionCreate, "leaves", logr), leaveHandler.Create)
		leaves.POST("/:id/approve", middleware.Audit(userRepo, models.AuditActionUpdate, "leaves", logr), leaveHandler.Approve)
		leaves.POST("/:id/reject", middleware.Audit(userRepo, models.AuditActionUpdate, "leaves", logr), leaveHandler.Reject)
		leaves.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(userRepo, models.AuditActionDelete, "leaves", logr), leaveHandler.Delete)
	}

	exports := api.Group("/exports")
	{
		// Download is authenticated by the signed token, not a JWT.
		exports.GET("/download", exportHandler.Download)

		guarded := exports.Group("", middleware.JWT(authSvc), middleware.RouteAccess(table, access.RouteExports))
		guarded.POST("", exportHandler.Create)
		guarded.GET("/:id", exportHandler.Status)
	}

	dashboard := api.Group("/dashboard", middleware.JWT(authSvc))
	{
		dashboard.GET("/admin", middleware.RequireRoles(models.RoleAdmin), dashboardHandler.Admin)
		dashboard.GET("/staff", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff), dashboardHandler.Staff)
		dashboard.GET("/system", middleware.RequireRoles(models.RoleAdmin), dashboardHandler.SystemMetrics)
	}

	api.GET("/me/progress", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent), dashboardHandler.MyProgress)

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

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
