package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/pps-admin-api/api/swagger"
	"github.com/noah-isme/pps-admin-api/internal/handler"
	"github.com/noah-isme/pps-admin-api/internal/middleware"
	"github.com/noah-isme/pps-admin-api/internal/repository"
	"github.com/noah-isme/pps-admin-api/internal/service"
	"github.com/noah-isme/pps-admin-api/pkg/cache"
	"github.com/noah-isme/pps-admin-api/pkg/config"
	"github.com/noah-isme/pps-admin-api/pkg/database"
	"github.com/noah-isme/pps-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pps-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pps-admin-api/pkg/middleware/requestid"
	"github.com/noah-isme/pps-admin-api/pkg/retry"
)

// @title PPS Admin API
// @version 0.1.0
// @description Cohort analytics and data reconciliation engine
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Analytics.CacheTTL, logr, false)
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Analytics.CacheTTL, logr, true)
	}

	store := retry.Config{
		Attempts: cfg.Store.ReadRetries,
		Delay:    cfg.Store.RetryDelay,
		Timeout:  cfg.Store.ReadTimeout,
	}
	students := repository.NewStudentRepository(db, store, cfg.Store.PageSize)
	practices := repository.NewPracticeRepository(db, store, cfg.Store.PageSize)
	launches := repository.NewLaunchRepository(db, store, cfg.Store.PageSize)
	institutions := repository.NewInstitutionRepository(db, store, cfg.Store.PageSize)
	requests := repository.NewRequestRepository(db, store, cfg.Store.PageSize)
	merges := repository.NewMergeRepository(db)

	snapshotSvc := service.NewSnapshotService(students, practices, requests, cacheSvc, metrics, logr)
	flowSvc := service.NewFlowService(students, practices, requests, launches, institutions, cacheSvc, metrics, logr)
	timelineSvc := service.NewTimelineService(launches, cacheSvc, metrics, logr)
	mergeSvc := service.NewMergeService(students, merges, metrics, logr)
	integritySvc := service.NewIntegrityService(service.IntegrityServiceParams{
		Students:    students,
		Practices:   practices,
		Launches:    launches,
		Completions: requests,
		Enrollments: requests,
		PPS:         requests,
		LaunchFixer: launches,
		Merger:      mergeSvc,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Logger:      logr,
	})
	exportSvc := service.NewExportService()

	analyticsHandler := handler.NewAnalyticsHandler(snapshotSvc, flowSvc, timelineSvc, exportSvc)
	integrityHandler := handler.NewIntegrityHandler(integritySvc, mergeSvc, exportSvc, validator.New())

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(cfg.APIPrefix)
	if cfg.Analytics.Enabled {
		analytics := api.Group("/analytics")
		analytics.GET("/snapshot", analyticsHandler.Snapshot)
		analytics.GET("/flow", analyticsHandler.Flow)
		analytics.GET("/timeline", analyticsHandler.Timeline)
		if cfg.Exports.Enabled {
			analytics.GET("/snapshot/export", analyticsHandler.SnapshotExport)
		}
	}
	if cfg.Integrity.Enabled {
		integrity := api.Group("/integrity")
		integrity.GET("/scan", integrityHandler.Scan)
		integrity.POST("/remediate", integrityHandler.Remediate)
		integrity.GET("/merges/pending", integrityHandler.PendingMerges)
		if cfg.Exports.Enabled {
			integrity.GET("/scan/export", integrityHandler.ScanExport)
		}
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
