package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/crescendo-hq/lifecycle-api/api/swagger"
	"github.com/crescendo-hq/lifecycle-api/internal/handler"
	"github.com/crescendo-hq/lifecycle-api/internal/middleware"
	"github.com/crescendo-hq/lifecycle-api/internal/models"
	"github.com/crescendo-hq/lifecycle-api/internal/repository"
	"github.com/crescendo-hq/lifecycle-api/internal/service"
	"github.com/crescendo-hq/lifecycle-api/pkg/cache"
	"github.com/crescendo-hq/lifecycle-api/pkg/config"
	"github.com/crescendo-hq/lifecycle-api/pkg/export"
	"github.com/crescendo-hq/lifecycle-api/pkg/logger"
	corsmiddleware "github.com/crescendo-hq/lifecycle-api/pkg/middleware/cors"
	reqidmiddleware "github.com/crescendo-hq/lifecycle-api/pkg/middleware/requestid"
)

// @title Student Lifecycle API
// @version 1.0.0
// @description Enrollment, renewal and churn analytics over spreadsheet-sourced student records
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	instruments := service.NewInstrumentService()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, redisErr := cache.NewRedis(cfg.Redis)
		if redisErr != nil {
			logr.Sugar().Fatalw("redis connection failed", "error", redisErr)
		}
		defer redisClient.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, instruments, cfg.Analytics.CacheTTL, logr, cfg.Analytics.CacheEnabled && cacheRepo != nil)

	source, err := buildRowSource(cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("row source init failed", "error", err)
	}

	datasetSvc := service.NewDatasetService(source, cacheSvc, instruments, logr)
	if cfg.Sheets.Enabled && cfg.Sheets.RefreshOnStart {
		if _, refreshErr := datasetSvc.Refresh(context.Background()); refreshErr != nil {
			logr.Sugar().Warnw("initial dataset refresh failed", "error", refreshErr)
		}
	}

	rosterSvc := service.NewRosterService(logr)
	analyticsSvc := service.NewAnalyticsService(datasetSvc, rosterSvc, cacheSvc, instruments, logr, service.AnalyticsConfig{
		GraceDays:   cfg.Analytics.GraceDays,
		DefaultTopN: cfg.Analytics.DefaultTopN,
		CacheTTL:    cfg.Analytics.CacheTTL,
	})
	exportSvc := service.NewExportService(analyticsSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc, datasetSvc)
	datasetHandler := handler.NewDatasetHandler(datasetSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(instruments))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "dataset_version": datasetSvc.Dataset().Version})
	})

	r.GET("/metrics", gin.WrapH(instruments.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		metrics := api.Group("/metrics")
		{
			metrics.GET("/snapshot", analyticsHandler.Snapshot)
			metrics.GET("/monthly", analyticsHandler.Monthly)
			metrics.GET("/categories", analyticsHandler.Categories)
			metrics.GET("/students", analyticsHandler.Students)
		}

		dataset := api.Group("/dataset")
		{
			dataset.POST("/refresh", datasetHandler.Refresh)
			dataset.GET("/diagnostics", datasetHandler.Diagnostics)
		}

		if cfg.Export.Enabled {
			api.GET("/reports/export", exportHandler.Report)
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

// buildRowSource selects the ingestion backend. Without sheets credentials the
// server starts against an empty in-memory source so the API surface stays up.
func buildRowSource(cfg *config.Config, logr *zap.Logger) (service.RowSource, error) {
	if !cfg.Sheets.Enabled {
		logr.Sugar().Infow("sheets ingestion disabled, using static source")
		return repository.NewStaticSource(), nil
	}

	tabs := make([]repository.TabMapping, 0, len(cfg.Sheets.Tabs))
	for _, pair := range cfg.Sheets.Tabs {
		src, ok := models.ParseSource(pair.Source)
		if !ok {
			return nil, fmt.Errorf("unknown source label %q for tab %q", pair.Source, pair.Tab)
		}
		tabs = append(tabs, repository.TabMapping{Tab: pair.Tab, Source: src})
	}

	return repository.NewSheetsRepository(context.Background(), repository.SheetsConfig{
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		APIKey:          cfg.Sheets.APIKey,
		CredentialsFile: cfg.Sheets.CredentialsFile,
		Tabs:            tabs,
		MaxRetries:      cfg.Sheets.MaxRetries,
		RetryDelay:      cfg.Sheets.RetryDelay,
	}, logr)
}
