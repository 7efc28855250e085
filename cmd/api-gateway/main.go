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

	_ "github.com/noah-isme/sma-exams-api/api/swagger"
	"github.com/noah-isme/sma-exams-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-exams-api/internal/middleware"
	"github.com/noah-isme/sma-exams-api/internal/repository"
	"github.com/noah-isme/sma-exams-api/internal/service"
	"github.com/noah-isme/sma-exams-api/pkg/cache"
	"github.com/noah-isme/sma-exams-api/pkg/config"
	"github.com/noah-isme/sma-exams-api/pkg/database"
	"github.com/noah-isme/sma-exams-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-exams-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-exams-api/pkg/middleware/requestid"
)

// @title School Exams API
// @version 1.0.0
// @description Exam results, grading and class rankings
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	dependencies := map[string]handler.Pinger{"postgres": db}

	metricsSvc := service.NewMetricsService()
	var cacheRepo service.CacheRepository
	cacheEnabled := cfg.Exports.CacheEnabled
	if cacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, export cache disabled", zap.Error(err))
			cacheEnabled = false
		} else {
			repo := repository.NewCacheRepository(redisClient)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			dependencies["redis"] = handler.PingFunc(repo.Ping)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Exports.CacheTTL, logr, cacheEnabled)

	validate := validator.New()
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	streamRepo := repository.NewStreamRepository(db)
	examTypeRepo := repository.NewExamTypeRepository(db)
	examRepo := repository.NewExamRepository(db)
	resultRepo := repository.NewExamResultRepository(db)

	resultSvc := service.NewResultService(examRepo, resultRepo, studentRepo, subjectRepo, metricsSvc, validate, logr)
	marksSvc := service.NewMarksService(examRepo, resultRepo, studentRepo, cacheSvc, metricsSvc, validate, logr)
	examSvc := service.NewExamService(examRepo, resultRepo, subjectRepo, examTypeRepo, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, streamRepo, cacheSvc, validate, logr)
	referenceSvc := service.NewReferenceService(subjectRepo, streamRepo, examTypeRepo, cacheSvc, validate, logr)
	exportSvc := service.NewExportService(resultSvc, cacheSvc, metricsSvc, service.ExportConfig{
		SchoolName: cfg.Exports.SchoolName,
		CacheTTL:   cfg.Exports.CacheTTL,
	}, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, dependencies)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Results:   handler.NewResultHandler(resultSvc, exportSvc),
		Marks:     handler.NewMarksHandler(marksSvc),
		Exams:     handler.NewExamHandler(examSvc),
		Students:  handler.NewStudentHandler(studentSvc),
		Reference: handler.NewReferenceHandler(referenceSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "export_cache", cacheEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
