package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/healthpredict/platform/pkg/common/config"
	"github.com/healthpredict/platform/pkg/common/database"
	"github.com/healthpredict/platform/pkg/common/kafka"
	"github.com/healthpredict/platform/pkg/common/logger"
	"github.com/healthpredict/platform/pkg/predict"
	"github.com/healthpredict/platform/pkg/report"
	"github.com/healthpredict/platform/pkg/storage"
)

type PredictionService struct {
	cfg            *config.Config
	predictor      *predict.Predictor
	extractor      *report.Extractor
	resultStore    *storage.ResultStore
	uploadProducer *kafka.Producer
	eventProducer  *kafka.Producer
}

func main() {
	logger.Init("prediction-service")
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to database")
	}

	redisClient := database.GetRedis()
	resultStore := storage.NewResultStore(db, redisClient, cfg.ResultCacheTTL)
	if err := resultStore.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to migrate assessment tables")
	}

	predictor := predict.Load(cfg.ModelArtifactDir)

	rules, err := report.LoadRules(cfg.OCRRulesPath)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to load extraction rules, using defaults")
	}
	extractor, err := report.NewExtractor(report.NewOCRSource(), rules)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to compile extraction rules")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.Log.WithError(err).Fatal("Failed to create upload directory")
	}

	service := &PredictionService{
		cfg:            cfg,
		predictor:      predictor,
		extractor:      extractor,
		resultStore:    resultStore,
		uploadProducer: kafka.NewProducer(cfg.ReportUploadedTopic),
		eventProducer:  kafka.NewProducer(cfg.AssessmentTopic),
	}
	defer service.uploadProducer.Close()
	defer service.eventProducer.Close()

	router := mux.NewRouter()
	router.Use(requestLogging, recovery)
	router.HandleFunc("/health", service.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/predict", service.handlePredict).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/assessments/{id}", service.handleGetAssessment).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/reports/extract", service.handleExtractReport).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/reports", service.handleUploadReport).Methods(http.MethodPost)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":         cfg.ServerHost,
			"port":         cfg.ServerPort,
			"model_loaded": predictor.ModelLoaded(),
		}).Info("Prediction Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Prediction Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	database.CloseRedis()
	database.ClosePostgres()

	logger.Log.Info("Prediction Service stopped")
}
