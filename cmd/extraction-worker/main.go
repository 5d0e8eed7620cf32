package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/healthpredict/platform/pkg/common/config"
	"github.com/healthpredict/platform/pkg/common/kafka"
	"github.com/healthpredict/platform/pkg/common/logger"
	"github.com/healthpredict/platform/pkg/common/models"
	"github.com/healthpredict/platform/pkg/report"
)

// The extraction worker runs OCR off the request path: it consumes
// report.uploaded events and writes the extraction result beside each
// upload for the form-prefill caller to pick up.
func main() {
	logger.Init("extraction-worker")
	cfg := config.Load()

	rules, err := report.LoadRules(cfg.OCRRulesPath)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to load extraction rules, using defaults")
	}
	extractor, err := report.NewExtractor(report.NewOCRSource(), rules)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to compile extraction rules")
	}

	consumer := kafka.NewConsumer(cfg.ReportUploadedTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Shutting down Extraction Worker...")
		cancel()
	}()

	logger.Log.WithField("topic", cfg.ReportUploadedTopic).Info("Extraction Worker started")

	err = consumer.Consume(ctx, func(ctx context.Context, event models.Event) error {
		return handleUpload(extractor, event)
	})
	if err != nil && err != context.Canceled {
		logger.Log.WithError(err).Error("Consumer stopped")
	}

	logger.Log.Info("Extraction Worker stopped")
}

// handleUpload processes one uploaded report. Extraction failure is not a
// handler error: the zero-confidence result is still written so the
// caller can prompt manual entry. Only result-write failures are retried.
func handleUpload(extractor *report.Extractor, event models.Event) error {
	jobID, _ := event.Data["job_id"].(string)
	path, _ := event.Data["path"].(string)
	kind, _ := event.Data["kind"].(string)
	if path == "" || kind == "" {
		logger.Log.WithField("event_id", event.ID).Warn("Malformed upload event, skipping")
		return nil
	}

	result := extractor.Extract(path, kind)

	logger.Log.WithFields(map[string]interface{}{
		"job_id":       jobID,
		"fields_found": len(result.Fields),
		"confidence":   result.OverallConfidence,
	}).Info("Report extraction completed")

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal extraction result: %w", err)
	}
	if err := os.WriteFile(path+".extraction.json", payload, 0o644); err != nil {
		return fmt.Errorf("failed to write extraction result: %w", err)
	}

	return nil
}
