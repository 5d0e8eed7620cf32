package main

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/healthpredict/platform/pkg/common/logger"
	"github.com/healthpredict/platform/pkg/common/models"
	"github.com/healthpredict/platform/pkg/storage"
)

var allowedReportKinds = map[string]bool{
	"pdf": true, "jpg": true, "jpeg": true, "png": true,
}

func (s *PredictionService) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"model_loaded": s.predictor.ModelLoaded(),
	})
}

// handlePredict always answers 200 with a usable envelope: a payload that
// cannot even be decoded is handed to the predictor as nil, which yields
// the error-fallback envelope rather than an HTTP error.
func (s *PredictionService) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBody)

	var data models.AssessmentData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		logger.Log.WithError(err).Warn("Undecodable assessment payload")
		data = nil
	}

	response := s.predictor.Predict(data)
	assessmentID := uuid.New().String()

	if !response.Error {
		if err := s.resultStore.Save(r.Context(), assessmentID, data, response); err != nil {
			logger.Log.WithError(err).Error("Failed to persist assessment")
		}
		if err := s.eventProducer.PublishEvent(r.Context(), models.EventAssessmentCompleted, "prediction-service", map[string]interface{}{
			"assessment_id": assessmentID,
			"method":        response.PredictionMethod,
			"model_version": response.ModelVersion,
		}); err != nil {
			logger.Log.WithError(err).Warn("Failed to publish assessment event")
		}
	}

	writeJSON(w, http.StatusOK, struct {
		AssessmentID string `json:"assessment_id"`
		models.PredictionResponse
	}{assessmentID, response})
}

func (s *PredictionService) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	response, err := s.resultStore.Get(r.Context(), id)
	if err != nil {
		if err == storage.ErrAssessmentNotFound {
			http.Error(w, "assessment not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("Failed to load assessment")
		http.Error(w, "failed to load assessment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// handleExtractReport runs extraction synchronously. OCR can take tens of
// seconds on multi-page scans; latency-sensitive callers should use the
// async upload endpoint instead.
func (s *PredictionService) handleExtractReport(w http.ResponseWriter, r *http.Request) {
	path, kind, ok := s.receiveUpload(w, r)
	if !ok {
		return
	}
	defer os.Remove(path)

	result := s.extractor.Extract(path, kind)
	writeJSON(w, http.StatusOK, result)
}

// handleUploadReport stores the file and queues extraction on the worker.
func (s *PredictionService) handleUploadReport(w http.ResponseWriter, r *http.Request) {
	path, kind, ok := s.receiveUpload(w, r)
	if !ok {
		return
	}

	jobID := uuid.New().String()
	err := s.uploadProducer.PublishEvent(r.Context(), models.EventReportUploaded, "prediction-service", map[string]interface{}{
		"job_id": jobID,
		"path":   path,
		"kind":   kind,
	})
	if err != nil {
		os.Remove(path)
		http.Error(w, "failed to queue extraction", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"job_id": jobID})
}

// receiveUpload validates and saves the multipart "report" file, returning
// the stored path and normalized kind. On failure it writes the HTTP error
// itself and returns ok=false.
func (s *PredictionService) receiveUpload(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("report")
	if err != nil {
		http.Error(w, "report file is required", http.StatusBadRequest)
		return "", "", false
	}
	defer file.Close()

	kind := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if declared := r.FormValue("kind"); declared != "" {
		kind = strings.ToLower(declared)
	}
	if !allowedReportKinds[kind] {
		http.Error(w, "unsupported file type, expected pdf, jpg, jpeg or png", http.StatusBadRequest)
		return "", "", false
	}

	path := filepath.Join(s.cfg.UploadDir, uuid.New().String()+"."+kind)
	out, err := os.Create(path)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to store upload")
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return "", "", false
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		logger.Log.WithError(err).Error("Failed to store upload")
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return "", "", false
	}

	return path, kind, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
