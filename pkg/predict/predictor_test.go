package predict

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/healthpredict/platform/pkg/common/models"
)

func writeArtifacts(t *testing.T, dir string, artifact ModelArtifact) {
	t.Helper()

	modelJSON, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("failed to marshal model: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, modelFileName), modelJSON, 0o644); err != nil {
		t.Fatalf("failed to write model: %v", err)
	}

	scaler := Scaler{Mean: make([]float64, FeatureCount), Std: make([]float64, FeatureCount)}
	for i := range scaler.Std {
		scaler.Std[i] = 1
	}
	scalerJSON, err := json.Marshal(scaler)
	if err != nil {
		t.Fatalf("failed to marshal scaler: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, scalerFileName), scalerJSON, 0o644); err != nil {
		t.Fatalf("failed to write scaler: %v", err)
	}

	namesJSON, err := json.Marshal(FeatureNames())
	if err != nil {
		t.Fatalf("failed to marshal feature names: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, featureNamesFileName), namesJSON, 0o644); err != nil {
		t.Fatalf("failed to write feature names: %v", err)
	}
}

func TestLoadWithoutArtifactsFallsBack(t *testing.T) {
	predictor := Load(t.TempDir())
	if predictor.ModelLoaded() {
		t.Fatal("expected rule-based fallback with empty artifact directory")
	}

	response := predictor.Predict(models.AssessmentData{"age": 70, "smoking_status": "current"})
	if response.Error {
		t.Fatal("fallback prediction should not set the error flag")
	}
	if response.PredictionMethod != "rule-based" || response.ModelVersion != "rule-based" {
		t.Fatalf("method/version = %q/%q, want rule-based", response.PredictionMethod, response.ModelVersion)
	}
	if response.PredictionConfidence != 0.75 {
		t.Fatalf("confidence = %v, want 0.75", response.PredictionConfidence)
	}
}

func TestPredictNilPayload(t *testing.T) {
	predictor := Load(t.TempDir())

	response := predictor.Predict(nil)
	if !response.Error {
		t.Fatal("expected error flag for nil payload")
	}
	if response.HeartDiseaseRisk != 25.0 || response.DiabetesRisk != 25.0 ||
		response.CancerRisk != 25.0 || response.StrokeRisk != 25.0 {
		t.Fatalf("error envelope risks = %+v, want 25.0 each", response)
	}
	if response.HeartDiseaseCategory != "moderate" {
		t.Fatalf("error envelope category = %q, want moderate", response.HeartDiseaseCategory)
	}
	if response.PredictionConfidence != 0.5 || response.PredictionMethod != "error-fallback" {
		t.Fatalf("error envelope confidence/method = %v/%q", response.PredictionConfidence, response.PredictionMethod)
	}
	if len(response.Recommendations) != 0 {
		t.Fatalf("error envelope should carry no recommendations, got %d", len(response.Recommendations))
	}
}

func TestPredictIdempotent(t *testing.T) {
	predictor := Load(t.TempDir())
	data := models.AssessmentData{
		"age":             55,
		"systolic_bp":     145,
		"fasting_glucose": 118,
		"smoking_status":  "former",
		"bmi":             28.0,
	}

	first := predictor.Predict(data)
	second := predictor.Predict(data)

	// Latency varies per call; everything else must be identical.
	first.PredictionTimeMs = 0
	second.PredictionTimeMs = 0
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different envelopes:\n%+v\n%+v", first, second)
	}
}

func TestPredictWithModelArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, passthroughArtifact())

	predictor := Load(dir)
	if !predictor.ModelLoaded() {
		t.Fatal("expected model path with valid artifacts")
	}

	response := predictor.Predict(models.AssessmentData{})
	if response.Error {
		t.Fatal("model prediction should not set the error flag")
	}
	if response.PredictionMethod != "neural-network" {
		t.Fatalf("method = %q, want neural-network", response.PredictionMethod)
	}
	if response.ModelVersion != "test" {
		t.Fatalf("model version = %q, want test", response.ModelVersion)
	}
	if response.PredictionConfidence != 0.85 {
		t.Fatalf("confidence = %v, want 0.85", response.PredictionConfidence)
	}
	// All features default to 0 and the test heads are zero-weighted, so
	// every score is sigmoid(0)*100 = 50.
	if response.DiabetesRisk != 50 || response.CancerRisk != 50 || response.StrokeRisk != 50 {
		t.Fatalf("zero-model risks = %+v, want 50", response)
	}
	if response.DiabetesCategory != "high" {
		t.Fatalf("category at score 50 = %q, want high", response.DiabetesCategory)
	}
	if response.PredictionTimeMs < 0 {
		t.Fatalf("latency = %v, want non-negative", response.PredictionTimeMs)
	}
}

func TestLoadRejectsInputSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	artifact := passthroughArtifact()
	artifact.InputSize = FeatureCount - 1
	writeArtifacts(t, dir, artifact)

	predictor := Load(dir)
	if predictor.ModelLoaded() {
		t.Fatal("expected fallback when artifact input size mismatches encoder")
	}
}

func TestLoadRejectsReorderedFeatureNames(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, passthroughArtifact())

	names := FeatureNames()
	names[0], names[1] = names[1], names[0]
	namesJSON, _ := json.Marshal(names)
	if err := os.WriteFile(filepath.Join(dir, featureNamesFileName), namesJSON, 0o644); err != nil {
		t.Fatalf("failed to overwrite feature names: %v", err)
	}

	predictor := Load(dir)
	if predictor.ModelLoaded() {
		t.Fatal("expected fallback when artifact feature ordering mismatches encoder")
	}
}
