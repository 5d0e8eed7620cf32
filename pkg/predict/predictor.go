package predict

import (
	"errors"
	"os"
	"time"

	"github.com/healthpredict/platform/pkg/common/logger"
	"github.com/healthpredict/platform/pkg/common/models"
)

// Prediction method tags reported in the result envelope.
const (
	methodNeuralNetwork = "neural-network"
	methodRuleBased     = "rule-based"
	methodErrorFallback = "error-fallback"
)

const (
	modelConfidence     = 0.85
	ruleBasedConfidence = 0.75
)

// Predictor is the prediction facade. Artifacts are loaded once and
// treated as read-only afterwards, so a single Predictor is safe for
// concurrent use; each Predict call allocates its own state.
type Predictor struct {
	model   *Network
	scaler  *Scaler
	version string
}

// Load builds a Predictor from the artifact directory. It never fails:
// a missing or invalid model artifact degrades the predictor to the
// rule-based scorer for the process lifetime, logged once here rather
// than per request. A missing scaler likewise degrades to the identity
// transform.
func Load(artifactDir string) *Predictor {
	p := &Predictor{}

	artifact, err := loadModelArtifact(artifactDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Log.Info("No trained model found, using rule-based predictions")
		} else {
			logger.Log.WithError(err).Warn("Failed to load model artifact, using rule-based predictions")
		}
		return p
	}

	if _, err := loadFeatureNames(artifactDir); err != nil {
		logger.Log.WithError(err).Warn("Feature ordering mismatch, using rule-based predictions")
		return p
	}

	model, err := NewNetwork(artifact)
	if err != nil {
		logger.Log.WithError(err).Warn("Invalid model artifact, using rule-based predictions")
		return p
	}

	scaler, err := loadScaler(artifactDir)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to load feature scaler, using identity transform")
	} else {
		p.scaler = scaler
	}

	p.model = model
	p.version = artifact.Version
	if p.version == "" {
		p.version = "1.0.0"
	}

	logger.Log.WithField("model_version", p.version).Info("Loaded health risk model")
	return p
}

// ModelLoaded reports whether the trained model path is active.
func (p *Predictor) ModelLoaded() bool {
	return p.model != nil
}

// Predict converts an assessment record into the uniform result envelope.
// It never returns an error and never panics outward: any internal
// failure produces the fixed error-fallback envelope, so a user-facing
// assessment always renders something.
func (p *Predictor) Predict(data models.AssessmentData) (response models.PredictionResponse) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("panic", r).Error("Prediction failed")
			response = errorResponse()
		}
	}()

	if data == nil {
		logger.Log.Error("Prediction called with no payload")
		return errorResponse()
	}

	features := Encode(data)
	features = p.scaler.Transform(features)

	var scores Scores
	var method, version string
	var confidence float64

	start := time.Now()
	if p.model != nil {
		probabilities, err := p.model.Infer(features)
		if err != nil {
			logger.Log.WithError(err).Error("Model inference failed")
			return errorResponse()
		}
		scores = Scores{
			HeartDisease: clampScore(probabilities.HeartDisease * 100),
			Diabetes:     clampScore(probabilities.Diabetes * 100),
			Cancer:       clampScore(probabilities.Cancer * 100),
			Stroke:       clampScore(probabilities.Stroke * 100),
		}
		method = methodNeuralNetwork
		version = p.version
		confidence = modelConfidence
	} else {
		scores = RuleScores(data)
		method = methodRuleBased
		version = methodRuleBased
		confidence = ruleBasedConfidence
	}
	elapsed := time.Since(start)

	return models.PredictionResponse{
		HeartDiseaseRisk: scores.HeartDisease,
		DiabetesRisk:     scores.Diabetes,
		CancerRisk:       scores.Cancer,
		StrokeRisk:       scores.Stroke,

		HeartDiseaseCategory: Categorize(scores.HeartDisease),
		DiabetesCategory:     Categorize(scores.Diabetes),
		CancerCategory:       Categorize(scores.Cancer),
		StrokeCategory:       Categorize(scores.Stroke),

		PredictionConfidence: confidence,
		PredictionMethod:     method,
		ModelVersion:         version,
		PredictionTimeMs:     float64(elapsed.Nanoseconds()) / 1e6,

		Recommendations:   Recommendations(scores, data),
		FeatureImportance: FeatureImportance(data),
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func errorResponse() models.PredictionResponse {
	return models.PredictionResponse{
		HeartDiseaseRisk: 25.0,
		DiabetesRisk:     25.0,
		CancerRisk:       25.0,
		StrokeRisk:       25.0,

		HeartDiseaseCategory: "moderate",
		DiabetesCategory:     "moderate",
		CancerCategory:       "moderate",
		StrokeCategory:       "moderate",

		PredictionConfidence: 0.5,
		PredictionMethod:     methodErrorFallback,
		ModelVersion:         methodErrorFallback,
		PredictionTimeMs:     0,

		Recommendations:   []models.Recommendation{},
		FeatureImportance: map[string]float64{},

		Error: true,
	}
}
