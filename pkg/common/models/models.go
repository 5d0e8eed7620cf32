package models

import (
	"time"

	"gorm.io/datatypes"
)

// AssessmentData is the loosely-typed clinical record submitted for a risk
// assessment. Keys follow the assessment form field names; values may be
// numbers, strings or booleans depending on how the payload was produced.
// No field is required: the encoder substitutes a documented default for
// anything missing or malformed.
type AssessmentData map[string]interface{}

// Recommendation is one personalized follow-up emitted alongside a
// prediction.
type Recommendation struct {
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

// PredictionResponse is the uniform result envelope returned for every
// prediction request, including failed ones. Scores are 0-100, categories
// one of low/moderate/high/very_high.
type PredictionResponse struct {
	HeartDiseaseRisk float64 `json:"heart_disease_risk"`
	DiabetesRisk     float64 `json:"diabetes_risk"`
	CancerRisk       float64 `json:"cancer_risk"`
	StrokeRisk       float64 `json:"stroke_risk"`

	HeartDiseaseCategory string `json:"heart_disease_category"`
	DiabetesCategory     string `json:"diabetes_category"`
	CancerCategory       string `json:"cancer_category"`
	StrokeCategory       string `json:"stroke_category"`

	PredictionConfidence float64 `json:"prediction_confidence"`
	PredictionMethod     string  `json:"prediction_method"`
	ModelVersion         string  `json:"model_version"`
	PredictionTimeMs     float64 `json:"prediction_time_ms"`

	Recommendations   []Recommendation   `json:"recommendations"`
	FeatureImportance map[string]float64 `json:"feature_importance"`

	Error bool `json:"error,omitempty"`
}

// ExtractedField is one clinical value pulled out of a lab report, with
// enough provenance for a reviewer to audit where it came from.
type ExtractedField struct {
	Value      float64 `json:"value"`
	Units      string  `json:"units"`
	Confidence float64 `json:"confidence"`
	RawLine    string  `json:"raw_line"`
	Notes      string  `json:"notes,omitempty"`
}

// ExtractionResult is the outcome of one report extraction request. Fields
// is empty and OverallConfidence 0.0 when nothing could be read.
type ExtractionResult struct {
	Fields            map[string]ExtractedField `json:"fields"`
	OverallConfidence float64                   `json:"overall_confidence"`
}

// Event is the platform's kafka message envelope.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// Event types published on the platform topics.
const (
	EventReportUploaded      = "report.uploaded"
	EventAssessmentCompleted = "assessment.completed"
)

// AssessmentRecord is the persisted form of a completed assessment: the
// submitted payload plus the envelope that was returned for it.
type AssessmentRecord struct {
	ID                   string `gorm:"type:uuid;primaryKey"`
	HeartDiseaseRisk     float64
	DiabetesRisk         float64
	CancerRisk           float64
	StrokeRisk           float64
	HeartDiseaseCategory string
	DiabetesCategory     string
	CancerCategory       string
	StrokeCategory       string
	PredictionConfidence float64
	PredictionMethod     string
	ModelVersion         string
	PredictionTimeMs     float64
	Input                datatypes.JSON `gorm:"type:jsonb"`
	Recommendations      datatypes.JSON `gorm:"type:jsonb"`
	FeatureImportance    datatypes.JSON `gorm:"type:jsonb"`
	ErrorFallback        bool
	CreatedAt            time.Time
}

func (AssessmentRecord) TableName() string {
	return "assessments"
}
