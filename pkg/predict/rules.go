package predict

import (
	"math"

	"github.com/healthpredict/platform/pkg/common/models"
)

// RuleScores is the deterministic fallback used when no trained model is
// loaded: an additive point system per condition with fixed threshold
// bands, capped at 100. Stroke is derived from the heart-disease and
// diabetes totals rather than accumulated on its own.
func RuleScores(data models.AssessmentData) Scores {
	var heart float64
	age := numericValue(data["age"])
	if age > 65 {
		heart += 15
	} else if age > 45 {
		heart += 8
	}
	if numericValue(data["systolic_bp"]) > 140 || numericValue(data["diastolic_bp"]) > 90 {
		heart += 20
	} else if numericValue(data["systolic_bp"]) > 130 || numericValue(data["diastolic_bp"]) > 80 {
		heart += 10
	}
	cholesterol := numericValue(data["total_cholesterol"])
	if cholesterol > 240 {
		heart += 15
	} else if cholesterol > 200 {
		heart += 8
	}
	smoking := stringValue(data["smoking_status"])
	if smoking == "current" {
		heart += 25
	} else if smoking == "former" {
		heart += 10
	}
	if truthy(data["chest_pain"]) || truthy(data["shortness_of_breath"]) {
		heart += 20
	}

	var diabetes float64
	glucose := numericValue(data["fasting_glucose"])
	if glucose > 126 {
		diabetes += 30
	} else if glucose > 100 {
		diabetes += 15
	}
	hba1c := numericValue(data["hba1c"])
	if hba1c > 6.5 {
		diabetes += 25
	} else if hba1c > 5.7 {
		diabetes += 12
	}
	bmi := numericValue(data["bmi"])
	if bmi > 30 {
		diabetes += 20
	} else if bmi > 25 {
		diabetes += 10
	}
	if truthy(data["frequent_urination"]) || truthy(data["excessive_thirst"]) {
		diabetes += 15
	}

	var cancer float64
	if age > 60 {
		cancer += 15
	} else if age > 40 {
		cancer += 8
	}
	if smoking == "current" {
		cancer += 35
	} else if smoking == "former" {
		cancer += 15
	}
	// Ordinal 3 is cancer, 4 is multiple; works for both accepted
	// family-history shapes.
	if ordinal := familyHistoryOrdinal(data["family_medical_history"]); ordinal >= 3 {
		cancer += 20
	}

	heart = math.Min(100, heart)
	diabetes = math.Min(100, diabetes)
	cancer = math.Min(100, cancer)
	stroke := math.Min(100, math.Max(heart*0.7, diabetes*0.6))

	return Scores{
		HeartDisease: heart,
		Diabetes:     diabetes,
		Cancer:       cancer,
		Stroke:       stroke,
	}
}
