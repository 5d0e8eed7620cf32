package predict

import (
	"math"

	"github.com/healthpredict/platform/pkg/common/models"
)

// Categorize maps a 0-100 risk score onto its band. The four bands
// partition the scale at 20/50/75.
func Categorize(score float64) string {
	switch {
	case score < 20:
		return "low"
	case score < 50:
		return "moderate"
	case score < 75:
		return "high"
	default:
		return "very_high"
	}
}

// Recommendations builds the personalized follow-up list: condition
// recommendations for any score of 50 or more, plus unconditional
// lifestyle ones on cross-cutting signals.
func Recommendations(scores Scores, data models.AssessmentData) []models.Recommendation {
	recommendations := []models.Recommendation{}

	if scores.HeartDisease >= 50 {
		recommendations = append(recommendations, models.Recommendation{
			Category:    "Cardiovascular",
			Priority:    priorityFor(scores.HeartDisease),
			Title:       "Cardiovascular Health Assessment",
			Description: "Consider consulting a cardiologist for comprehensive heart health evaluation.",
			Actions:     []string{"Schedule cardiology consultation", "Monitor blood pressure regularly", "Consider stress testing"},
		})
	}

	if scores.Diabetes >= 50 {
		recommendations = append(recommendations, models.Recommendation{
			Category:    "Endocrine",
			Priority:    priorityFor(scores.Diabetes),
			Title:       "Diabetes Risk Management",
			Description: "Lifestyle modifications and glucose monitoring are recommended.",
			Actions:     []string{"Consult endocrinologist", "Implement diabetic diet", "Monitor blood glucose levels"},
		})
	}

	if scores.Cancer >= 50 {
		recommendations = append(recommendations, models.Recommendation{
			Category:    "Oncology",
			Priority:    priorityFor(scores.Cancer),
			Title:       "Cancer Screening",
			Description: "Age and risk-factor appropriate cancer screening is advised.",
			Actions:     []string{"Discuss screening schedule with physician", "Review family history with specialist"},
		})
	}

	if scores.Stroke >= 50 {
		recommendations = append(recommendations, models.Recommendation{
			Category:    "Neurology",
			Priority:    priorityFor(scores.Stroke),
			Title:       "Stroke Risk Reduction",
			Description: "Blood pressure and cardiovascular risk control reduce stroke likelihood.",
			Actions:     []string{"Control blood pressure", "Review anticoagulation need with physician"},
		})
	}

	if numericValue(data["bmi"]) > 25 {
		recommendations = append(recommendations, models.Recommendation{
			Category:    "Lifestyle",
			Priority:    "medium",
			Title:       "Weight Management",
			Description: "Achieving a healthy weight can reduce multiple health risks.",
			Actions:     []string{"Consult nutritionist", "Increase physical activity", "Monitor caloric intake"},
		})
	}

	if smoking := stringValue(data["smoking_status"]); smoking == "current" || smoking == "former" {
		recommendations = append(recommendations, models.Recommendation{
			Category:    "Lifestyle",
			Priority:    "high",
			Title:       "Smoking Cessation",
			Description: "Quitting smoking significantly reduces cardiovascular and cancer risks.",
			Actions:     []string{"Join smoking cessation program", "Consider nicotine replacement therapy", "Seek behavioral support"},
		})
	}

	return recommendations
}

func priorityFor(score float64) string {
	if score >= 75 {
		return "high"
	}
	return "medium"
}

// FeatureImportance is a simplified, illustrative attribution over the
// inputs a reader cares most about. It is not a model explanation.
func FeatureImportance(data models.AssessmentData) map[string]float64 {
	importance := make(map[string]float64, 4)

	importance["age"] = math.Min(numericValue(data["age"])/100, 1.0) * 100
	importance["blood_pressure"] = math.Min(numericValue(data["systolic_bp"])/180, 1.0) * 100
	importance["bmi"] = math.Min(math.Max(numericValue(data["bmi"])-25, 0)/15, 1.0) * 100
	importance["glucose"] = math.Min(math.Max(numericValue(data["fasting_glucose"])-100, 0)/200, 1.0) * 100

	return importance
}
