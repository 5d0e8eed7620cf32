package predict

import (
	"strconv"
	"strings"

	"github.com/healthpredict/platform/pkg/common/models"
)

// Feature ordering is a contract shared with the fitted scaler and the
// trained model: numeric fields first, then categorical ordinals, then
// binary flags. Reordering anything here invalidates every artifact
// trained against the old layout.
var numericFeatures = []string{
	"age", "bmi", "systolic_bp", "diastolic_bp", "heart_rate", "temperature",
	"total_cholesterol", "hdl_cholesterol", "ldl_cholesterol", "triglycerides",
	"fasting_glucose", "hba1c", "creatinine", "hemoglobin",
	"stress_level", "sleep_hours",
}

var categoricalFeatures = []string{
	"gender", "smoking_status", "alcohol_consumption", "exercise_level", "family_medical_history",
}

var binaryFeatures = []string{
	"chest_pain", "shortness_of_breath", "fatigue", "frequent_urination",
	"excessive_thirst", "unexplained_weight_loss", "blurred_vision",
	"dizziness", "palpitations",
}

// FeatureCount is the fixed width of every encoded vector.
const FeatureCount = 30

var categoricalMappings = map[string]map[string]float64{
	"gender":              {"male": 0, "female": 1, "other": 2},
	"smoking_status":      {"never": 0, "former": 1, "current": 2},
	"alcohol_consumption": {"never": 0, "occasional": 1, "moderate": 2, "heavy": 3},
	"exercise_level":      {"sedentary": 0, "light": 1, "moderate": 2, "vigorous": 3},
}

var familyHistoryMapping = map[string]float64{
	"none": 0, "heart_disease": 1, "diabetes": 2, "cancer": 3, "multiple": 4,
}

// FeatureNames returns the full ordering, matching the layout produced by
// Encode. The slice is fresh on every call.
func FeatureNames() []string {
	names := make([]string, 0, FeatureCount)
	names = append(names, numericFeatures...)
	names = append(names, categoricalFeatures...)
	names = append(names, binaryFeatures...)
	return names
}

// Encode maps a loosely-typed assessment record onto the fixed 30-slot
// feature vector. Missing or malformed values degrade to the slot default
// (0); Encode never fails.
func Encode(data models.AssessmentData) []float64 {
	features := make([]float64, 0, FeatureCount)

	for _, name := range numericFeatures {
		features = append(features, numericValue(data[name]))
	}

	for _, name := range categoricalFeatures {
		if name == "family_medical_history" {
			features = append(features, familyHistoryOrdinal(data[name]))
			continue
		}
		features = append(features, categoricalMappings[name][stringValue(data[name])])
	}

	for _, name := range binaryFeatures {
		if truthy(data[name]) {
			features = append(features, 1)
		} else {
			features = append(features, 0)
		}
	}

	return features
}

// familyHistoryOrdinal collapses both accepted payload shapes onto one
// ordinal scale: a string enum, or a condition→flag mapping whose true
// count decides the value (0 none, 1 the specific condition, 2+ multiple).
func familyHistoryOrdinal(value interface{}) float64 {
	switch v := value.(type) {
	case string:
		return familyHistoryMapping[strings.ToLower(strings.TrimSpace(v))]
	case map[string]bool:
		generic := make(map[string]interface{}, len(v))
		for k, b := range v {
			generic[k] = b
		}
		return familyHistoryOrdinal(generic)
	case map[string]interface{}:
		count := 0
		for _, flag := range v {
			if truthy(flag) {
				count++
			}
		}
		switch {
		case count == 0:
			return 0
		case count == 1:
			if truthy(v["heart_disease"]) {
				return 1
			}
			if truthy(v["diabetes"]) {
				return 2
			}
			if truthy(v["cancer"]) {
				return 3
			}
			return 1
		default:
			return 4
		}
	default:
		return 0
	}
}

func numericValue(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func stringValue(value interface{}) string {
	s, _ := value.(string)
	return strings.ToLower(strings.TrimSpace(s))
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "0", "false", "no", "off", "none":
			return false
		default:
			return true
		}
	default:
		return false
	}
}
