package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/healthpredict/platform/pkg/common/logger"
	"github.com/healthpredict/platform/pkg/common/models"
)

// Confidence assigned to every successful pattern match; the plausibility
// check downgrades it for out-of-range readings.
const (
	matchConfidence     = 0.9
	downgradeConfidence = 0.3
)

// expectedFieldCount is the approximate number of key vitals a complete
// lab report carries, used for the completeness half of the overall
// confidence.
const expectedFieldCount = 12

// TextSource acquires raw text from an uploaded report. Both methods
// return the extracted text and a confidence in [0,1]; failures yield
// ("", 0.0) rather than an error so the extractor can degrade uniformly.
type TextSource interface {
	ExtractPDF(path string) (string, float64)
	ExtractImage(path string) (string, float64)
}

// Extractor pulls structured clinical fields out of unstructured lab
// reports: text acquisition, line-by-line pattern matching, unit
// normalization, plausibility validation and form defaults.
type Extractor struct {
	rules  *compiledRules
	source TextSource
}

func NewExtractor(source TextSource, cfg RulesConfig) (*Extractor, error) {
	rules, err := compileRules(cfg)
	if err != nil {
		return nil, err
	}
	return &Extractor{rules: rules, source: source}, nil
}

// Extract runs the full pipeline for one uploaded file. Kind is one of
// pdf, jpg, jpeg, png. An unreadable file produces an empty field map and
// zero confidence; the caller falls back to manual entry.
func (e *Extractor) Extract(path string, kind string) models.ExtractionResult {
	var text string
	var ocrConfidence float64

	if strings.EqualFold(kind, "pdf") {
		text, ocrConfidence = e.source.ExtractPDF(path)
	} else {
		text, ocrConfidence = e.source.ExtractImage(path)
	}

	if strings.TrimSpace(text) == "" {
		return models.ExtractionResult{Fields: map[string]models.ExtractedField{}, OverallConfidence: 0.0}
	}

	fields := e.Parse(text)
	e.validate(fields)
	injectDefaults(fields)

	found := 0
	for name := range fields {
		if name != "stress_level" && name != "sleep_hours" {
			found++
		}
	}
	completeness := math.Min(float64(found)/expectedFieldCount, 1.0)
	overall := ocrConfidence*0.4 + completeness*0.6

	logger.Log.WithFields(map[string]interface{}{
		"fields_found": found,
		"confidence":   overall,
	}).Info("Parsed medical values from report")

	return models.ExtractionResult{
		Fields:            fields,
		OverallConfidence: math.Round(overall*100) / 100,
	}
}

// Parse scans the text line by line against the rule table. The first
// matching line wins per field; the composite blood-pressure pattern runs
// afterwards and only fills gaps the independent patterns left.
func (e *Extractor) Parse(text string) map[string]models.ExtractedField {
	fields := make(map[string]models.ExtractedField)
	lines := strings.Split(text, "\n")

	for _, compiled := range e.rules.fields {
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			match := compiled.re.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			value, ok := parseReading(match[1], compiled.rule.Decimal)
			if !ok {
				continue
			}
			value = normalize(compiled.rule.Field, value)
			fields[compiled.rule.Field] = models.ExtractedField{
				Value:      value,
				Units:      compiled.rule.Units,
				Confidence: matchConfidence,
				RawLine:    strings.TrimSpace(line),
			}
			break
		}
	}

	_, haveSystolic := fields["systolic_bp"]
	_, haveDiastolic := fields["diastolic_bp"]
	if !haveSystolic || !haveDiastolic {
		for _, line := range lines {
			match := e.rules.bloodPressure.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			systolic, okS := parseReading(match[1], false)
			diastolic, okD := parseReading(match[2], false)
			if !okS || !okD {
				continue
			}
			raw := strings.TrimSpace(line)
			if !haveSystolic {
				fields["systolic_bp"] = models.ExtractedField{Value: systolic, Units: "mmHg", Confidence: matchConfidence, RawLine: raw}
			}
			if !haveDiastolic {
				fields["diastolic_bp"] = models.ExtractedField{Value: diastolic, Units: "mmHg", Confidence: matchConfidence, RawLine: raw}
			}
			break
		}
	}

	return fields
}

// parseReading converts a captured value. Integer readings reject
// fractional text the same way a strict integer parse would, so a
// mismatched line keeps being scanned rather than storing a mangled
// value.
func parseReading(raw string, decimal bool) (float64, bool) {
	if decimal {
		value, err := strconv.ParseFloat(raw, 64)
		return value, err == nil
	}
	value, err := strconv.Atoi(raw)
	return float64(value), err == nil
}

// normalize fixes the two systematic unit problems seen in scanned
// reports: Fahrenheit temperatures and HbA1c values mis-scaled by one
// decimal.
func normalize(field string, value float64) float64 {
	switch field {
	case "temperature":
		if value > 50 {
			return math.Round((value-32)*5/9*10) / 10
		}
	case "hba1c":
		if value > 15 {
			return value / 10
		}
	}
	return value
}

// validate checks each parsed value against its plausible range.
// Implausible readings are kept for clinician review, with downgraded
// confidence and an explanatory note.
func (e *Extractor) validate(fields map[string]models.ExtractedField) {
	for name, field := range fields {
		bounds, ok := e.rules.ranges[name]
		if !ok {
			continue
		}
		if field.Value < bounds.Min || field.Value > bounds.Max {
			logger.Log.WithFields(map[string]interface{}{
				"field": name,
				"value": field.Value,
			}).Warn("Extracted value outside plausible range")
			field.Confidence = downgradeConfidence
			field.Notes = fmt.Sprintf("Value outside normal range (%s-%s)",
				strconv.FormatFloat(bounds.Min, 'g', -1, 64),
				strconv.FormatFloat(bounds.Max, 'g', -1, 64))
			fields[name] = field
		}
	}
}

// injectDefaults guarantees the downstream form always has wellness
// values to pre-fill.
func injectDefaults(fields map[string]models.ExtractedField) {
	defaults := map[string]float64{
		"stress_level": 5,
		"sleep_hours":  7.0,
	}
	for name, value := range defaults {
		if _, ok := fields[name]; !ok {
			fields[name] = models.ExtractedField{
				Value:      value,
				Confidence: 1.0,
				Notes:      "default value",
			}
		}
	}
}
