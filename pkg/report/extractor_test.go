package report

import (
	"math"
	"strings"
	"testing"
)

// stubSource feeds canned text into the pipeline so parsing is testable
// without the OCR toolchain.
type stubSource struct {
	text       string
	confidence float64
}

func (s *stubSource) ExtractPDF(string) (string, float64)   { return s.text, s.confidence }
func (s *stubSource) ExtractImage(string) (string, float64) { return s.text, s.confidence }

func newTestExtractor(t *testing.T, text string, confidence float64) *Extractor {
	t.Helper()
	extractor, err := NewExtractor(&stubSource{text: text, confidence: confidence}, DefaultRules())
	if err != nil {
		t.Fatalf("failed to build extractor: %v", err)
	}
	return extractor
}

func TestParseCompositeBloodPressure(t *testing.T) {
	extractor := newTestExtractor(t, "", 0)
	fields := extractor.Parse("Blood Pressure: 145/95")

	systolic, ok := fields["systolic_bp"]
	if !ok {
		t.Fatal("missing systolic_bp")
	}
	if systolic.Value != 145 || systolic.Units != "mmHg" || systolic.Confidence != 0.9 {
		t.Fatalf("systolic = %+v, want 145 mmHg at 0.9", systolic)
	}
	diastolic := fields["diastolic_bp"]
	if diastolic.Value != 95 {
		t.Fatalf("diastolic = %v, want 95", diastolic.Value)
	}
	if systolic.RawLine != "Blood Pressure: 145/95" {
		t.Fatalf("raw line = %q, want source line", systolic.RawLine)
	}
}

func TestParseIndependentPatternsTakePriority(t *testing.T) {
	extractor := newTestExtractor(t, "", 0)
	fields := extractor.Parse("Systolic: 120\nBP: 145/95")

	if fields["systolic_bp"].Value != 120 {
		t.Fatalf("systolic = %v, want independent match 120", fields["systolic_bp"].Value)
	}
	// Composite fills only the gap the independent patterns left.
	if fields["diastolic_bp"].Value != 95 {
		t.Fatalf("diastolic = %v, want composite 95", fields["diastolic_bp"].Value)
	}
}

func TestParseFahrenheitConversion(t *testing.T) {
	extractor := newTestExtractor(t, "", 0)
	fields := extractor.Parse("Temp: 98.6")

	temperature, ok := fields["temperature"]
	if !ok {
		t.Fatal("missing temperature")
	}
	if temperature.Value != 37.0 {
		t.Fatalf("temperature = %v, want 37.0 after Fahrenheit conversion", temperature.Value)
	}
	if temperature.Units != "°C" {
		t.Fatalf("temperature units = %q, want °C", temperature.Units)
	}
}

func TestParseHbA1cRescale(t *testing.T) {
	extractor := newTestExtractor(t, "", 0)
	fields := extractor.Parse("HbA1c: 56")

	hba1c, ok := fields["hba1c"]
	if !ok {
		t.Fatal("missing hba1c")
	}
	if hba1c.Value != 5.6 {
		t.Fatalf("hba1c = %v, want 5.6 after decimal rescale", hba1c.Value)
	}
}

func TestParseGlucoseFieldRename(t *testing.T) {
	extractor := newTestExtractor(t, "", 0)
	fields := extractor.Parse("Glucose: 110 mg/dL")

	if _, ok := fields["glucose"]; ok {
		t.Fatal("glucose should be stored as fasting_glucose")
	}
	glucose, ok := fields["fasting_glucose"]
	if !ok {
		t.Fatal("missing fasting_glucose")
	}
	if glucose.Value != 110 || glucose.Units != "mg/dL" {
		t.Fatalf("fasting_glucose = %+v, want 110 mg/dL", glucose)
	}
}

func TestParseFirstMatchingLineWins(t *testing.T) {
	extractor := newTestExtractor(t, "", 0)
	fields := extractor.Parse("Pulse: 72\nHeart Rate: 90")

	if fields["heart_rate"].Value != 72 {
		t.Fatalf("heart_rate = %v, want first match 72", fields["heart_rate"].Value)
	}
}

func TestExtractValidationDowngradesOutOfRange(t *testing.T) {
	extractor := newTestExtractor(t, "Glucose: 600", 0.9)

	result := extractor.Extract("report.pdf", "pdf")
	glucose, ok := result.Fields["fasting_glucose"]
	if !ok {
		t.Fatal("out-of-range value should be retained, not dropped")
	}
	if glucose.Value != 600 {
		t.Fatalf("glucose = %v, want retained 600", glucose.Value)
	}
	if glucose.Confidence != 0.3 {
		t.Fatalf("glucose confidence = %v, want downgraded 0.3", glucose.Confidence)
	}
	if !strings.Contains(glucose.Notes, "70-500") {
		t.Fatalf("glucose notes = %q, want range annotation", glucose.Notes)
	}
}

func TestExtractInjectsDefaults(t *testing.T) {
	extractor := newTestExtractor(t, "Glucose: 110", 0.9)

	result := extractor.Extract("report.pdf", "pdf")
	stress, ok := result.Fields["stress_level"]
	if !ok {
		t.Fatal("missing stress_level default")
	}
	if stress.Value != 5 || stress.Confidence != 1.0 || stress.Notes != "default value" {
		t.Fatalf("stress_level default = %+v", stress)
	}
	sleep := result.Fields["sleep_hours"]
	if sleep.Value != 7.0 {
		t.Fatalf("sleep_hours default = %v, want 7.0", sleep.Value)
	}
}

func TestExtractOverallConfidence(t *testing.T) {
	extractor := newTestExtractor(t, "Glucose: 100\nHDL: 50\nLDL: 130", 0.9)

	result := extractor.Extract("report.pdf", "pdf")

	// Three fields found (defaults excluded): 0.9*0.4 + (3/12)*0.6 = 0.51.
	if math.Abs(result.OverallConfidence-0.51) > 1e-9 {
		t.Fatalf("overall confidence = %v, want 0.51", result.OverallConfidence)
	}
}

func TestExtractFailureYieldsEmptyResult(t *testing.T) {
	extractor := newTestExtractor(t, "", 0.0)

	result := extractor.Extract("missing.pdf", "pdf")
	if len(result.Fields) != 0 {
		t.Fatalf("expected no fields on extraction failure, got %d", len(result.Fields))
	}
	if result.OverallConfidence != 0.0 {
		t.Fatalf("overall confidence = %v, want 0.0", result.OverallConfidence)
	}
}

func TestExtractImageKind(t *testing.T) {
	extractor := newTestExtractor(t, "Heart Rate: 88", 0.8)

	result := extractor.Extract("scan.jpg", "jpg")
	if result.Fields["heart_rate"].Value != 88 {
		t.Fatalf("heart_rate = %v, want 88", result.Fields["heart_rate"].Value)
	}
}
