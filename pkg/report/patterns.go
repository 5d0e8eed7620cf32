package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FieldRule describes how one clinical field is recognized in report
// text. Pattern must contain one capture group for the value; Decimal
// controls whether fractional values are kept or the match is parsed as
// an integer reading.
type FieldRule struct {
	Field   string `yaml:"field" json:"field"`
	Pattern string `yaml:"pattern" json:"pattern"`
	Units   string `yaml:"units" json:"units"`
	Decimal bool   `yaml:"decimal" json:"decimal"`
}

// Range is the plausible window for a parsed value. Values outside it are
// kept but flagged.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// RulesConfig is the extraction rule table. The composite blood-pressure
// pattern needs two capture groups (systolic, diastolic) and only fills
// gaps the independent patterns left.
type RulesConfig struct {
	Fields               []FieldRule      `yaml:"fields" json:"fields"`
	BloodPressurePattern string           `yaml:"blood_pressure_pattern" json:"blood_pressure_pattern"`
	Ranges               map[string]Range `yaml:"ranges" json:"ranges"`
}

// LoadRules reads a rule table from a YAML file, or returns the built-in
// defaults when no path is configured.
func LoadRules(path string) (RulesConfig, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRules(), err
	}

	var cfg RulesConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return RulesConfig{}, err
	}

	if len(cfg.Fields) == 0 {
		return RulesConfig{}, errors.New("no extraction rules configured")
	}
	if cfg.BloodPressurePattern == "" {
		cfg.BloodPressurePattern = DefaultRules().BloodPressurePattern
	}
	if cfg.Ranges == nil {
		cfg.Ranges = DefaultRules().Ranges
	}

	return cfg, nil
}

// DefaultRules covers the lab-report vocabulary the assessment form
// consumes. Patterns are applied case-insensitively, one line at a time.
func DefaultRules() RulesConfig {
	return RulesConfig{
		Fields: []FieldRule{
			{Field: "systolic_bp", Pattern: `(?:Systolic|SBP)[:\s]*(\d{2,3})`, Units: "mmHg"},
			{Field: "diastolic_bp", Pattern: `(?:Diastolic|DBP)[:\s]*(\d{2,3})`, Units: "mmHg"},
			{Field: "fasting_glucose", Pattern: `(?:Glucose|FBS|Fasting\s+Blood\s+Sugar)[:\s]*(\d{2,3})`, Units: "mg/dL"},
			{Field: "hba1c", Pattern: `(?:HbA1c|A1C|Hemoglobin\s+A1C)[:\s]*(\d+\.?\d*)`, Units: "%", Decimal: true},
			{Field: "total_cholesterol", Pattern: `(?:Total\s+Cholesterol|TC)[:\s]*(\d{2,3})`, Units: "mg/dL"},
			{Field: "hdl_cholesterol", Pattern: `(?:HDL|HDL-C)[:\s]*(\d{2,3})`, Units: "mg/dL"},
			{Field: "ldl_cholesterol", Pattern: `(?:LDL|LDL-C)[:\s]*(\d{2,3})`, Units: "mg/dL"},
			{Field: "triglycerides", Pattern: `(?:Triglycerides|TG)[:\s]*(\d{2,4})`, Units: "mg/dL"},
			{Field: "heart_rate", Pattern: `(?:Heart\s+Rate|HR|Pulse)[:\s]*(\d{2,3})`, Units: "bpm"},
			{Field: "temperature", Pattern: `(?:Temperature|Temp)[:\s]*(\d{2,3}\.?\d*)`, Units: "°C", Decimal: true},
			{Field: "creatinine", Pattern: `(?:Creatinine|Cr)[:\s]*(\d+\.?\d*)`, Units: "mg/dL", Decimal: true},
			{Field: "hemoglobin", Pattern: `(?:Hemoglobin|Hb|Hgb)[:\s]*(\d{1,2}\.?\d*)`, Units: "g/dL", Decimal: true},
		},
		BloodPressurePattern: `(?:BP|Blood\s+Pressure)[:\s]*(\d{2,3})\s*/\s*(\d{2,3})`,
		Ranges: map[string]Range{
			"systolic_bp":       {Min: 70, Max: 250},
			"diastolic_bp":      {Min: 40, Max: 150},
			"fasting_glucose":   {Min: 70, Max: 500},
			"hba1c":             {Min: 4.0, Max: 15.0},
			"total_cholesterol": {Min: 100, Max: 400},
			"hdl_cholesterol":   {Min: 20, Max: 100},
			"ldl_cholesterol":   {Min: 50, Max: 300},
			"triglycerides":     {Min: 50, Max: 1000},
			"heart_rate":        {Min: 40, Max: 200},
			"temperature":       {Min: 30, Max: 45},
			"creatinine":        {Min: 0.3, Max: 5.0},
			"hemoglobin":        {Min: 8.0, Max: 20.0},
		},
	}
}

type compiledRule struct {
	rule FieldRule
	re   *regexp.Regexp
}

type compiledRules struct {
	fields        []compiledRule
	bloodPressure *regexp.Regexp
	ranges        map[string]Range
}

func compileRules(cfg RulesConfig) (*compiledRules, error) {
	compiled := &compiledRules{ranges: cfg.Ranges}
	for _, rule := range cfg.Fields {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for %s: %w", rule.Field, err)
		}
		compiled.fields = append(compiled.fields, compiledRule{rule: rule, re: re})
	}
	re, err := regexp.Compile("(?i)" + cfg.BloodPressurePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid blood pressure pattern: %w", err)
	}
	compiled.bloodPressure = re
	return compiled, nil
}
