package report

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRulesCompile(t *testing.T) {
	compiled, err := compileRules(DefaultRules())
	if err != nil {
		t.Fatalf("default rules failed to compile: %v", err)
	}
	if len(compiled.fields) != 12 {
		t.Fatalf("expected 12 field rules, got %d", len(compiled.fields))
	}
	if compiled.bloodPressure == nil {
		t.Fatal("missing composite blood pressure pattern")
	}
	if _, ok := compiled.ranges["hba1c"]; !ok {
		t.Fatal("missing hba1c plausible range")
	}
}

func TestLoadRulesDefaultsWithoutPath(t *testing.T) {
	cfg, err := LoadRules("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Fields) != len(DefaultRules().Fields) {
		t.Fatalf("expected default field set, got %d rules", len(cfg.Fields))
	}
}

func TestLoadRulesOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `fields:
  - field: fasting_glucose
    pattern: 'Sugar[:\s]*(\d{2,3})'
    units: mg/dL
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	cfg, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Fields) != 1 || cfg.Fields[0].Field != "fasting_glucose" {
		t.Fatalf("unexpected fields: %+v", cfg.Fields)
	}
	// Missing sections fall back to the defaults.
	if cfg.BloodPressurePattern == "" {
		t.Fatal("blood pressure pattern should default")
	}
	if len(cfg.Ranges) == 0 {
		t.Fatal("ranges should default")
	}

	extractor, err := NewExtractor(&stubSource{}, cfg)
	if err != nil {
		t.Fatalf("override rules failed to compile: %v", err)
	}
	fields := extractor.Parse("Sugar: 140")
	if fields["fasting_glucose"].Value != 140 {
		t.Fatalf("fasting_glucose = %v, want 140 via override pattern", fields["fasting_glucose"].Value)
	}
}

func TestLoadRulesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("fields: []\n"), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Fatal("expected error for empty rule set")
	}
}

func TestCompileRulesRejectsBadPattern(t *testing.T) {
	cfg := DefaultRules()
	cfg.Fields[0].Pattern = `([unclosed`
	if _, err := compileRules(cfg); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
