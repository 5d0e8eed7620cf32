package predict

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names inside the model directory, written by the offline
// training job.
const (
	modelFileName        = "health_risk_model.json"
	scalerFileName       = "feature_scaler.json"
	featureNamesFileName = "feature_names.json"
)

// NormParams are the inference statistics of one batch-norm step.
type NormParams struct {
	Mean     []float64 `json:"mean"`
	Variance []float64 `json:"variance"`
	Gamma    []float64 `json:"gamma"`
	Beta     []float64 `json:"beta"`
}

// LayerParams is one trunk block: weights are [unit][input].
type LayerParams struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
	Norm    *NormParams `json:"batch_norm,omitempty"`
}

// HeadParams is one single-unit output head.
type HeadParams struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// ModelArtifact is the serialized model state: architecture metadata plus
// every learned parameter needed for inference.
type ModelArtifact struct {
	Version     string                `json:"version"`
	InputSize   int                   `json:"input_size"`
	HiddenSizes []int                 `json:"hidden_sizes"`
	DropoutRate float64               `json:"dropout_rate"`
	Trunk       []LayerParams         `json:"trunk"`
	Heads       map[string]HeadParams `json:"heads"`
}

func loadModelArtifact(dir string) (ModelArtifact, error) {
	var artifact ModelArtifact
	content, err := os.ReadFile(filepath.Join(dir, modelFileName))
	if err != nil {
		return artifact, err
	}
	if err := json.Unmarshal(content, &artifact); err != nil {
		return artifact, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	return artifact, nil
}

func loadScaler(dir string) (*Scaler, error) {
	content, err := os.ReadFile(filepath.Join(dir, scalerFileName))
	if err != nil {
		return nil, err
	}
	var scaler Scaler
	if err := json.Unmarshal(content, &scaler); err != nil {
		return nil, fmt.Errorf("failed to decode scaler: %w", err)
	}
	if len(scaler.Mean) != FeatureCount || len(scaler.Std) != FeatureCount {
		return nil, fmt.Errorf("scaler has %d/%d parameters, expected %d", len(scaler.Mean), len(scaler.Std), FeatureCount)
	}
	return &scaler, nil
}

func loadFeatureNames(dir string) ([]string, error) {
	content, err := os.ReadFile(filepath.Join(dir, featureNamesFileName))
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(content, &names); err != nil {
		return nil, fmt.Errorf("failed to decode feature names: %w", err)
	}
	expected := FeatureNames()
	if len(names) != len(expected) {
		return nil, fmt.Errorf("artifact lists %d features, encoder produces %d", len(names), len(expected))
	}
	for i, name := range names {
		if name != expected[i] {
			return nil, fmt.Errorf("feature %d is %q in artifact but %q in encoder", i, name, expected[i])
		}
	}
	return names, nil
}
