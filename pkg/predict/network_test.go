package predict

import (
	"math"
	"testing"
)

// passthroughArtifact builds the smallest valid model: one hidden unit
// wired to the first feature, with only the heart head connected.
func passthroughArtifact() ModelArtifact {
	row := make([]float64, FeatureCount)
	row[0] = 1
	return ModelArtifact{
		Version:     "test",
		InputSize:   FeatureCount,
		HiddenSizes: []int{1},
		Trunk: []LayerParams{
			{Weights: [][]float64{row}, Bias: []float64{0}},
		},
		Heads: map[string]HeadParams{
			"heart_disease": {Weights: []float64{1}},
			"diabetes":      {Weights: []float64{0}},
			"cancer":        {Weights: []float64{0}},
			"stroke":        {Weights: []float64{0}},
		},
	}
}

func TestNetworkForwardPass(t *testing.T) {
	network, err := NewNetwork(passthroughArtifact())
	if err != nil {
		t.Fatalf("failed to build network: %v", err)
	}

	features := make([]float64, FeatureCount)
	features[0] = 0.7

	scores, err := network.Infer(features)
	if err != nil {
		t.Fatalf("inference failed: %v", err)
	}

	want := 1 / (1 + math.Exp(-0.7))
	if math.Abs(scores.HeartDisease-want) > 1e-12 {
		t.Fatalf("heart probability = %v, want sigmoid(0.7) = %v", scores.HeartDisease, want)
	}
	// Disconnected heads sit at sigmoid(0).
	if scores.Diabetes != 0.5 || scores.Cancer != 0.5 || scores.Stroke != 0.5 {
		t.Fatalf("disconnected heads = %+v, want 0.5 each", scores)
	}
}

func TestNetworkReLUClampsNegatives(t *testing.T) {
	network, err := NewNetwork(passthroughArtifact())
	if err != nil {
		t.Fatalf("failed to build network: %v", err)
	}

	features := make([]float64, FeatureCount)
	features[0] = -0.7

	scores, err := network.Infer(features)
	if err != nil {
		t.Fatalf("inference failed: %v", err)
	}
	if scores.HeartDisease != 0.5 {
		t.Fatalf("heart probability = %v, want sigmoid(0) after ReLU clamp", scores.HeartDisease)
	}
}

func TestNetworkBatchNorm(t *testing.T) {
	artifact := passthroughArtifact()
	artifact.Trunk[0].Norm = &NormParams{
		Mean:     []float64{0.2},
		Variance: []float64{1 - normEpsilon},
		Gamma:    []float64{2},
		Beta:     []float64{0.1},
	}

	network, err := NewNetwork(artifact)
	if err != nil {
		t.Fatalf("failed to build network: %v", err)
	}

	features := make([]float64, FeatureCount)
	features[0] = 0.7

	scores, err := network.Infer(features)
	if err != nil {
		t.Fatalf("inference failed: %v", err)
	}

	// 2*(0.7-0.2)/1 + 0.1 = 1.1 before the head.
	want := 1 / (1 + math.Exp(-1.1))
	if math.Abs(scores.HeartDisease-want) > 1e-9 {
		t.Fatalf("heart probability = %v, want sigmoid(1.1) = %v", scores.HeartDisease, want)
	}
}

func TestNetworkValidation(t *testing.T) {
	badInput := passthroughArtifact()
	badInput.InputSize = FeatureCount - 1
	if _, err := NewNetwork(badInput); err == nil {
		t.Fatal("expected error for input size mismatch")
	}

	missingHead := passthroughArtifact()
	delete(missingHead.Heads, "stroke")
	if _, err := NewNetwork(missingHead); err == nil {
		t.Fatal("expected error for missing head")
	}

	badRow := passthroughArtifact()
	badRow.Trunk[0].Weights = [][]float64{{1, 2, 3}}
	if _, err := NewNetwork(badRow); err == nil {
		t.Fatal("expected error for weight row shorter than input")
	}

	badHead := passthroughArtifact()
	badHead.Heads["heart_disease"] = HeadParams{Weights: []float64{1, 2}}
	if _, err := NewNetwork(badHead); err == nil {
		t.Fatal("expected error for head wider than trunk output")
	}
}

func TestNetworkInferWrongWidth(t *testing.T) {
	network, err := NewNetwork(passthroughArtifact())
	if err != nil {
		t.Fatalf("failed to build network: %v", err)
	}
	if _, err := network.Infer(make([]float64, 5)); err == nil {
		t.Fatal("expected error for short feature vector")
	}
}
