package predict

import (
	"fmt"
	"math"
)

// batch-norm epsilon, matching the convention the training job uses.
const normEpsilon = 1e-5

// Scores holds one probability per condition, in [0,1] when produced by
// the network and on the 0-100 scale when produced by the rule scorer.
type Scores struct {
	HeartDisease float64
	Diabetes     float64
	Cancer       float64
	Stroke       float64
}

// Network is the inference-only multi-head regression model: a shared
// trunk of linear → batch-norm → ReLU blocks followed by four single-unit
// sigmoid heads. Dropout exists only at training time, so inference is
// fully deterministic. The struct is read-only after construction and safe
// for concurrent use.
type Network struct {
	artifact ModelArtifact
}

// NewNetwork validates the loaded artifact's shapes against its declared
// architecture. A mismatch is a load failure, never a runtime one.
func NewNetwork(artifact ModelArtifact) (*Network, error) {
	if artifact.InputSize != FeatureCount {
		return nil, fmt.Errorf("model input size %d does not match feature count %d", artifact.InputSize, FeatureCount)
	}
	if len(artifact.HiddenSizes) == 0 {
		return nil, fmt.Errorf("model declares no hidden layers")
	}
	if len(artifact.Trunk) != len(artifact.HiddenSizes) {
		return nil, fmt.Errorf("model has %d trunk layers, expected %d", len(artifact.Trunk), len(artifact.HiddenSizes))
	}

	in := artifact.InputSize
	for i, layer := range artifact.Trunk {
		out := artifact.HiddenSizes[i]
		if len(layer.Weights) != out {
			return nil, fmt.Errorf("trunk layer %d has %d units, expected %d", i, len(layer.Weights), out)
		}
		for _, row := range layer.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("trunk layer %d weight row has %d inputs, expected %d", i, len(row), in)
			}
		}
		if len(layer.Bias) != out {
			return nil, fmt.Errorf("trunk layer %d has %d biases, expected %d", i, len(layer.Bias), out)
		}
		if layer.Norm != nil {
			for name, params := range map[string][]float64{
				"mean": layer.Norm.Mean, "variance": layer.Norm.Variance,
				"gamma": layer.Norm.Gamma, "beta": layer.Norm.Beta,
			} {
				if len(params) != out {
					return nil, fmt.Errorf("trunk layer %d batch-norm %s has %d values, expected %d", i, name, len(params), out)
				}
			}
		}
		in = out
	}

	for _, condition := range []string{"heart_disease", "diabetes", "cancer", "stroke"} {
		head, ok := artifact.Heads[condition]
		if !ok {
			return nil, fmt.Errorf("model missing %s head", condition)
		}
		if len(head.Weights) != in {
			return nil, fmt.Errorf("%s head has %d weights, expected %d", condition, len(head.Weights), in)
		}
	}

	return &Network{artifact: artifact}, nil
}

// Infer runs one forward pass and returns per-condition probabilities
// in [0,1].
func (n *Network) Infer(features []float64) (Scores, error) {
	if len(features) != n.artifact.InputSize {
		return Scores{}, fmt.Errorf("got %d features, model expects %d", len(features), n.artifact.InputSize)
	}

	x := features
	for _, layer := range n.artifact.Trunk {
		out := make([]float64, len(layer.Weights))
		for i, row := range layer.Weights {
			out[i] = dot(row, x) + layer.Bias[i]
		}
		if layer.Norm != nil {
			for i := range out {
				scale := layer.Norm.Gamma[i] / math.Sqrt(layer.Norm.Variance[i]+normEpsilon)
				out[i] = scale*(out[i]-layer.Norm.Mean[i]) + layer.Norm.Beta[i]
			}
		}
		for i := range out {
			if out[i] < 0 {
				out[i] = 0
			}
		}
		x = out
	}

	return Scores{
		HeartDisease: n.head("heart_disease", x),
		Diabetes:     n.head("diabetes", x),
		Cancer:       n.head("cancer", x),
		Stroke:       n.head("stroke", x),
	}, nil
}

func (n *Network) head(condition string, x []float64) float64 {
	params := n.artifact.Heads[condition]
	return sigmoid(dot(params.Weights, x) + params.Bias)
}

func dot(weights []float64, x []float64) float64 {
	var sum float64
	for i := 0; i < len(weights); i++ {
		sum += weights[i] * x[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
