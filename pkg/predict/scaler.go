package predict

// Scaler applies the standardization transform fitted offline alongside
// the model. It is never fitted here; parameters come from the artifact.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Transform standardizes each component as (x - mean) / std. A nil scaler
// is the identity transform. Components whose fitted std is zero pass
// through unscaled, matching how the fitting library stores constant
// features.
func (s *Scaler) Transform(features []float64) []float64 {
	out := make([]float64, len(features))
	copy(out, features)
	if s == nil {
		return out
	}
	for i := range out {
		if i >= len(s.Mean) || i >= len(s.Std) {
			break
		}
		std := s.Std[i]
		if std == 0 {
			std = 1
		}
		out[i] = (out[i] - s.Mean[i]) / std
	}
	return out
}
