package speech

import "math"

// ScoringConfig holds the normalization bounds and weights of the
// severity score. Each feature is mapped onto [0, 1] before weighting.
type ScoringConfig struct {
	PitchOffset, PitchScale   float64
	VolumeOffset, VolumeScale float64
	FormantScale              float64
	JitterScale               float64
	ShimmerScale              float64
	HNRCeiling                float64

	Weights Weights

	Gain     float64
	Midpoint float64
	Ceiling  float64
}

// Weights are the per-feature contributions to the raw score.
type Weights struct {
	Pitch   float64 `json:"pitch" yaml:"pitch"`
	Volume  float64 `json:"volume" yaml:"volume"`
	Formant float64 `json:"formant" yaml:"formant"`
	Jitter  float64 `json:"jitter" yaml:"jitter"`
	Shimmer float64 `json:"shimmer" yaml:"shimmer"`
	HNR     float64 `json:"hnr" yaml:"hnr"`
}

// DefaultScoring returns the fixed clinical calibration.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		PitchOffset:  30,
		PitchScale:   40,
		VolumeOffset: 10,
		VolumeScale:  20,
		FormantScale: 200,
		JitterScale:  0.04,
		ShimmerScale: 0.1,
		HNRCeiling:   30,
		Weights: Weights{
			Pitch:   0.50,
			Volume:  0.0001,
			Formant: 0.15,
			Jitter:  0.10,
			Shimmer: 0.10,
			HNR:     0.05,
		},
		Gain:     6,
		Midpoint: 0.6,
		Ceiling:  4,
	}
}

// Score is a severity estimate with its intermediate terms.
type Score struct {
	Value      float64 `json:"score" yaml:"score"`
	Raw        float64 `json:"raw_score" yaml:"raw_score"`
	Normalized Weights `json:"normalized" yaml:"normalized"`
}

// Score maps a feature set to a severity in [0, Ceiling], rounded to one
// decimal place.
func (c ScoringConfig) Score(f Features) Score {
	n := Weights{
		Pitch:   unit((f.PitchVariability - c.PitchOffset) / c.PitchScale),
		Volume:  unit((f.VolumeVariability - c.VolumeOffset) / c.VolumeScale),
		Formant: unit(f.FormantVariability / c.FormantScale),
		Jitter:  unit(f.Jitter / c.JitterScale),
		Shimmer: unit(f.Shimmer / c.ShimmerScale),
		HNR:     unit((c.HNRCeiling - f.HNR) / c.HNRCeiling),
	}
	w := c.Weights
	raw := w.Pitch*n.Pitch +
		w.Volume*n.Volume +
		w.Formant*n.Formant +
		w.Jitter*n.Jitter +
		w.Shimmer*n.Shimmer +
		w.HNR*n.HNR

	v := c.Ceiling / (1 + math.Exp(-c.Gain*(raw-c.Midpoint)))
	v = math.Round(v*10) / 10
	return Score{
		Value:      math.Min(math.Max(v, 0), c.Ceiling),
		Raw:        raw,
		Normalized: n,
	}
}

// unit clips x to [0, 1]. NaN maps to 0.
func unit(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
