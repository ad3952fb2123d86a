package speech

import (
	"fmt"
	"io"

	"github.com/dgallion1/motorsig/internal/audio"
)

// Result is the full speech analysis.
type Result struct {
	Features `yaml:",inline"`
	Score    `yaml:",inline"`

	DurationSeconds float64  `json:"duration_seconds" yaml:"duration_seconds"`
	SampleRate      int      `json:"sample_rate" yaml:"sample_rate"`
	Diagnostics     []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Analyze decodes, preprocesses and scores a recording with the default
// calibration. Clips under the minimum length yield an error wrapping
// audio.ErrInsufficientDuration.
func Analyze(r io.Reader) (*Result, error) {
	clip, err := audio.Decode(r)
	if err != nil {
		return nil, err
	}
	return AnalyzeClip(clip, DefaultScoring())
}

// AnalyzeClip runs preprocessing, feature extraction and scoring on an
// already decoded clip.
func AnalyzeClip(clip *audio.Clip, cfg ScoringConfig) (*Result, error) {
	pre, err := audio.Preprocess(clip)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	feats, diags := Extract(pre.Samples, pre.SampleRate)
	return &Result{
		Features:        feats,
		Score:           cfg.Score(feats),
		DurationSeconds: float64(len(pre.Samples)) / float64(pre.SampleRate),
		SampleRate:      pre.SampleRate,
		Diagnostics:     diags,
	}, nil
}
