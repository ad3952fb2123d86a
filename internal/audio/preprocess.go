package audio

import (
	"errors"
	"fmt"

	"github.com/dgallion1/motorsig/internal/dsp"
)

// ErrInsufficientDuration is returned for clips shorter than MinSeconds
// after resampling.
var ErrInsufficientDuration = errors.New("insufficient audio duration")

const (
	// TargetRate is the sample rate every clip is analyzed at.
	TargetRate = 16000

	// MinSeconds is the shortest clip accepted for analysis.
	MinSeconds = 3

	bandLow   = 80
	bandHigh  = 500
	bandOrder = 5
)

// Preprocess resamples the clip to TargetRate, rejects clips shorter than
// MinSeconds, removes stationary background noise and band-limits the
// result to the voice range with a causal Butterworth filter.
func Preprocess(c *Clip) (*Clip, error) {
	if c == nil || c.SampleRate <= 0 {
		return nil, fmt.Errorf("preprocess: invalid clip")
	}
	y := dsp.Resample(c.Samples, c.SampleRate, TargetRate)
	if len(y) < MinSeconds*TargetRate {
		return nil, fmt.Errorf("%.2fs recorded, %ds required: %w",
			float64(len(y))/TargetRate, MinSeconds, ErrInsufficientDuration)
	}

	y = dsp.SpectralGate(y, dsp.DefaultGate(TargetRate))

	b, a, err := dsp.ButterBandpass(bandOrder, bandLow, bandHigh, TargetRate)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	y = dsp.LFilter(b, a, y)

	return &Clip{Samples: y, SampleRate: TargetRate}, nil
}
