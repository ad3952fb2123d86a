// Package speech extracts voice-stability features from a preprocessed
// recording and maps them to a 0–4 severity score.
package speech

import (
	"fmt"
	"math"
	"slices"

	"github.com/dgallion1/motorsig/internal/dsp"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	pitchMin     = 50
	pitchMax     = 300
	frameLength  = 2048
	hopLength    = 512
	yinThreshold = 0.1

	formantFrameSeconds = 0.03
	formantMinSamples   = 100
	lpcOrder            = 12
	formantLow          = 100
	formantHigh         = 3000
	formantsPerFrame    = 3

	hpssKernel = 31
	hpssPower  = 2

	dbFloor = 1e-5
	dbRange = 80
)

// Features is the acoustic feature set of one recording.
type Features struct {
	PitchMean          float64 `json:"pitch_mean" yaml:"pitch_mean"`
	PitchVariability   float64 `json:"pitch_variability" yaml:"pitch_variability"`
	RMS                float64 `json:"rms" yaml:"rms"`
	VolumeVariability  float64 `json:"volume_variability" yaml:"volume_variability"`
	FormantMean        float64 `json:"formant_mean" yaml:"formant_mean"`
	FormantVariability float64 `json:"formant_variability" yaml:"formant_variability"`
	Jitter             float64 `json:"jitter" yaml:"jitter"`
	Shimmer            float64 `json:"shimmer" yaml:"shimmer"`
	HNR                float64 `json:"hnr" yaml:"hnr"`
}

// Extract computes the feature set of y sampled at sr. Conditions that
// force a feature to its neutral value are reported as diagnostics
// instead of failing the call.
func Extract(y []float64, sr int) (Features, []string) {
	var (
		f     Features
		diags []string
	)
	note := func(format string, args ...any) {
		diags = append(diags, fmt.Sprintf(format, args...))
	}

	// Pitch.
	pitches := dsp.YIN(y, dsp.YINConfig{
		FMin:            pitchMin,
		FMax:            pitchMax,
		SampleRate:      sr,
		FrameLength:     frameLength,
		TroughThreshold: yinThreshold,
	})
	valid := make([]float64, 0, len(pitches))
	for _, p := range pitches {
		if p > 0 && p < pitchMax {
			valid = append(valid, p)
		}
	}
	if len(valid) > 0 {
		f.PitchMean, f.PitchVariability = stat.PopMeanStdDev(valid, nil)
	} else {
		note("pitch: no frames in (0, %d) Hz", pitchMax)
	}

	// Volume.
	rms := dsp.RMS(y, frameLength, hopLength)
	rmsDB := dsp.AmplitudeToDB(rms, dbFloor, dbRange)
	if len(rms) > 0 {
		f.RMS = stat.Mean(rms, nil)
		_, f.VolumeVariability = stat.PopMeanStdDev(rmsDB, nil)
	}

	// Perturbation.
	f.Jitter = perturbation(valid, "jitter", note)
	f.Shimmer = perturbation(rmsDB, "shimmer", note)

	// Formants.
	formants, skipped, total := formantFrequencies(y, sr)
	if skipped > 0 {
		note("formants: skipped %d of %d frames with no stable LPC fit", skipped, total)
	}
	if len(formants) > 0 {
		f.FormantMean, f.FormantVariability = stat.PopMeanStdDev(formants, nil)
	} else {
		note("formants: no resonances in (%d, %d) Hz", formantLow, formantHigh)
	}

	// Harmonic-to-noise ratio.
	harmonic, percussive := dsp.HPSS(y, frameLength, hopLength, hpssKernel, hpssPower)
	he := floats.Dot(harmonic, harmonic)
	pe := floats.Dot(percussive, percussive)
	switch {
	case he == 0:
		note("hnr: no harmonic energy")
	case pe == 0:
		note("hnr: no percussive energy")
	default:
		f.HNR = 10 * math.Log10(he/pe)
	}

	return f, diags
}

// perturbation is the mean absolute consecutive difference of x divided
// by its mean. It is 0 when fewer than two values exist or the mean is 0.
func perturbation(x []float64, name string, note func(string, ...any)) float64 {
	if len(x) < 2 {
		note("%s: %d values, need at least 2", name, len(x))
		return 0
	}
	mean := stat.Mean(x, nil)
	if mean == 0 {
		note("%s: zero mean", name)
		return 0
	}
	var acc float64
	for i := 1; i < len(x); i++ {
		acc += math.Abs(x[i] - x[i-1])
	}
	return acc / float64(len(x)-1) / mean
}

// formantFrequencies collects up to three of the lowest LPC resonances in
// each 30 ms frame. Frames whose fit fails are counted and skipped.
func formantFrequencies(y []float64, sr int) (formants []float64, skipped, total int) {
	step := int(float64(sr) * formantFrameSeconds)
	if step <= 0 {
		return nil, 0, 0
	}
	for i := 0; i < len(y); i += step {
		frame := y[i:min(i+step, len(y))]
		if len(frame) < formantMinSamples {
			continue
		}
		total++
		coeffs, err := dsp.LPC(frame, lpcOrder)
		if err != nil {
			skipped++
			continue
		}
		roots, err := dsp.Roots(coeffs)
		if err != nil {
			skipped++
			continue
		}
		var freqs []float64
		for _, r := range roots {
			if imag(r) <= 0 {
				continue
			}
			hz := math.Atan2(imag(r), real(r)) * float64(sr) / (2 * math.Pi)
			if hz > formantLow && hz < formantHigh {
				freqs = append(freqs, hz)
			}
		}
		slices.Sort(freqs)
		formants = append(formants, freqs[:min(formantsPerFrame, len(freqs))]...)
	}
	return formants, skipped, total
}
