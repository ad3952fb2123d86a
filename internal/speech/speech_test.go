package speech

import (
	"errors"
	"math"
	"testing"

	"github.com/dgallion1/motorsig/internal/audio"
)

func voiced(freq float64, sr int, seconds float64) []float64 {
	n := int(seconds * float64(sr))
	y := make([]float64, n)
	for i := range y {
		t := float64(i) / float64(sr)
		y[i] = 0.4*math.Sin(2*math.Pi*freq*t) + 0.2*math.Sin(2*math.Pi*2*freq*t)
	}
	return y
}

func TestScoreWorkedExample(t *testing.T) {
	f := Features{
		PitchVariability:   70,
		VolumeVariability:  30,
		FormantVariability: 200,
		Jitter:             0.04,
		Shimmer:            0.1,
		HNR:                0,
	}
	s := DefaultScoring().Score(f)
	if math.Abs(s.Raw-0.9001) > 1e-12 {
		t.Errorf("raw = %.6f, want 0.9001", s.Raw)
	}
	// 4 / (1 + exp(-6 * 0.3001)) = 3.4329...
	if s.Value != 3.4 {
		t.Errorf("score = %v, want 3.4", s.Value)
	}
}

func TestScoreQuietHealthyVoice(t *testing.T) {
	// Only the HNR term contributes: raw = 0.05.
	s := DefaultScoring().Score(Features{HNR: 0})
	if math.Abs(s.Raw-0.05) > 1e-12 {
		t.Errorf("raw = %v, want 0.05", s.Raw)
	}
	if s.Value != 0.1 {
		t.Errorf("score = %v, want 0.1", s.Value)
	}
	s = DefaultScoring().Score(Features{HNR: 40})
	if s.Raw != 0 || s.Normalized.HNR != 0 {
		t.Errorf("raw = %v hnr norm = %v, want 0", s.Raw, s.Normalized.HNR)
	}
}

func TestScoreClipsNormalizedTerms(t *testing.T) {
	s := DefaultScoring().Score(Features{
		PitchVariability:   1e6,
		VolumeVariability:  -50,
		FormantVariability: 1e6,
		Jitter:             5,
		Shimmer:            -3,
		HNR:                -100,
	})
	n := s.Normalized
	if n.Pitch != 1 || n.Volume != 0 || n.Formant != 1 || n.Jitter != 1 || n.Shimmer != 0 || n.HNR != 1 {
		t.Errorf("normalized = %+v", n)
	}
	if s.Value < 0 || s.Value > 4 {
		t.Errorf("score %v out of range", s.Value)
	}
}

func TestScoreNaNIsNeutral(t *testing.T) {
	s := DefaultScoring().Score(Features{Jitter: math.NaN(), HNR: 30})
	if s.Normalized.Jitter != 0 || math.IsNaN(s.Value) {
		t.Errorf("score = %+v", s)
	}
}

func TestScoreMonotonic(t *testing.T) {
	cfg := DefaultScoring()
	base := Features{
		PitchVariability:   40,
		VolumeVariability:  15,
		FormantVariability: 80,
		Jitter:             0.01,
		Shimmer:            0.02,
		HNR:                15,
	}
	bump := map[string]func(f *Features, step float64){
		"pitch_variability":   func(f *Features, s float64) { f.PitchVariability += 5 * s },
		"formant_variability": func(f *Features, s float64) { f.FormantVariability += 25 * s },
		"jitter":              func(f *Features, s float64) { f.Jitter += 0.005 * s },
		"shimmer":             func(f *Features, s float64) { f.Shimmer += 0.0125 * s },
		"hnr_decrease":        func(f *Features, s float64) { f.HNR -= 4 * s },
	}
	for name, fn := range bump {
		prev := cfg.Score(base)
		for step := 1; step <= 10; step++ {
			f := base
			fn(&f, float64(step))
			cur := cfg.Score(f)
			if cur.Raw < prev.Raw || cur.Value < prev.Value {
				t.Errorf("%s step %d: score %v (raw %v) after %v (raw %v)", name, step, cur.Value, cur.Raw, prev.Value, prev.Raw)
			}
			prev = cur
		}
	}
}

func TestScoreRoundsToOneDecimal(t *testing.T) {
	cfg := DefaultScoring()
	for _, pv := range []float64{0, 31, 37.5, 44, 52, 63, 70} {
		v := cfg.Score(Features{PitchVariability: pv, HNR: 20}).Value
		if math.Abs(v*10-math.Round(v*10)) > 1e-9 {
			t.Errorf("pitch_variability %v: score %v not rounded", pv, v)
		}
	}
}

func TestPerturbation(t *testing.T) {
	var diags []string
	note := func(format string, args ...any) { diags = append(diags, format) }

	// Differences 2, 2, 2 over a mean of 13.
	got := perturbation([]float64{10, 12, 14, 16}, "jitter", note)
	if math.Abs(got-2.0/13) > 1e-12 {
		t.Errorf("jitter = %v, want %v", got, 2.0/13)
	}
	// Decibel series are non-positive, which makes the ratio negative.
	got = perturbation([]float64{0, -2, 0, -2}, "shimmer", note)
	if math.Abs(got-(-2)) > 1e-12 {
		t.Errorf("shimmer = %v, want -2", got)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics %v", diags)
	}

	if perturbation([]float64{5}, "jitter", note) != 0 {
		t.Error("single value should yield 0")
	}
	if perturbation([]float64{1, -1}, "shimmer", note) != 0 {
		t.Error("zero mean should yield 0")
	}
	if len(diags) != 2 {
		t.Errorf("got %d diagnostics, want 2", len(diags))
	}
}

func TestExtractSilence(t *testing.T) {
	f, diags := Extract(make([]float64, 3*audio.TargetRate), audio.TargetRate)
	if f != (Features{}) {
		t.Errorf("features = %+v, want zero", f)
	}
	if len(diags) == 0 {
		t.Error("expected diagnostics for silent input")
	}
}

func TestExtractVoicedTone(t *testing.T) {
	sr := audio.TargetRate
	f, _ := Extract(voiced(200, sr, 3), sr)
	if math.Abs(f.PitchMean-200) > 10 {
		t.Errorf("pitch mean = %v, want about 200", f.PitchMean)
	}
	if f.HNR <= 0 {
		t.Errorf("hnr = %v, want positive for a steady tone", f.HNR)
	}
	if f.RMS <= 0 {
		t.Errorf("rms = %v", f.RMS)
	}
	if f.FormantMean != 0 && (f.FormantMean <= 100 || f.FormantMean >= 3000) {
		t.Errorf("formant mean %v outside (100, 3000)", f.FormantMean)
	}
}

func TestFormantFrequenciesFraming(t *testing.T) {
	// 1000 samples at 16 kHz: frames of 480, 480 and a 40-sample tail
	// that is too short to fit.
	_, _, total := formantFrequencies(voiced(200, 16000, 1000.0/16000), 16000)
	if total != 2 {
		t.Errorf("fitted %d frames, want 2", total)
	}
}

func TestAnalyzeClipTooShort(t *testing.T) {
	clip := &audio.Clip{Samples: voiced(200, 16000, 2), SampleRate: 16000}
	_, err := AnalyzeClip(clip, DefaultScoring())
	if !errors.Is(err, audio.ErrInsufficientDuration) {
		t.Fatalf("err = %v, want ErrInsufficientDuration", err)
	}
}

func TestAnalyzeClip(t *testing.T) {
	clip := &audio.Clip{Samples: voiced(180, 16000, 3.2), SampleRate: 16000}
	res, err := AnalyzeClip(clip, DefaultScoring())
	if err != nil {
		t.Fatal(err)
	}
	if res.SampleRate != audio.TargetRate {
		t.Errorf("sample rate = %d", res.SampleRate)
	}
	if math.Abs(res.DurationSeconds-3.2) > 1e-9 {
		t.Errorf("duration = %v, want 3.2", res.DurationSeconds)
	}
	if res.Value < 0 || res.Value > 4 {
		t.Errorf("score = %v out of range", res.Value)
	}
}
