package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/motorsig/internal/handwriting"
	"github.com/dgallion1/motorsig/internal/speech"
)

// Meta identifies the analyzed sample.
type Meta struct {
	SampleID string
	Source   string
	Created  time.Time
}

func (m Meta) subtitle() string {
	var parts []string
	if m.SampleID != "" {
		parts = append(parts, "Sample "+m.SampleID)
	}
	if m.Source != "" {
		parts = append(parts, m.Source)
	}
	if !m.Created.IsZero() {
		parts = append(parts, m.Created.UTC().Format(time.RFC3339))
	}
	return strings.Join(parts, " · ")
}

// Handwriting builds the report for a handwriting analysis.
func Handwriting(res *handwriting.Result, m Meta) *Report {
	r := &Report{Title: "Handwriting Compression Analysis", Subtitle: m.subtitle()}
	s := res.Summary
	r.Sections = append(r.Sections, Section{
		Heading: "Summary",
		Bullets: []string{
			fmt.Sprintf("Tokens analyzed: %d across %d pages", s.TokenCount, s.PageCount),
			fmt.Sprintf("Spacing measurements: %d", s.SpacingCount),
			fmt.Sprintf("Mean token size: %.2f × %.2f pixels", s.MeanWidth, s.MeanHeight),
			fmt.Sprintf("Mean spacing: %.2f pixels", s.MeanSpacing),
		},
	})

	t := res.Trends
	r.Sections = append(r.Sections, Section{
		Heading: "Trends",
		Table: [][]string{
			{"Series", "Trend", "Slope", "R²", "Change"},
			{"Token width", t.TokenWidthTrend, num(t.TokenWidthSlope, "%.3f"), num(t.WidthR2, "%.3f"), num(t.WidthPctChange, "%.1f%%")},
			{"Token height", t.TokenHeightTrend, num(t.TokenHeightSlope, "%.3f"), num(t.HeightR2, "%.3f"), num(t.HeightPctChange, "%.1f%%")},
			{"Spacing", t.SpacingTrend, num(t.SpacingSlope, "%.3f"), num(t.SpacingR2, "%.3f"), num(t.SpacingPctChange, "%.1f%%")},
		},
	})

	r.Sections = append(r.Sections, Section{Heading: "Conclusion", Paragraphs: []string{res.Conclusion}})
	if len(res.Diagnostics) > 0 {
		r.Sections = append(r.Sections, Section{Heading: "Diagnostics", Bullets: res.Diagnostics})
	}
	return r
}

// Speech builds the report for a speech analysis.
func Speech(res *speech.Result, m Meta) *Report {
	r := &Report{Title: "Speech Motor Analysis", Subtitle: m.subtitle()}
	r.Sections = append(r.Sections, Section{
		Heading: "Severity",
		Paragraphs: []string{
			fmt.Sprintf("Severity score: **%.1f** of 4 (raw %.3f).", res.Score.Value, res.Raw),
			fmt.Sprintf("Analyzed %.2f seconds at %d Hz.", res.DurationSeconds, res.SampleRate),
		},
	})

	f, n := res.Features, res.Normalized
	r.Sections = append(r.Sections, Section{
		Heading: "Acoustic features",
		Table: [][]string{
			{"Feature", "Value", "Normalized"},
			{"Pitch mean", fmt.Sprintf("%.2f Hz", f.PitchMean), ""},
			{"Pitch variability", fmt.Sprintf("%.2f Hz", f.PitchVariability), fmt.Sprintf("%.3f", n.Pitch)},
			{"RMS", fmt.Sprintf("%.4f", f.RMS), ""},
			{"Volume variability", fmt.Sprintf("%.2f dB", f.VolumeVariability), fmt.Sprintf("%.3f", n.Volume)},
			{"Formant mean", fmt.Sprintf("%.1f Hz", f.FormantMean), ""},
			{"Formant variability", fmt.Sprintf("%.1f Hz", f.FormantVariability), fmt.Sprintf("%.3f", n.Formant)},
			{"Jitter", fmt.Sprintf("%.4f", f.Jitter), fmt.Sprintf("%.3f", n.Jitter)},
			{"Shimmer", fmt.Sprintf("%.4f", f.Shimmer), fmt.Sprintf("%.3f", n.Shimmer)},
			{"HNR", fmt.Sprintf("%.2f dB", f.HNR), fmt.Sprintf("%.3f", n.HNR)},
		},
	})
	if len(res.Diagnostics) > 0 {
		r.Sections = append(r.Sections, Section{Heading: "Diagnostics", Bullets: res.Diagnostics})
	}
	return r
}

func num(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
