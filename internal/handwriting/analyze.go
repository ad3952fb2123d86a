package handwriting

import (
	"errors"

	"github.com/dgallion1/motorsig/internal/ocrdoc"
	"github.com/dgallion1/motorsig/internal/trend"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientTokenData marks a result computed from fewer than
// MinTokens usable tokens.
var ErrInsufficientTokenData = errors.New("insufficient token data")

const (
	// MinTokens is the number of usable tokens needed for a size trend.
	MinTokens = 3

	// MinSpacings is the number of spacing records needed for a spacing trend.
	MinSpacings = 2

	// CompressionR2 is the R² a decreasing trend needs to count as
	// compression in the conclusion. It is deliberately looser than
	// trend.StrongFit, which drives the labels.
	CompressionR2 = 0.3
)

const (
	insufficientSize    = "Insufficient data for token size analysis"
	insufficientSpacing = "Insufficient data for spacing analysis"
)

// Trends is the flat trend summary returned to clients.
type Trends struct {
	TokenWidthTrend  string   `json:"token_width_trend" yaml:"token_width_trend"`
	TokenHeightTrend string   `json:"token_height_trend" yaml:"token_height_trend"`
	SpacingTrend     string   `json:"spacing_trend" yaml:"spacing_trend"`
	TokenWidthSlope  *float64 `json:"token_width_slope" yaml:"token_width_slope"`
	TokenHeightSlope *float64 `json:"token_height_slope" yaml:"token_height_slope"`
	SpacingSlope     *float64 `json:"spacing_slope" yaml:"spacing_slope"`
	WidthR2          *float64 `json:"width_r2" yaml:"width_r2"`
	HeightR2         *float64 `json:"height_r2" yaml:"height_r2"`
	SpacingR2        *float64 `json:"spacing_r2" yaml:"spacing_r2"`
	WidthPctChange   *float64 `json:"width_pct_change" yaml:"width_pct_change"`
	HeightPctChange  *float64 `json:"height_pct_change" yaml:"height_pct_change"`
	SpacingPctChange *float64 `json:"spacing_pct_change" yaml:"spacing_pct_change"`
}

// Summary holds raw counts and means.
type Summary struct {
	TokenCount   int     `json:"token_count" yaml:"token_count"`
	PageCount    int     `json:"page_count" yaml:"page_count"`
	SpacingCount int     `json:"spacing_count" yaml:"spacing_count"`
	MeanWidth    float64 `json:"mean_width" yaml:"mean_width"`
	MeanHeight   float64 `json:"mean_height" yaml:"mean_height"`
	MeanSpacing  float64 `json:"mean_spacing" yaml:"mean_spacing"`
}

// Compression flags a decreasing, reasonably consistent trend per series.
type Compression struct {
	Width   bool `json:"width" yaml:"width"`
	Height  bool `json:"height" yaml:"height"`
	Spacing bool `json:"spacing" yaml:"spacing"`
}

// Result is the full handwriting analysis.
type Result struct {
	Trends `yaml:",inline"`

	Insufficient bool        `json:"insufficient" yaml:"insufficient"`
	Summary      Summary     `json:"summary" yaml:"summary"`
	Compression  Compression `json:"compression" yaml:"compression"`
	Conclusion   string      `json:"conclusion" yaml:"conclusion"`
	Narrative    string      `json:"narrative" yaml:"narrative"`

	Tokens      []TokenRecord   `json:"tokens" yaml:"tokens"`
	Spacings    []SpacingRecord `json:"spacing_data" yaml:"spacing_data"`
	Diagnostics []string        `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`

	Width   trend.Result `json:"-" yaml:"-"`
	Height  trend.Result `json:"-" yaml:"-"`
	Spacing trend.Result `json:"-" yaml:"-"`
}

// Err returns ErrInsufficientTokenData for an insufficient-data result.
func (r *Result) Err() error {
	if r.Insufficient {
		return ErrInsufficientTokenData
	}
	return nil
}

// Analyze runs the full handwriting pipeline on an OCR document.
func Analyze(doc *ocrdoc.Document) *Result {
	tokens, diags := ExtractTokens(doc)
	spacings := CalculateSpacing(tokens)
	res := Build(tokens, spacings)
	res.Diagnostics = diags
	return res
}

// Build fits the width, height and spacing trends and composes the result.
func Build(tokens []TokenRecord, spacings []SpacingRecord) *Result {
	res := &Result{
		Tokens:   tokens,
		Spacings: spacings,
		Summary:  summarize(tokens, spacings),
	}

	widths := make([]trend.Point, len(tokens))
	heights := make([]trend.Point, len(tokens))
	for i, t := range tokens {
		widths[i] = trend.Point{X: float64(t.Position), Y: t.Width}
		heights[i] = trend.Point{X: float64(t.Position), Y: t.Height}
	}
	res.Width = trend.Classify(widths)
	res.Height = trend.Classify(heights)

	if len(tokens) < MinTokens {
		// Slopes stay visible when a line could be fitted, but the labels
		// and the narrative report insufficient data.
		res.Insufficient = true
		res.Trends = Trends{
			TokenWidthTrend:  insufficientSize,
			TokenHeightTrend: insufficientSize,
			SpacingTrend:     insufficientSpacing,
			TokenWidthSlope:  res.Width.Slope,
			TokenHeightSlope: res.Height.Slope,
			WidthR2:          res.Width.RSquared,
			HeightR2:         res.Height.RSquared,
			WidthPctChange:   res.Width.PercentChange,
			HeightPctChange:  res.Height.PercentChange,
		}
		res.Spacing = trend.Result{Classification: insufficientSpacing}
		res.Conclusion = "Insufficient data for handwriting compression analysis."
		res.Narrative = Narrative(res)
		return res
	}

	if len(spacings) >= MinSpacings {
		pts := make([]trend.Point, len(spacings))
		for i, s := range spacings {
			pts[i] = trend.Point{X: float64(s.Position), Y: s.Spacing}
		}
		res.Spacing = trend.Classify(pts)
	} else {
		res.Spacing = trend.Result{Classification: trend.NoClearTrend}
	}

	res.Trends = Trends{
		TokenWidthTrend:  res.Width.Classification,
		TokenHeightTrend: res.Height.Classification,
		SpacingTrend:     res.Spacing.Classification,
		TokenWidthSlope:  res.Width.Slope,
		TokenHeightSlope: res.Height.Slope,
		SpacingSlope:     res.Spacing.Slope,
		WidthR2:          res.Width.RSquared,
		HeightR2:         res.Height.RSquared,
		SpacingR2:        res.Spacing.RSquared,
		WidthPctChange:   res.Width.PercentChange,
		HeightPctChange:  res.Height.PercentChange,
		SpacingPctChange: res.Spacing.PercentChange,
	}
	res.Compression = Compression{
		Width:   res.Width.Compressed(CompressionR2),
		Height:  res.Height.Compressed(CompressionR2),
		Spacing: res.Spacing.Compressed(CompressionR2),
	}
	res.Conclusion = conclusion(res.Compression)
	res.Narrative = Narrative(res)
	return res
}

func summarize(tokens []TokenRecord, spacings []SpacingRecord) Summary {
	s := Summary{
		TokenCount:   len(tokens),
		SpacingCount: len(spacings),
	}
	pages := make(map[int]struct{})
	widths := make([]float64, len(tokens))
	heights := make([]float64, len(tokens))
	for i, t := range tokens {
		pages[t.Page] = struct{}{}
		widths[i] = t.Width
		heights[i] = t.Height
	}
	s.PageCount = len(pages)
	if len(tokens) > 0 {
		s.MeanWidth = stat.Mean(widths, nil)
		s.MeanHeight = stat.Mean(heights, nil)
	}
	if len(spacings) > 0 {
		gaps := make([]float64, len(spacings))
		for i, sp := range spacings {
			gaps[i] = sp.Spacing
		}
		s.MeanSpacing = stat.Mean(gaps, nil)
	}
	return s
}
