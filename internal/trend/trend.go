// Package trend fits a least-squares line to a positional series and
// labels its direction and consistency.
package trend

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Classification labels.
const (
	NoClearTrend       = "No clear trend"
	Stable             = "Stable"
	StronglyDecreasing = "Strongly decreasing"
	SlightlyDecreasing = "Slightly decreasing"
	StronglyIncreasing = "Strongly increasing"
	SlightlyIncreasing = "Slightly increasing"
	WeaklyDecreasing   = "Weakly decreasing (inconsistent)"
	WeaklyIncreasing   = "Weakly increasing (inconsistent)"
)

const (
	// MinFitPoints is the number of points a line fit needs.
	MinFitPoints = 2

	// StrongFit is the R² above which a fit counts as consistent.
	StrongFit = 0.5

	// SteepSlope separates "strongly" from "slightly" for consistent fits.
	SteepSlope = 0.5

	startEpsilon = 1e-12
)

// Result is the outcome of classifying one series. Numeric fields are nil
// when the series was too short to fit.
type Result struct {
	Slope          *float64 `json:"slope"`
	Intercept      *float64 `json:"intercept,omitempty"`
	RSquared       *float64 `json:"r_squared"`
	Classification string   `json:"classification"`
	PercentChange  *float64 `json:"percent_change"`
}

// Fitted reports whether a line was fitted.
func (r Result) Fitted() bool { return r.Slope != nil }

// Point is one (position, value) observation.
type Point struct {
	X float64
	Y float64
}

// Classify fits y = slope·x + intercept by ordinary least squares and
// classifies the slope.
//
// The percent change is computed between the fitted line's values at the
// smallest and largest observed x, not between the raw endpoint values.
// It is 0 when the fitted start value is zero.
//
// A series with zero variance in y has an undefined R²; it is reported as
// a flat, Stable line with a nil R².
func Classify(points []Point) Result {
	if len(points) < MinFitPoints {
		return Result{Classification: NoClearTrend}
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	xMin, xMax := floats.Min(xs), floats.Max(xs)
	if xMin == xMax {
		return Result{Classification: NoClearTrend}
	}

	if floats.Min(ys) == floats.Max(ys) {
		slope, intercept, pct := 0.0, ys[0], 0.0
		return Result{
			Slope:          &slope,
			Intercept:      &intercept,
			Classification: Stable,
			PercentChange:  &pct,
		}
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, intercept, slope)

	start := slope*xMin + intercept
	end := slope*xMax + intercept
	pct := 0.0
	if math.Abs(start) > startEpsilon {
		pct = (end - start) / start * 100
	}

	return Result{
		Slope:          &slope,
		Intercept:      &intercept,
		RSquared:       &r2,
		Classification: Label(slope, r2),
		PercentChange:  &pct,
	}
}

// Label maps a slope and R² onto the classification labels.
func Label(slope, r2 float64) string {
	if r2 > StrongFit {
		switch {
		case slope < -SteepSlope:
			return StronglyDecreasing
		case slope < 0:
			return SlightlyDecreasing
		case slope > SteepSlope:
			return StronglyIncreasing
		case slope > 0:
			return SlightlyIncreasing
		default:
			return Stable
		}
	}
	switch {
	case slope < 0:
		return WeaklyDecreasing
	case slope > 0:
		return WeaklyIncreasing
	default:
		return Stable
	}
}

// Compressed reports whether the series shows a decreasing trend with R²
// above minR2.
func (r Result) Compressed(minR2 float64) bool {
	if r.Slope == nil || r.RSquared == nil {
		return false
	}
	return *r.Slope < 0 && *r.RSquared > minR2
}
