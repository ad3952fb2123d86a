package handwriting

import (
	"fmt"
	"math"
	"strings"

	"github.com/dgallion1/motorsig/internal/trend"
)

// Conclusions, in decision-table order.
var conclusions = struct {
	widthAndSpacing, width, spacing, height, none [2]string
}{
	widthAndSpacing: [2]string{
		"The handwriting shows compression in both token width and spacing between tokens.",
		"This indicates the writer was likely speeding up or conserving space.",
	},
	width: [2]string{
		"The handwriting shows compression in token width but not in spacing.",
		"The writer may have been writing faster while maintaining consistent spacing.",
	},
	spacing: [2]string{
		"The handwriting shows compression in spacing but token sizes remain consistent.",
		"The writer may have been conserving space while maintaining letter size.",
	},
	height: [2]string{
		"The handwriting shows compression in token height only.",
		"This is a less common pattern but suggests some adaptation in writing style.",
	},
	none: [2]string{
		"No significant compression detected in token size or spacing.",
		"The handwriting appears consistent throughout the text.",
	},
}

func conclusionLines(c Compression) [2]string {
	switch {
	case c.Width && c.Spacing:
		return conclusions.widthAndSpacing
	case c.Width:
		return conclusions.width
	case c.Spacing:
		return conclusions.spacing
	case c.Height:
		return conclusions.height
	default:
		return conclusions.none
	}
}

func conclusion(c Compression) string {
	lines := conclusionLines(c)
	return lines[0] + " " + lines[1]
}

// Significance buckets the magnitude of a percent change.
func Significance(pct float64) string {
	switch a := math.Abs(pct); {
	case a < 1:
		return "negligible"
	case a < 5:
		return "minor"
	case a < 15:
		return "moderate"
	default:
		return "significant"
	}
}

func direction(slope float64) string {
	if slope < 0 {
		return "decrease"
	}
	return "increase"
}

// Narrative renders the plain-text analysis summary.
func Narrative(r *Result) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\n")
	}

	line("=== HANDWRITING COMPRESSION ANALYSIS SUMMARY ===")
	line("")
	line("• Analyzed %d tokens across %d pages", r.Summary.TokenCount, r.Summary.PageCount)

	if r.Insufficient {
		line("")
		line("== CONCLUSION ==")
		line("• Insufficient data: at least %d usable tokens are required for trend analysis.", MinTokens)
		return strings.TrimRight(b.String(), "\n")
	}

	line("")
	line("== TOKEN WIDTH ANALYSIS ==")
	line("• Average token width: %.2f pixels", r.Summary.MeanWidth)
	writeSeries(line, "Token width", "token width", "per token", "token", r.Width, r.Summary.TokenCount)

	line("")
	line("== TOKEN HEIGHT ANALYSIS ==")
	line("• Average token height: %.2f pixels", r.Summary.MeanHeight)
	writeSeries(line, "Token height", "token height", "per token", "token", r.Height, r.Summary.TokenCount)

	if r.Summary.SpacingCount >= MinSpacings && r.Spacing.Fitted() {
		line("")
		line("== TOKEN SPACING ANALYSIS ==")
		line("• Average spacing between tokens: %.2f pixels", r.Summary.MeanSpacing)
		writeSeries(line, "Spacing", "token spacing", "per token position", "spacing", r.Spacing, r.Summary.SpacingCount)
	}

	line("")
	line("== CONCLUSION ==")
	c := conclusionLines(r.Compression)
	line("• %s", c[0])
	line("  %s", c[1])

	return strings.TrimRight(b.String(), "\n")
}

func writeSeries(line func(string, ...any), label, subject, rateUnit, endpoint string, tr trend.Result, n int) {
	if !tr.Fitted() {
		return
	}
	slope := *tr.Slope
	pct := 0.0
	if tr.PercentChange != nil {
		pct = *tr.PercentChange
	}
	total := slope * float64(n-1)
	dir := direction(slope)
	sig := Significance(pct)

	line("• %s trend: %s", label, tr.Classification)
	line("• Change rate: %.2f pixels %s (%s)", math.Abs(slope), rateUnit, dir)
	line("• Total change from first to last %s: %.2f pixels (%.1f%% %s)", endpoint, math.Abs(total), math.Abs(pct), dir)
	if tr.RSquared != nil {
		line("• Trend strength (R²): %.3f", *tr.RSquared)
	} else {
		line("• Trend strength (R²): undefined (constant series)")
	}
	line("• Interpretation: %s %s in %s", strings.ToUpper(sig[:1])+sig[1:], dir, subject)
}
