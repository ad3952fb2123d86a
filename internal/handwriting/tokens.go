// Package handwriting measures handwriting compression from OCR token
// geometry: token sizes and inter-token spacing along the text, each
// fitted with a linear trend.
package handwriting

import (
	"fmt"
	"math"
	"strings"

	"github.com/dgallion1/motorsig/internal/ocrdoc"
)

// TokenRecord is one OCR token with its bounding box.
type TokenRecord struct {
	Text       string  `json:"text" yaml:"text"`
	StartIndex int     `json:"start_index" yaml:"start_index"`
	EndIndex   int     `json:"end_index" yaml:"end_index"`
	Page       int     `json:"page" yaml:"page"`
	Position   int     `json:"position" yaml:"position"`
	XMin       float64 `json:"x_min" yaml:"x_min"`
	XMax       float64 `json:"x_max" yaml:"x_max"`
	YMin       float64 `json:"y_min" yaml:"y_min"`
	YMax       float64 `json:"y_max" yaml:"y_max"`
	Width      float64 `json:"width" yaml:"width"`
	Height     float64 `json:"height" yaml:"height"`
	BreakType  string  `json:"break_type,omitempty" yaml:"break_type,omitempty"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

const minVertices = 4

// ExtractTokens converts an OCR document into token records, in page
// order. Tokens with blank text or unusable geometry are skipped and
// reported in the returned diagnostics.
func ExtractTokens(doc *ocrdoc.Document) ([]TokenRecord, []string) {
	if doc == nil {
		return nil, nil
	}
	text := []rune(doc.Text)

	var (
		records []TokenRecord
		diags   []string
	)
	for _, page := range doc.Pages {
		pageNumber := page.PageNumber
		if pageNumber == 0 {
			pageNumber = 1
		}

		// lastEnd carries the previous token's end offset within the page;
		// a segment without a start offset begins there.
		lastEnd := 0
		position := 0
		for i, tok := range page.Tokens {
			segs := tok.Layout.TextAnchor.TextSegments
			if len(segs) == 0 {
				diags = append(diags, fmt.Sprintf("page %d token %d: no text segment", pageNumber, i))
				continue
			}
			seg := segs[0]
			start := lastEnd
			if seg.StartIndex != nil {
				start = seg.StartIndex.Int()
			}
			end := seg.EndIndex.Int()
			lastEnd = end

			if end < start {
				diags = append(diags, fmt.Sprintf("page %d token %d: end offset %d before start %d", pageNumber, i, end, start))
				continue
			}
			tokenText := sliceRunes(text, start, end)
			if strings.TrimSpace(tokenText) == "" {
				continue
			}

			box, ok := boundingBox(tok.Layout.BoundingPoly)
			if !ok {
				diags = append(diags, fmt.Sprintf("page %d token %d (%q): malformed geometry", pageNumber, i, tokenText))
				continue
			}

			var breakType string
			if tok.DetectedBreak != nil {
				breakType = tok.DetectedBreak.Type
			}

			records = append(records, TokenRecord{
				Text:       tokenText,
				StartIndex: start,
				EndIndex:   end,
				Page:       pageNumber,
				Position:   position,
				XMin:       box.xMin,
				XMax:       box.xMax,
				YMin:       box.yMin,
				YMax:       box.yMax,
				Width:      box.xMax - box.xMin,
				Height:     box.yMax - box.yMin,
				BreakType:  breakType,
				Confidence: tok.Layout.Confidence,
			})
			position++
		}
	}
	return records, diags
}

type bbox struct {
	xMin, xMax, yMin, yMax float64
}

func boundingBox(poly ocrdoc.BoundingPoly) (bbox, bool) {
	if len(poly.Vertices) < minVertices {
		return bbox{}, false
	}
	b := bbox{
		xMin: math.Inf(1), xMax: math.Inf(-1),
		yMin: math.Inf(1), yMax: math.Inf(-1),
	}
	var haveX, haveY bool
	for _, v := range poly.Vertices {
		if v.X != nil {
			haveX = true
			b.xMin = math.Min(b.xMin, *v.X)
			b.xMax = math.Max(b.xMax, *v.X)
		}
		if v.Y != nil {
			haveY = true
			b.yMin = math.Min(b.yMin, *v.Y)
			b.yMax = math.Max(b.yMax, *v.Y)
		}
	}
	return b, haveX && haveY
}

func sliceRunes(text []rune, start, end int) string {
	start = max(0, min(start, len(text)))
	end = max(start, min(end, len(text)))
	return string(text[start:end])
}
