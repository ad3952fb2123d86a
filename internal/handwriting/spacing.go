package handwriting

import (
	"cmp"
	"slices"
)

// SpacingRecord is the horizontal gap between two adjacent tokens on the
// same line.
type SpacingRecord struct {
	LeftToken       string  `json:"left_token" yaml:"left_token"`
	RightToken      string  `json:"right_token" yaml:"right_token"`
	Position        int     `json:"position" yaml:"position"`
	Spacing         float64 `json:"spacing" yaml:"spacing"`
	LeftTokenWidth  float64 `json:"left_token_width" yaml:"left_token_width"`
	RightTokenWidth float64 `json:"right_token_width" yaml:"right_token_width"`
	BreakType       string  `json:"break_type,omitempty" yaml:"break_type,omitempty"`
}

// CalculateSpacing measures gaps between consecutive tokens. Two tokens
// share a line when their vertical extents overlap. Pairs across pages or
// lines, and pairs whose gap is negative, produce no record.
func CalculateSpacing(tokens []TokenRecord) []SpacingRecord {
	sorted := slices.Clone(tokens)
	slices.SortStableFunc(sorted, func(a, b TokenRecord) int {
		if c := cmp.Compare(a.Page, b.Page); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})

	var out []SpacingRecord
	for i := 0; i+1 < len(sorted); i++ {
		cur, next := sorted[i], sorted[i+1]
		if cur.Page != next.Page || !sameLine(cur, next) {
			continue
		}
		spacing := next.XMin - cur.XMax
		if spacing < 0 {
			continue
		}
		out = append(out, SpacingRecord{
			LeftToken:       cur.Text,
			RightToken:      next.Text,
			Position:        cur.Position,
			Spacing:         spacing,
			LeftTokenWidth:  cur.Width,
			RightTokenWidth: next.Width,
			BreakType:       cur.BreakType,
		})
	}
	return out
}

func sameLine(a, b TokenRecord) bool {
	return a.YMin <= b.YMax && a.YMax >= b.YMin
}
