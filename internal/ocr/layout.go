package ocr

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dgallion1/motorsig/internal/ocrdoc"
)

// Word is one recognized word with its pixel box and reading-order keys.
type Word struct {
	Text                   string
	XMin, YMin, XMax, YMax float64
	Confidence             float64 // 0..1
	Block, Par, Line       int
}

func (w Word) lineKey() [3]int { return [3]int{w.Block, w.Par, w.Line} }

// Layout assembles words of a single image into a one-page document.
// Words keep their reading order; the last word of each line gets an
// EOL break.
func Layout(words []Word, width, height float64) *ocrdoc.Document {
	words = slices.Clone(words)
	slices.SortStableFunc(words, func(a, b Word) int {
		for i, k := range a.lineKey() {
			if c := cmp.Compare(k, b.lineKey()[i]); c != 0 {
				return c
			}
		}
		return 0
	})

	var b ocrdoc.Builder
	b.StartPage(1, width, height)
	kept := words[:0]
	for _, w := range words {
		if strings.TrimSpace(w.Text) != "" {
			kept = append(kept, w)
		}
	}
	for i, w := range kept {
		brk := "SPACE"
		if i == len(kept)-1 || kept[i+1].lineKey() != w.lineKey() {
			brk = "EOL"
		}
		b.AddToken(strings.TrimSpace(w.Text), ocrdoc.Rect(w.XMin, w.YMin, w.XMax, w.YMax), w.Confidence, brk)
	}
	return b.Document()
}
