package ocr

import (
	"errors"
	"strings"
	"testing"
)

func TestLayoutBreaksAndOrder(t *testing.T) {
	words := []Word{
		{Text: "brown", XMin: 10, YMin: 60, XMax: 60, YMax: 90, Confidence: 0.8, Block: 1, Par: 1, Line: 2},
		{Text: "The", XMin: 10, YMin: 10, XMax: 40, YMax: 40, Confidence: 0.9, Block: 1, Par: 1, Line: 1},
		{Text: "quick", XMin: 50, YMin: 10, XMax: 90, YMax: 40, Confidence: 0.95, Block: 1, Par: 1, Line: 1},
		{Text: "  ", Block: 1, Par: 1, Line: 2},
	}
	doc := Layout(words, 200, 100)
	if len(doc.Pages) != 1 {
		t.Fatalf("pages = %d", len(doc.Pages))
	}
	p := doc.Pages[0]
	if p.Dimension.Width != 200 || p.Dimension.Height != 100 {
		t.Errorf("dimension = %+v", p.Dimension)
	}
	if doc.Text != "The quick\nbrown\n" {
		t.Errorf("text = %q", doc.Text)
	}
	if len(p.Tokens) != 3 {
		t.Fatalf("tokens = %d, want 3", len(p.Tokens))
	}
	want := []string{"SPACE", "EOL", "EOL"}
	for i, tok := range p.Tokens {
		if tok.DetectedBreak == nil || tok.DetectedBreak.Type != want[i] {
			t.Errorf("token %d break = %+v, want %s", i, tok.DetectedBreak, want[i])
		}
	}
	if p.Tokens[1].Layout.Confidence != 0.95 {
		t.Errorf("confidence = %v", p.Tokens[1].Layout.Confidence)
	}
	// The caller's slice is not reordered.
	if words[0].Text != "brown" {
		t.Error("Layout mutated its input")
	}
}

func TestLayoutEmpty(t *testing.T) {
	doc := Layout(nil, 0, 0)
	if len(doc.Pages) != 1 || doc.TokenCount() != 0 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestRetryableError(t *testing.T) {
	var err error = &RetryableError{Provider: "docai", Code: "Unavailable", Message: strings.Repeat("x", 300)}
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatal("errors.As failed")
	}
	if !strings.HasSuffix(err.Error(), "...") {
		t.Errorf("message not truncated: %q", err.Error())
	}
}
