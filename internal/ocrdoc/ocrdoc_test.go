package ocrdoc

import (
	"strings"
	"testing"
)

func TestDecode_StringOffsets(t *testing.T) {
	input := `{
		"document": {
			"text": "Hello world",
			"pages": [{
				"pageNumber": 1,
				"dimension": {"width": 1000, "height": 1465},
				"tokens": [{
					"layout": {
						"textAnchor": {"textSegments": [{"endIndex": "5"}]},
						"boundingPoly": {"vertices": [{"x": 1, "y": 2}, {"x": 10}, {"x": 10, "y": 20}, {"y": 20}]},
						"confidence": 0.9
					},
					"detectedBreak": {"type": "SPACE"}
				}, {
					"layout": {
						"textAnchor": {"textSegments": [{"startIndex": "6", "endIndex": 11}]},
						"boundingPoly": {"vertices": []}
					}
				}]
			}]
		}
	}`
	doc, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "Hello world" {
		t.Errorf("expected text %q, got %q", "Hello world", doc.Text)
	}
	if len(doc.Pages) != 1 || len(doc.Pages[0].Tokens) != 2 {
		t.Fatalf("expected 1 page with 2 tokens, got %+v", doc.Pages)
	}

	first := doc.Pages[0].Tokens[0].Layout.TextAnchor.TextSegments[0]
	if first.StartIndex != nil {
		t.Errorf("expected missing start index, got %d", *first.StartIndex)
	}
	if first.EndIndex.Int() != 5 {
		t.Errorf("expected end index 5, got %d", first.EndIndex)
	}

	second := doc.Pages[0].Tokens[1].Layout.TextAnchor.TextSegments[0]
	if second.StartIndex == nil || second.StartIndex.Int() != 6 {
		t.Errorf("expected start index 6, got %v", second.StartIndex)
	}
	if second.EndIndex.Int() != 11 {
		t.Errorf("expected end index 11, got %d", second.EndIndex)
	}

	v := doc.Pages[0].Tokens[0].Layout.BoundingPoly.Vertices[1]
	if v.Y != nil {
		t.Errorf("expected absent y, got %v", *v.Y)
	}
	if doc.Pages[0].Tokens[0].DetectedBreak.Type != "SPACE" {
		t.Errorf("expected SPACE break")
	}
}

func TestDecode_BareDocument(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"text": "abc", "pages": []}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "abc" {
		t.Errorf("expected text %q, got %q", "abc", doc.Text)
	}
}

func TestDecode_InvalidOffset(t *testing.T) {
	input := `{"text": "a", "pages": [{"tokens": [{"layout": {"textAnchor": {"textSegments": [{"endIndex": "x1"}]}}}]}]}`
	if _, err := Decode(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for non-numeric offset")
	}
}

func TestBuilder_OffsetsMatchText(t *testing.T) {
	var b Builder
	b.StartPage(1, 100, 100)
	b.AddToken("quick", Rect(0, 0, 10, 10), 0.8, "SPACE")
	b.AddToken("föx", Rect(12, 0, 20, 10), 0.7, "EOL")
	b.StartPage(2, 100, 100)
	b.AddToken("jumps", Rect(0, 0, 10, 10), 0.6, "")

	doc := b.Document()
	runes := []rune(doc.Text)
	if doc.TokenCount() != 3 {
		t.Fatalf("expected 3 tokens, got %d", doc.TokenCount())
	}
	for _, p := range doc.Pages {
		for _, tok := range p.Tokens {
			seg := tok.Layout.TextAnchor.TextSegments[0]
			got := string(runes[seg.StartIndex.Int():seg.EndIndex.Int()])
			if strings.TrimSpace(got) != got || got == "" {
				t.Errorf("segment text %q is not a clean word", got)
			}
		}
	}
	if doc.Pages[1].PageNumber != 2 {
		t.Errorf("expected page number 2, got %d", doc.Pages[1].PageNumber)
	}
}
