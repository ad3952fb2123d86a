// Package ocrdoc holds the OCR document structure consumed by the
// handwriting analyzer. It mirrors the Document AI layout (text, pages,
// tokens with text anchors and bounding polygons) so that every OCR source
// converts into the same shape.
package ocrdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Document is the root of an OCR result.
type Document struct {
	Text  string `json:"text"`
	Pages []Page `json:"pages"`
}

// Page is a single recognized page.
type Page struct {
	PageNumber int       `json:"pageNumber,omitempty"`
	Dimension  Dimension `json:"dimension"`
	Tokens     []Token   `json:"tokens"`
}

// Dimension is the page size in the same units as the vertices.
type Dimension struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit,omitempty"`
}

// Token is one recognized unit of text.
type Token struct {
	Layout        Layout         `json:"layout"`
	DetectedBreak *DetectedBreak `json:"detectedBreak,omitempty"`
}

// Layout locates a token in the text and on the page.
type Layout struct {
	TextAnchor   TextAnchor   `json:"textAnchor"`
	BoundingPoly BoundingPoly `json:"boundingPoly"`
	Confidence   float64      `json:"confidence,omitempty"`
}

// TextAnchor points into Document.Text.
type TextAnchor struct {
	TextSegments []TextSegment `json:"textSegments"`
}

// TextSegment is a [StartIndex, EndIndex) range of code points into
// Document.Text.
// StartIndex is nil when the source omitted it.
type TextSegment struct {
	StartIndex *Offset `json:"startIndex,omitempty"`
	EndIndex   Offset  `json:"endIndex"`
}

// BoundingPoly is the token's polygon.
type BoundingPoly struct {
	Vertices []Vertex `json:"vertices"`
}

// Vertex coordinates are optional; Document AI drops zero values.
type Vertex struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// DetectedBreak describes what follows a token.
type DetectedBreak struct {
	Type string `json:"type"`
}

// Offset is a character offset. Document AI serializes int64 fields as
// JSON strings, so both "12" and 12 are accepted and coerced once here.
type Offset int

// UnmarshalJSON accepts a number or a numeric string.
func (o *Offset) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*o = 0
		return nil
	}
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("offset: %w", err)
		}
		s = strings.TrimSpace(str)
		if s == "" {
			*o = 0
			return nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("offset %q is not an integer", s)
		}
		n = int64(f)
	}
	*o = Offset(n)
	return nil
}

// Int returns the offset as an int.
func (o Offset) Int() int { return int(o) }

// NewOffset returns a pointer to an offset, for building segments in code.
func NewOffset(n int) *Offset {
	o := Offset(n)
	return &o
}

// Coord returns a pointer to a coordinate value.
func Coord(v float64) *float64 { return &v }

// Rect builds the four-vertex polygon of an axis-aligned box.
func Rect(xMin, yMin, xMax, yMax float64) BoundingPoly {
	return BoundingPoly{Vertices: []Vertex{
		{X: Coord(xMin), Y: Coord(yMin)},
		{X: Coord(xMax), Y: Coord(yMin)},
		{X: Coord(xMax), Y: Coord(yMax)},
		{X: Coord(xMin), Y: Coord(yMax)},
	}}
}

type envelope struct {
	Document *Document `json:"document"`
}

// Decode reads a Document AI style JSON payload. Both the bare document
// and the {"document": {...}} response envelope are accepted.
func Decode(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if env.Document != nil {
		return env.Document, nil
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// TokenCount returns the number of raw tokens across all pages.
func (d *Document) TokenCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Tokens)
	}
	return n
}

// Builder assembles a Document token by token, keeping Text and the
// segment offsets consistent. OCR adapters use it.
type Builder struct {
	text  strings.Builder
	runes int
	pages []Page
}

// StartPage begins a new page.
func (b *Builder) StartPage(number int, width, height float64) {
	if b.runes > 0 {
		b.write("\n")
	}
	b.pages = append(b.pages, Page{
		PageNumber: number,
		Dimension:  Dimension{Width: width, Height: height, Unit: "pixels"},
	})
}

// AddToken appends a word followed by breakType ("SPACE", "EOL" or "")
// to the current page.
func (b *Builder) AddToken(text string, poly BoundingPoly, confidence float64, breakType string) {
	if len(b.pages) == 0 {
		b.StartPage(1, 0, 0)
	}
	start := b.runes
	b.write(text)
	end := b.runes
	switch breakType {
	case "SPACE":
		b.write(" ")
	case "EOL":
		b.write("\n")
	}

	tok := Token{
		Layout: Layout{
			TextAnchor: TextAnchor{TextSegments: []TextSegment{{
				StartIndex: NewOffset(start),
				EndIndex:   Offset(end),
			}}},
			BoundingPoly: poly,
			Confidence:   confidence,
		},
	}
	if breakType != "" {
		tok.DetectedBreak = &DetectedBreak{Type: breakType}
	}
	p := &b.pages[len(b.pages)-1]
	p.Tokens = append(p.Tokens, tok)
}

func (b *Builder) write(s string) {
	b.text.WriteString(s)
	b.runes += utf8.RuneCountInString(s)
}

// Document returns the assembled document.
func (b *Builder) Document() *Document {
	return &Document{Text: b.text.String(), Pages: b.pages}
}
