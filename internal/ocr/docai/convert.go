// Package docai recognizes handwriting with Google Document AI and
// converts its responses into layout documents.
package docai

import (
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/dgallion1/motorsig/internal/ocrdoc"
)

// Convert maps a Document AI response onto the layout model. Token
// offsets and vertex coordinates are copied as-is; missing vertex
// coordinates stay missing.
func Convert(d *documentaipb.Document) *ocrdoc.Document {
	if d == nil {
		return &ocrdoc.Document{}
	}
	out := &ocrdoc.Document{Text: d.GetText()}
	for _, p := range d.GetPages() {
		page := ocrdoc.Page{
			PageNumber: int(p.GetPageNumber()),
			Dimension: ocrdoc.Dimension{
				Width:  float64(p.GetDimension().GetWidth()),
				Height: float64(p.GetDimension().GetHeight()),
				Unit:   p.GetDimension().GetUnit(),
			},
		}
		for _, t := range p.GetTokens() {
			page.Tokens = append(page.Tokens, convertToken(t))
		}
		out.Pages = append(out.Pages, page)
	}
	return out
}

func convertToken(t *documentaipb.Document_Page_Token) ocrdoc.Token {
	layout := t.GetLayout()
	tok := ocrdoc.Token{
		Layout: ocrdoc.Layout{Confidence: float64(layout.GetConfidence())},
	}
	for _, seg := range layout.GetTextAnchor().GetTextSegments() {
		tok.Layout.TextAnchor.TextSegments = append(tok.Layout.TextAnchor.TextSegments, ocrdoc.TextSegment{
			StartIndex: ocrdoc.NewOffset(int(seg.GetStartIndex())),
			EndIndex:   ocrdoc.Offset(seg.GetEndIndex()),
		})
	}
	for _, v := range layout.GetBoundingPoly().GetVertices() {
		tok.Layout.BoundingPoly.Vertices = append(tok.Layout.BoundingPoly.Vertices, ocrdoc.Vertex{
			X: ocrdoc.Coord(float64(v.GetX())),
			Y: ocrdoc.Coord(float64(v.GetY())),
		})
	}
	if br := t.GetDetectedBreak(); br != nil && br.GetType() != documentaipb.Document_Page_Token_DetectedBreak_TYPE_UNSPECIFIED {
		tok.DetectedBreak = &ocrdoc.DetectedBreak{Type: br.GetType().String()}
	}
	return tok
}
