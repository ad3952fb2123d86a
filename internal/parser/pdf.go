package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/motorsig/internal/ocrdoc"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser reads word boxes from a PDF text layer, as produced by
// scanners that embed OCR output. It tries the Go library first, then
// falls back to `pdftotext -bbox` if available.
type PDFParser struct {
	FallbackPdftotext bool
}

const defaultPageHeight = 792

func (p *PDFParser) Parse(ctx context.Context, r io.Reader, filename string) (*ocrdoc.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "motorsig-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	doc, err := extractPDFWords(tmpPath)
	if (err != nil || doc.TokenCount() == 0) && p.FallbackPdftotext {
		if fb, ferr := extractPdftotextWords(ctx, tmpPath); ferr == nil {
			doc, err = fb, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf words from %q: %w", filename, err)
	}
	return doc, nil
}

// pdfWord accumulates glyphs into a word box in page space (origin at
// the bottom left).
type pdfWord struct {
	text                   strings.Builder
	xMin, xMax, yMin, yMax float64
	baseline, size         float64
}

func (w *pdfWord) empty() bool { return w.text.Len() == 0 }

func (w *pdfWord) add(t pdflib.Text) {
	if w.empty() {
		w.xMin, w.xMax = t.X, t.X+t.W
		w.yMin, w.yMax = t.Y, t.Y+t.FontSize
		w.baseline, w.size = t.Y, t.FontSize
	} else {
		w.xMin = math.Min(w.xMin, t.X)
		w.xMax = math.Max(w.xMax, t.X+t.W)
		w.yMin = math.Min(w.yMin, t.Y)
		w.yMax = math.Max(w.yMax, t.Y+t.FontSize)
	}
	w.text.WriteString(t.S)
}

func extractPDFWords(path string) (doc *ocrdoc.Document, err error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	// The library panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("read pdf: %v", rec)
		}
	}()

	var b ocrdoc.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		width, height := pageSize(page)
		b.StartPage(i, width, height)

		var cur pdfWord
		flush := func(brk string) {
			if cur.empty() {
				return
			}
			// Flip to a top-left origin like image coordinates.
			poly := ocrdoc.Rect(cur.xMin, height-cur.yMax, cur.xMax, height-cur.yMin)
			b.AddToken(cur.text.String(), poly, 1, brk)
			cur = pdfWord{}
		}
		for _, t := range page.Content().Text {
			if strings.TrimFunc(t.S, unicode.IsSpace) == "" {
				flush("SPACE")
				continue
			}
			if !cur.empty() {
				switch {
				case math.Abs(t.Y-cur.baseline) > cur.size/2:
					flush("EOL")
				case t.X-cur.xMax > cur.size/4:
					flush("SPACE")
				}
			}
			cur.add(t)
		}
		flush("EOL")
	}
	return b.Document(), nil
}

func pageSize(page pdflib.Page) (width, height float64) {
	box := page.MediaBox()
	if box.Len() != 4 {
		return 0, defaultPageHeight
	}
	width = box.Index(2).Float64() - box.Index(0).Float64()
	height = box.Index(3).Float64() - box.Index(1).Float64()
	if height <= 0 {
		height = defaultPageHeight
	}
	return width, height
}

func extractPdftotextWords(ctx context.Context, path string) (*ocrdoc.Document, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-bbox", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return parseBBoxHTML(bytes.NewReader(out))
}

// parseBBoxHTML reads the XHTML written by `pdftotext -bbox`, whose
// coordinates already have a top-left origin.
func parseBBoxHTML(r io.Reader) (*ocrdoc.Document, error) {
	dom, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse bbox html: %w", err)
	}
	attr := func(s *goquery.Selection, name string) (float64, bool) {
		v, ok := s.Attr(name)
		if !ok {
			return 0, false
		}
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}

	var b ocrdoc.Builder
	dom.Find("page").Each(func(i int, page *goquery.Selection) {
		w, _ := attr(page, "width")
		h, _ := attr(page, "height")
		b.StartPage(i+1, w, h)

		words := page.Find("word")
		prevY := math.NaN()
		var pending string
		var pendingBox ocrdoc.BoundingPoly
		words.Each(func(_ int, word *goquery.Selection) {
			x0, ok0 := attr(word, "xmin")
			y0, ok1 := attr(word, "ymin")
			x1, ok2 := attr(word, "xmax")
			y1, ok3 := attr(word, "ymax")
			text := strings.TrimSpace(word.Text())
			if !(ok0 && ok1 && ok2 && ok3) || text == "" {
				return
			}
			if pending != "" {
				brk := "SPACE"
				if y0 > prevY {
					brk = "EOL"
				}
				b.AddToken(pending, pendingBox, 1, brk)
			}
			pending, pendingBox, prevY = text, ocrdoc.Rect(x0, y0, x1, y1), y1
		})
		if pending != "" {
			b.AddToken(pending, pendingBox, 1, "EOL")
		}
	})
	return b.Document(), nil
}
