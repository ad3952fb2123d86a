package parser

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/motorsig/internal/ocrdoc"
	"golang.org/x/net/html"
)

// HOCRParser reads hOCR output from Tesseract, OCRopus or Kraken.
type HOCRParser struct{}

const hocrLines = ".ocr_line, .ocrx_line, .ocr_caption, .ocr_header, .ocr_textfloat"

func (p *HOCRParser) Parse(_ context.Context, r io.Reader, filename string) (*ocrdoc.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse hocr: %w", err)
	}
	dom := goquery.NewDocumentFromNode(root)

	pages := dom.Find(".ocr_page")
	if pages.Length() == 0 {
		return nil, fmt.Errorf("parse hocr %q: no ocr_page elements", filename)
	}

	var b ocrdoc.Builder
	pages.Each(func(i int, page *goquery.Selection) {
		props := hocrProps(page)
		number := i + 1
		if n, ok := props["ppageno"]; ok && len(n) == 1 {
			if v, err := strconv.Atoi(n[0]); err == nil {
				number = v + 1
			}
		}
		var width, height float64
		if box, ok := hocrBBox(props); ok {
			width, height = box[2]-box[0], box[3]-box[1]
		}
		b.StartPage(number, width, height)

		lines := page.Find(hocrLines)
		if lines.Length() == 0 {
			addWords(&b, page.Find(".ocrx_word"), "SPACE")
			return
		}
		lines.Each(func(_ int, line *goquery.Selection) {
			addWords(&b, line.Find(".ocrx_word"), "EOL")
		})
	})
	return b.Document(), nil
}

// addWords appends the usable words in order; the last one gets
// lastBreak.
func addWords(b *ocrdoc.Builder, words *goquery.Selection, lastBreak string) {
	type word struct {
		text string
		box  [4]float64
		conf float64
	}
	var usable []word
	words.Each(func(_ int, w *goquery.Selection) {
		text := strings.TrimSpace(w.Text())
		props := hocrProps(w)
		box, ok := hocrBBox(props)
		if text == "" || !ok {
			return
		}
		conf := 0.0
		if c, ok := props["x_wconf"]; ok && len(c) == 1 {
			if v, err := strconv.ParseFloat(c[0], 64); err == nil {
				conf = v / 100
			}
		}
		usable = append(usable, word{text: text, box: box, conf: conf})
	})
	for i, w := range usable {
		brk := "SPACE"
		if i == len(usable)-1 {
			brk = lastBreak
		}
		b.AddToken(w.text, ocrdoc.Rect(w.box[0], w.box[1], w.box[2], w.box[3]), w.conf, brk)
	}
}

// hocrProps splits a title attribute such as
// `bbox 10 20 50 40; x_wconf 93` into its properties.
func hocrProps(s *goquery.Selection) map[string][]string {
	title, _ := s.Attr("title")
	props := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = fields[1:]
	}
	return props
}

func hocrBBox(props map[string][]string) ([4]float64, bool) {
	var box [4]float64
	f, ok := props["bbox"]
	if !ok || len(f) != 4 {
		return box, false
	}
	for i, s := range f {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return box, false
		}
		box[i] = v
	}
	return box, true
}
