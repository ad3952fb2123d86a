// Package report renders analysis results as Markdown, HTML or Word
// documents. Every format is produced from the same section model.
package report

import (
	"fmt"
	"io"
	"strings"
)

// Format is an output document format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
)

// ParseFormat accepts the format names used by the API and CLI.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html", "htm":
		return FormatHTML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "docx", "word":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unsupported report format %q", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/html; charset=utf-8"
	}
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string { return string(f) }

// Report is a titled list of sections.
type Report struct {
	Title    string
	Subtitle string
	Sections []Section
}

// Section is a heading followed by paragraphs, bullets and an optional
// two-or-more column table whose first row is the header.
type Section struct {
	Heading    string
	Paragraphs []string
	Bullets    []string
	Table      [][]string
}

// Write renders r in format f.
func Write(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatMarkdown:
		_, err := w.Write(Markdown(r))
		return err
	case FormatHTML:
		b, err := HTML(r)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case FormatDOCX:
		return DOCX(w, r)
	}
	return fmt.Errorf("unsupported report format %q", f)
}
