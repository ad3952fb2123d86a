package report

import (
	"fmt"
	"io"

	"github.com/fumiama/go-docx"
)

// DOCX writes r as a Word document.
func DOCX(w io.Writer, r *Report) error {
	doc := docx.New().WithDefaultTheme().WithA4Page()
	doc.AddParagraph().Style("Heading1").AddText(r.Title)
	if r.Subtitle != "" {
		doc.AddParagraph().AddText(r.Subtitle).Italic()
	}
	for _, s := range r.Sections {
		doc.AddParagraph().Style("Heading2").AddText(s.Heading)
		for _, p := range s.Paragraphs {
			doc.AddParagraph().AddText(p)
		}
		for _, item := range s.Bullets {
			doc.AddParagraph().AddText("• " + item)
		}
		if len(s.Table) > 0 {
			cols := len(s.Table[0])
			tbl := doc.AddTable(len(s.Table), cols, 0, nil)
			for i, row := range s.Table {
				for j := 0; j < cols && j < len(row); j++ {
					run := tbl.TableRows[i].TableCells[j].AddParagraph().AddText(row[j])
					if i == 0 {
						run.Bold()
					}
				}
			}
		}
	}
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
