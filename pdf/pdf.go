// Package pdf renders documents as PDF files.
//
// The layout is deliberately plain: a centered title, a metadata table and
// the markdown content flattened to text blocks. Fillable documents get one
// placeholder line per form field.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// A Field is a form field placeholder in a fillable PDF.
type Field struct {
	Name     string
	Required bool
}

// Data is everything that ends up in the PDF.
type Data struct {
	Title      string
	Category   string
	Author     string
	Status     string
	Approver   string // empty if the document was never approved
	TsCreated  int64
	TsApproved int64
	Content    string // markdown
	Fields     []Field
	Fillable   bool

	// AcceptLanguage selects the date format of the metadata table.
	AcceptLanguage string
}

// Generate renders the document data into a PDF file.
func Generate(data Data) ([]byte, error) {

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(data.Title, true)
	doc.SetAutoPageBreak(true, 15)
	doc.SetFooterFunc(func() {
		doc.SetY(-12)
		doc.SetFont("Helvetica", "I", 8)
		doc.CellFormat(0, 8, fmt.Sprintf("Page %d", doc.PageNo()), "", 0, "C", false, 0, "")
	})
	doc.AddPage()

	tr := doc.UnicodeTranslatorFromDescriptor("")

	// title

	doc.SetFont("Helvetica", "B", 18)
	doc.SetTextColor(0, 0, 96)
	doc.MultiCell(0, 9, tr(data.Title), "", "C", false)
	doc.Ln(4)

	// metadata table

	var meta = [][2]string{
		{"Category:", data.Category},
		{"Author:", data.Author},
		{"Created:", FormatDateTime(data.AcceptLanguage, data.TsCreated)},
		{"Status:", data.Status},
	}
	if data.Approver != "" {
		meta = append(meta,
			[2]string{"Approved by:", data.Approver},
			[2]string{"Approved at:", FormatDateTime(data.AcceptLanguage, data.TsApproved)},
		)
	}

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(0, 0, 0)
	for _, row := range meta {
		doc.SetFillColor(233, 236, 239)
		doc.CellFormat(40, 7, row[0], "1", 0, "L", true, 0, "")
		doc.CellFormat(0, 7, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	doc.Ln(8)

	// form field placeholders

	if data.Fillable && len(data.Fields) > 0 {
		doc.SetFont("Helvetica", "B", 12)
		doc.SetTextColor(0, 0, 96)
		doc.CellFormat(0, 7, "Form Fields", "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 11)
		doc.SetTextColor(0, 0, 0)
		for _, field := range data.Fields {
			var line = field.Name + ": _________________"
			if field.Required {
				line += " (Required)"
			}
			doc.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
		}
		doc.Ln(6)
	}

	// content

	for _, b := range blocks(RenderMarkdown(strings.NewReader(data.Content))) {
		switch {
		case b.Heading > 0:
			var size = 15.0 - float64(b.Heading)
			if size < 11 {
				size = 11
			}
			doc.SetFont("Helvetica", "B", size)
			doc.SetTextColor(0, 0, 96)
			doc.MultiCell(0, 7, tr(b.Text), "", "L", false)
			doc.Ln(1)
		case b.Bullet:
			doc.SetFont("Helvetica", "", 11)
			doc.SetTextColor(0, 0, 0)
			doc.MultiCell(0, 6, tr("- "+b.Text), "", "L", false)
		default:
			doc.SetFont("Helvetica", "", 11)
			doc.SetTextColor(0, 0, 0)
			doc.MultiCell(0, 6, tr(b.Text), "", "L", false)
			doc.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
