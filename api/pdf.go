package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/charter/core"
	"github.com/wansing/charter/pdf"
)

// pdfData assembles the export input for a document. If fillable is set, the
// document's form fields are rendered as blank lines.
func pdfData(ctx *context, document *core.Document, fillable bool) (pdf.Data, error) {

	author, err := document.Author()
	if err != nil {
		return pdf.Data{}, err
	}
	category, err := document.Category()
	if err != nil {
		return pdf.Data{}, err
	}

	var data = pdf.Data{
		Title:          document.Title(),
		Category:       category.Name(),
		Author:         core.FullName(author),
		Status:         document.Status().String(),
		TsCreated:      document.TsCreated(),
		TsApproved:     document.TsApproved(),
		Content:        document.Content(),
		Fillable:       fillable,
		AcceptLanguage: ctx.AcceptLanguage(),
	}

	if id := document.ApprovedByID(); id != 0 {
		if approver, err := ctx.db.GetUser(id); err == nil {
			data.Approver = core.FullName(approver)
		}
	}

	if fillable {
		fields, err := document.FormFields()
		if err != nil {
			return pdf.Data{}, err
		}
		for _, f := range fields {
			data.Fields = append(data.Fields, pdf.Field{Name: f.Name(), Required: f.Required()})
		}
	}

	return data, nil
}

func servePDF(w http.ResponseWriter, ctx *context, document *core.Document, fillable bool) error {

	data, err := pdfData(ctx, document, fillable)
	if err != nil {
		return err
	}

	content, err := pdf.Generate(data)
	if err != nil {
		return err
	}

	ctx.db.LogActivity(ctx.User, "document.export_pdf", "document", document.ID(), document.Slug(), ctx.IP(), document.ID())

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, document.Slug()))
	_, err = w.Write(content)
	return err
}

func documentPDF(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}
	return servePDF(w, ctx, document, false)
}

func documentPDFFillable(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}
	if !document.HasFillableFields() {
		return badRequest("document has no fillable fields")
	}
	return servePDF(w, ctx, document, true)
}

// documentPreview returns the rendered HTML that the PDF export is based on.
func documentPreview(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":    document.ID(),
		"title": document.Title(),
		"html":  pdf.RenderMarkdown(strings.NewReader(document.Content())),
	})
}
