package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/charter/core"
)

type formFieldBody struct {
	Name        string   `json:"field_name"`
	Type        string   `json:"field_type"`
	Position    int      `json:"position"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder_text"`
	Options     []string `json:"options"`
}

func formFieldSpecs(body []formFieldBody) ([]core.FormFieldSpec, error) {
	var specs = make([]core.FormFieldSpec, 0, len(body))
	for _, f := range body {
		var fieldType = core.FieldType(f.Type)
		if !fieldType.Valid() {
			return nil, badRequest("unknown field type: %s", f.Type)
		}
		if f.Name == "" {
			return nil, badRequest("field name can't be empty")
		}
		specs = append(specs, core.FormFieldSpec{
			Name:        f.Name,
			Type:        fieldType,
			Position:    f.Position,
			Required:    f.Required,
			Placeholder: f.Placeholder,
			Options:     f.Options,
		})
	}
	return specs, nil
}

func listDocuments(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var query = req.URL.Query()

	var filter = core.DocumentFilter{
		CategoryID: queryInt(req, "category_id"),
		AuthorID:   queryInt(req, "author_id"),
		Search:     query.Get("search"),
		ViewerID:   ctx.User.ID(),
		ViewAll:    ctx.User.Role().CanViewAllDocuments(),
		Limit:      queryInt(req, "limit"),
		Offset:     queryInt(req, "offset"),
	}

	if s := query.Get("status"); s != "" {
		var status = core.Status(s)
		if !status.Valid() {
			return badRequest("unknown status: %s", s)
		}
		filter.Status = status
	}

	documents, err := ctx.db.GetDocuments(filter)
	if err != nil {
		return err
	}

	var result = make([]*documentJSON, 0, len(documents))
	for _, d := range documents {
		view, err := ctx.newDocumentJSON(ctx.db.NewDocument(d), false)
		if err != nil {
			return err
		}
		result = append(result, view)
	}
	return writeJSON(w, http.StatusOK, result)
}

func createDocument(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var body struct {
		Title      string          `json:"title"`
		CategoryID int             `json:"category_id"`
		Content    string          `json:"content_markdown"`
		IsPublic   bool            `json:"is_public"`
		FormFields []formFieldBody `json:"form_fields"`
	}
	if err := readBody(req, &body); err != nil {
		return err
	}

	fields, err := formFieldSpecs(body.FormFields)
	if err != nil {
		return err
	}

	document, err := ctx.db.CreateDocument(ctx.User, body.Title, body.CategoryID, body.Content, body.IsPublic, fields, ctx.IP())
	if err != nil {
		return err
	}

	view, err := ctx.newDocumentJSON(document, true)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, view)
}

// loadDocument fetches the :id document and checks view access.
func loadDocument(ctx *context, params httprouter.Params) (*core.Document, error) {
	id, err := intParam(params, "id")
	if err != nil {
		return nil, err
	}
	document, err := ctx.db.GetDocument(id)
	if err != nil {
		return nil, err
	}
	if !document.CanBeViewedBy(ctx.User) {
		return nil, core.ErrUnauthorized
	}
	return document, nil
}

// getDocument also serves GET /api/documents/stats, see getUser for the
// routing constraint.
func getDocument(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if params.ByName("id") == "stats" {
		return documentStats(w, ctx)
	}

	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}
	view, err := ctx.newDocumentJSON(document, true)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

// documentStats reports counts per status. Users without full visibility get
// numbers over their own documents only, plus their five newest documents.
func documentStats(w http.ResponseWriter, ctx *context) error {

	var byStatus map[core.Status]int
	var err error
	if ctx.User.Role().CanViewAllDocuments() {
		byStatus, err = ctx.db.CountDocumentsByStatus()
	} else {
		byStatus, err = ctx.db.CountDocumentsByStatusOf(ctx.User.ID())
	}
	if err != nil {
		return err
	}

	var total int
	var statuses = make(map[string]int)
	for status, count := range byStatus {
		total += count
		statuses[status.String()] = count
	}

	recent, err := ctx.db.GetDocuments(core.DocumentFilter{
		ViewerID: ctx.User.ID(),
		ViewAll:  ctx.User.Role().CanViewAllDocuments(),
		Limit:    5,
	})
	if err != nil {
		return err
	}
	var recentViews = make([]*documentJSON, 0, len(recent))
	for _, d := range recent {
		view, err := ctx.newDocumentJSON(ctx.db.NewDocument(d), false)
		if err != nil {
			return err
		}
		recentViews = append(recentViews, view)
	}

	return writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_documents": total,
		"by_status":       statuses,
		"recent":          recentViews,
	})
}

func updateDocument(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}

	var body struct {
		Title      *string          `json:"title"`
		Content    *string          `json:"content_markdown"`
		IsPublic   *bool            `json:"is_public"`
		Note       string           `json:"change_description"`
		FormFields *[]formFieldBody `json:"form_fields"`
	}
	if err := readBody(req, &body); err != nil {
		return err
	}

	var upd = core.DocumentUpdate{
		Title:    body.Title,
		Content:  body.Content,
		IsPublic: body.IsPublic,
		Note:     body.Note,
	}
	if body.FormFields != nil {
		fields, err := formFieldSpecs(*body.FormFields)
		if err != nil {
			return err
		}
		upd.FormFields = fields
	}

	if err := ctx.db.UpdateDocument(ctx.User, document, upd, ctx.IP()); err != nil {
		return err
	}

	document, err = ctx.db.GetDocument(document.ID())
	if err != nil {
		return err
	}
	view, err := ctx.newDocumentJSON(document, true)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

func deleteDocument(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}

	if err := ctx.db.DeleteDocument(ctx.User, document, ctx.IP()); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]string{"message": "document deleted"})
}

func publishDocument(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}

	if err := ctx.db.PublishDocument(ctx.User, document, ctx.IP()); err != nil {
		return err
	}

	document, err = ctx.db.GetDocument(document.ID())
	if err != nil {
		return err
	}
	view, err := ctx.newDocumentJSON(document, false)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

func archiveDocument(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}

	if err := ctx.db.ArchiveDocument(ctx.User, document, ctx.IP()); err != nil {
		return err
	}

	document, err = ctx.db.GetDocument(document.ID())
	if err != nil {
		return err
	}
	view, err := ctx.newDocumentJSON(document, false)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

func listVersions(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}

	versions, err := ctx.db.GetVersions(document.ID())
	if err != nil {
		return err
	}

	var result = make([]*versionJSON, 0, len(versions))
	for _, v := range versions {
		result = append(result, newVersionJSON(v))
	}
	return writeJSON(w, http.StatusOK, result)
}

func getVersion(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}

	no, err := intParam(params, "no")
	if err != nil {
		return err
	}
	version, err := ctx.db.GetVersion(document.ID(), no)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, newVersionJSON(version))
}

// diffVersions compares two stored versions of the same document.
func diffVersions(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}

	no, err := intParam(params, "no")
	if err != nil {
		return err
	}
	with, err := intParam(params, "with")
	if err != nil {
		return err
	}

	from, err := ctx.db.GetVersion(document.ID(), no)
	if err != nil {
		return err
	}
	to, err := ctx.db.GetVersion(document.ID(), with)
	if err != nil {
		return err
	}

	var diff = core.DiffText(from.Content(), to.Content())

	return writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_id":  document.ID(),
		"from_version": from.VersionNo(),
		"to_version":   to.VersionNo(),
		"from_content": from.Content(),
		"to_content":   to.Content(),
		"diff":         diff,
		"changed":      diff != "",
	})
}

func documentActivity(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	document, err := loadDocument(ctx, params)
	if err != nil {
		return err
	}

	if !ctx.User.Role().CanViewAllDocuments() && ctx.User.ID() != document.AuthorID() {
		return core.ErrUnauthorized
	}

	activity, err := ctx.db.GetActivityByDocument(document.ID(), queryInt(req, "limit"), queryInt(req, "offset"))
	if err != nil {
		return err
	}

	var result = make([]*activityJSON, 0, len(activity))
	for _, a := range activity {
		result = append(result, newActivityJSON(a))
	}
	return writeJSON(w, http.StatusOK, result)
}
