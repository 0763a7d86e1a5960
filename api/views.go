package api

import (
	"time"

	"github.com/wansing/charter/core"
)

// tsJSON formats a unix timestamp as RFC 3339, nil for the zero value.
func tsJSON(ts int64) *string {
	if ts == 0 {
		return nil
	}
	var s = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	return &s
}

type userJSON struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Role      core.Role `json:"role"`
	Active    bool      `json:"active"`
	LastLogin *string   `json:"last_login"`
}

func newUserJSON(u core.DBUser) *userJSON {
	if u == nil {
		return nil
	}
	return &userJSON{
		ID:        u.ID(),
		Email:     u.Email(),
		FirstName: u.FirstName(),
		LastName:  u.LastName(),
		FullName:  core.FullName(u),
		Role:      u.Role(),
		Active:    u.Active(),
		LastLogin: tsJSON(u.LastLogin()),
	}
}

type categoryJSON struct {
	ID                   int       `json:"id"`
	Name                 string    `json:"name"`
	ParentID             *int      `json:"parent_id"`
	Description          string    `json:"description"`
	RequiredApprovalRole core.Role `json:"required_approval_role"`
	FullPath             string    `json:"full_path"`
	DocumentCount        int       `json:"document_count"`
	CreatedAt            *string   `json:"created_at"`
	UpdatedAt            *string   `json:"updated_at"`
}

func newCategoryJSON(cat *core.Category) (*categoryJSON, error) {

	fullPath, err := cat.FullPath()
	if err != nil {
		return nil, err
	}

	count, err := cat.DocumentCount()
	if err != nil {
		return nil, err
	}

	var parentID *int
	if id := cat.ParentID(); id != 0 {
		parentID = &id
	}

	return &categoryJSON{
		ID:                   cat.ID(),
		Name:                 cat.Name(),
		ParentID:             parentID,
		Description:          cat.Description(),
		RequiredApprovalRole: cat.RequiredApprovalRole(),
		FullPath:             fullPath,
		DocumentCount:        count,
		CreatedAt:            tsJSON(cat.TsCreated()),
		UpdatedAt:            tsJSON(cat.TsUpdated()),
	}, nil
}

type categoryTreeJSON struct {
	categoryJSON
	Children []*categoryTreeJSON `json:"children"`
}

type formFieldJSON struct {
	ID          int            `json:"id"`
	Name        string         `json:"field_name"`
	Type        core.FieldType `json:"field_type"`
	Position    int            `json:"position"`
	Required    bool           `json:"required"`
	Placeholder string         `json:"placeholder_text"`
	Options     []string       `json:"options"`
}

func newFormFieldJSON(f core.DBFormField) *formFieldJSON {
	return &formFieldJSON{
		ID:          f.ID(),
		Name:        f.Name(),
		Type:        f.Type(),
		Position:    f.Position(),
		Required:    f.Required(),
		Placeholder: f.Placeholder(),
		Options:     f.Options(),
	}
}

type versionJSON struct {
	VersionNo int     `json:"version_number"`
	Content   string  `json:"content_markdown"`
	Note      string  `json:"change_description"`
	Diff      string  `json:"content_diff"`
	AuthorID  int     `json:"author_id"`
	CreatedAt *string `json:"created_at"`
}

func newVersionJSON(v core.DBVersion) *versionJSON {
	return &versionJSON{
		VersionNo: v.VersionNo(),
		Content:   v.Content(),
		Note:      v.Note(),
		Diff:      v.Diff(),
		AuthorID:  v.AuthorID(),
		CreatedAt: tsJSON(v.TsCreated()),
	}
}

type documentJSON struct {
	ID                int              `json:"id"`
	Title             string           `json:"title"`
	Slug              string           `json:"slug"`
	CategoryID        int              `json:"category_id"`
	Category          string           `json:"category"`
	Status            core.Status      `json:"status"`
	Content           string           `json:"content_markdown"`
	IsPublic          bool             `json:"is_public"`
	HasFillableFields bool             `json:"has_fillable_fields"`
	AuthorID          int              `json:"author_id"`
	Author            string           `json:"author"`
	ApprovedBy        *string          `json:"approved_by"`
	ApprovedAt        *string          `json:"approved_at"`
	CreatedAt         *string          `json:"created_at"`
	UpdatedAt         *string          `json:"updated_at"`
	MaxVersionNo      int              `json:"max_version_number"`
	FormFields        []*formFieldJSON `json:"form_fields,omitempty"`
	Versions          []*versionJSON   `json:"versions,omitempty"`
}

// newDocumentJSON builds the document view. If detail is set, form fields and
// versions are included.
func (ctx *context) newDocumentJSON(d *core.Document, detail bool) (*documentJSON, error) {

	author, err := d.Author()
	if err != nil {
		return nil, err
	}

	category, err := d.Category()
	if err != nil {
		return nil, err
	}

	var result = &documentJSON{
		ID:                d.ID(),
		Title:             d.Title(),
		Slug:              d.Slug(),
		CategoryID:        d.CategoryID(),
		Category:          category.Name(),
		Status:            d.Status(),
		Content:           d.Content(),
		IsPublic:          d.IsPublic(),
		HasFillableFields: d.HasFillableFields(),
		AuthorID:          d.AuthorID(),
		Author:            core.FullName(author),
		ApprovedAt:        tsJSON(d.TsApproved()),
		CreatedAt:         tsJSON(d.TsCreated()),
		UpdatedAt:         tsJSON(d.TsUpdated()),
		MaxVersionNo:      d.MaxVersionNo(),
	}

	if id := d.ApprovedByID(); id != 0 {
		if approver, err := ctx.db.GetUser(id); err == nil {
			var name = core.FullName(approver)
			result.ApprovedBy = &name
		}
	}

	if detail {
		fields, err := d.FormFields()
		if err != nil {
			return nil, err
		}
		result.FormFields = make([]*formFieldJSON, 0, len(fields))
		for _, f := range fields {
			result.FormFields = append(result.FormFields, newFormFieldJSON(f))
		}

		versions, err := ctx.db.GetVersions(d.ID())
		if err != nil {
			return nil, err
		}
		result.Versions = make([]*versionJSON, 0, len(versions))
		for _, v := range versions {
			result.Versions = append(result.Versions, newVersionJSON(v))
		}
	}

	return result, nil
}

type approvalJSON struct {
	ID            int                 `json:"id"`
	DocumentID    int                 `json:"document_id"`
	DocumentTitle string              `json:"document_title"`
	RequestedBy   int                 `json:"requested_by"`
	Status        core.ApprovalStatus `json:"status"`
	Notes         string              `json:"notes"`
	RequestedAt   *string             `json:"requested_at"`
	ReviewedBy    *int                `json:"reviewed_by"`
	ReviewedAt    *string             `json:"reviewed_at"`
}

func (ctx *context) newApprovalJSON(a *core.Approval) (*approvalJSON, error) {

	document, err := a.Document()
	if err != nil {
		return nil, err
	}

	var reviewedBy *int
	if id := a.ReviewedByID(); id != 0 {
		reviewedBy = &id
	}

	return &approvalJSON{
		ID:            a.ID(),
		DocumentID:    a.DocumentID(),
		DocumentTitle: document.Title(),
		RequestedBy:   a.RequestedByID(),
		Status:        a.Status(),
		Notes:         a.Notes(),
		RequestedAt:   tsJSON(a.TsRequested()),
		ReviewedBy:    reviewedBy,
		ReviewedAt:    tsJSON(a.TsReviewed()),
	}, nil
}

type activityJSON struct {
	Token      string  `json:"token"`
	UserID     int     `json:"user_id"`
	Action     string  `json:"action"`
	EntityType string  `json:"entity_type"`
	EntityID   int     `json:"entity_id"`
	Details    string  `json:"details"`
	IPAddress  string  `json:"ip_address"`
	DocumentID int     `json:"document_id"`
	Timestamp  *string `json:"timestamp"`
}

func newActivityJSON(a core.DBActivity) *activityJSON {
	return &activityJSON{
		Token:      a.Token(),
		UserID:     a.UserID(),
		Action:     a.Action(),
		EntityType: a.EntityType(),
		EntityID:   a.EntityID(),
		Details:    a.Details(),
		IPAddress:  a.IPAddress(),
		DocumentID: a.DocumentID(),
		Timestamp:  tsJSON(a.Ts()),
	}
}
