package core

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
)

type CoreDB struct {
	ActivityDB
	ApprovalDB
	CategoryDB
	DocumentDB
	FormFieldDB
	UserDB
	SessionManager *scs.SessionManager

	SqlDB *sql.DB // required for init commands
}

func (c *CoreDB) Init(sessionStore scs.Store, cookiePath string) error {

	c.SessionManager = scs.New()
	c.SessionManager.Store = sessionStore
	c.SessionManager.Cookie.Path = cookiePath + "/"
	c.SessionManager.Cookie.Persist = false                 // don't store the cookie across browser sessions
	c.SessionManager.Cookie.SameSite = http.SameSiteLaxMode // good CSRF protection if HTTP GET doesn't modify anything
	c.SessionManager.Cookie.Secure = false                  // else running on localhost or behind a http proxy fails
	c.SessionManager.IdleTimeout = 12 * time.Hour
	c.SessionManager.Lifetime = 720 * time.Hour

	return nil
}

// GetDocument shadows DocumentDB.GetDocument.
func (c *CoreDB) GetDocument(id int) (*Document, error) {
	dbDocument, err := c.DocumentDB.GetDocument(id)
	if err != nil {
		return nil, err
	}
	return c.NewDocument(dbDocument), nil
}

// GetDocumentBySlug shadows DocumentDB.GetDocumentBySlug.
func (c *CoreDB) GetDocumentBySlug(slug string) (*Document, error) {
	dbDocument, err := c.DocumentDB.GetDocumentBySlug(slug)
	if err != nil {
		return nil, err
	}
	return c.NewDocument(dbDocument), nil
}

// FreeSlug derives a slug from the title and suffixes a number until the slug
// is unused. The unique column in the database still has the last word.
func (c *CoreDB) FreeSlug(title string) (string, error) {

	var slug = NormalizeSlug(title)
	if slug == "" {
		slug = "document"
	}

	var candidate = slug
	for i := 2; ; i++ {
		exists, err := c.SlugExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		if i > 1000 {
			return "", errors.New("no free slug found")
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
}

// CreateDocument inserts a document with status PENDING plus its form fields.
func (c *CoreDB) CreateDocument(u DBUser, title string, categoryID int, content string, isPublic bool, fields []FormFieldSpec, ipAddress string) (*Document, error) {

	if u == nil || !u.Role().CanCreateDocuments() {
		return nil, ErrUnauthorized
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title can't be empty")
	}

	if _, err := c.CategoryDB.GetCategory(categoryID); err != nil {
		return nil, fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
	}

	slug, err := c.FreeSlug(title)
	if err != nil {
		return nil, err
	}

	dbDocument, err := c.DocumentDB.InsertDocument(title, slug, categoryID, content, isPublic, len(fields) > 0, u.ID())
	if err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		if err := c.ReplaceFormFields(dbDocument.ID(), fields); err != nil {
			return nil, err
		}
	}

	c.LogActivity(u, "document.create", "document", dbDocument.ID(), title, ipAddress, dbDocument.ID())

	return c.NewDocument(dbDocument), nil
}

// DocumentUpdate carries the modifiable document fields. Nil pointers leave
// the field unchanged.
type DocumentUpdate struct {
	Title      *string
	Content    *string
	IsPublic   *bool
	Note       string // version note, used iff the content changes
	FormFields []FormFieldSpec
}

// UpdateDocument applies upd to the document. If the content changes, the
// previous content is recorded as a new version first, together with a diff
// towards the new content.
func (c *CoreDB) UpdateDocument(u DBUser, d *Document, upd DocumentUpdate, ipAddress string) error {

	if !d.CanBeEditedBy(u) {
		return ErrUnauthorized
	}

	var title = d.Title()
	if upd.Title != nil {
		title = strings.TrimSpace(*upd.Title)
		if title == "" {
			return errors.New("title can't be empty")
		}
	}

	var content = d.Content()
	if upd.Content != nil {
		content = *upd.Content
	}

	var isPublic = d.IsPublic()
	if upd.IsPublic != nil {
		isPublic = *upd.IsPublic
	}

	var hasFillableFields = d.HasFillableFields()
	if upd.FormFields != nil {
		hasFillableFields = len(upd.FormFields) > 0
	}

	if content != d.Content() {
		var diff = DiffText(d.Content(), content)
		if err := c.AddVersion(d.DBDocument, d.Content(), strings.TrimSpace(upd.Note), diff, u.ID()); err != nil {
			return err
		}
	}

	if err := c.DocumentDB.UpdateDocument(d.DBDocument, title, content, isPublic, hasFillableFields); err != nil {
		return err
	}

	if upd.FormFields != nil {
		if err := c.ReplaceFormFields(d.ID(), upd.FormFields); err != nil {
			return err
		}
	}

	c.LogActivity(u, "document.update", "document", d.ID(), title, ipAddress, d.ID())

	return nil
}

// DeleteDocument removes the document with its versions, form fields and
// approval requests.
func (c *CoreDB) DeleteDocument(u DBUser, d *Document, ipAddress string) error {

	if !d.CanBeEditedBy(u) {
		return ErrUnauthorized
	}

	if err := c.DeleteFormFields(d.ID()); err != nil {
		return err
	}

	if err := c.DeleteApprovalsByDocument(d.ID()); err != nil {
		return err
	}

	if err := c.DocumentDB.DeleteDocument(d.DBDocument); err != nil {
		return err
	}

	c.LogActivity(u, "document.delete", "document", d.ID(), d.Title(), ipAddress, 0)

	return nil
}

// RequestApproval opens an approval request and moves the document to
// UNDER_REVIEW. Only one pending request per document is allowed.
func (c *CoreDB) RequestApproval(u DBUser, d *Document, notes string, ipAddress string) (*Approval, error) {

	if !d.CanBeEditedBy(u) {
		return nil, ErrUnauthorized
	}

	if d.Status() != StatusPending && d.Status() != StatusUnderReview {
		return nil, fmt.Errorf("%w: can not request approval for a %s document", ErrConflict, d.Status())
	}

	pending, err := c.HasPendingApproval(d.ID())
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: document has a pending approval request", ErrConflict)
	}

	dbApproval, err := c.InsertApproval(d.ID(), u.ID(), notes)
	if err != nil {
		return nil, err
	}

	if err := c.SetStatus(d.DBDocument, StatusUnderReview); err != nil {
		return nil, err
	}

	c.LogActivity(u, "approval.request", "approval", dbApproval.ID(), notes, ipAddress, d.ID())

	var approval = c.NewApproval(dbApproval)
	approval.document = d
	approval.documentLoaded = true
	return approval, nil
}

// ReviewApproval approves or rejects a pending request. Approving moves the
// document to APPROVED and records the approver, rejecting moves it back to
// PENDING.
func (c *CoreDB) ReviewApproval(u DBUser, a *Approval, approve bool, notes string, ipAddress string) error {

	ok, err := a.CanBeReviewedBy(u)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	if a.Status() != ApprovalPending {
		return fmt.Errorf("%w: approval request has already been reviewed", ErrConflict)
	}

	document, err := a.Document()
	if err != nil {
		return err
	}

	var now = time.Now().Unix()

	if approve {
		if err := c.SetReviewed(a.DBApproval, ApprovalApproved, u.ID(), notes, now); err != nil {
			return err
		}
		if err := c.SetApproved(document.DBDocument, u.ID(), now); err != nil {
			return err
		}
		c.LogActivity(u, "approval.approve", "approval", a.ID(), notes, ipAddress, document.ID())
	} else {
		if err := c.SetReviewed(a.DBApproval, ApprovalRejected, u.ID(), notes, now); err != nil {
			return err
		}
		if err := c.SetStatus(document.DBDocument, StatusPending); err != nil {
			return err
		}
		c.LogActivity(u, "approval.reject", "approval", a.ID(), notes, ipAddress, document.ID())
	}

	return nil
}

// CancelApproval cancels a pending request and moves the document back to PENDING.
func (c *CoreDB) CancelApproval(u DBUser, a *Approval, ipAddress string) error {

	if !a.CanBeCancelledBy(u) {
		return ErrUnauthorized
	}

	if a.Status() != ApprovalPending {
		return fmt.Errorf("%w: only pending approval requests can be cancelled", ErrConflict)
	}

	document, err := a.Document()
	if err != nil {
		return err
	}

	if err := c.SetReviewed(a.DBApproval, ApprovalCancelled, u.ID(), a.Notes(), time.Now().Unix()); err != nil {
		return err
	}

	if err := c.SetStatus(document.DBDocument, StatusPending); err != nil {
		return err
	}

	c.LogActivity(u, "approval.cancel", "approval", a.ID(), "", ipAddress, document.ID())

	return nil
}

// PublishDocument moves an approved document to LIVE.
func (c *CoreDB) PublishDocument(u DBUser, d *Document, ipAddress string) error {

	ok, err := d.CanBeApprovedBy(u)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	if d.Status() != StatusApproved {
		return fmt.Errorf("%w: only approved documents can go live", ErrConflict)
	}

	if err := c.SetStatus(d.DBDocument, StatusLive); err != nil {
		return err
	}

	c.LogActivity(u, "document.publish", "document", d.ID(), "", ipAddress, d.ID())

	return nil
}

// ArchiveDocument moves a document to ARCHIVED.
func (c *CoreDB) ArchiveDocument(u DBUser, d *Document, ipAddress string) error {

	if !d.CanBeEditedBy(u) {
		return ErrUnauthorized
	}

	if err := c.SetStatus(d.DBDocument, StatusArchived); err != nil {
		return err
	}

	c.LogActivity(u, "document.archive", "document", d.ID(), "", ipAddress, d.ID())

	return nil
}

// CreateCategory inserts a category.
func (c *CoreDB) CreateCategory(u DBUser, name string, parentID int, description string, requiredApprovalRole Role) (*Category, error) {

	if u == nil || !u.Role().CanManageUsers() {
		return nil, ErrUnauthorized
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name can't be empty")
	}

	if !requiredApprovalRole.Valid() {
		return nil, fmt.Errorf("unknown role: %s", requiredApprovalRole)
	}

	if parentID != 0 {
		if _, err := c.CategoryDB.GetCategory(parentID); err != nil {
			return nil, fmt.Errorf("parent category %d: %w", parentID, ErrNotFound)
		}
	}

	dbCategory, err := c.InsertCategory(name, parentID, description, requiredApprovalRole)
	if err != nil {
		return nil, err
	}

	return c.NewCategory(dbCategory), nil
}

// UpdateCategory shadows CategoryDB.UpdateCategory. A new parent must exist
// and must not be the category itself or one of its descendants, else the
// hierarchy would contain a cycle.
func (c *CoreDB) UpdateCategory(u DBUser, cat *Category, name string, parentID int, description string, requiredApprovalRole Role) error {

	if u == nil || !u.Role().CanManageUsers() {
		return ErrUnauthorized
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name can't be empty")
	}

	if !requiredApprovalRole.Valid() {
		return fmt.Errorf("unknown role: %s", requiredApprovalRole)
	}

	if parentID != 0 && parentID != cat.ParentID() {
		if parentID == cat.ID() {
			return fmt.Errorf("%w: a category can not be its own parent", ErrConflict)
		}
		if _, err := c.CategoryDB.GetCategory(parentID); err != nil {
			return fmt.Errorf("parent category %d: %w", parentID, ErrNotFound)
		}
		descendants, err := cat.Descendants()
		if err != nil {
			return err
		}
		for _, d := range descendants {
			if d.ID() == parentID {
				return fmt.Errorf("%w: %s is a descendant of this category", ErrConflict, d.Name())
			}
		}
	}

	return c.CategoryDB.UpdateCategory(cat.DBCategory, name, parentID, description, requiredApprovalRole)
}

// DeleteCategory refuses to delete categories which still hold documents or
// child categories.
func (c *CoreDB) DeleteCategory(u DBUser, cat *Category) error {

	if u == nil || !u.Role().CanManageUsers() {
		return ErrUnauthorized
	}

	count, err := c.CountDocumentsByCategory(cat.ID())
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: category holds documents", ErrConflict)
	}

	children, err := c.GetChildCategories(cat.ID())
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return fmt.Errorf("%w: category has child categories", ErrConflict)
	}

	return c.CategoryDB.DeleteCategory(cat.DBCategory)
}
