package core

// A document's status walks PENDING -> UNDER_REVIEW -> APPROVED -> LIVE,
// with ARCHIVED as terminal side exit. Rejecting or cancelling an approval
// request drops the document back to PENDING.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusLive        Status = "LIVE"
	StatusArchived    Status = "ARCHIVED"
)

var Statuses = []Status{StatusPending, StatusUnderReview, StatusApproved, StatusLive, StatusArchived}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusLive, StatusArchived:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

type DBDocument interface {
	ID() int
	Title() string
	Slug() string
	CategoryID() int
	Status() Status
	Content() string // markdown
	IsPublic() bool
	HasFillableFields() bool
	AuthorID() int
	ApprovedByID() int // zero if not approved
	TsApproved() int64
	TsCreated() int64
	TsUpdated() int64
	MaxVersionNo() int
}

// DocumentFilter restricts DocumentDB.GetDocuments. Zero values mean "any".
// If ViewAll is false, only public documents and documents authored by
// ViewerID are returned.
type DocumentFilter struct {
	Status     Status
	CategoryID int
	AuthorID   int
	Search     string // substring match on title and content
	ViewerID   int
	ViewAll    bool
	Limit      int
	Offset     int
}

type DocumentDB interface {
	AddVersion(d DBDocument, content, note, diff string, authorID int) error
	CountDocuments() (int, error)
	CountDocumentsByAuthor(authorID int) (int, error)
	CountDocumentsByCategory(categoryID int) (int, error)
	CountDocumentsByStatus() (map[Status]int, error)
	CountDocumentsByStatusOf(authorID int) (map[Status]int, error)
	DeleteDocument(d DBDocument) error
	GetDocument(id int) (DBDocument, error)
	GetDocumentBySlug(slug string) (DBDocument, error)
	GetDocuments(filter DocumentFilter) ([]DBDocument, error)
	GetVersion(documentID, versionNo int) (DBVersion, error)
	GetVersions(documentID int) ([]DBVersion, error)
	InsertDocument(title, slug string, categoryID int, content string, isPublic, hasFillableFields bool, authorID int) (DBDocument, error)
	SetApproved(d DBDocument, approverID int, ts int64) error
	SetStatus(d DBDocument, status Status) error
	SlugExists(slug string) (bool, error)
	UpdateDocument(d DBDocument, title, content string, isPublic, hasFillableFields bool) error
	Writeable() bool
}

// Document wraps DBDocument and lazily loads its author and category.
type Document struct {
	DBDocument
	db             *CoreDB
	author         DBUser
	authorLoaded   bool
	category       *Category
	categoryLoaded bool
}

func (c *CoreDB) NewDocument(dbDocument DBDocument) *Document {
	return &Document{
		DBDocument: dbDocument,
		db:         c,
	}
}

func (d *Document) Author() (DBUser, error) {
	if !d.authorLoaded {
		author, err := d.db.GetUser(d.AuthorID())
		if err != nil {
			return nil, err
		}
		d.author = author
		d.authorLoaded = true
	}
	return d.author, nil
}

func (d *Document) Category() (*Category, error) {
	if !d.categoryLoaded {
		category, err := d.db.GetCategory(d.CategoryID())
		if err != nil {
			return nil, err
		}
		d.category = category
		d.categoryLoaded = true
	}
	return d.category, nil
}

// CanBeViewedBy returns whether the user sees the document in listings and details.
func (d *Document) CanBeViewedBy(u DBUser) bool {
	if d.IsPublic() {
		return true
	}
	if u == nil {
		return false
	}
	if u.Role().CanViewAllDocuments() {
		return true
	}
	return u.ID() == d.AuthorID()
}

// CanBeEditedBy returns whether the user may modify or delete the document.
// Authors lose edit access once the document left the draft stages.
func (d *Document) CanBeEditedBy(u DBUser) bool {
	if u == nil {
		return false
	}
	if u.Role() == Admin {
		return true
	}
	if u.ID() == d.AuthorID() {
		return d.Status() == StatusPending || d.Status() == StatusUnderReview
	}
	return false
}

// CanBeApprovedBy returns whether the user may review approval requests for
// the document. Board members can only approve categories whose required
// approval role is board level or below.
func (d *Document) CanBeApprovedBy(u DBUser) (bool, error) {
	if u == nil {
		return false, nil
	}
	switch u.Role() {
	case Admin, President:
		return true, nil
	case Board:
		category, err := d.Category()
		if err != nil {
			return false, err
		}
		switch category.RequiredApprovalRole() {
		case Board, Committee, Volunteer:
			return true, nil
		}
	}
	return false, nil
}
