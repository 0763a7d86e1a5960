package core

type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "PENDING"
	ApprovalApproved  ApprovalStatus = "APPROVED"
	ApprovalRejected  ApprovalStatus = "REJECTED"
	ApprovalCancelled ApprovalStatus = "CANCELLED"
)

var ApprovalStatuses = []ApprovalStatus{ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalCancelled}

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalCancelled:
		return true
	default:
		return false
	}
}

func (s ApprovalStatus) String() string {
	return string(s)
}

type DBApproval interface {
	ID() int
	DocumentID() int
	RequestedByID() int
	Status() ApprovalStatus
	Notes() string
	TsRequested() int64
	ReviewedByID() int // zero while pending
	TsReviewed() int64
}

// ApprovalFilter restricts ApprovalDB.GetApprovals. If RequestedBy is
// non-zero, only that user's requests are returned.
type ApprovalFilter struct {
	Status      ApprovalStatus
	DocumentID  int
	RequestedBy int
	Limit       int
	Offset      int
}

type ApprovalDB interface {
	CountApprovals() (int, error)
	CountApprovalsByStatus() (map[ApprovalStatus]int, error)
	CountApprovalsByStatusOf(requestedBy int) (map[ApprovalStatus]int, error)
	CountApprovalsOf(requestedBy int) (int, error)
	DeleteApprovalsByDocument(documentID int) error
	GetApproval(id int) (DBApproval, error)
	GetApprovals(filter ApprovalFilter) ([]DBApproval, error)
	HasPendingApproval(documentID int) (bool, error)
	InsertApproval(documentID, requestedBy int, notes string) (DBApproval, error)
	SetReviewed(a DBApproval, status ApprovalStatus, reviewedBy int, notes string, ts int64) error
	Writeable() bool
}

// Approval wraps DBApproval and lazily loads the document it belongs to.
type Approval struct {
	DBApproval
	db             *CoreDB
	document       *Document
	documentLoaded bool
}

func (c *CoreDB) NewApproval(dbApproval DBApproval) *Approval {
	return &Approval{
		DBApproval: dbApproval,
		db:         c,
	}
}

// GetApproval shadows ApprovalDB.GetApproval.
func (c *CoreDB) GetApproval(id int) (*Approval, error) {
	dbApproval, err := c.ApprovalDB.GetApproval(id)
	if err != nil {
		return nil, err
	}
	return c.NewApproval(dbApproval), nil
}

func (a *Approval) Document() (*Document, error) {
	if !a.documentLoaded {
		document, err := a.db.GetDocument(a.DocumentID())
		if err != nil {
			return nil, err
		}
		a.document = document
		a.documentLoaded = true
	}
	return a.document, nil
}

// CanBeViewedBy returns whether the user sees the request in listings.
func (a *Approval) CanBeViewedBy(u DBUser) bool {
	if u == nil {
		return false
	}
	if u.Role().CanApproveDocuments() {
		return true
	}
	return u.ID() == a.RequestedByID()
}

// CanBeReviewedBy returns whether the user may approve or reject the request.
func (a *Approval) CanBeReviewedBy(u DBUser) (bool, error) {
	document, err := a.Document()
	if err != nil {
		return false, err
	}
	return document.CanBeApprovedBy(u)
}

// CanBeCancelledBy returns whether the user may cancel the request.
func (a *Approval) CanBeCancelledBy(u DBUser) bool {
	if u == nil {
		return false
	}
	return u.ID() == a.RequestedByID() || u.Role() == Admin
}
