package core

import "github.com/wansing/charter/util"

type DBActivity interface {
	ID() int
	Token() string // uuid, for referencing a log line from outside
	UserID() int
	Action() string
	EntityType() string
	EntityID() int
	Details() string
	IPAddress() string
	DocumentID() int // zero if the entry is not tied to a document
	Ts() int64
}

type ActivityDB interface {
	GetActivityByDocument(documentID int, limit, offset int) ([]DBActivity, error)
	GetActivityByUser(userID int, limit, offset int) ([]DBActivity, error)
	InsertActivity(userID int, action, entityType string, entityID int, details, ipAddress string, documentID int) error
}

// LogActivity records an audit trail entry. Logging failures are swallowed,
// the audit trail must not break the operation it describes.
func (c *CoreDB) LogActivity(u DBUser, action, entityType string, entityID int, details, ipAddress string, documentID int) {
	if u == nil {
		return
	}
	_ = c.ActivityDB.InsertActivity(u.ID(), action, entityType, entityID, util.Trunc(details, 500), ipAddress, documentID)
}
