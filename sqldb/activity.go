package sqldb

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/wansing/charter/core"
)

type activity struct {
	id         int
	token      string
	userID     int
	action     string
	entityType string
	entityID   int
	details    string
	ipAddress  string
	documentID int
	ts         int64
}

func (a *activity) ID() int {
	return a.id
}

func (a *activity) Token() string {
	return a.token
}

func (a *activity) UserID() int {
	return a.userID
}

func (a *activity) Action() string {
	return a.action
}

func (a *activity) EntityType() string {
	return a.entityType
}

func (a *activity) EntityID() int {
	return a.entityID
}

func (a *activity) Details() string {
	return a.details
}

func (a *activity) IPAddress() string {
	return a.ipAddress
}

func (a *activity) DocumentID() int {
	return a.documentID
}

func (a *activity) Ts() int64 {
	return a.ts
}

type ActivityDB struct {
	*sql.DB
	getByDocument *sql.Stmt
	getByUser     *sql.Stmt
	insert        *sql.Stmt
}

func NewActivityDB(db *sql.DB) *ActivityDB {

	db.Exec(
		`CREATE TABLE IF NOT EXISTS activity (
			id INTEGER PRIMARY KEY,
			token varchar(36) NOT NULL,
			userId int(11) NOT NULL,
			action varchar(100) NOT NULL,
			entityType varchar(50) NOT NULL,
			entityId int(11) NOT NULL,
			details text NOT NULL,
			ipAddress varchar(45) NOT NULL DEFAULT '',
			documentId int(11) NOT NULL DEFAULT '0',
			ts int(11) NOT NULL
		);`)

	var activityDB = &ActivityDB{}
	activityDB.DB = db
	activityDB.getByDocument = mustPrepare(db, "SELECT id, token, userId, action, entityType, entityId, details, ipAddress, documentId, ts FROM activity WHERE documentId = ? ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?")
	activityDB.getByUser = mustPrepare(db, "SELECT id, token, userId, action, entityType, entityId, details, ipAddress, documentId, ts FROM activity WHERE userId = ? ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?")
	activityDB.insert = mustPrepare(db, "INSERT INTO activity (token, userId, action, entityType, entityId, details, ipAddress, documentId, ts) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	return activityDB
}

func (db *ActivityDB) getActivity(stmt *sql.Stmt, args ...interface{}) ([]core.DBActivity, error) {

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []core.DBActivity{}

	for rows.Next() {
		var a = &activity{}
		err = rows.Scan(&a.id, &a.token, &a.userID, &a.action, &a.entityType, &a.entityID, &a.details, &a.ipAddress, &a.documentID, &a.ts)
		if err != nil {
			return nil, err
		}
		all = append(all, a)
	}

	return all, nil
}

func (db *ActivityDB) GetActivityByDocument(documentID int, limit, offset int) ([]core.DBActivity, error) {
	if limit <= 0 {
		limit = 100
	}
	return db.getActivity(db.getByDocument, documentID, limit, offset)
}

func (db *ActivityDB) GetActivityByUser(userID int, limit, offset int) ([]core.DBActivity, error) {
	if limit <= 0 {
		limit = 100
	}
	return db.getActivity(db.getByUser, userID, limit, offset)
}

func (db *ActivityDB) InsertActivity(userID int, action, entityType string, entityID int, details, ipAddress string, documentID int) error {
	_, err := db.insert.Exec(uuid.NewString(), userID, action, entityType, entityID, details, ipAddress, documentID, time.Now().Unix())
	return err
}
