package sqldb

import (
	"database/sql"
	"strings"
	"time"

	"github.com/wansing/charter/core"
)

type approval struct {
	id          int
	documentID  int
	requestedBy int
	status      core.ApprovalStatus
	notes       string
	tsRequested int64
	reviewedBy  int
	tsReviewed  int64
}

func (a *approval) ID() int {
	return a.id
}

func (a *approval) DocumentID() int {
	return a.documentID
}

func (a *approval) RequestedByID() int {
	return a.requestedBy
}

func (a *approval) Status() core.ApprovalStatus {
	return a.status
}

func (a *approval) Notes() string {
	return a.notes
}

func (a *approval) TsRequested() int64 {
	return a.tsRequested
}

func (a *approval) ReviewedByID() int {
	return a.reviewedBy
}

func (a *approval) TsReviewed() int64 {
	return a.tsReviewed
}

const approvalCols = "id, documentId, requestedBy, status, notes, ts_requested, reviewedBy, ts_reviewed"

type ApprovalDB struct {
	*sql.DB
	countAll         *sql.Stmt
	countByStatus    *sql.Stmt
	countByStatusOf  *sql.Stmt
	countOf          *sql.Stmt
	get              *sql.Stmt
	hasPending       *sql.Stmt
	insert           *sql.Stmt
	removeByDocument *sql.Stmt
	setReviewed      *sql.Stmt
}

func NewApprovalDB(db *sql.DB) *ApprovalDB {

	db.Exec(
		`CREATE TABLE IF NOT EXISTS approval (
			id INTEGER PRIMARY KEY,
			documentId int(11) NOT NULL,
			requestedBy int(11) NOT NULL,
			status varchar(20) NOT NULL DEFAULT 'PENDING',
			notes text NOT NULL,
			ts_requested int(11) NOT NULL,
			reviewedBy int(11) NOT NULL DEFAULT '0',
			ts_reviewed int(11) NOT NULL DEFAULT '0'
		);`)

	var approvalDB = &ApprovalDB{}
	approvalDB.DB = db
	approvalDB.countAll = mustPrepare(db, "SELECT COUNT(1) FROM approval")
	approvalDB.countByStatus = mustPrepare(db, "SELECT status, COUNT(1) FROM approval GROUP BY status")
	approvalDB.countByStatusOf = mustPrepare(db, "SELECT status, COUNT(1) FROM approval WHERE requestedBy = ? GROUP BY status")
	approvalDB.countOf = mustPrepare(db, "SELECT COUNT(1) FROM approval WHERE requestedBy = ?")
	approvalDB.get = mustPrepare(db, "SELECT "+approvalCols+" FROM approval WHERE id = ? LIMIT 1")
	approvalDB.hasPending = mustPrepare(db, "SELECT COUNT(1) FROM approval WHERE documentId = ? AND status = 'PENDING'")
	approvalDB.insert = mustPrepare(db, "INSERT INTO approval (documentId, requestedBy, status, notes, ts_requested) VALUES (?, ?, 'PENDING', ?, ?)")
	approvalDB.removeByDocument = mustPrepare(db, "DELETE FROM approval WHERE documentId = ?")
	approvalDB.setReviewed = mustPrepare(db, "UPDATE approval SET status = ?, reviewedBy = ?, notes = ?, ts_reviewed = ? WHERE id = ?")
	return approvalDB
}

func (db *ApprovalDB) Writeable() bool {
	return true
}

func (db *ApprovalDB) CountApprovals() (int, error) {
	var count int
	return count, db.countAll.QueryRow().Scan(&count)
}

func (db *ApprovalDB) countStatuses(stmt *sql.Stmt, args ...interface{}) (map[core.ApprovalStatus]int, error) {

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result = make(map[core.ApprovalStatus]int)

	for rows.Next() {
		var status core.ApprovalStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}

	return result, nil
}

func (db *ApprovalDB) CountApprovalsByStatus() (map[core.ApprovalStatus]int, error) {
	return db.countStatuses(db.countByStatus)
}

func (db *ApprovalDB) CountApprovalsByStatusOf(requestedBy int) (map[core.ApprovalStatus]int, error) {
	return db.countStatuses(db.countByStatusOf, requestedBy)
}

func (db *ApprovalDB) CountApprovalsOf(requestedBy int) (int, error) {
	var count int
	return count, db.countOf.QueryRow(requestedBy).Scan(&count)
}

func (db *ApprovalDB) DeleteApprovalsByDocument(documentID int) error {
	_, err := db.removeByDocument.Exec(documentID)
	return err
}

func (db *ApprovalDB) GetApproval(id int) (core.DBApproval, error) {
	var a = &approval{}
	err := db.get.QueryRow(id).Scan(&a.id, &a.documentID, &a.requestedBy, &a.status, &a.notes, &a.tsRequested, &a.reviewedBy, &a.tsReviewed)
	return a, err
}

// GetApprovals builds the filter query dynamically, newest first.
func (db *ApprovalDB) GetApprovals(filter core.ApprovalFilter) ([]core.DBApproval, error) {

	var where = []string{}
	var args = []interface{}{}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.DocumentID != 0 {
		where = append(where, "documentId = ?")
		args = append(args, filter.DocumentID)
	}
	if filter.RequestedBy != 0 {
		where = append(where, "requestedBy = ?")
		args = append(args, filter.RequestedBy)
	}

	var query = "SELECT " + approvalCols + " FROM approval"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts_requested DESC, id DESC"

	var limit = filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []core.DBApproval{}

	for rows.Next() {
		var a = &approval{}
		err = rows.Scan(&a.id, &a.documentID, &a.requestedBy, &a.status, &a.notes, &a.tsRequested, &a.reviewedBy, &a.tsReviewed)
		if err != nil {
			return nil, err
		}
		all = append(all, a)
	}

	return all, nil
}

func (db *ApprovalDB) HasPendingApproval(documentID int) (bool, error) {
	var count int
	err := db.hasPending.QueryRow(documentID).Scan(&count)
	return count > 0, err
}

func (db *ApprovalDB) InsertApproval(documentID, requestedBy int, notes string) (core.DBApproval, error) {

	var now = time.Now().Unix()

	res, err := db.insert.Exec(documentID, requestedBy, notes, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &approval{
		id:          int(id),
		documentID:  documentID,
		requestedBy: requestedBy,
		status:      core.ApprovalPending,
		notes:       notes,
		tsRequested: now,
	}, nil
}

func (db *ApprovalDB) SetReviewed(a core.DBApproval, status core.ApprovalStatus, reviewedBy int, notes string, ts int64) error {

	if notes == "" {
		notes = a.Notes()
	}

	_, err := db.setReviewed.Exec(string(status), reviewedBy, notes, ts, a.ID())
	if err != nil {
		return err
	}

	if a, ok := a.(*approval); ok {
		a.status = status
		a.reviewedBy = reviewedBy
		a.notes = notes
		a.tsReviewed = ts
	}
	return nil
}
