package sqldb

import (
	"database/sql"
	"strings"
	"time"

	"github.com/wansing/charter/core"
)

type version struct {
	documentID int
	versionNo  int
	content    string
	note       string
	diff       string
	authorID   int
	tsCreated  int64
}

func (v *version) DocumentID() int {
	return v.documentID
}

func (v *version) VersionNo() int {
	return v.versionNo
}

func (v *version) Content() string {
	return v.content
}

func (v *version) Note() string {
	return v.note
}

func (v *version) Diff() string {
	return v.diff
}

func (v *version) AuthorID() int {
	return v.authorID
}

func (v *version) TsCreated() int64 {
	return v.tsCreated
}

type document struct {
	id                int
	title             string
	slug              string
	categoryID        int
	status            core.Status
	content           string
	isPublic          bool
	hasFillableFields bool
	authorID          int
	approvedByID      int
	tsApproved        int64
	tsCreated         int64
	tsUpdated         int64
	maxVersionNo      int
}

func (d *document) ID() int {
	return d.id
}

func (d *document) Title() string {
	return d.title
}

func (d *document) Slug() string {
	return d.slug
}

func (d *document) CategoryID() int {
	return d.categoryID
}

func (d *document) Status() core.Status {
	return d.status
}

func (d *document) Content() string {
	return d.content
}

func (d *document) IsPublic() bool {
	return d.isPublic
}

func (d *document) HasFillableFields() bool {
	return d.hasFillableFields
}

func (d *document) AuthorID() int {
	return d.authorID
}

func (d *document) ApprovedByID() int {
	return d.approvedByID
}

func (d *document) TsApproved() int64 {
	return d.tsApproved
}

func (d *document) TsCreated() int64 {
	return d.tsCreated
}

func (d *document) TsUpdated() int64 {
	return d.tsUpdated
}

func (d *document) MaxVersionNo() int {
	return d.maxVersionNo
}

const documentCols = "id, title, slug, categoryId, status, content, isPublic, fillable, authorId, approvedBy, ts_approved, ts_created, ts_updated, maxVersion"

type DocumentDB struct {
	*sql.DB
	countAll        *sql.Stmt
	countByAuthor   *sql.Stmt
	countByCategory *sql.Stmt
	countByStatus   *sql.Stmt
	countByStatusOf *sql.Stmt
	get             *sql.Stmt
	getBySlug       *sql.Stmt
	getVersion      *sql.Stmt
	insert          *sql.Stmt
	insertVersion   *sql.Stmt
	removeDocument  *sql.Stmt
	removeVersions  *sql.Stmt
	setApproved     *sql.Stmt
	setMaxVersion   *sql.Stmt
	setStatus       *sql.Stmt
	slugExists      *sql.Stmt
	update          *sql.Stmt
	versions        *sql.Stmt
}

func NewDocumentDB(db *sql.DB) *DocumentDB {

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS document (
			id INTEGER PRIMARY KEY,
			title varchar(500) NOT NULL,
			slug varchar(500) NOT NULL,
			categoryId int(11) NOT NULL,
			status varchar(20) NOT NULL DEFAULT 'PENDING',
			content mediumtext NOT NULL,
			isPublic int(1) NOT NULL DEFAULT '0',
			fillable int(1) NOT NULL DEFAULT '0',
			authorId int(11) NOT NULL,
			approvedBy int(11) NOT NULL DEFAULT '0',
			ts_approved int(11) NOT NULL DEFAULT '0',
			ts_created int(11) NOT NULL,
			ts_updated int(11) NOT NULL,
			maxVersion int(11) NOT NULL DEFAULT '0',
			UNIQUE (slug)
		);
		CREATE TABLE IF NOT EXISTS version (
			id int(11) NOT NULL, /* document id */
			versionNr int(11) NOT NULL DEFAULT '0' /* auto_increment for compound primary key works only with MyISAM, which does not support transactions */,
			content mediumtext NOT NULL,
			versionNote varchar(1000) NOT NULL,
			contentDiff mediumtext NOT NULL,
			authorId int(11) NOT NULL,
			ts_created INTEGER NOT NULL,
			PRIMARY KEY (id, versionNr)
		);
		`)
	if err != nil {
		panic(err)
	}

	var documentDB = &DocumentDB{}
	documentDB.DB = db
	documentDB.countAll = mustPrepare(db, "SELECT COUNT(1) FROM document")
	documentDB.countByAuthor = mustPrepare(db, "SELECT COUNT(1) FROM document WHERE authorId = ?")
	documentDB.countByCategory = mustPrepare(db, "SELECT COUNT(1) FROM document WHERE categoryId = ?")
	documentDB.countByStatus = mustPrepare(db, "SELECT status, COUNT(1) FROM document GROUP BY status")
	documentDB.countByStatusOf = mustPrepare(db, "SELECT status, COUNT(1) FROM document WHERE authorId = ? GROUP BY status")
	documentDB.get = mustPrepare(db, "SELECT "+documentCols+" FROM document WHERE id = ? LIMIT 1")
	documentDB.getBySlug = mustPrepare(db, "SELECT "+documentCols+" FROM document WHERE slug = ? LIMIT 1")
	documentDB.getVersion = mustPrepare(db, "SELECT versionNr, content, versionNote, contentDiff, authorId, ts_created FROM version WHERE id = ? AND versionNr = ? LIMIT 1")
	documentDB.insert = mustPrepare(db, "INSERT INTO document (title, slug, categoryId, status, content, isPublic, fillable, authorId, ts_created, ts_updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	documentDB.insertVersion = mustPrepare(db, "INSERT INTO version (id, versionNr, content, versionNote, contentDiff, authorId, ts_created) VALUES (?, ?, ?, ?, ?, ?, ?)")
	documentDB.removeDocument = mustPrepare(db, "DELETE FROM document WHERE id = ?")
	documentDB.removeVersions = mustPrepare(db, "DELETE FROM version WHERE id = ?")
	documentDB.setApproved = mustPrepare(db, "UPDATE document SET status = 'APPROVED', approvedBy = ?, ts_approved = ?, ts_updated = ? WHERE id = ?")
	documentDB.setMaxVersion = mustPrepare(db, "UPDATE document SET maxVersion = ? WHERE id = ?")
	documentDB.setStatus = mustPrepare(db, "UPDATE document SET status = ?, ts_updated = ? WHERE id = ?")
	documentDB.slugExists = mustPrepare(db, "SELECT COUNT(1) FROM document WHERE slug = ?")
	documentDB.update = mustPrepare(db, "UPDATE document SET title = ?, content = ?, isPublic = ?, fillable = ?, ts_updated = ? WHERE id = ?")
	documentDB.versions = mustPrepare(db, "SELECT versionNr, content, versionNote, contentDiff, authorId, ts_created FROM version WHERE id = ? ORDER BY versionNr DESC")
	return documentDB
}

func (db *DocumentDB) Writeable() bool {
	return true
}

// AddVersion stores the given content as the next version of the document.
// We assume that d.MaxVersionNo() is up to date.
func (db *DocumentDB) AddVersion(d core.DBDocument, content, note, diff string, authorID int) error {

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	var nextVersionNo = d.MaxVersionNo() + 1

	if _, err := tx.Stmt(db.setMaxVersion).Exec(nextVersionNo, d.ID()); err != nil {
		tx.Rollback()
		return err
	}

	if _, err := tx.Stmt(db.insertVersion).Exec(d.ID(), nextVersionNo, content, note, diff, authorID, time.Now().Unix()); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if d, ok := d.(*document); ok {
		d.maxVersionNo = nextVersionNo
	}
	return nil
}

func (db *DocumentDB) CountDocuments() (int, error) {
	var count int
	return count, db.countAll.QueryRow().Scan(&count)
}

func (db *DocumentDB) CountDocumentsByAuthor(authorID int) (int, error) {
	var count int
	return count, db.countByAuthor.QueryRow(authorID).Scan(&count)
}

func (db *DocumentDB) CountDocumentsByCategory(categoryID int) (int, error) {
	var count int
	return count, db.countByCategory.QueryRow(categoryID).Scan(&count)
}

func (db *DocumentDB) countStatuses(stmt *sql.Stmt, args ...interface{}) (map[core.Status]int, error) {

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result = make(map[core.Status]int)

	for rows.Next() {
		var status core.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}

	return result, nil
}

func (db *DocumentDB) CountDocumentsByStatus() (map[core.Status]int, error) {
	return db.countStatuses(db.countByStatus)
}

func (db *DocumentDB) CountDocumentsByStatusOf(authorID int) (map[core.Status]int, error) {
	return db.countStatuses(db.countByStatusOf, authorID)
}

// DeleteDocument removes the document and its versions.
func (db *DocumentDB) DeleteDocument(d core.DBDocument) error {

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Stmt(db.removeDocument).Exec(d.ID()); err != nil {
		tx.Rollback()
		return err
	}

	if _, err := tx.Stmt(db.removeVersions).Exec(d.ID()); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (db *DocumentDB) scanDocument(row *sql.Row) (*document, error) {
	var d = &document{}
	err := row.Scan(&d.id, &d.title, &d.slug, &d.categoryID, &d.status, &d.content, &d.isPublic, &d.hasFillableFields, &d.authorID, &d.approvedByID, &d.tsApproved, &d.tsCreated, &d.tsUpdated, &d.maxVersionNo)
	return d, err
}

func (db *DocumentDB) GetDocument(id int) (core.DBDocument, error) {
	return db.scanDocument(db.get.QueryRow(id))
}

func (db *DocumentDB) GetDocumentBySlug(slug string) (core.DBDocument, error) {
	return db.scanDocument(db.getBySlug.QueryRow(slug))
}

// GetDocuments builds the filter query dynamically, newest first.
func (db *DocumentDB) GetDocuments(filter core.DocumentFilter) ([]core.DBDocument, error) {

	var where = []string{}
	var args = []interface{}{}

	if !filter.ViewAll {
		where = append(where, "(isPublic = 1 OR authorId = ?)")
		args = append(args, filter.ViewerID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.CategoryID != 0 {
		where = append(where, "categoryId = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.AuthorID != 0 {
		where = append(where, "authorId = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.Search != "" {
		where = append(where, "(title LIKE ? OR content LIKE ?)")
		var pattern = "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	var query = "SELECT " + documentCols + " FROM document"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts_created DESC, id DESC"

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

	var all = []core.DBDocument{}

	for rows.Next() {
		var d = &document{}
		err = rows.Scan(&d.id, &d.title, &d.slug, &d.categoryID, &d.status, &d.content, &d.isPublic, &d.hasFillableFields, &d.authorID, &d.approvedByID, &d.tsApproved, &d.tsCreated, &d.tsUpdated, &d.maxVersionNo)
		if err != nil {
			return nil, err
		}
		all = append(all, d)
	}

	return all, nil
}

func (db *DocumentDB) GetVersion(documentID, versionNo int) (core.DBVersion, error) {
	var v = &version{
		documentID: documentID,
	}
	err := db.getVersion.QueryRow(documentID, versionNo).Scan(&v.versionNo, &v.content, &v.note, &v.diff, &v.authorID, &v.tsCreated)
	return v, err
}

func (db *DocumentDB) GetVersions(documentID int) ([]core.DBVersion, error) {

	rows, err := db.versions.Query(documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []core.DBVersion{}

	for rows.Next() {
		var v = &version{
			documentID: documentID,
		}
		err = rows.Scan(&v.versionNo, &v.content, &v.note, &v.diff, &v.authorID, &v.tsCreated)
		if err != nil {
			return nil, err
		}
		all = append(all, v)
	}

	return all, nil
}

func (db *DocumentDB) InsertDocument(title, slug string, categoryID int, content string, isPublic, hasFillableFields bool, authorID int) (core.DBDocument, error) {

	var now = time.Now().Unix()

	res, err := db.insert.Exec(title, slug, categoryID, string(core.StatusPending), content, isPublic, hasFillableFields, authorID, now, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &document{
		id:                int(id),
		title:             title,
		slug:              slug,
		categoryID:        categoryID,
		status:            core.StatusPending,
		content:           content,
		isPublic:          isPublic,
		hasFillableFields: hasFillableFields,
		authorID:          authorID,
		tsCreated:         now,
		tsUpdated:         now,
	}, nil
}

func (db *DocumentDB) SetApproved(d core.DBDocument, approverID int, ts int64) error {
	_, err := db.setApproved.Exec(approverID, ts, ts, d.ID())
	if err == nil {
		if d, ok := d.(*document); ok {
			d.status = core.StatusApproved
			d.approvedByID = approverID
			d.tsApproved = ts
			d.tsUpdated = ts
		}
	}
	return err
}

func (db *DocumentDB) SetStatus(d core.DBDocument, status core.Status) error {
	var now = time.Now().Unix()
	_, err := db.setStatus.Exec(string(status), now, d.ID())
	if err == nil {
		if d, ok := d.(*document); ok {
			d.status = status
			d.tsUpdated = now
		}
	}
	return err
}

func (db *DocumentDB) SlugExists(slug string) (bool, error) {
	var count int
	err := db.slugExists.QueryRow(slug).Scan(&count)
	return count > 0, err
}

func (db *DocumentDB) UpdateDocument(d core.DBDocument, title, content string, isPublic, hasFillableFields bool) error {

	var now = time.Now().Unix()

	_, err := db.update.Exec(title, content, isPublic, hasFillableFields, now, d.ID())
	if err != nil {
		return err
	}

	if d, ok := d.(*document); ok {
		d.title = title
		d.content = content
		d.isPublic = isPublic
		d.hasFillableFields = hasFillableFields
		d.tsUpdated = now
	}
	return nil
}
