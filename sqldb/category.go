package sqldb

import (
	"database/sql"
	"time"

	"github.com/wansing/charter/core"
)

type category struct {
	id                   int
	name                 string
	parentID             int
	description          string
	requiredApprovalRole core.Role
	tsCreated            int64
	tsUpdated            int64
}

func (c *category) ID() int {
	return c.id
}

func (c *category) Name() string {
	return c.name
}

func (c *category) ParentID() int {
	return c.parentID
}

func (c *category) Description() string {
	return c.description
}

func (c *category) RequiredApprovalRole() core.Role {
	return c.requiredApprovalRole
}

func (c *category) TsCreated() int64 {
	return c.tsCreated
}

func (c *category) TsUpdated() int64 {
	return c.tsUpdated
}

type CategoryDB struct {
	*sql.DB
	delete      *sql.Stmt
	get         *sql.Stmt
	getAll      *sql.Stmt
	getChildren *sql.Stmt
	getRoots    *sql.Stmt
	insert      *sql.Stmt
	update      *sql.Stmt
}

func NewCategoryDB(db *sql.DB) *CategoryDB {

	db.Exec(
		`CREATE TABLE IF NOT EXISTS category (
			id INTEGER PRIMARY KEY,
			name varchar(200) NOT NULL,
			parentId int(11) NOT NULL DEFAULT '0',
			description text NOT NULL,
			approvalRole varchar(20) NOT NULL,
			ts_created int(11) NOT NULL,
			ts_updated int(11) NOT NULL
		);`)

	var categoryDB = &CategoryDB{}
	categoryDB.DB = db
	categoryDB.delete = mustPrepare(db, "DELETE FROM category WHERE id = ?")
	categoryDB.get = mustPrepare(db, "SELECT name, parentId, description, approvalRole, ts_created, ts_updated FROM category WHERE id = ? LIMIT 1")
	categoryDB.getAll = mustPrepare(db, "SELECT id, name, parentId, description, approvalRole, ts_created, ts_updated FROM category ORDER BY name")
	categoryDB.getChildren = mustPrepare(db, "SELECT id, name, parentId, description, approvalRole, ts_created, ts_updated FROM category WHERE parentId = ? ORDER BY name")
	categoryDB.getRoots = mustPrepare(db, "SELECT id, name, parentId, description, approvalRole, ts_created, ts_updated FROM category WHERE parentId = 0 ORDER BY name")
	categoryDB.insert = mustPrepare(db, "INSERT INTO category (name, parentId, description, approvalRole, ts_created, ts_updated) VALUES (?, ?, ?, ?, ?, ?)")
	categoryDB.update = mustPrepare(db, "UPDATE category SET name = ?, parentId = ?, description = ?, approvalRole = ?, ts_updated = ? WHERE id = ?")
	return categoryDB
}

func (db *CategoryDB) Writeable() bool {
	return true
}

func (db *CategoryDB) DeleteCategory(c core.DBCategory) error {
	_, err := db.delete.Exec(c.ID())
	return err
}

func (db *CategoryDB) GetCategory(id int) (core.DBCategory, error) {
	var c = &category{
		id: id,
	}
	err := db.get.QueryRow(id).Scan(&c.name, &c.parentID, &c.description, &c.requiredApprovalRole, &c.tsCreated, &c.tsUpdated)
	return c, err
}

func (db *CategoryDB) getCategories(stmt *sql.Stmt, args ...interface{}) ([]core.DBCategory, error) {

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []core.DBCategory{}

	for rows.Next() {
		var c = &category{}
		err = rows.Scan(&c.id, &c.name, &c.parentID, &c.description, &c.requiredApprovalRole, &c.tsCreated, &c.tsUpdated)
		if err != nil {
			return nil, err
		}
		all = append(all, c)
	}

	return all, nil
}

func (db *CategoryDB) GetAllCategories() ([]core.DBCategory, error) {
	return db.getCategories(db.getAll)
}

func (db *CategoryDB) GetChildCategories(parentID int) ([]core.DBCategory, error) {
	return db.getCategories(db.getChildren, parentID)
}

func (db *CategoryDB) GetRootCategories() ([]core.DBCategory, error) {
	return db.getCategories(db.getRoots)
}

func (db *CategoryDB) InsertCategory(name string, parentID int, description string, requiredApprovalRole core.Role) (core.DBCategory, error) {

	var now = time.Now().Unix()

	res, err := db.insert.Exec(name, parentID, description, string(requiredApprovalRole), now, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &category{
		id:                   int(id),
		name:                 name,
		parentID:             parentID,
		description:          description,
		requiredApprovalRole: requiredApprovalRole,
		tsCreated:            now,
		tsUpdated:            now,
	}, nil
}

func (db *CategoryDB) UpdateCategory(c core.DBCategory, name string, parentID int, description string, requiredApprovalRole core.Role) error {

	var now = time.Now().Unix()

	_, err := db.update.Exec(name, parentID, description, string(requiredApprovalRole), now, c.ID())
	if err != nil {
		return err
	}

	if c, ok := c.(*category); ok {
		c.name = name
		c.parentID = parentID
		c.description = description
		c.requiredApprovalRole = requiredApprovalRole
		c.tsUpdated = now
	}
	return nil
}
