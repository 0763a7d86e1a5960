package sqldb

import (
	"database/sql"
	"strings"

	"github.com/wansing/charter/core"
)

type formField struct {
	id          int
	documentID  int
	name        string
	fieldType   core.FieldType
	position    int
	required    bool
	placeholder string
	options     string // pipe-separated
}

func (f *formField) ID() int {
	return f.id
}

func (f *formField) DocumentID() int {
	return f.documentID
}

func (f *formField) Name() string {
	return f.name
}

func (f *formField) Type() core.FieldType {
	return f.fieldType
}

func (f *formField) Position() int {
	return f.position
}

func (f *formField) Required() bool {
	return f.required
}

func (f *formField) Placeholder() string {
	return f.placeholder
}

func (f *formField) Options() []string {
	if f.options == "" {
		return []string{}
	}
	return strings.Split(f.options, "|")
}

type FormFieldDB struct {
	*sql.DB
	clear  *sql.Stmt
	get    *sql.Stmt
	insert *sql.Stmt
}

func NewFormFieldDB(db *sql.DB) *FormFieldDB {

	db.Exec(
		`CREATE TABLE IF NOT EXISTS form_field (
			id INTEGER PRIMARY KEY,
			documentId int(11) NOT NULL,
			name varchar(200) NOT NULL,
			fieldType varchar(20) NOT NULL,
			position int(11) NOT NULL,
			required int(1) NOT NULL DEFAULT '0',
			placeholder varchar(500) NOT NULL DEFAULT '',
			options text NOT NULL
		);`)

	var formFieldDB = &FormFieldDB{}
	formFieldDB.DB = db
	formFieldDB.clear = mustPrepare(db, "DELETE FROM form_field WHERE documentId = ?")
	formFieldDB.get = mustPrepare(db, "SELECT id, documentId, name, fieldType, position, required, placeholder, options FROM form_field WHERE documentId = ? ORDER BY position")
	formFieldDB.insert = mustPrepare(db, "INSERT INTO form_field (documentId, name, fieldType, position, required, placeholder, options) VALUES (?, ?, ?, ?, ?, ?, ?)")
	return formFieldDB
}

func (db *FormFieldDB) GetFormFields(documentID int) ([]core.DBFormField, error) {

	rows, err := db.get.Query(documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []core.DBFormField{}

	for rows.Next() {
		var f = &formField{}
		err = rows.Scan(&f.id, &f.documentID, &f.name, &f.fieldType, &f.position, &f.required, &f.placeholder, &f.options)
		if err != nil {
			return nil, err
		}
		all = append(all, f)
	}

	return all, nil
}

func (db *FormFieldDB) DeleteFormFields(documentID int) error {
	_, err := db.clear.Exec(documentID)
	return err
}

// ReplaceFormFields swaps all form fields of a document in one transaction.
func (db *FormFieldDB) ReplaceFormFields(documentID int, fields []core.FormFieldSpec) error {

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Stmt(db.clear).Exec(documentID); err != nil {
		tx.Rollback()
		return err
	}

	for i, field := range fields {
		var position = field.Position
		if position == 0 {
			position = i + 1
		}
		if _, err := tx.Stmt(db.insert).Exec(documentID, field.Name, string(field.Type), position, field.Required, field.Placeholder, strings.Join(field.Options, "|")); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}
