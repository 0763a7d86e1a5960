package sqldb

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/wansing/charter/core"
	"github.com/wansing/charter/util"
)

var ErrAuth = errors.New("authentication failed")

func clean(email string) string {
	email = strings.TrimSpace(email)
	email = strings.ToLower(email)
	return email
}

func hash(salt string, password string) string {
	var hash = sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(hash[:])
}

type user struct {
	id        int
	email     string
	firstName string
	lastName  string
	role      core.Role
	active    bool
	lastLogin int64
	salt      string
	pass      string // hash
}

func (u *user) hash(password string) string {
	return hash(u.salt, password)
}

func (u *user) ID() int {
	return u.id
}

func (u *user) Email() string {
	return u.email
}

func (u *user) FirstName() string {
	return u.firstName
}

func (u *user) LastName() string {
	return u.lastName
}

func (u *user) Role() core.Role {
	return u.role
}

func (u *user) Active() bool {
	return u.active
}

func (u *user) LastLogin() int64 {
	return u.lastLogin
}

type UserDB struct {
	*sql.DB
	countActive    *sql.Stmt
	countByRole    *sql.Stmt
	delete         *sql.Stmt
	get            *sql.Stmt
	getAll         *sql.Stmt
	getByEmail     *sql.Stmt
	getCredentials *sql.Stmt
	insert         *sql.Stmt
	login          *sql.Stmt
	setLastLogin   *sql.Stmt
	setPassword    *sql.Stmt
	setRole        *sql.Stmt
	update         *sql.Stmt
}

func NewUserDB(db *sql.DB) *UserDB {

	db.Exec(
		`CREATE TABLE IF NOT EXISTS usr (
			id INTEGER PRIMARY KEY,
			mail varchar(128) NOT NULL,
			firstName varchar(150) NOT NULL,
			lastName varchar(150) NOT NULL,
			role varchar(20) NOT NULL,
			active int(1) NOT NULL DEFAULT '1',
			lastLogin int(11) NOT NULL DEFAULT '0',
			salt varchar(64) NOT NULL DEFAULT '',
			password varchar(64) NOT NULL DEFAULT '',
			UNIQUE(mail)
		);`)

	var userDB = &UserDB{}
	userDB.DB = db
	userDB.countActive = mustPrepare(db, "SELECT COUNT(1) FROM usr WHERE active = 1")
	userDB.countByRole = mustPrepare(db, "SELECT role, COUNT(1) FROM usr GROUP BY role")
	userDB.delete = mustPrepare(db, "DELETE FROM usr WHERE id = ?")
	userDB.get = mustPrepare(db, "SELECT mail, firstName, lastName, role, active, lastLogin FROM usr WHERE id = ? LIMIT 1")
	userDB.getAll = mustPrepare(db, "SELECT id, mail, firstName, lastName, role, active, lastLogin FROM usr ORDER BY mail LIMIT ? OFFSET ?")
	userDB.getByEmail = mustPrepare(db, "SELECT id, firstName, lastName, role, active, lastLogin FROM usr WHERE mail = ? LIMIT 1")
	userDB.getCredentials = mustPrepare(db, "SELECT salt, password FROM usr WHERE id = ? LIMIT 1")
	userDB.insert = mustPrepare(db, "INSERT INTO usr (mail, firstName, lastName, role) VALUES (?, ?, ?, ?)") // empty password field is safe because no hash value equals it
	userDB.login = mustPrepare(db, "SELECT id, firstName, lastName, role, active, lastLogin, salt, password FROM usr WHERE mail = ?")
	userDB.setLastLogin = mustPrepare(db, "UPDATE usr SET lastLogin = ? WHERE id = ?")
	userDB.setPassword = mustPrepare(db, "UPDATE usr SET salt = ?, password = ? WHERE id = ?")
	userDB.setRole = mustPrepare(db, "UPDATE usr SET role = ? WHERE id = ?")
	userDB.update = mustPrepare(db, "UPDATE usr SET firstName = ?, lastName = ?, role = ?, active = ? WHERE id = ?")
	return userDB
}

func (db *UserDB) Writeable() bool {
	return true
}

// ChangePassword verifies the old password against the database because u
// might have been loaded without its credentials.
func (db *UserDB) ChangePassword(u core.DBUser, old, new string) error {
	var salt, pass string
	if err := db.getCredentials.QueryRow(u.ID()).Scan(&salt, &pass); err != nil {
		return err
	}
	if hash(salt, old) != pass {
		return ErrAuth
	}
	return db.SetPassword(u, new)
}

func (db *UserDB) CountActiveUsers() (int, error) {
	var count int
	return count, db.countActive.QueryRow().Scan(&count)
}

func (db *UserDB) CountUsersByRole() (map[core.Role]int, error) {

	rows, err := db.countByRole.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result = make(map[core.Role]int)

	for rows.Next() {
		var role core.Role
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		result[role] = count
	}

	return result, nil
}

func (db *UserDB) DeleteUser(u core.DBUser) error {
	_, err := db.delete.Exec(u.ID())
	return err
}

// GetUser may return sql.ErrNoRows, because we can not compare the returned core.DBUser to nil.
func (db *UserDB) GetUser(id int) (core.DBUser, error) {
	var u = &user{
		id: id,
	}
	err := db.get.QueryRow(id).Scan(&u.email, &u.firstName, &u.lastName, &u.role, &u.active, &u.lastLogin)
	return u, err
}

func (db *UserDB) GetUserByEmail(email string) (core.DBUser, error) {
	var u = &user{
		email: clean(email),
	}
	err := db.getByEmail.QueryRow(u.email).Scan(&u.id, &u.firstName, &u.lastName, &u.role, &u.active, &u.lastLogin)
	return u, err
}

func (db *UserDB) GetAllUsers(limit, offset int) ([]core.DBUser, error) {

	if limit <= 0 {
		limit = 100
	}

	var all = []core.DBUser{}

	rows, err := db.getAll.Query(limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u = &user{}
		err = rows.Scan(&u.id, &u.email, &u.firstName, &u.lastName, &u.role, &u.active, &u.lastLogin)
		if err != nil {
			return nil, err
		}
		all = append(all, u)
	}

	return all, nil
}

func (db *UserDB) InsertUser(email, firstName, lastName string, role core.Role) (core.DBUser, error) {

	email = clean(email)
	if email == "" {
		return nil, errors.New("email can't be empty")
	}
	if !role.Valid() {
		return nil, errors.New("unknown role: " + string(role))
	}

	res, err := db.insert.Exec(email, firstName, lastName, string(role))
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &user{
		id:        int(id),
		email:     email,
		firstName: firstName,
		lastName:  lastName,
		role:      role,
		active:    true,
	}, nil
}

func (db *UserDB) LoginUser(email, password string) (core.DBUser, error) {

	email = clean(email)

	var u = &user{
		email: email,
	}

	err := db.login.QueryRow(email).Scan(&u.id, &u.firstName, &u.lastName, &u.role, &u.active, &u.lastLogin, &u.salt, &u.pass)
	if err == sql.ErrNoRows {
		return nil, ErrAuth // user not found
	}
	if err != nil {
		return nil, err
	}

	if !u.active {
		return nil, ErrAuth // deactivated users can't log in
	}

	if u.hash(password) != u.pass {
		return nil, ErrAuth // wrong password
	}

	return u, nil
}

func (db *UserDB) SetLastLogin(u core.DBUser, ts int64) error {
	_, err := db.setLastLogin.Exec(ts, u.ID())
	if err == nil {
		if u, ok := u.(*user); ok {
			u.lastLogin = ts
		}
	}
	return err
}

func (db *UserDB) SetPassword(u core.DBUser, password string) error {

	if password == "" {
		return errors.New("no password given")
	}

	if u.ID() == 0 {
		return errors.New("can't set password of user 0")
	}

	salt, err := util.RandomString32()
	if err != nil {
		return err
	}

	_, err = db.setPassword.Exec(salt, hash(salt, password), u.ID())
	if err != nil {
		return err
	}

	if u, ok := u.(*user); ok {
		u.salt = salt
		u.pass = hash(salt, password)
	}
	return nil
}

func (db *UserDB) SetRole(u core.DBUser, role core.Role) error {
	if !role.Valid() {
		return errors.New("unknown role: " + string(role))
	}
	_, err := db.setRole.Exec(string(role), u.ID())
	if err == nil {
		if u, ok := u.(*user); ok {
			u.role = role
		}
	}
	return err
}

func (db *UserDB) UpdateUser(u core.DBUser, firstName, lastName string, role core.Role, active bool) error {

	if !role.Valid() {
		return errors.New("unknown role: " + string(role))
	}

	_, err := db.update.Exec(firstName, lastName, string(role), active, u.ID())
	if err != nil {
		return err
	}

	if u, ok := u.(*user); ok {
		u.firstName = firstName
		u.lastName = lastName
		u.role = role
		u.active = active
	}
	return nil
}
