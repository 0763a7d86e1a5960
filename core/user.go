package core

import "strings"

type DBUser interface {
	ID() int
	Email() string // login name
	FirstName() string
	LastName() string
	Role() Role
	Active() bool
	LastLogin() int64 // zero if the user never logged in
}

type UserDB interface {
	ChangePassword(u DBUser, old, new string) error
	CountActiveUsers() (int, error)
	CountUsersByRole() (map[Role]int, error)
	DeleteUser(u DBUser) error
	GetUser(id int) (DBUser, error)
	GetUserByEmail(email string) (DBUser, error)
	GetAllUsers(limit, offset int) ([]DBUser, error)
	InsertUser(email, firstName, lastName string, role Role) (DBUser, error)
	LoginUser(email, password string) (DBUser, error) // must reject inactive users
	SetLastLogin(u DBUser, ts int64) error
	SetPassword(u DBUser, password string) error
	SetRole(u DBUser, role Role) error
	UpdateUser(u DBUser, firstName, lastName string, role Role, active bool) error
	Writeable() bool
}

func FullName(u DBUser) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName() + " " + u.LastName())
}
