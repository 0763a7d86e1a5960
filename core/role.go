package core

import (
	"fmt"
	"strings"
)

// A Role grants a fixed set of capabilities. Every user has exactly one role.
type Role string

const (
	Admin     Role = "ADMIN"
	President Role = "PRESIDENT"
	Board     Role = "BOARD_MEMBER"
	Committee Role = "COMMITTEE_MEMBER"
	Volunteer Role = "VOLUNTEER"
	Public    Role = "PUBLIC"
)

// Roles are ordered from most to least powerful.
var Roles = []Role{Admin, President, Board, Committee, Volunteer, Public}

func (r Role) Valid() bool {
	switch r {
	case Admin, President, Board, Committee, Volunteer, Public:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// CanApproveDocuments returns whether the role can review approval requests at all.
// Whether a particular document can be approved also depends on its category,
// see Document.CanBeApprovedBy.
func (r Role) CanApproveDocuments() bool {
	switch r {
	case Admin, President, Board:
		return true
	default:
		return false
	}
}

// CanManageUsers covers user and category administration.
func (r Role) CanManageUsers() bool {
	return r == Admin || r == President
}

func (r Role) CanCreateDocuments() bool {
	switch r {
	case Admin, President, Board, Committee, Volunteer:
		return true
	default:
		return false
	}
}

// CanViewAllDocuments returns whether the role sees every document,
// including private documents of other authors.
func (r Role) CanViewAllDocuments() bool {
	switch r {
	case Admin, President, Board:
		return true
	default:
		return false
	}
}

func ParseRole(s string) (Role, error) {
	var r = Role(strings.ToUpper(s))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %s", s)
	}
	return r, nil
}
