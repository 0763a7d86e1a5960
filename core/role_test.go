package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role    Role
		approve bool
		manage  bool
		create  bool
		viewAll bool
	}{
		{Admin, true, true, true, true},
		{President, true, true, true, true},
		{Board, true, false, true, true},
		{Committee, false, false, true, false},
		{Volunteer, false, false, true, false},
		{Public, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.approve, tt.role.CanApproveDocuments())
			assert.Equal(t, tt.manage, tt.role.CanManageUsers())
			assert.Equal(t, tt.create, tt.role.CanCreateDocuments())
			assert.Equal(t, tt.viewAll, tt.role.CanViewAllDocuments())
		})
	}
}

func TestParseRole(t *testing.T) {

	for _, role := range Roles {
		parsed, err := ParseRole(string(role))
		assert.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	// case insensitive
	parsed, err := ParseRole("board_member")
	assert.NoError(t, err)
	assert.Equal(t, Board, parsed)

	_, err = ParseRole("SUPERUSER")
	assert.Error(t, err)

	_, err = ParseRole("")
	assert.Error(t, err)
}
