package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeUser struct {
	id   int
	role Role
}

func (u fakeUser) ID() int           { return u.id }
func (u fakeUser) Email() string     { return "" }
func (u fakeUser) FirstName() string { return "" }
func (u fakeUser) LastName() string  { return "" }
func (u fakeUser) Role() Role        { return u.role }
func (u fakeUser) Active() bool      { return true }
func (u fakeUser) LastLogin() int64  { return 0 }

type fakeDocument struct {
	DBDocument
	authorID int
	status   Status
	isPublic bool
}

func (d fakeDocument) ID() int        { return 1 }
func (d fakeDocument) AuthorID() int  { return d.authorID }
func (d fakeDocument) Status() Status { return d.status }
func (d fakeDocument) IsPublic() bool { return d.isPublic }

func TestDocumentCanBeViewedBy(t *testing.T) {

	var db = &CoreDB{}
	var private = db.NewDocument(fakeDocument{authorID: 7, status: StatusPending})
	var public = db.NewDocument(fakeDocument{authorID: 7, status: StatusLive, isPublic: true})

	assert.True(t, public.CanBeViewedBy(nil)) // anonymous
	assert.False(t, private.CanBeViewedBy(nil))

	assert.True(t, private.CanBeViewedBy(fakeUser{7, Volunteer}))  // author
	assert.False(t, private.CanBeViewedBy(fakeUser{8, Volunteer})) // someone else
	assert.False(t, private.CanBeViewedBy(fakeUser{8, Committee}))
	assert.True(t, private.CanBeViewedBy(fakeUser{8, Board}))
	assert.True(t, private.CanBeViewedBy(fakeUser{8, President}))
	assert.True(t, private.CanBeViewedBy(fakeUser{8, Admin}))
}

func TestDocumentCanBeEditedBy(t *testing.T) {

	var db = &CoreDB{}
	var author = fakeUser{7, Volunteer}
	var other = fakeUser{8, Board}
	var admin = fakeUser{9, Admin}

	tests := []struct {
		status     Status
		authorEdit bool
	}{
		{StatusPending, true},
		{StatusUnderReview, true},
		{StatusApproved, false},
		{StatusLive, false},
		{StatusArchived, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			var document = db.NewDocument(fakeDocument{authorID: 7, status: tt.status})
			assert.Equal(t, tt.authorEdit, document.CanBeEditedBy(author))
			assert.False(t, document.CanBeEditedBy(other)) // not even board members
			assert.True(t, document.CanBeEditedBy(admin))  // admins always
			assert.False(t, document.CanBeEditedBy(nil))
		})
	}
}
