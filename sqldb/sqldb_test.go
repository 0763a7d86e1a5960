package sqldb

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/charter/core"
)

func newTestDB(t *testing.T) *core.CoreDB {

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // else each pool connection gets its own memory database
	t.Cleanup(func() {
		sqlDB.Close()
	})

	var db = &core.CoreDB{}
	db.ActivityDB = NewActivityDB(sqlDB)
	db.ApprovalDB = NewApprovalDB(sqlDB)
	db.CategoryDB = NewCategoryDB(sqlDB)
	db.DocumentDB = NewDocumentDB(sqlDB)
	db.FormFieldDB = NewFormFieldDB(sqlDB)
	db.UserDB = NewUserDB(sqlDB)
	db.SqlDB = sqlDB
	return db
}

func insertTestUser(t *testing.T, db *core.CoreDB, email string, role core.Role) core.DBUser {
	u, err := db.InsertUser(email, "Test", "User", role)
	require.NoError(t, err)
	require.NoError(t, db.SetPassword(u, "correct horse"))
	return u
}

func TestUserDB(t *testing.T) {

	var db = newTestDB(t)

	u, err := db.InsertUser("Alice@Example.com", "Alice", "Archer", core.Volunteer)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email()) // normalized
	assert.True(t, u.Active())

	_, err = db.InsertUser("alice@example.com", "Alice", "Again", core.Volunteer)
	assert.Error(t, err, "duplicate email must be rejected")

	_, err = db.InsertUser("bob@example.com", "Bob", "Baker", core.Role("SUPERUSER"))
	assert.Error(t, err)

	// login before a password was set must fail
	_, err = db.LoginUser("alice@example.com", "")
	assert.ErrorIs(t, err, ErrAuth)

	require.NoError(t, db.SetPassword(u, "correct horse"))

	_, err = db.LoginUser("alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuth)

	_, err = db.LoginUser("unknown@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrAuth)

	loggedIn, err := db.LoginUser("alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID(), loggedIn.ID())

	// ChangePassword works on a user loaded without credentials
	fresh, err := db.GetUser(u.ID())
	require.NoError(t, err)
	assert.ErrorIs(t, db.ChangePassword(fresh, "wrong", "new password"), ErrAuth)
	require.NoError(t, db.ChangePassword(fresh, "correct horse", "new password"))
	_, err = db.LoginUser("alice@example.com", "new password")
	assert.NoError(t, err)

	// deactivated users can't log in
	require.NoError(t, db.UpdateUser(u, "Alice", "Archer", core.Volunteer, false))
	_, err = db.LoginUser("alice@example.com", "new password")
	assert.ErrorIs(t, err, ErrAuth)

	insertTestUser(t, db, "carol@example.com", core.Board)
	byRole, err := db.CountUsersByRole()
	require.NoError(t, err)
	assert.Equal(t, 1, byRole[core.Volunteer])
	assert.Equal(t, 1, byRole[core.Board])

	active, err := db.CountActiveUsers()
	require.NoError(t, err)
	assert.Equal(t, 1, active) // alice is deactivated
}

func TestCategoryHierarchy(t *testing.T) {

	var db = newTestDB(t)
	var admin = insertTestUser(t, db, "admin@example.com", core.Admin)

	root, err := db.CreateCategory(admin, "Governance", 0, "", core.President)
	require.NoError(t, err)
	child, err := db.CreateCategory(admin, "Bylaws", root.ID(), "", core.Board)
	require.NoError(t, err)

	path, err := child.FullPath()
	require.NoError(t, err)
	assert.Equal(t, "Governance > Bylaws", path)

	ancestors, err := child.Ancestors()
	require.NoError(t, err)
	require.Len(t, ancestors, 1)
	assert.Equal(t, root.ID(), ancestors[0].ID())

	_, err = db.CreateCategory(admin, "Orphan", 999, "", core.Board)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// documents in a child category count towards the parent
	_, err = db.CreateDocument(admin, "Bylaw Amendment", child.ID(), "text", false, nil, "")
	require.NoError(t, err)
	count, err := root.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// refuse deleting a category with children or documents
	assert.ErrorIs(t, db.DeleteCategory(admin, root), core.ErrConflict)
	assert.ErrorIs(t, db.DeleteCategory(admin, child), core.ErrConflict)

	// reparenting validates the new parent
	grandchild, err := db.CreateCategory(admin, "Amendments", child.ID(), "", core.Board)
	require.NoError(t, err)
	err = db.UpdateCategory(admin, root, "Governance", root.ID(), "", core.President)
	assert.ErrorIs(t, err, core.ErrConflict, "a category can't be its own parent")
	err = db.UpdateCategory(admin, root, "Governance", 999, "", core.President)
	assert.ErrorIs(t, err, core.ErrNotFound)
	err = db.UpdateCategory(admin, root, "Governance", grandchild.ID(), "", core.President)
	assert.ErrorIs(t, err, core.ErrConflict, "a category can't be moved below its own descendant")

	// hierarchy lookups terminate even if the stored data contains a cycle
	require.NoError(t, db.CategoryDB.UpdateCategory(root.DBCategory, "Governance", grandchild.ID(), "", core.President))
	_, err = root.Descendants()
	assert.NoError(t, err)
	require.NoError(t, db.CategoryDB.UpdateCategory(root.DBCategory, "Governance", 0, "", core.President))

	// volunteers can't manage categories
	var volunteer = insertTestUser(t, db, "vol@example.com", core.Volunteer)
	_, err = db.CreateCategory(volunteer, "Nope", 0, "", core.Board)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.ErrorIs(t, db.UpdateCategory(volunteer, root, "Governance", 0, "", core.President), core.ErrUnauthorized)
}

func TestDocumentVersions(t *testing.T) {

	var db = newTestDB(t)
	var admin = insertTestUser(t, db, "admin@example.com", core.Admin)
	var author = insertTestUser(t, db, "author@example.com", core.Volunteer)

	category, err := db.CreateCategory(admin, "Minutes", 0, "", core.Board)
	require.NoError(t, err)

	document, err := db.CreateDocument(author, "Meeting Minutes", category.ID(), "First draft.", false, nil, "")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, document.Status())
	assert.Equal(t, "meeting-minutes", document.Slug())
	assert.Equal(t, 0, document.MaxVersionNo())

	// slug collision gets a numeric suffix
	second, err := db.CreateDocument(author, "Meeting Minutes", category.ID(), "", false, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "meeting-minutes-2", second.Slug())

	// updating the content records the old content as a version
	var newContent = "Second draft."
	err = db.UpdateDocument(author, document, core.DocumentUpdate{
		Content: &newContent,
		Note:    "reworded",
	}, "")
	require.NoError(t, err)

	document, err = db.GetDocument(document.ID())
	require.NoError(t, err)
	assert.Equal(t, "Second draft.", document.Content())
	assert.Equal(t, 1, document.MaxVersionNo())

	v, err := db.GetVersion(document.ID(), 1)
	require.NoError(t, err)
	assert.Equal(t, "First draft.", v.Content())
	assert.Equal(t, "reworded", v.Note())
	assert.NotEmpty(t, v.Diff())
	assert.Equal(t, author.ID(), v.AuthorID())

	// updating without changing the content records no version
	var title = "Board Meeting Minutes"
	require.NoError(t, db.UpdateDocument(author, document, core.DocumentUpdate{Title: &title}, ""))
	document, err = db.GetDocument(document.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, document.MaxVersionNo())

	// strangers can't edit
	var stranger = insertTestUser(t, db, "stranger@example.com", core.Volunteer)
	assert.ErrorIs(t, db.UpdateDocument(stranger, document, core.DocumentUpdate{Title: &title}, ""), core.ErrUnauthorized)

	// deleting removes versions and form fields
	require.NoError(t, db.DeleteDocument(author, document, ""))
	_, err = db.DocumentDB.GetDocument(document.ID())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	versions, err := db.GetVersions(document.ID())
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestDocumentFilter(t *testing.T) {

	var db = newTestDB(t)
	var admin = insertTestUser(t, db, "admin@example.com", core.Admin)
	var author = insertTestUser(t, db, "author@example.com", core.Volunteer)
	var other = insertTestUser(t, db, "other@example.com", core.Volunteer)

	category, err := db.CreateCategory(admin, "Reports", 0, "", core.Board)
	require.NoError(t, err)

	_, err = db.CreateDocument(author, "Private Notes", category.ID(), "secret", false, nil, "")
	require.NoError(t, err)
	_, err = db.CreateDocument(author, "Annual Report", category.ID(), "public knowledge", true, nil, "")
	require.NoError(t, err)

	// full visibility
	all, err := db.GetDocuments(core.DocumentFilter{ViewAll: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// others see only public documents
	visible, err := db.GetDocuments(core.DocumentFilter{ViewerID: other.ID()})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "Annual Report", visible[0].Title())

	// authors see their own private documents
	own, err := db.GetDocuments(core.DocumentFilter{ViewerID: author.ID()})
	require.NoError(t, err)
	assert.Len(t, own, 2)

	// substring search on title and content
	found, err := db.GetDocuments(core.DocumentFilter{ViewAll: true, Search: "knowledge"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Annual Report", found[0].Title())
}

func TestApprovalWorkflow(t *testing.T) {

	var db = newTestDB(t)
	var admin = insertTestUser(t, db, "admin@example.com", core.Admin)
	var president = insertTestUser(t, db, "president@example.com", core.President)
	var board = insertTestUser(t, db, "board@example.com", core.Board)
	var author = insertTestUser(t, db, "author@example.com", core.Committee)

	boardCategory, err := db.CreateCategory(admin, "Events", 0, "", core.Board)
	require.NoError(t, err)
	presidentCategory, err := db.CreateCategory(admin, "Contracts", 0, "", core.President)
	require.NoError(t, err)

	document, err := db.CreateDocument(author, "Summer Fair", boardCategory.ID(), "plan", false, nil, "")
	require.NoError(t, err)

	approval, err := db.RequestApproval(author, document, "please review", "")
	require.NoError(t, err)
	assert.Equal(t, core.ApprovalPending, approval.Status())

	document, err = db.GetDocument(document.ID())
	require.NoError(t, err)
	assert.Equal(t, core.StatusUnderReview, document.Status())

	// only one pending request per document
	_, err = db.RequestApproval(author, document, "again", "")
	assert.ErrorIs(t, err, core.ErrConflict)

	// the author can't review their own request
	assert.ErrorIs(t, db.ReviewApproval(author, approval, true, "", ""), core.ErrUnauthorized)

	// a board member may approve a board-level category
	require.NoError(t, db.ReviewApproval(board, approval, true, "looks good", ""))

	approval, err = db.GetApproval(approval.ID())
	require.NoError(t, err)
	assert.Equal(t, core.ApprovalApproved, approval.Status())
	assert.Equal(t, board.ID(), approval.ReviewedByID())

	document, err = db.GetDocument(document.ID())
	require.NoError(t, err)
	assert.Equal(t, core.StatusApproved, document.Status())
	assert.Equal(t, board.ID(), document.ApprovedByID())
	assert.NotZero(t, document.TsApproved())

	// reviewing twice is a conflict
	assert.ErrorIs(t, db.ReviewApproval(board, approval, false, "", ""), core.ErrConflict)

	// publish
	require.NoError(t, db.PublishDocument(president, document, ""))
	document, err = db.GetDocument(document.ID())
	require.NoError(t, err)
	assert.Equal(t, core.StatusLive, document.Status())

	// archive
	require.NoError(t, db.ArchiveDocument(admin, document, ""))
	document, err = db.GetDocument(document.ID())
	require.NoError(t, err)
	assert.Equal(t, core.StatusArchived, document.Status())

	// board members can't approve president-level categories
	restricted, err := db.CreateDocument(author, "Vendor Contract", presidentCategory.ID(), "terms", false, nil, "")
	require.NoError(t, err)
	restrictedApproval, err := db.RequestApproval(author, restricted, "", "")
	require.NoError(t, err)
	assert.ErrorIs(t, db.ReviewApproval(board, restrictedApproval, true, "", ""), core.ErrUnauthorized)
	require.NoError(t, db.ReviewApproval(president, restrictedApproval, false, "needs legal review", ""))

	restricted, err = db.GetDocument(restricted.ID())
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, restricted.Status())

	// cancelling moves the document back to pending
	cancelMe, err := db.RequestApproval(author, restricted, "", "")
	require.NoError(t, err)
	require.NoError(t, db.CancelApproval(author, cancelMe, ""))
	cancelMe, err = db.GetApproval(cancelMe.ID())
	require.NoError(t, err)
	assert.Equal(t, core.ApprovalCancelled, cancelMe.Status())
	restricted, err = db.GetDocument(restricted.ID())
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, restricted.Status())

	// only pending and under-review documents can enter the workflow
	_, err = db.RequestApproval(admin, document, "", "")
	assert.ErrorIs(t, err, core.ErrConflict, "document is archived")

	// filters
	pending, err := db.GetApprovals(core.ApprovalFilter{Status: core.ApprovalPending})
	require.NoError(t, err)
	assert.Empty(t, pending)
	mine, err := db.GetApprovals(core.ApprovalFilter{RequestedBy: author.ID()})
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	// deleting a document removes its approval requests
	require.NoError(t, db.DeleteDocument(author, restricted, ""))
	mine, err = db.GetApprovals(core.ApprovalFilter{RequestedBy: author.ID()})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	_, err = db.NewApproval(mine[0]).Document()
	assert.NoError(t, err)
}

func TestFormFields(t *testing.T) {

	var db = newTestDB(t)
	var admin = insertTestUser(t, db, "admin@example.com", core.Admin)

	category, err := db.CreateCategory(admin, "Forms", 0, "", core.Board)
	require.NoError(t, err)

	document, err := db.CreateDocument(admin, "Membership Form", category.ID(), "", false, []core.FormFieldSpec{
		{Name: "Full Name", Type: core.FieldText, Required: true, Placeholder: "Jane Doe"},
		{Name: "Email", Type: core.FieldEmail, Required: true},
		{Name: "Shirt Size", Type: core.FieldSelect, Options: []string{"S", "M", "L"}},
	}, "")
	require.NoError(t, err)
	assert.True(t, document.HasFillableFields())

	fields, err := document.FormFields()
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, "Full Name", fields[0].Name())
	assert.Equal(t, 1, fields[0].Position())
	assert.True(t, fields[0].Required())
	assert.Equal(t, []string{"S", "M", "L"}, fields[2].Options())

	// replacing drops the old fields
	require.NoError(t, db.ReplaceFormFields(document.ID(), []core.FormFieldSpec{
		{Name: "Signature", Type: core.FieldSignature, Required: true},
	}))
	fields, err = document.FormFields()
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, core.FieldSignature, fields[0].Type())
}

func TestActivityLog(t *testing.T) {

	var db = newTestDB(t)
	var admin = insertTestUser(t, db, "admin@example.com", core.Admin)

	category, err := db.CreateCategory(admin, "Logs", 0, "", core.Board)
	require.NoError(t, err)
	document, err := db.CreateDocument(admin, "Logged Document", category.ID(), "", false, nil, "127.0.0.1")
	require.NoError(t, err)

	entries, err := db.GetActivityByDocument(document.ID(), 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "document.create", entries[0].Action())
	assert.Equal(t, admin.ID(), entries[0].UserID())
	assert.Equal(t, "127.0.0.1", entries[0].IPAddress())
	assert.Len(t, entries[0].Token(), 36) // uuid
	assert.NotZero(t, entries[0].Ts())

	byUser, err := db.GetActivityByUser(admin.ID(), 0, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, byUser)
}
