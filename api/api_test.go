package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/charter/core"
	"github.com/wansing/charter/sqldb"
	"github.com/wansing/charter/sqldb/sqlite3"
)

func newTestServer(t *testing.T) (*httptest.Server, *core.CoreDB) {

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	var db = &core.CoreDB{}
	require.NoError(t, db.Init(sqlite3.NewSessionStore(sqlDB), ""))
	db.ActivityDB = sqldb.NewActivityDB(sqlDB)
	db.ApprovalDB = sqldb.NewApprovalDB(sqlDB)
	db.CategoryDB = sqldb.NewCategoryDB(sqlDB)
	db.DocumentDB = sqldb.NewDocumentDB(sqlDB)
	db.FormFieldDB = sqldb.NewFormFieldDB(sqlDB)
	db.UserDB = sqldb.NewUserDB(sqlDB)
	db.SqlDB = sqlDB

	var server = httptest.NewServer(db.SessionManager.LoadAndSave(NewRouter(db)))
	t.Cleanup(func() {
		server.Close()
		sqlDB.Close()
	})
	return server, db
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func do(t *testing.T, client *http.Client, method, url string, body interface{}) *http.Response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func loginAs(t *testing.T, client *http.Client, baseURL, email, password string) {
	resp := do(t, client, "POST", baseURL+"/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestAuth(t *testing.T) {

	server, db := newTestServer(t)
	var client = newClient(t)

	admin, err := db.InsertUser("admin@example.com", "Ada", "Admin", core.Admin)
	require.NoError(t, err)
	require.NoError(t, db.SetPassword(admin, "letmein12"))

	// no session yet
	resp := do(t, client, "GET", server.URL+"/api/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// wrong password
	resp = do(t, client, "POST", server.URL+"/api/auth/login", map[string]string{
		"email": "admin@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	loginAs(t, client, server.URL, "admin@example.com", "letmein12")

	var profile struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	resp = do(t, client, "GET", server.URL+"/api/auth/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &profile)
	assert.Equal(t, "admin@example.com", profile.Email)
	assert.Equal(t, "ADMIN", profile.Role)

	// registration is open and yields volunteers
	resp = do(t, newClient(t), "POST", server.URL+"/api/auth/register", map[string]string{
		"email": "new@example.com", "password": "secret123", "first_name": "New", "last_name": "Member",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var registered struct {
		Role string `json:"role"`
	}
	decode(t, resp, &registered)
	assert.Equal(t, "VOLUNTEER", registered.Role)

	// registering a taken email address is a validation error, not a server error
	resp = do(t, newClient(t), "POST", server.URL+"/api/auth/register", map[string]string{
		"email": "new@example.com", "password": "secret123", "first_name": "New", "last_name": "Again",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// logout kills the session
	resp = do(t, client, "POST", server.URL+"/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, client, "GET", server.URL+"/api/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestDocumentLifecycle(t *testing.T) {

	server, db := newTestServer(t)

	admin, err := db.InsertUser("admin@example.com", "Ada", "Admin", core.Admin)
	require.NoError(t, err)
	require.NoError(t, db.SetPassword(admin, "letmein12"))
	board, err := db.InsertUser("board@example.com", "Bob", "Board", core.Board)
	require.NoError(t, err)
	require.NoError(t, db.SetPassword(board, "letmein12"))
	volunteer, err := db.InsertUser("vol@example.com", "Vera", "Volunteer", core.Volunteer)
	require.NoError(t, err)
	require.NoError(t, db.SetPassword(volunteer, "letmein12"))

	var adminClient = newClient(t)
	loginAs(t, adminClient, server.URL, "admin@example.com", "letmein12")
	var boardClient = newClient(t)
	loginAs(t, boardClient, server.URL, "board@example.com", "letmein12")
	var volClient = newClient(t)
	loginAs(t, volClient, server.URL, "vol@example.com", "letmein12")

	// category

	resp := do(t, adminClient, "POST", server.URL+"/api/categories", map[string]interface{}{
		"name": "Events", "required_approval_role": "BOARD_MEMBER",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var category struct {
		ID int `json:"id"`
	}
	decode(t, resp, &category)

	// volunteers can't create categories
	resp = do(t, volClient, "POST", server.URL+"/api/categories", map[string]interface{}{
		"name": "Nope",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// document

	resp = do(t, volClient, "POST", server.URL+"/api/documents", map[string]interface{}{
		"title":            "Summer Fair",
		"category_id":      category.ID,
		"content_markdown": "# Plan\n\nDetails follow.",
		"form_fields": []map[string]interface{}{
			{"field_name": "Helper Name", "field_type": "TEXT", "required": true},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var document struct {
		ID         int    `json:"id"`
		Slug       string `json:"slug"`
		Status     string `json:"status"`
		FormFields []struct {
			Name string `json:"field_name"`
		} `json:"form_fields"`
	}
	decode(t, resp, &document)
	assert.Equal(t, "summer-fair", document.Slug)
	assert.Equal(t, "PENDING", document.Status)
	require.Len(t, document.FormFields, 1)

	var documentURL = fmt.Sprintf("%s/api/documents/%d", server.URL, document.ID)

	// private document is hidden from other members
	var otherClient = newClient(t)
	resp = do(t, adminClient, "POST", server.URL+"/api/users", map[string]interface{}{
		"email": "other@example.com", "password": "letmein12",
		"first_name": "Omar", "last_name": "Other", "role": "VOLUNTEER",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	loginAs(t, otherClient, server.URL, "other@example.com", "letmein12")
	resp = do(t, otherClient, "GET", documentURL, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// approval round trip

	resp = do(t, volClient, "POST", server.URL+"/api/approvals/request/"+fmt.Sprint(document.ID), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var approval struct {
		ID     int    `json:"id"`
		Status string `json:"status"`
	}
	decode(t, resp, &approval)
	assert.Equal(t, "PENDING", approval.Status)

	// a second request conflicts
	resp = do(t, volClient, "POST", server.URL+"/api/approvals", map[string]interface{}{
		"document_id": document.ID,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// the volunteer can't review their own request
	resp = do(t, volClient, "PUT", fmt.Sprintf("%s/api/approvals/%d", server.URL, approval.ID), map[string]interface{}{
		"status": "APPROVED",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, boardClient, "PUT", fmt.Sprintf("%s/api/approvals/%d", server.URL, approval.ID), map[string]interface{}{
		"status": "APPROVED", "notes": "looks good",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &approval)
	assert.Equal(t, "APPROVED", approval.Status)

	// publish

	resp = do(t, boardClient, "POST", documentURL+"/publish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var published struct {
		Status string `json:"status"`
	}
	decode(t, resp, &published)
	assert.Equal(t, "LIVE", published.Status)

	// versions appear after a content change

	resp = do(t, adminClient, "PUT", documentURL, map[string]interface{}{
		"content_markdown":   "# Plan\n\nRevised details.",
		"change_description": "more details",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, adminClient, "GET", documentURL+"/versions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var versions []struct {
		VersionNo int    `json:"version_number"`
		Note      string `json:"change_description"`
	}
	decode(t, resp, &versions)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].VersionNo)
	assert.Equal(t, "more details", versions[0].Note)

	// pdf export

	resp = do(t, volClient, "GET", documentURL+"/pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF-"))

	resp = do(t, volClient, "GET", documentURL+"/pdf/fillable", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// stats

	resp = do(t, adminClient, "GET", server.URL+"/api/documents/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		Total    int            `json:"total_documents"`
		ByStatus map[string]int `json:"by_status"`
	}
	decode(t, resp, &stats)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByStatus["LIVE"])

	// activity log

	resp = do(t, adminClient, "GET", documentURL+"/activity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var activity []struct {
		Action string `json:"action"`
	}
	decode(t, resp, &activity)
	assert.NotEmpty(t, activity)

	// the approvals listing survives deleting a document that had requests

	resp = do(t, adminClient, "DELETE", documentURL, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, boardClient, "GET", server.URL+"/api/approvals", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var approvals []struct {
		ID int `json:"id"`
	}
	decode(t, resp, &approvals)
	assert.Empty(t, approvals)
}

func TestUserManagement(t *testing.T) {

	server, db := newTestServer(t)

	admin, err := db.InsertUser("admin@example.com", "Ada", "Admin", core.Admin)
	require.NoError(t, err)
	require.NoError(t, db.SetPassword(admin, "letmein12"))
	volunteer, err := db.InsertUser("vol@example.com", "Vera", "Volunteer", core.Volunteer)
	require.NoError(t, err)
	require.NoError(t, db.SetPassword(volunteer, "letmein12"))

	var adminClient = newClient(t)
	loginAs(t, adminClient, server.URL, "admin@example.com", "letmein12")
	var volClient = newClient(t)
	loginAs(t, volClient, server.URL, "vol@example.com", "letmein12")

	// volunteers can't list users
	resp := do(t, volClient, "GET", server.URL+"/api/users", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, adminClient, "GET", server.URL+"/api/users", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []struct {
		Email string `json:"email"`
	}
	decode(t, resp, &users)
	assert.Len(t, users, 2)

	// promote the volunteer
	resp = do(t, adminClient, "PUT", fmt.Sprintf("%s/api/users/%d", server.URL, volunteer.ID()), map[string]interface{}{
		"role": "BOARD_MEMBER",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Role string `json:"role"`
	}
	decode(t, resp, &updated)
	assert.Equal(t, "BOARD_MEMBER", updated.Role)

	// admins can't demote themselves
	resp = do(t, adminClient, "PUT", fmt.Sprintf("%s/api/users/%d", server.URL, admin.ID()), map[string]interface{}{
		"role": "VOLUNTEER",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// stats
	resp = do(t, adminClient, "GET", server.URL+"/api/users/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		Total  int            `json:"total_users"`
		ByRole map[string]int `json:"by_role"`
	}
	decode(t, resp, &stats)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByRole["ADMIN"])
	assert.Equal(t, 1, stats.ByRole["BOARD_MEMBER"])

	// change own password
	resp = do(t, volClient, "POST", server.URL+"/api/auth/change-password", map[string]interface{}{
		"old_password": "letmein12", "new_password": "evenbetter",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	loginAs(t, newClient(t), server.URL, "vol@example.com", "evenbetter")
}
