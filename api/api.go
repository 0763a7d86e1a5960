// Package api provides the JSON REST surface.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/charter/core"
	"github.com/wansing/charter/sqldb"
)

// we need the CoreDB in the handlers
type context struct {
	*core.Request
	db *core.CoreDB
}

// An Error carries an HTTP status code. Handlers return it for client faults.
type Error struct {
	Code    int
	Message string
}

func (e Error) Error() string {
	return e.Message
}

func badRequest(format string, args ...interface{}) error {
	return Error{http.StatusBadRequest, fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func statusOf(err error) int {
	var apiErr Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.Is(err, sqldb.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func middleware(db *core.CoreDB, requireLoggedIn bool, f func(http.ResponseWriter, *http.Request, *context, httprouter.Params) error) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {

		var ctx = &context{
			Request: db.NewRequest(w, req),
			db:      db,
		}
		defer ctx.Cleanup()

		if requireLoggedIn && !ctx.LoggedIn() {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		if err := f(w, req, ctx, params); err != nil {
			var status = statusOf(err)
			if status == http.StatusInternalServerError {
				log.Printf("%s %s: %v", req.Method, req.URL.Path, err)
				writeError(w, status, "internal server error")
			} else {
				writeError(w, status, err.Error())
			}
		}
	}
}

// readBody decodes the JSON request body into v. Unknown fields are rejected.
func readBody(req *http.Request, v interface{}) error {
	var dec = json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("malformed request body: %v", err)
	}
	return nil
}

func intParam(params httprouter.Params, name string) (int, error) {
	id, err := strconv.Atoi(params.ByName(name))
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s", name)
	}
	return id, nil
}

func queryInt(req *http.Request, name string) int {
	n, _ := strconv.Atoi(req.URL.Query().Get(name))
	return n
}

func NewRouter(db *core.CoreDB) http.Handler {

	var router = httprouter.New()

	// public
	router.GET("/health", middleware(db, false, health))
	router.POST("/api/auth/login", middleware(db, false, login))
	router.POST("/api/auth/register", middleware(db, false, register))

	// private
	router.POST("/api/auth/logout", middleware(db, true, logout))
	router.GET("/api/auth/profile", middleware(db, true, getProfile))
	router.PUT("/api/auth/profile", middleware(db, true, updateProfile))
	router.POST("/api/auth/change-password", middleware(db, true, changePassword))

	router.GET("/api/users", middleware(db, true, listUsers))
	router.POST("/api/users", middleware(db, true, createUser))
	router.GET("/api/users/:id", middleware(db, true, getUser)) // also serves /api/users/stats
	router.PUT("/api/users/:id", middleware(db, true, updateUser))
	router.DELETE("/api/users/:id", middleware(db, true, deleteUser))

	router.GET("/api/categories", middleware(db, true, listCategories))
	router.POST("/api/categories", middleware(db, true, createCategory))
	router.GET("/api/categories/:id", middleware(db, true, getCategory)) // also serves /tree and /stats
	router.PUT("/api/categories/:id", middleware(db, true, updateCategory))
	router.DELETE("/api/categories/:id", middleware(db, true, deleteCategory))

	router.GET("/api/documents", middleware(db, true, listDocuments))
	router.POST("/api/documents", middleware(db, true, createDocument))
	router.GET("/api/documents/:id", middleware(db, true, getDocument)) // also serves /api/documents/stats
	router.PUT("/api/documents/:id", middleware(db, true, updateDocument))
	router.DELETE("/api/documents/:id", middleware(db, true, deleteDocument))
	router.POST("/api/documents/:id/publish", middleware(db, true, publishDocument))
	router.POST("/api/documents/:id/archive", middleware(db, true, archiveDocument))
	router.GET("/api/documents/:id/versions", middleware(db, true, listVersions))
	router.GET("/api/documents/:id/versions/:no", middleware(db, true, getVersion))
	router.GET("/api/documents/:id/versions/:no/diff/:with", middleware(db, true, diffVersions))
	router.GET("/api/documents/:id/activity", middleware(db, true, documentActivity))
	router.GET("/api/documents/:id/pdf", middleware(db, true, documentPDF))
	router.GET("/api/documents/:id/pdf/fillable", middleware(db, true, documentPDFFillable))
	router.GET("/api/documents/:id/pdf/preview", middleware(db, true, documentPreview))

	router.GET("/api/approvals", middleware(db, true, listApprovals))
	router.POST("/api/approvals", middleware(db, true, createApproval))
	router.GET("/api/approvals/:id", middleware(db, true, getApproval)) // also serves /api/approvals/stats
	router.PUT("/api/approvals/:id", middleware(db, true, reviewApproval))
	router.DELETE("/api/approvals/:id", middleware(db, true, cancelApproval))
	router.POST("/api/approvals/request/:documentID", middleware(db, true, requestApproval))

	return router
}

func health(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
