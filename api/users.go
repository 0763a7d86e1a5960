package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/charter/core"
)

func listUsers(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if !ctx.User.Role().CanManageUsers() {
		return core.ErrUnauthorized
	}

	users, err := ctx.db.GetAllUsers(queryInt(req, "limit"), queryInt(req, "offset"))
	if err != nil {
		return err
	}

	var result = make([]*userJSON, 0, len(users))
	for _, u := range users {
		result = append(result, newUserJSON(u))
	}
	return writeJSON(w, http.StatusOK, result)
}

func createUser(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if !ctx.User.Role().CanManageUsers() {
		return core.ErrUnauthorized
	}

	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	}
	if err := readBody(req, &body); err != nil {
		return err
	}

	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" || !strings.Contains(body.Email, "@") {
		return badRequest("invalid email address")
	}
	if len(body.Password) < 8 {
		return badRequest("password must have at least 8 characters")
	}
	role, err := core.ParseRole(body.Role)
	if err != nil {
		return badRequest("%v", err)
	}
	if _, err := ctx.db.GetUserByEmail(body.Email); err == nil {
		return badRequest("email address is already registered")
	}

	u, err := ctx.db.InsertUser(body.Email, body.FirstName, body.LastName, role)
	if err != nil {
		return err
	}
	if err := ctx.db.SetPassword(u, body.Password); err != nil {
		return err
	}

	ctx.db.LogActivity(ctx.User, "user.create", "user", u.ID(), u.Email(), ctx.IP(), 0)

	return writeJSON(w, http.StatusCreated, newUserJSON(u))
}

// getUser also serves GET /api/users/stats because httprouter can't register
// a static path next to the :id parameter.
func getUser(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if params.ByName("id") == "stats" {
		return userStats(w, ctx)
	}

	if !ctx.User.Role().CanManageUsers() {
		return core.ErrUnauthorized
	}

	id, err := intParam(params, "id")
	if err != nil {
		return err
	}
	u, err := ctx.db.GetUser(id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, newUserJSON(u))
}

func userStats(w http.ResponseWriter, ctx *context) error {

	if !ctx.User.Role().CanManageUsers() {
		return core.ErrUnauthorized
	}

	byRole, err := ctx.db.CountUsersByRole()
	if err != nil {
		return err
	}
	active, err := ctx.db.CountActiveUsers()
	if err != nil {
		return err
	}

	var total int
	var roles = make(map[string]int)
	for role, count := range byRole {
		total += count
		roles[role.String()] = count
	}

	return writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_users":  total,
		"active_users": active,
		"by_role":      roles,
	})
}

func updateUser(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if !ctx.User.Role().CanManageUsers() {
		return core.ErrUnauthorized
	}

	id, err := intParam(params, "id")
	if err != nil {
		return err
	}
	u, err := ctx.db.GetUser(id)
	if err != nil {
		return err
	}

	var body struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Role      *string `json:"role"`
		Active    *bool   `json:"active"`
	}
	if err := readBody(req, &body); err != nil {
		return err
	}

	var firstName = u.FirstName()
	if body.FirstName != nil {
		firstName = *body.FirstName
	}
	var lastName = u.LastName()
	if body.LastName != nil {
		lastName = *body.LastName
	}
	var role = u.Role()
	if body.Role != nil {
		role, err = core.ParseRole(*body.Role)
		if err != nil {
			return badRequest("%v", err)
		}
	}
	var active = u.Active()
	if body.Active != nil {
		active = *body.Active
	}

	// a user can't demote or deactivate themselves, that would lock them out
	if u.ID() == ctx.User.ID() && (role != u.Role() || !active) {
		return badRequest("you can not change your own role or deactivate yourself")
	}

	if err := ctx.db.UpdateUser(u, firstName, lastName, role, active); err != nil {
		return err
	}

	ctx.db.LogActivity(ctx.User, "user.update", "user", u.ID(), u.Email(), ctx.IP(), 0)

	u, err = ctx.db.GetUser(id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, newUserJSON(u))
}

func deleteUser(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if !ctx.User.Role().CanManageUsers() {
		return core.ErrUnauthorized
	}

	id, err := intParam(params, "id")
	if err != nil {
		return err
	}
	if id == ctx.User.ID() {
		return badRequest("you can not delete yourself")
	}

	u, err := ctx.db.GetUser(id)
	if err != nil {
		return err
	}

	// refuse if the user still owns documents, they must be reassigned first
	count, err := ctx.db.CountDocumentsByAuthor(u.ID())
	if err != nil {
		return err
	}
	if count > 0 {
		return Error{http.StatusConflict, fmt.Sprintf("user still has %d documents", count)}
	}

	if err := ctx.db.DeleteUser(u); err != nil {
		return err
	}

	ctx.db.LogActivity(ctx.User, "user.delete", "user", id, u.Email(), ctx.IP(), 0)

	return writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
