package api

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/charter/core"
)

func login(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readBody(req, &body); err != nil {
		return err
	}

	if err := ctx.Login(body.Email, body.Password); err != nil {
		return err
	}

	ctx.db.LogActivity(ctx.User, "auth.login", "user", ctx.User.ID(), "", ctx.IP(), 0)

	return writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "login successful",
		"user":    newUserJSON(ctx.User),
	})
}

// register creates a new volunteer account. Elevated roles are assigned by
// user management, never on registration.
func register(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
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
	if _, err := ctx.db.GetUserByEmail(body.Email); err == nil {
		return badRequest("email address is already registered")
	}

	u, err := ctx.db.InsertUser(body.Email, body.FirstName, body.LastName, core.Volunteer)
	if err != nil {
		return err
	}
	if err := ctx.db.SetPassword(u, body.Password); err != nil {
		return err
	}

	ctx.db.LogActivity(u, "auth.register", "user", u.ID(), "", ctx.IP(), 0)

	return writeJSON(w, http.StatusCreated, newUserJSON(u))
}

func logout(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	ctx.db.LogActivity(ctx.User, "auth.logout", "user", ctx.User.ID(), "", ctx.IP(), 0)
	ctx.Logout()
	return writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func getProfile(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return writeJSON(w, http.StatusOK, newUserJSON(ctx.User))
}

// updateProfile lets a user change their own name. Role and active flag are
// left untouched here.
func updateProfile(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var body struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := readBody(req, &body); err != nil {
		return err
	}

	if err := ctx.db.UpdateUser(ctx.User, body.FirstName, body.LastName, ctx.User.Role(), ctx.User.Active()); err != nil {
		return err
	}

	u, err := ctx.db.GetUser(ctx.User.ID())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, newUserJSON(u))
}

func changePassword(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := readBody(req, &body); err != nil {
		return err
	}

	if len(body.NewPassword) < 8 {
		return badRequest("password must have at least 8 characters")
	}

	if err := ctx.db.ChangePassword(ctx.User, body.OldPassword, body.NewPassword); err != nil {
		return err
	}

	ctx.db.LogActivity(ctx.User, "auth.change_password", "user", ctx.User.ID(), "", ctx.IP(), 0)

	return writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}
