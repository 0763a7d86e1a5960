package core

import (
	"net"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

// A Request is created by CoreDB.NewRequest.
type Request struct {
	db   *CoreDB
	User DBUser

	writer  http.ResponseWriter
	request *http.Request
}

// NewRequest creates a Request with the given http.ResponseWriter and http.Request.
// If a user is logged in, it sets Request.User.
func (c *CoreDB) NewRequest(w http.ResponseWriter, httpreq *http.Request) *Request {

	var req = &Request{
		db:      c,
		writer:  w,
		request: httpreq,
	}

	if uid := c.SessionManager.GetInt(httpreq.Context(), "uid"); uid != 0 {
		u, err := c.GetUser(uid)
		if u != nil && err == nil && u.Active() {
			req.User = u
		}
		// ignore errors
	}

	return req
}

// Login tries to log in a user. On success, the user id is stored in the
// session and the user's last login time is updated.
func (req *Request) Login(email string, enteredPass string) error {
	if req.LoggedIn() {
		return nil
	}
	u, err := req.db.LoginUser(email, enteredPass)
	if err != nil {
		return err // is ErrAuth if email or enteredPass is wrong
	}
	req.User = u
	_ = req.db.SetLastLogin(u, time.Now().Unix())
	req.db.SessionManager.Put(req.request.Context(), "uid", u.ID())
	return nil
}

func (req *Request) LoggedIn() bool {
	return req.User != nil
}

// Logout removes the user id from the session and calls req.Cleanup().
func (req *Request) Logout() {
	if req.LoggedIn() {
		req.db.SessionManager.Remove(req.request.Context(), "uid")
		req.User = nil
	}
	req.Cleanup()
}

// Cleanup destroys the session (which means re-setting the cookie with zero
// lifetime) if the session has been modified and is empty now.
func (req *Request) Cleanup() {
	sessMan := req.db.SessionManager
	if sessMan.Status(req.request.Context()) == scs.Modified && len(sessMan.Keys(req.request.Context())) == 0 {
		_ = sessMan.Destroy(req.request.Context())
	}
}

// IP returns the remote IP address, for the activity log.
func (req *Request) IP() string {
	if host, _, err := net.SplitHostPort(req.request.RemoteAddr); err == nil {
		return host
	}
	return req.request.RemoteAddr
}

// AcceptLanguage returns the Accept-Language header value.
func (req *Request) AcceptLanguage() string {
	return req.request.Header.Get("Accept-Language")
}
