package middleware

import (
	"net/http"
)

// Authenticator reports whether the console holds a usable session.
type Authenticator interface {
	Authenticated() bool
}

// LoginPath is where RequireSession sends unauthenticated requests.
const LoginPath = "/login"

// RequireSession redirects to the login view with 303 See Other when there
// is no session.
func RequireSession(session Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.Authenticated() {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
