// Package middleware holds the API's own chi middleware.
package middleware

import (
	"net/http"

	"github.com/MrJamesThe3rd/customcraft/internal/http/render"
)

// AdminKeyHeader carries the static admin key. Tokens go in Authorization.
const AdminKeyHeader = "X-Admin-Key"

type Authorizer interface {
	Authorize(credential string) error
}

// Credential returns the admin credential presented on r, if any.
func Credential(r *http.Request) string {
	if key := r.Header.Get(AdminKeyHeader); key != "" {
		return key
	}

	return r.Header.Get("Authorization")
}

// RequireAdmin rejects requests without a valid admin credential.
func RequireAdmin(a Authorizer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := a.Authorize(Credential(r)); err != nil {
				render.Error(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
