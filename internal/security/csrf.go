package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ovenline/backend-bakery/internal/common"
)

// CSRF enforces the double-submit pattern for the cookie-session flows: the
// frontend mirrors the csrf cookie into a request header and the two must
// match on every write.
type CSRF struct {
	HeaderName string
	CookieName string
}

func (c CSRF) header() string {
	if v := strings.TrimSpace(c.HeaderName); v != "" {
		return v
	}
	return "X-CSRF-Token"
}

func (c CSRF) cookie() string {
	if v := strings.TrimSpace(c.CookieName); v != "" {
		return v
	}
	return "csrf_token"
}

// Middleware rejects write requests whose header token does not match the
// cookie. Safe methods pass through untouched.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName := c.header()
	cookieName := c.cookie()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimSpace(r.Header.Get(headerName))
		if token == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF", "missing csrf token", nil)
			return
		}
		cookie, err := r.Cookie(cookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF", "missing csrf cookie", nil)
			return
		}
		if len(token) != len(cookie.Value) || subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1 {
			common.JSONError(w, http.StatusForbidden, "CSRF", "csrf token mismatch", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
