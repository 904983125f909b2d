package auth

import (
	"net/http"

	"github.com/ovenline/backend-bakery/internal/common"
)

// Middleware resolves the session cookie and wires the cashier identity
// into the request context.
type Middleware struct {
	Service    *Service
	CookieName string
}

func (m Middleware) token(r *http.Request) string {
	c, err := r.Cookie(m.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequireAuth rejects requests without a live session.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Service.Verify(r.Context(), m.token(r))
		if err != nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or expired session", nil)
			return
		}
		ctx := common.WithCashier(r.Context(), sess.UserID, sess.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin additionally enforces the admin role. It must run inside
// RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := common.CashierRole(r.Context())
		if !ok || role != "admin" {
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
