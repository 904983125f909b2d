package security_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/security"
)

func csrfRequest(method, token, cookie string) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/checkout", nil)
	if token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "csrf_token", Value: cookie})
	}
	return req
}

func TestCSRFAllowsMatchingPair(t *testing.T) {
	called := false
	h := security.CSRF{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, csrfRequest(http.MethodPost, "tok-123", "tok-123"))
	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFRejectsMismatch(t *testing.T) {
	h := security.CSRF{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, csrfRequest(http.MethodPost, "tok-123", "tok-456"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFRejectsMissingToken(t *testing.T) {
	h := security.CSRF{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, csrfRequest(http.MethodPost, "", "tok-123"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFSkipsReads(t *testing.T) {
	called := false
	h := security.CSRF{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, csrfRequest(http.MethodGet, "", ""))
	require.True(t, called)
}
