package security_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/security"
)

func TestBodyLimitRejectsDeclaredOversize(t *testing.T) {
	h := security.BodyLimit{Max: 16}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyLimitPassesSmallBody(t *testing.T) {
	var got string
	h := security.BodyLimit{Max: 64}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		got = string(b)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"discount":null}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `{"discount":null}`, got)
}

func TestBodyLimitCapsUndeclaredBody(t *testing.T) {
	h := security.BodyLimit{Max: 8}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		require.Error(t, err)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("y", 32)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
}
