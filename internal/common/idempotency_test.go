package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/common"
)

func idemHandler(t *testing.T) (http.Handler, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	h := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	return h, &calls
}

func TestIdempotencyBlocksReplay(t *testing.T) {
	h, calls := idemHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("Idempotency-Key", "reg1-20250310-0007")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 1, *calls)
}

func TestIdempotencyScopedPerCashier(t *testing.T) {
	h, calls := idemHandler(t)

	for _, cashier := range []string{"alice", "bob"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.Header.Set("Idempotency-Key", "shared-key")
		req = req.WithContext(common.WithCashier(req.Context(), cashier, "cashier"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 2, *calls)
}

func TestIdempotencySkippedWithoutHeader(t *testing.T) {
	h, calls := idemHandler(t)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 2, *calls)
}
