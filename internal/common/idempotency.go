package common

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem guards write endpoints against double submission: the first request
// carrying an Idempotency-Key claims it in Redis, replays within the TTL get
// 409. Keys are scoped to the signed-in cashier so two registers reusing the
// same key do not collide.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func idemKey(cashierID, raw string) string {
	sum := sha256.Sum256([]byte(cashierID + "\x00" + raw))
	return "idem:" + hex.EncodeToString(sum[:])
}

// Middleware enforces the claim. Requests without the header pass through.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Idempotency-Key")
		if raw == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		cashier, _ := CashierID(r.Context())
		key := idemKey(cashier, raw)
		claimed, err := i.R.SetNX(r.Context(), key, "1", i.TTL).Result()
		if err != nil {
			// Redis being down should not block sales.
			next.ServeHTTP(w, r)
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
