package security

import (
	"net/http"

	"github.com/ovenline/backend-bakery/internal/common"
)

// BodyLimit caps request payload size. Carts and product payloads are tiny;
// anything near the limit is not a register talking to us.
type BodyLimit struct {
	Max int64
}

// Middleware rejects oversized requests with 413 before handlers read the
// body. Reads past the cap fail inside the handler via MaxBytesReader.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body exceeds limit", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
