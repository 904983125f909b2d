// Package security holds the small HTTP hardening middlewares the register
// frontend talks through.
package security

import (
	"net/http"
	"strconv"
)

// Headers sets response headers that keep the API out of browser caches and
// frames. The register UI is the only intended consumer.
type Headers struct {
	Enable     bool
	EnableHSTS bool
	HSTSMaxAge int
}

// Middleware attaches the headers to every response.
func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.Enable {
			next.ServeHTTP(w, r)
			return
		}
		hdr := w.Header()
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("X-Frame-Options", "DENY")
		hdr.Set("Referrer-Policy", "no-referrer")
		hdr.Set("Cache-Control", "no-store")
		if h.EnableHSTS && r.TLS != nil {
			maxAge := h.HSTSMaxAge
			if maxAge <= 0 {
				maxAge = 31536000
			}
			hdr.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(maxAge))
		}
		next.ServeHTTP(w, r)
	})
}
